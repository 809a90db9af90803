// File: server/options.go
// Package server defines functional options for Create.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package server

// Option customizes a Config before a Server is created.
type Option func(*Config)

// WithBacklog overrides the listen backlog.
func WithBacklog(n int) Option {
	return func(c *Config) { c.Backlog = n }
}

// WithChunkSize overrides the socket read / body chunk size.
func WithChunkSize(n int) Option {
	return func(c *Config) { c.ChunkSize = n }
}

// WithTLS enables TLS via Configure's certPath/alpn at Create time, as an
// alternative to calling Server.Configure explicitly after Create.
func WithTLS(certPath, alpn string) Option {
	return func(c *Config) {
		c.CertPath = certPath
		c.ALPN = alpn
	}
}
