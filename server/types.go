// File: server/types.go
// Package server defines the high-level Server API and configuration.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package server

// Config holds the parameters for server.Create/Configure (spec §4.9).
type Config struct {
	Host string // bind host; empty means all interfaces (AI_PASSIVE)
	Port int
	Backlog int // listen backlog passed to socket.Listen; 0 selects a default

	CertPath string // PEM bundle path (spec §6); empty disables TLS
	ALPN     string // comma-separated protocol list, e.g. "h2,http/1.1"

	ChunkSize int // socket read / HTTP body chunk size, spec default 4096

	logger Logger
}

// DefaultConfig returns safe defaults for a plaintext HTTP/1.x listener.
func DefaultConfig() *Config {
	return &Config{
		Backlog:   128,
		ChunkSize: 4096,
		logger:    defaultLogger,
	}
}
