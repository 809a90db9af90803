// File: tlsbridge/config.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package tlsbridge

import (
	"crypto/tls"
	"strings"
)

// defaultCipherSuites is the "RSA AEAD suites + ChaCha20" list from spec
// §4.7, named the way nabbar-golib/certificates/cipher enumerates them.
// TLS 1.3 suites are not listed here: crypto/tls selects its own fixed set
// for 1.3 and ignores CipherSuites for that version.
var defaultCipherSuites = []uint16{
	tls.TLS_RSA_WITH_AES_128_GCM_SHA256,
	tls.TLS_RSA_WITH_AES_256_GCM_SHA384,
	tls.TLS_ECDHE_RSA_WITH_AES_128_GCM_SHA256,
	tls.TLS_ECDHE_RSA_WITH_AES_256_GCM_SHA384,
	tls.TLS_ECDHE_RSA_WITH_CHACHA20_POLY1305,
}

// ServerConfig builds the shared *tls.Config a server clones per connection
// (spec §4.7). alpn is a comma-separated protocol list, e.g. "h2,http/1.1";
// an empty string disables ALPN negotiation.
func ServerConfig(cert tls.Certificate, alpn string) *tls.Config {
	cfg := &tls.Config{
		Certificates: []tls.Certificate{cert},
		CipherSuites: defaultCipherSuites,
		// PreferServerCipherSuites is ignored by the standard library since
		// Go 1.18 (the server's list order always wins); kept set for
		// parity with the source's explicit "prefer server ciphers" intent.
		PreferServerCipherSuites: true,
	}
	if alpn != "" {
		cfg.NextProtos = strings.Split(alpn, ",")
	}
	return cfg
}
