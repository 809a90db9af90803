// File: certloader/doc.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Package certloader memory-maps a PEM certificate bundle and slices it by
// sentinel order into a PKCS#1 RSA private key, a leaf certificate, and a CA
// chain (spec §6 "Certificate bundle format"). The mapping, grounded on the
// teacher's own unix.Mmap usage in internal/transport/transport_linux_uring.go,
// is kept open for the lifetime of the returned Bundle (spec §5 "The
// certificate-file memory mapping lives as long as the TLS config references
// it").
package certloader
