// File: server/server_test.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package server_test

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"math/big"
	"net"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/momentics/hioload-async/httpframe"
	"github.com/momentics/hioload-async/server"
)

func writeSelfSignedBundle(t *testing.T, dir string) string {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatal(err)
	}
	tmpl := &x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject:      pkix.Name{CommonName: "127.0.0.1"},
		NotBefore:    time.Now(),
		NotAfter:     time.Now().Add(time.Hour),
		KeyUsage:     x509.KeyUsageDigitalSignature | x509.KeyUsageKeyEncipherment,
		IPAddresses:  []net.IP{net.ParseIP("127.0.0.1")},
	}
	leafDER, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	if err != nil {
		t.Fatal(err)
	}
	caTmpl := &x509.Certificate{
		SerialNumber:          big.NewInt(2),
		Subject:               pkix.Name{CommonName: "test-ca"},
		NotBefore:             time.Now(),
		NotAfter:              time.Now().Add(time.Hour),
		IsCA:                  true,
		BasicConstraintsValid: true,
	}
	caDER, err := x509.CreateCertificate(rand.Reader, caTmpl, caTmpl, &key.PublicKey, key)
	if err != nil {
		t.Fatal(err)
	}

	var out []byte
	out = append(out, pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)})...)
	out = append(out, pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: leafDER})...)
	out = append(out, pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: caDER})...)

	path := filepath.Join(dir, "bundle.pem")
	if err := os.WriteFile(path, out, 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

// TestAcceptUnderBackpressure feeds a batch of plaintext connections and
// expects every one to be accepted exactly once, in line with spec §8
// scenario 6 ("accept under backpressure"). Scaled to 100 connections rather
// than the scenario's 1000 to keep the test's wall-clock bounded; the
// property exercised (no drops, no duplicates under concurrent dials) does
// not depend on the exact count.
func TestAcceptUnderBackpressure(t *testing.T) {
	const n = 100
	const port = 18181

	srv, err := server.Create("127.0.0.1", port, server.WithBacklog(256))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	go srv.Run(ctx)

	accepted := srv.Accept(ctx)
	seen := make(chan struct{}, n)
	go func() {
		for i := 0; i < n; i++ {
			sock, ok, err := accepted.Advance(ctx)
			if err != nil || !ok {
				return
			}
			seen <- struct{}{}
			go sock.Close()
		}
	}()

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			conn, err := net.DialTimeout("tcp", "127.0.0.1:18181", 2*time.Second)
			if err != nil {
				t.Errorf("dial: %v", err)
				return
			}
			conn.Close()
		}()
	}
	wg.Wait()

	count := 0
	timeout := time.After(5 * time.Second)
	for count < n {
		select {
		case <-seen:
			count++
		case <-timeout:
			t.Fatalf("only %d/%d connections accepted", count, n)
		}
	}
}

// TestTLSHandshakeNegotiatesALPN drives a real TLS 1.2/1.3 handshake over
// loopback TCP and checks socket.ALPN() (spec §8 scenario 5).
func TestTLSHandshakeNegotiatesALPN(t *testing.T) {
	const port = 18182
	certPath := writeSelfSignedBundle(t, t.TempDir())

	srv, err := server.Create("127.0.0.1", port, server.WithTLS(certPath, "h2,http/1.1"))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	go srv.Run(ctx)

	accepted := srv.Accept(ctx)
	alpnCh := make(chan string, 1)
	errCh := make(chan error, 1)
	go func() {
		sock, ok, err := accepted.Advance(ctx)
		if err != nil || !ok {
			errCh <- err
			return
		}
		defer sock.Close()
		if ok, err := sock.Handshake(ctx); err != nil || !ok {
			errCh <- err
			return
		}
		alpnCh <- sock.ALPN()
	}()

	clientCfg := &tls.Config{
		InsecureSkipVerify: true,
		NextProtos:         []string{"http/1.1"},
	}
	rawConn, err := net.DialTimeout("tcp", "127.0.0.1:18182", 2*time.Second)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	clientConn := tls.Client(rawConn, clientCfg)
	defer clientConn.Close()
	if err := clientConn.HandshakeContext(ctx); err != nil {
		t.Fatalf("client handshake: %v", err)
	}
	if got := clientConn.ConnectionState().NegotiatedProtocol; got != "http/1.1" {
		t.Fatalf("client negotiated %q, want http/1.1", got)
	}

	select {
	case alpn := <-alpnCh:
		if alpn != "http/1.1" {
			t.Fatalf("server negotiated %q, want http/1.1", alpn)
		}
	case err := <-errCh:
		t.Fatalf("server handshake: %v", err)
	case <-time.After(3 * time.Second):
		t.Fatal("server side handshake never completed")
	}
}

// TestServeDispatchesPlainGET is an end-to-end smoke test combining Accept,
// the HTTP framer, and Serve's session glue (spec §8 scenario 1, driven
// through the real listener rather than a synthetic byte stream).
func TestServeDispatchesPlainGET(t *testing.T) {
	const port = 18183
	srv, err := server.Create("127.0.0.1", port)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	gotPath := make(chan string, 1)
	go srv.Serve(ctx, func(ctx context.Context, req *httpframe.Request) error {
		body := req.Body()
		for {
			_, ok, err := body.Advance(ctx)
			if err != nil || !ok {
				break
			}
		}
		gotPath <- req.Path
		return nil
	})

	time.Sleep(50 * time.Millisecond) // let Serve reach its accept loop
	conn, err := net.DialTimeout("tcp", "127.0.0.1:18183", 2*time.Second)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	if _, err := conn.Write([]byte("GET /ping HTTP/1.1\r\nHost: x\r\nConnection: close\r\n\r\n")); err != nil {
		t.Fatalf("write: %v", err)
	}

	select {
	case path := <-gotPath:
		if path != "/ping" {
			t.Fatalf("got path %q, want /ping", path)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("handler never ran")
	}
}
