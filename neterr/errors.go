// File: neterr/errors.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Package neterr defines the error taxonomy from spec §7: transport-fatal,
// TLS-protocol, parse, and broken-promise failures, each carrying a message,
// a numeric code, and a category name for structured logging. Transport
// orderly close and retry-transient conditions are deliberately NOT errors
// here (spec §7): orderly close surfaces as an empty recv / false send,
// and EAGAIN/WANT_POLLIN/WANT_POLLOUT are absorbed by the reactor loop and
// never escape the socket layer.

package neterr

import "fmt"

// Category names the kind of failure, mirroring spec §7's taxonomy.
type Category string

const (
	CategoryTransportFatal Category = "transport_fatal"
	CategoryTLSProtocol    Category = "tls_protocol"
	CategoryParse          Category = "parse_failure"
	CategoryBrokenPromise  Category = "broken_promise"
)

// Error is a typed failure carrying {message, numeric code, category}.
type Error struct {
	Message  string
	Code     int
	Category Category
	Op       string // operation name, e.g. "tls handshake", "tls recv"
	Err      error  // wrapped cause, if any
}

func (e *Error) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("%s: %s (code=%d, category=%s)", e.Op, e.Message, e.Code, e.Category)
	}
	return fmt.Sprintf("%s (code=%d, category=%s)", e.Message, e.Code, e.Category)
}

func (e *Error) Unwrap() error { return e.Err }

// Transport wraps an OS-level non-recoverable failure.
func Transport(op string, code int, err error) error {
	return &Error{Message: err.Error(), Code: code, Category: CategoryTransportFatal, Op: op, Err: err}
}

// TLS wraps a TLS library failure with the operation name that triggered it.
func TLS(op string, err error) error {
	return &Error{Message: err.Error(), Category: CategoryTLSProtocol, Op: op, Err: err}
}

// Parse wraps an HTTP framer parse failure.
func Parse(reason string) error {
	return &Error{Message: reason, Category: CategoryParse, Op: "http parse"}
}
