// Copyright 2023 The poolx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package retry

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"io"
	"net"
	"syscall"
)

// A Kind names the budget a failed attempt draws from.
type Kind int

const (
	// Other covers failures that fit no more specific kind.
	Other Kind = iota
	// Connect covers failures to establish a connection: dial errors,
	// refused connections, and TLS handshake or certificate errors.
	// A request that failed to connect was never seen by the server,
	// so retrying it is always safe.
	Connect
	// Read covers failures after the connection was established:
	// timeouts, resets, and truncated responses. The server may have
	// processed the request.
	Read
	// Redirect marks budget consumed by following a redirect rather
	// than by a failure.
	Redirect
	// Status marks budget consumed by a response whose status code is
	// in the policy's forcelist.
	Status
)

var kindNames = []string{"other", "connect", "read", "redirect", "status"}

// String returns the name of the kind.
func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "other"
}

// Classify maps a transport error to the retry budget it should draw
// from. It inspects the wrapped cause chain, not just err itself.
//
// Dial-phase failures, refused connections, and TLS trust failures
// classify as Connect. Timeouts, connection resets, and truncated
// reads classify as Read, on the theory that the attempt may have
// reached the server. Everything else, including a nil error, is
// Other.
func Classify(err error) Kind {
	if err == nil {
		return Other
	}

	var op *net.OpError
	if errors.As(err, &op) && op.Op == "dial" {
		return Connect
	}

	var errno syscall.Errno
	if errors.As(err, &errno) {
		switch errno {
		case syscall.ECONNREFUSED:
			return Connect
		case syscall.ECONNRESET, syscall.EPIPE:
			return Read
		}
	}

	var record tls.RecordHeaderError
	var unknownAuthority x509.UnknownAuthorityError
	var hostname x509.HostnameError
	var certInvalid x509.CertificateInvalidError
	if errors.As(err, &record) || errors.As(err, &unknownAuthority) ||
		errors.As(err, &hostname) || errors.As(err, &certInvalid) {
		return Connect
	}

	var timeout interface{ Timeout() bool }
	if errors.As(err, &timeout) && timeout.Timeout() {
		return Read
	}

	if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
		return Read
	}

	return Other
}
