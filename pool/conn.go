// Copyright 2023 The poolx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package pool

import (
	"context"
	"crypto/tls"
	"net/http"
)

// A Conn is a single reusable transport connection to one origin. A
// Conn belongs to at most one Pool at a time and is handed to at most
// one request at a time; the Pool provides the synchronization.
//
// RoundTrip must follow the contract documented on http.RoundTripper
// from the net/http package. In particular it must not follow
// redirects; redirect policy belongs to the caller.
type Conn interface {
	RoundTrip(req *http.Request) (*http.Response, error)
	Close() error
}

// A Dialer creates new connections for a pool on demand.
//
// Implementations of Dialer must be safe for concurrent use by
// multiple goroutines.
type Dialer interface {
	Dial(ctx context.Context, key Key) (Conn, error)
}

// The DialerFunc type is an adapter to allow the use of ordinary
// functions as dialers.
type DialerFunc func(ctx context.Context, key Key) (Conn, error)

// Dial calls f(ctx, key).
func (f DialerFunc) Dial(ctx context.Context, key Key) (Conn, error) {
	return f(ctx, key)
}

// DefaultDialer is the dialer used by pools whose options do not name
// one. It produces connections backed by the standard net/http
// transport.
var DefaultDialer Dialer = &TransportDialer{}

// A TransportDialer creates connections backed by a dedicated
// http.Transport per connection, so each Conn corresponds to (at most)
// one physical TCP connection to the origin.
type TransportDialer struct {
	// TLSClientConfig specifies the TLS configuration to use for
	// https connections. A nil value means the standard library
	// defaults.
	TLSClientConfig *tls.Config
}

// Dial returns a new unconnected Conn for the origin identified by
// key. The underlying TCP connection is established lazily on the
// first RoundTrip, so connection failures surface there.
func (d *TransportDialer) Dial(_ context.Context, _ Key) (Conn, error) {
	tr := &http.Transport{
		MaxConnsPerHost:     1,
		MaxIdleConns:        1,
		MaxIdleConnsPerHost: 1,
		DisableCompression:  true,
		ForceAttemptHTTP2:   false,
	}
	if d.TLSClientConfig != nil {
		tr.TLSClientConfig = d.TLSClientConfig.Clone()
	}
	return &transportConn{tr: tr}, nil
}

type transportConn struct {
	tr *http.Transport
}

func (c *transportConn) RoundTrip(req *http.Request) (*http.Response, error) {
	return c.tr.RoundTrip(req)
}

func (c *transportConn) Close() error {
	c.tr.CloseIdleConnections()
	return nil
}
