// Copyright 2023 The poolx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

/*
Package pool provides a bounded pool of reusable HTTP connections to a
single origin, plus the Key type which identifies an origin by scheme,
host, and port.

Most users will not use this package directly; the poolx Manager
creates and routes to pools automatically. Use it directly when you
need connection-level control over a single host:

	key, err := pool.NewKey("http", "example.com", 0)
	...
	p := pool.New(key, pool.Options{MaxSize: 4, Block: true})
	defer p.Close()
	resp, conn, err := p.RoundTrip(ctx, req)
	...
	p.Put(conn)

The Dialer interface decouples the pool from the socket and TLS layer;
TransportDialer adapts the standard net/http transport.
*/
package pool
