// Copyright 2023 The poolx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package pool

import (
	"context"
	"net/http"
	"sync"
	"time"
)

// DefaultMaxSize is the idle connection capacity of a pool whose
// options do not set one.
const DefaultMaxSize = 1

// Options configure a Pool.
type Options struct {
	// MaxSize is the maximum number of connections kept idle for
	// reuse. In blocking mode it is also a hard cap on the number of
	// connections that exist at once. Zero means DefaultMaxSize.
	MaxSize int

	// Block, when true, makes Get wait for a connection to be
	// released once MaxSize connections exist, instead of creating an
	// excess connection that will be discarded after use.
	Block bool

	// Timeout bounds how long a blocking Get waits for a released
	// connection. Zero means wait until the Get context is done.
	Timeout time.Duration

	// Dialer creates new connections. Nil means DefaultDialer.
	Dialer Dialer
}

// Stats is a snapshot of a pool's lifetime counters.
type Stats struct {
	// Connections is the number of connections the pool has created.
	// Reusing an idle connection does not increment it.
	Connections int64

	// Requests is the number of requests the pool has served,
	// counting each round trip once regardless of which connection
	// carried it.
	Requests int64
}

// A Pool owns a bounded set of reusable connections to a single
// origin identified by its Key. It is safe for concurrent use by
// multiple goroutines.
//
// Connections are checked out with Get and returned with Put, or
// dropped with Discard if they can no longer be trusted. RoundTrip
// bundles checkout, the request itself, and failure discard.
type Pool struct {
	key     Key
	dialer  Dialer
	maxSize int
	block   bool
	timeout time.Duration

	// slots holds one token per permitted connection in blocking
	// mode, nil otherwise. A checked-out or idle connection holds no
	// token; tokens represent the right to hold a connection.
	slots chan struct{}

	mu       sync.Mutex
	idle     []Conn
	closed   bool
	created  int64
	requests int64
}

// New constructs a Pool for the origin identified by key.
func New(key Key, opts Options) *Pool {
	p := &Pool{
		key:     key,
		dialer:  opts.Dialer,
		maxSize: opts.MaxSize,
		block:   opts.Block,
		timeout: opts.Timeout,
	}
	if p.dialer == nil {
		p.dialer = DefaultDialer
	}
	if p.maxSize < 1 {
		p.maxSize = DefaultMaxSize
	}
	if p.block {
		p.slots = make(chan struct{}, p.maxSize)
		for i := 0; i < p.maxSize; i++ {
			p.slots <- struct{}{}
		}
	}
	return p
}

// Key returns the origin identity of the pool.
func (p *Pool) Key() Key { return p.key }

// Get checks a connection out of the pool. An idle connection is
// reused if one is available; otherwise a new connection is created.
// In blocking mode, once MaxSize connections exist Get waits for one
// to be released, bounded by the pool's Timeout and by ctx, and fails
// with a *TimeoutError if the wait deadline expires first.
//
// Get fails with a *ClosedError if the pool has been closed.
func (p *Pool) Get(ctx context.Context) (Conn, error) {
	if p.slots != nil {
		if err := p.takeSlot(ctx); err != nil {
			return nil, err
		}
	}

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		p.putSlot()
		return nil, &ClosedError{Key: p.key}
	}
	if n := len(p.idle); n > 0 {
		conn := p.idle[n-1]
		p.idle = p.idle[:n-1]
		p.mu.Unlock()
		return conn, nil
	}
	p.created++
	p.mu.Unlock()

	conn, err := p.dialer.Dial(ctx, p.key)
	if err != nil {
		p.putSlot()
		return nil, err
	}
	return conn, nil
}

// Put returns a checked-out connection to the idle set for reuse. If
// the pool is closed the connection is closed instead. If the idle set
// is already full, which can happen in non-blocking mode when excess
// connections were created, the connection is closed and discarded.
func (p *Pool) Put(conn Conn) {
	if conn == nil {
		return
	}
	p.mu.Lock()
	if !p.closed && len(p.idle) < p.maxSize {
		p.idle = append(p.idle, conn)
		p.mu.Unlock()
		p.putSlot()
		return
	}
	p.mu.Unlock()
	_ = conn.Close()
	p.putSlot()
}

// Discard closes a checked-out connection without returning it to the
// idle set, freeing its capacity for a replacement. Use it when the
// connection is broken, for example after a transport error.
func (p *Pool) Discard(conn Conn) {
	if conn == nil {
		return
	}
	_ = conn.Close()
	p.putSlot()
}

// RoundTrip checks out a connection, sends req on it, and returns the
// response together with the connection still checked out; the caller
// must Put the connection back once the response body has been
// consumed. On a transport error the connection is discarded and only
// the error is returned.
func (p *Pool) RoundTrip(ctx context.Context, req *http.Request) (*http.Response, Conn, error) {
	conn, err := p.Get(ctx)
	if err != nil {
		return nil, nil, err
	}

	p.mu.Lock()
	p.requests++
	p.mu.Unlock()

	resp, err := conn.RoundTrip(req.WithContext(ctx))
	if err != nil {
		p.Discard(conn)
		return nil, nil, err
	}
	return resp, conn, nil
}

// Close closes every idle connection and marks the pool closed.
// Connections currently checked out are closed as they are returned.
// Subsequent Get calls fail with a *ClosedError. Close is idempotent.
func (p *Pool) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	idle := p.idle
	p.idle = nil
	p.mu.Unlock()

	for _, conn := range idle {
		_ = conn.Close()
	}
}

// Stats returns a snapshot of the pool's lifetime counters.
func (p *Pool) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return Stats{Connections: p.created, Requests: p.requests}
}

func (p *Pool) takeSlot(ctx context.Context) error {
	select {
	case <-p.slots:
		return nil
	default:
	}

	var timeout <-chan time.Time
	if p.timeout > 0 {
		timer := time.NewTimer(p.timeout)
		defer timer.Stop()
		timeout = timer.C
	}

	select {
	case <-p.slots:
		return nil
	case <-timeout:
		return &TimeoutError{Key: p.key}
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *Pool) putSlot() {
	if p.slots != nil {
		p.slots <- struct{}{}
	}
}
