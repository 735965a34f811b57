// Copyright 2023 The poolx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package poolx

import (
	"net/url"
	"sync"
	"time"

	"github.com/golang/groupcache/lru"

	"github.com/gogama/poolx/header"
	"github.com/gogama/poolx/pool"
	"github.com/gogama/poolx/retry"
)

const (
	// DefaultNumPools is the pool registry capacity of a Manager
	// whose NumPools field is zero.
	DefaultNumPools = 10

	// DefaultTimeout is the per-attempt timeout of a Manager whose
	// Timeout field is zero.
	DefaultTimeout = 30 * time.Second
)

// A Manager routes requests to per-origin connection pools, creating
// pools lazily and evicting the least-recently-used pool when the
// registry is full. Its zero value is a valid configuration.
//
// A Manager holds internal state (its pool registry and the cached
// connections inside each pool), so Manager instances should be reused
// instead of created per request, and Close should be called when the
// Manager is no longer needed:
//
//	m := &poolx.Manager{MaxSize: 4}
//	defer m.Close()
//
// Manager is safe for concurrent use by multiple goroutines.
type Manager struct {
	// NumPools caps how many per-origin pools the Manager keeps.
	// Inserting a pool beyond the cap closes and evicts the pool that
	// was least recently routed to. Zero means DefaultNumPools.
	NumPools int

	// MaxSize is the per-pool idle connection capacity, and with
	// Block the per-pool connection cap. Zero means
	// pool.DefaultMaxSize.
	MaxSize int

	// Block makes pools wait for a released connection instead of
	// creating excess connections past MaxSize.
	Block bool

	// PoolTimeout bounds how long a blocking pool waits for a free
	// connection. Zero means wait until the request context is done.
	PoolTimeout time.Duration

	// Headers are default headers sent with every request. Request
	// headers are merged over them; on a case-insensitive name
	// collision the request value wins.
	Headers *header.Dict

	// Retries is the default retry policy for requests that do not
	// carry their own. Nil means retry.Default.
	Retries *retry.Policy

	// Timeout bounds each individual request attempt, connect through
	// body read. Zero means DefaultTimeout.
	Timeout time.Duration

	// Dialer creates connections inside each pool. Nil means
	// pool.DefaultDialer.
	Dialer pool.Dialer

	// Handlers allows custom handler chains to be invoked at
	// designated events in the request loop. Nil means no handlers.
	Handlers *HandlerGroup

	mu      sync.Mutex
	pools   *lru.Cache // pool.Key -> *pool.Pool
	evicted []*pool.Pool
	closed  bool
}

// locked; lazily builds the registry so the zero value works.
func (m *Manager) init() {
	if m.pools != nil {
		return
	}
	n := m.NumPools
	if n < 1 {
		n = DefaultNumPools
	}
	m.pools = lru.New(n)
	m.pools.OnEvicted = func(_ lru.Key, value interface{}) {
		m.evicted = append(m.evicted, value.(*pool.Pool))
	}
}

// ConnFromHost returns the pool for the given scheme, host, and port,
// creating and registering it if needed. A zero port is resolved from
// the scheme's default. Routing to an existing pool marks it as
// recently used; creating one may evict and close the
// least-recently-used pool.
func (m *Manager) ConnFromHost(scheme, host string, port int) (*pool.Pool, error) {
	key, err := pool.NewKey(scheme, host, port)
	if err != nil {
		return nil, err
	}
	return m.connFromKey(key)
}

// ConnFromURL returns the pool serving the origin of u, with the same
// registration and eviction behavior as ConnFromHost. It fails with a
// *pool.SchemeError if u's scheme is unsupported.
func (m *Manager) ConnFromURL(u *url.URL) (*pool.Pool, error) {
	key, err := pool.KeyFromURL(u)
	if err != nil {
		return nil, err
	}
	return m.connFromKey(key)
}

func (m *Manager) connFromKey(key pool.Key) (*pool.Pool, error) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil, &pool.ClosedError{Key: key}
	}
	m.init()

	if v, ok := m.pools.Get(key); ok {
		m.mu.Unlock()
		return v.(*pool.Pool), nil
	}

	p := pool.New(key, pool.Options{
		MaxSize: m.MaxSize,
		Block:   m.Block,
		Timeout: m.PoolTimeout,
		Dialer:  m.Dialer,
	})
	m.pools.Add(key, p)
	evicted := m.evicted
	m.evicted = nil
	m.mu.Unlock()

	// Closing outside the lock so a slow eviction cannot stall
	// routing to unrelated hosts.
	for _, ep := range evicted {
		ep.Close()
	}
	return p, nil
}

// Len returns the number of pools currently registered.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.pools == nil {
		return 0
	}
	return m.pools.Len()
}

// Close closes every registered pool and all their connections and
// marks the Manager closed. Subsequent requests fail with a
// *pool.ClosedError. Close is idempotent.
func (m *Manager) Close() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	var evicted []*pool.Pool
	if m.pools != nil {
		m.pools.Clear() // routes every pool through OnEvicted
		evicted = m.evicted
		m.evicted = nil
	}
	m.mu.Unlock()

	for _, p := range evicted {
		p.Close()
	}
}

func (m *Manager) timeout(opts *Options) time.Duration {
	if opts.Timeout > 0 {
		return opts.Timeout
	}
	if m.Timeout > 0 {
		return m.Timeout
	}
	return DefaultTimeout
}

func (m *Manager) retries(opts *Options) retry.Policy {
	if opts.Retries != nil {
		return *opts.Retries
	}
	if m.Retries != nil {
		return *m.Retries
	}
	return retry.Default
}

func (m *Manager) handlers() *HandlerGroup {
	if m.Handlers != nil {
		return m.Handlers
	}
	return &emptyHandlers
}

var emptyHandlers HandlerGroup
