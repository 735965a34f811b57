// Copyright 2023 The poolx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package poolx

import (
	"context"
	"net/url"
	"sync"
)

// Requester is the interface that wraps the basic Do method.
//
// Do executes one logical request, following pooling, retry, and
// redirect policy, and returns the terminal response. Manager
// implements Requester, and any other implementation must behave
// substantially the same as Manager.Do.
type Requester interface {
	Do(ctx context.Context, method, url string, opts *Options) (*Response, error)
}

// Closer is the interface that wraps the basic Close method, which
// releases every pooled connection held by the implementation.
type Closer interface {
	Close()
}

// Client is the interface that groups the basic Do and Close methods.
type Client interface {
	Requester
	Closer
}

// Get issues a GET to the specified URL through r.
func Get(ctx context.Context, r Requester, url string) (*Response, error) {
	return r.Do(ctx, "GET", url, nil)
}

// Head issues a HEAD to the specified URL through r.
func Head(ctx context.Context, r Requester, url string) (*Response, error) {
	return r.Do(ctx, "HEAD", url, nil)
}

// Post issues a POST to the specified URL through r.
//
// The body parameter may be nil for an empty body, or may be any of
// the types supported by Options.Body, namely: string; []byte;
// io.Reader; and io.ReadCloser.
func Post(ctx context.Context, r Requester, url, contentType string, body interface{}) (*Response, error) {
	opts := &Options{Body: body}
	if contentType != "" {
		opts.Headers = opts.Headers.Clone()
		opts.Headers.Set("Content-Type", contentType)
	}
	return r.Do(ctx, "POST", url, opts)
}

// PostForm issues a POST to the specified URL through r, with data's
// keys and values urlencoded as the request body.
func PostForm(ctx context.Context, r Requester, url string, data url.Values) (*Response, error) {
	return r.Do(ctx, "POST", url, &Options{Fields: data})
}

// Get issues a GET to the specified URL, using the same policies
// followed by Do.
func (m *Manager) Get(ctx context.Context, url string) (*Response, error) {
	return Get(ctx, m, url)
}

// Head issues a HEAD to the specified URL, using the same policies
// followed by Do.
func (m *Manager) Head(ctx context.Context, url string) (*Response, error) {
	return Head(ctx, m, url)
}

// Post issues a POST to the specified URL, using the same policies
// followed by Do.
func (m *Manager) Post(ctx context.Context, url, contentType string, body interface{}) (*Response, error) {
	return Post(ctx, m, url, contentType, body)
}

// PostForm issues a POST to the specified URL, with data's keys and
// values urlencoded as the request body.
func (m *Manager) PostForm(ctx context.Context, url string, data url.Values) (*Response, error) {
	return PostForm(ctx, m, url, data)
}

var (
	defaultManager     *Manager
	defaultManagerOnce sync.Once
)

// DefaultManager returns the process-wide Manager used by the
// package-level Request function. It is created on first use and is
// never closed.
func DefaultManager() *Manager {
	defaultManagerOnce.Do(func() {
		defaultManager = &Manager{}
	})
	return defaultManager
}

// Request issues a request through the process-wide default Manager.
// It is a convenience for one-off requests; applications making many
// requests should create and reuse their own Manager.
func Request(ctx context.Context, method, url string, opts *Options) (*Response, error) {
	return DefaultManager().Do(ctx, method, url, opts)
}
