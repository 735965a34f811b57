// Copyright 2023 The poolx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package poolx

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/gogama/poolx/header"
	"github.com/gogama/poolx/pool"
)

// A Response is the terminal result of one logical request.
//
// A preloaded Response (the default) holds its whole body in memory
// and no connection; Data returns the body directly. A streamed
// Response (Options.Stream) holds an open connection until its body is
// fully read or Close is called, at which point the connection returns
// to its pool. Callers of streamed responses must always drain or
// Close them.
type Response struct {
	// StatusCode is the HTTP status code of the terminal response.
	StatusCode int

	// Header holds the terminal response headers.
	Header *header.Dict

	body   []byte
	loaded bool

	rc       io.ReadCloser
	conn     pool.Conn
	owner    *pool.Pool
	released bool
	cancel   context.CancelFunc
}

// buildResponse turns the raw terminal attempt into a Response,
// settling the connection either way: preloading reads the body and
// returns the connection to its pool before returning, while streaming
// hands the live connection to the Response. A non-nil error means the
// body could not be read and the connection was discarded.
func (m *Manager) buildResponse(resp *http.Response, p *pool.Pool, conn pool.Conn, cancel context.CancelFunc, opts *Options) (*Response, error) {
	gzipped := !opts.DisableDecoding &&
		strings.EqualFold(resp.Header.Get("Content-Encoding"), "gzip")

	r := &Response{
		StatusCode: resp.StatusCode,
		Header:     header.FromHTTP(resp.Header),
		owner:      p,
	}

	if opts.Stream {
		rc := resp.Body
		if gzipped {
			zr, err := gzip.NewReader(resp.Body)
			if err != nil {
				_ = resp.Body.Close()
				p.Discard(conn)
				cancel()
				return nil, err
			}
			rc = &gzipBody{zr: zr, under: resp.Body}
		}
		r.rc = rc
		r.conn = conn
		r.cancel = cancel
		return r, nil
	}

	b, err := io.ReadAll(resp.Body)
	closeErr := resp.Body.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		p.Discard(conn)
		cancel()
		return nil, err
	}
	p.Put(conn)
	cancel()

	if gzipped {
		zr, zerr := gzip.NewReader(bytes.NewReader(b))
		if zerr != nil {
			return nil, zerr
		}
		if b, zerr = io.ReadAll(zr); zerr != nil {
			return nil, zerr
		}
		_ = zr.Close()
	}
	r.body = b
	r.loaded = true
	return r, nil
}

// Data returns the complete response body. For a preloaded Response it
// returns the buffered body. For a streamed Response the first call
// reads the body to the end, releases the connection back to its pool,
// and caches the result.
func (r *Response) Data() ([]byte, error) {
	if r.loaded {
		return r.body, nil
	}
	b, err := io.ReadAll(r.rc)
	if err != nil {
		r.release(false)
		return nil, err
	}
	r.release(true)
	r.body = b
	r.loaded = true
	return b, nil
}

// JSON decodes the complete response body into v.
func (r *Response) JSON(v interface{}) error {
	b, err := r.Data()
	if err != nil {
		return err
	}
	return json.Unmarshal(b, v)
}

// Read streams the response body. It returns io.EOF once the body is
// exhausted, at which point the connection has been released. Read on
// a preloaded Response reads from the buffered body.
func (r *Response) Read(p []byte) (int, error) {
	if r.loaded {
		if len(r.body) == 0 {
			return 0, io.EOF
		}
		n := copy(p, r.body)
		r.body = r.body[n:]
		return n, nil
	}
	n, err := r.rc.Read(p)
	if err == io.EOF {
		r.release(true)
	} else if err != nil {
		r.release(false)
	}
	return n, err
}

// Close releases any connection still held by a streamed Response,
// draining the unread remainder of the body so the connection can be
// reused. Close is idempotent and a no-op on preloaded responses.
func (r *Response) Close() error {
	if r.loaded || r.released {
		return nil
	}
	_, err := io.Copy(io.Discard, r.rc)
	r.release(err == nil)
	return err
}

// Conn returns the connection a streamed Response still holds open, or
// nil once the body has been consumed and the connection released.
func (r *Response) Conn() pool.Conn {
	if r.released {
		return nil
	}
	return r.conn
}

// Pool returns the pool that served the terminal response. It is
// informational; the Response manages the connection's lifecycle
// itself.
func (r *Response) Pool() *pool.Pool {
	return r.owner
}

func (r *Response) release(clean bool) {
	if r.released || r.conn == nil {
		return
	}
	r.released = true
	_ = r.rc.Close()
	if clean {
		r.owner.Put(r.conn)
	} else {
		r.owner.Discard(r.conn)
	}
	r.conn = nil
	if r.cancel != nil {
		r.cancel()
	}
}

// gzipBody decodes a gzip response body while keeping the underlying
// connection body around so it can be drained and closed for reuse.
type gzipBody struct {
	zr    *gzip.Reader
	under io.ReadCloser
}

func (b *gzipBody) Read(p []byte) (int, error) {
	return b.zr.Read(p)
}

func (b *gzipBody) Close() error {
	_ = b.zr.Close()
	_, err := io.Copy(io.Discard, b.under)
	closeErr := b.under.Close()
	if err != nil {
		return err
	}
	return closeErr
}
