// Copyright 2023 The poolx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package poolx

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/gogama/poolx/header"
	"github.com/gogama/poolx/pool"
	"github.com/gogama/poolx/redirect"
	"github.com/gogama/poolx/retry"
)

// Do executes one logical request and returns the terminal response.
//
// Do loops over attempts under the request's retry policy: transport
// failures consume connect/read budget, forcelisted statuses consume
// status budget, and followed redirects consume redirect budget, with
// an exponential backoff sleep between consecutive failed attempts.
// Redirects are followed across hosts and pools, stripping sensitive
// headers when the host changes, until a terminal response is reached
// or the budget is exhausted, in which case a *retry.MaxRetryError is
// returned unless the policy opts out of raising.
//
// Each attempt is bounded by the request timeout; ctx bounds the whole
// logical request and cancels retry waits.
//
// When opts.Stream is set the returned Response holds an open
// connection and the caller must drain or Close it; otherwise the body
// is fully read and the connection is back in its pool before Do
// returns.
func (m *Manager) Do(ctx context.Context, method, urlStr string, opts *Options) (*Response, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if opts == nil {
		opts = &Options{}
	}
	if method == "" {
		method = http.MethodGet
	}

	pl, err := buildPayload(method, opts)
	if err != nil {
		return nil, err
	}

	u, err := url.Parse(urlStr)
	if err != nil {
		return nil, err
	}
	if pl.query != nil {
		q := u.Query()
		for k, vs := range pl.query {
			for _, v := range vs {
				q.Add(k, v)
			}
		}
		u.RawQuery = q.Encode()
	}

	hdrs := header.Merge(m.Headers, pl.headers)
	body := pl.body
	retries := m.retries(opts)
	timeout := m.timeout(opts)
	handlers := m.handlers()

	exec := &Execution{Method: method, URL: u}
	handlers.run(ExecutionStart, exec)
	finish := func(err error) error {
		exec.Err = err
		handlers.run(ExecutionEnd, exec)
		return err
	}

	for {
		p, err := m.ConnFromURL(u)
		if err != nil {
			return nil, finish(err)
		}

		req := newRequest(method, u, hdrs, body, opts)

		attemptCtx, cancel := context.WithTimeout(ctx, timeout)
		exec.Method, exec.URL, exec.Response, exec.Err = method, u, nil, nil
		handlers.run(BeforeAttempt, exec)
		resp, conn, rtErr := p.RoundTrip(attemptCtx, req)
		exec.Response, exec.Err = resp, rtErr
		handlers.run(AfterAttempt, exec)
		exec.Attempt++

		if rtErr != nil {
			cancel()
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, finish(ctxErr)
			}
			retries, err = retries.Increment(retry.Classify(rtErr), u.String(), 0, rtErr)
			if err != nil {
				return nil, finish(err)
			}
			if err = m.sleep(ctx, retries.Backoff()); err != nil {
				return nil, finish(err)
			}
			continue
		}

		if loc := redirect.Location(resp); loc != "" && !opts.DisableRedirects {
			target, resErr := redirect.Resolve(u, loc)
			if resErr == nil {
				resErr = redirect.ValidateScheme(target)
			}
			if resErr != nil {
				releaseAttempt(resp, p, conn, cancel)
				return nil, finish(&retry.MaxRetryError{URL: u.String(), Reason: resErr})
			}

			next, incErr := retries.Increment(retry.Redirect, u.String(), resp.StatusCode, nil)
			if incErr != nil {
				if retries.RaiseOnRedirect() {
					releaseAttempt(resp, p, conn, cancel)
					return nil, finish(incErr)
				}
				out, bErr := m.buildResponse(resp, p, conn, cancel, opts)
				return out, finish(bErr)
			}
			retries = next

			hdrs = redirect.StripHeaders(hdrs, u.Hostname(), target.Hostname(), retries.RemoveHeadersOnRedirect())
			if nm := redirect.Method(resp.StatusCode, method); nm != method {
				method = nm
				body = nil
			}
			releaseAttempt(resp, p, conn, cancel)
			u = target
			exec.Method, exec.URL = method, u
			handlers.run(BeforeRedirect, exec)
			if err = m.sleep(ctx, retries.Backoff()); err != nil {
				return nil, finish(err)
			}
			continue
		}

		if retries.IsRetryableStatus(resp.StatusCode) {
			next, incErr := retries.Increment(retry.Status, u.String(), resp.StatusCode, nil)
			if incErr != nil {
				if retries.RaiseOnStatus() {
					releaseAttempt(resp, p, conn, cancel)
					return nil, finish(incErr)
				}
				out, bErr := m.buildResponse(resp, p, conn, cancel, opts)
				return out, finish(bErr)
			}
			retries = next
			releaseAttempt(resp, p, conn, cancel)
			if err = m.sleep(ctx, retries.Backoff()); err != nil {
				return nil, finish(err)
			}
			continue
		}

		out, bErr := m.buildResponse(resp, p, conn, cancel, opts)
		if bErr != nil {
			retries, err = retries.Increment(retry.Read, u.String(), 0, bErr)
			if err != nil {
				return nil, finish(err)
			}
			if err = m.sleep(ctx, retries.Backoff()); err != nil {
				return nil, finish(err)
			}
			continue
		}
		finish(nil)
		return out, nil
	}
}

// newRequest materializes one attempt. The body is replayed from its
// buffered bytes so every retry and redirect hop sends a fresh copy.
func newRequest(method string, u *url.URL, hdrs *header.Dict, body []byte, opts *Options) *http.Request {
	target := redirect.NormalizeTarget(u)
	req := &http.Request{
		Method: method,
		URL:    target,
		Header: hdrs.ToHTTP(),
		Host:   target.Host,
	}
	if len(body) > 0 {
		req.Body = io.NopCloser(bytes.NewReader(body))
		req.GetBody = func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(body)), nil
		}
		req.ContentLength = int64(len(body))
	}
	if !opts.DisableDecoding && !hdrs.Has("Accept-Encoding") {
		req.Header.Set("Accept-Encoding", "gzip")
	}
	return req
}

// releaseAttempt drains and closes a response consumed by the retry
// loop itself, returning the connection for reuse, or discarding it if
// the drain failed and the connection can no longer be trusted.
func releaseAttempt(resp *http.Response, p *pool.Pool, conn pool.Conn, cancel context.CancelFunc) {
	_, err := io.Copy(io.Discard, resp.Body)
	closeErr := resp.Body.Close()
	if err != nil || closeErr != nil {
		p.Discard(conn)
	} else {
		p.Put(conn)
	}
	cancel()
}

func (m *Manager) sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
