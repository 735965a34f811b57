// Copyright 2023 The poolx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package poolx

import (
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/gogama/poolx/header"
	"github.com/gogama/poolx/retry"
)

const badBodyTypeMsg = "invalid type (for body use nil, " +
	"string, []byte, io.Reader or io.ReadCloser)"

// Options carry the per-request parameters of a single logical
// request. The zero value sends a bodyless request with the manager's
// default headers and retry policy, follows redirects, preloads the
// response body, and decodes compressed content.
type Options struct {
	// Body is the request body. It may be nil, a string, a []byte, an
	// io.Reader, or an io.ReadCloser; readers are buffered in full
	// before the first attempt so the body can be replayed on retry.
	// Body is mutually exclusive with JSON and with Fields.
	Body interface{}

	// JSON, when non-nil, is serialized as the request body and a
	// Content-Type of application/json is set unless the request
	// already names a content type.
	JSON interface{}

	// Fields are form fields. For bodyless methods (GET, HEAD,
	// DELETE, OPTIONS, TRACE) they are encoded into the URL query;
	// for other methods they become an urlencoded request body.
	Fields url.Values

	// Headers are request-scoped headers, merged over the manager's
	// defaults; on a case-insensitive name collision the request
	// value wins. The Dict is not modified by the request.
	Headers *header.Dict

	// Retries overrides the manager's retry policy for this request.
	Retries *retry.Policy

	// Timeout bounds each individual attempt, connect through body
	// read. Zero means the manager's timeout.
	Timeout time.Duration

	// DisableRedirects returns redirect responses to the caller
	// unexamined instead of following them.
	DisableRedirects bool

	// Stream leaves the connection open and the body unread so the
	// caller can stream it; the connection returns to its pool when
	// the body is fully read or closed. When false the body is read
	// eagerly and the connection is released before Do returns.
	Stream bool

	// DisableDecoding returns the body exactly as received instead of
	// transparently decoding a gzip Content-Encoding.
	DisableDecoding bool
}

// payload is an Options value resolved into wire-ready pieces.
type payload struct {
	body    []byte
	headers *header.Dict
	query   url.Values // appended to the URL for bodyless methods
}

func buildPayload(method string, opts *Options) (payload, error) {
	var pl payload

	if opts.Body != nil && opts.JSON != nil {
		return pl, errBodyAndJSON
	}
	if opts.Body != nil && opts.Fields != nil {
		return pl, errBodyAndFields
	}
	if opts.JSON != nil && opts.Fields != nil {
		return pl, errJSONAndFields
	}

	pl.headers = opts.Headers.Clone()

	switch {
	case opts.JSON != nil:
		b, err := json.Marshal(opts.JSON)
		if err != nil {
			return pl, err
		}
		pl.body = b
		if !pl.headers.Has("Content-Type") {
			pl.headers.Set("Content-Type", "application/json")
		}
	case opts.Fields != nil:
		if bodylessMethod(method) {
			pl.query = opts.Fields
		} else {
			pl.body = []byte(opts.Fields.Encode())
			if !pl.headers.Has("Content-Type") {
				pl.headers.Set("Content-Type", "application/x-www-form-urlencoded")
			}
		}
	default:
		b, err := bodyBytes(opts.Body)
		if err != nil {
			return pl, err
		}
		pl.body = b
	}

	return pl, nil
}

func bodylessMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodDelete,
		http.MethodOptions, http.MethodTrace:
		return true
	}
	return false
}

// bodyBytes buffers a generic body parameter into a byte slice so the
// body can be replayed across retries and redirect hops. An io.Reader
// is read to the end; an io.ReadCloser is additionally closed.
func bodyBytes(body interface{}) ([]byte, error) {
	switch x := body.(type) {
	case nil:
		return nil, nil
	case string:
		return []byte(x), nil
	case []byte:
		return x, nil
	case io.ReadCloser:
		b, err := io.ReadAll(x)
		if err != nil {
			return nil, err
		}
		err = x.Close()
		if err != nil {
			return nil, err
		}
		return b, nil
	case io.Reader:
		return io.ReadAll(x)
	default:
		return nil, ValidationError(badBodyTypeMsg)
	}
}
