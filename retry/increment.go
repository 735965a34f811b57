// Copyright 2023 The poolx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package retry

import (
	"fmt"
	"strconv"
	"time"
)

// A MaxRetryError reports that a retry or redirect budget was
// exhausted. It wraps the terminal underlying cause, which may be a
// transport error, a scheme validation error, or a synthesized
// description of the last response.
type MaxRetryError struct {
	// URL is the URL of the attempt that exhausted the budget.
	URL string

	// Reason is the terminal cause. It is never nil.
	Reason error
}

func (e *MaxRetryError) Error() string {
	return fmt.Sprintf("poolx: max retries exceeded with url %s (caused by: %v)", e.URL, e.Reason)
}

func (e *MaxRetryError) Unwrap() error { return e.Reason }

// Increment consumes one unit of budget of the given kind and returns
// the decremented copy. The receiver is not modified.
//
// For Status increments, status carries the offending response code;
// for Connect, Read, and Other increments, err carries the underlying
// failure. The attempt is appended to the returned policy's history.
//
// If the decremented copy is exhausted, Increment additionally returns
// a *MaxRetryError wrapping the terminal cause; the caller decides,
// based on RaiseOnRedirect and RaiseOnStatus, whether to surface it or
// to return the terminal response instead.
func (p Policy) Increment(kind Kind, url string, status int, err error) (Policy, error) {
	q := p
	q.total = dec(p.total)
	switch kind {
	case Connect:
		q.connect = dec(p.connect)
	case Read:
		q.read = dec(p.read)
	case Redirect:
		q.redirect = dec(p.redirect)
	case Status:
		q.status = dec(p.status)
	default:
		q.other = dec(p.other)
	}

	history := make([]Attempt, len(p.history), len(p.history)+1)
	copy(history, p.history)
	q.history = append(history, Attempt{Kind: kind, Status: status, Err: err})

	if q.IsExhausted() {
		return q, &MaxRetryError{URL: url, Reason: q.reason(kind, status, err)}
	}
	return q, nil
}

// IsExhausted reports whether any bounded budget has been consumed
// past zero.
func (p Policy) IsExhausted() bool {
	for _, n := range [...]int{p.total, p.connect, p.read, p.redirect, p.status, p.other} {
		if n != Unlimited && n != useTotal && n < 0 {
			return true
		}
	}
	return false
}

// Backoff returns the time to sleep before the next attempt. It grows
// exponentially with the length of the trailing run of consecutive
// error attempts in the history, ignoring redirects, and is zero until
// that run is at least two attempts long.
func (p Policy) Backoff() time.Duration {
	consecutive := 0
	for i := len(p.history) - 1; i >= 0; i-- {
		if p.history[i].Kind == Redirect {
			break
		}
		consecutive++
	}
	if consecutive <= 1 || p.backoffFactor <= 0 {
		return 0
	}

	backoff := p.backoffFactor * float64(int64(1)<<uint(consecutive-1))
	d := time.Duration(backoff * float64(time.Second))
	if d < 0 || d > p.backoffMax {
		return p.backoffMax
	}
	return d
}

func (p Policy) reason(kind Kind, status int, err error) error {
	if err != nil {
		return err
	}
	switch kind {
	case Redirect:
		return errTooManyRedirects
	case Status:
		return &statusError{status: status}
	default:
		return errUnknownCause
	}
}

var (
	errTooManyRedirects = fmt.Errorf("too many redirects")
	errUnknownCause     = fmt.Errorf("retry budget exhausted")
)

// A statusError describes a response whose status code repeatedly
// triggered the status forcelist.
type statusError struct {
	status int
}

func (e *statusError) Error() string {
	return "too many " + strconv.Itoa(e.status) + " error responses"
}

func dec(n int) int {
	if n == Unlimited || n == useTotal {
		return n
	}
	return n - 1
}
