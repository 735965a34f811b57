// Copyright 2023 The poolx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package pool

import "strconv"

// A SchemeError reports a URL scheme that no pool can be built for.
// The offending scheme is carried so callers can inspect it.
type SchemeError struct {
	Scheme string
}

func (e *SchemeError) Error() string {
	return "poolx: unsupported URL scheme " + strconv.Quote(e.Scheme)
}

// A ClosedError reports an operation attempted on a pool, or a pool
// manager, that has already been closed.
type ClosedError struct {
	Key Key
}

func (e *ClosedError) Error() string {
	return "poolx: pool " + e.Key.String() + " is closed"
}

// A TimeoutError reports that a blocking pool could not hand out a
// connection before its wait deadline expired.
type TimeoutError struct {
	Key Key
}

func (e *TimeoutError) Error() string {
	return "poolx: no free connection in pool " + e.Key.String() + " before deadline"
}

// Timeout reports true so the error is classified with other timeout
// errors by callers using the net.Error convention.
func (e *TimeoutError) Timeout() bool { return true }
