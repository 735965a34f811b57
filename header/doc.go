// Copyright 2023 The poolx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

/*
Package header provides Dict, an ordered, case-insensitive, multi-valued
HTTP header container used throughout poolx for default and per-request
headers.

Unlike http.Header from net/http, a Dict remembers the order in which
keys were inserted and the case in which they were written, while still
matching keys case-insensitively:

	d := header.New()
	d.Add("Multi", "1")
	d.Add("multi", "2")
	d.Get("MULTI") // "1, 2"

Use Merge to combine client-level default headers with request-scoped
headers without mutating either.
*/
package header
