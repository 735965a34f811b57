// Copyright 2023 The poolx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

/*
Package retry provides the immutable retry and redirect budget applied
to every poolx request.

A Policy is a value. Consuming budget never mutates the policy in
place; Increment returns a decremented copy, so one default policy can
be shared safely by concurrent requests:

	policy := retry.New(
		retry.WithTotal(5),
		retry.WithStatusForcelist(429, 502, 503, 504),
		retry.WithBackoff(0.5, 30*time.Second),
	)

Budgets are divided by failure Kind: connection establishment, reads,
redirects, forcelisted statuses, and everything else. Classify maps a
transport error onto the kind whose budget it consumes.
*/
package retry
