// Copyright 2023 The poolx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

/*
Package redirect resolves redirect responses into follow-up requests:
it detects redirect statuses, resolves absolute and relative Location
targets, validates target schemes, rewrites the method after a 303,
strips sensitive headers when a redirect crosses hosts, and normalizes
the percent-encoding of the outgoing request target.
*/
package redirect
