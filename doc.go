// Copyright 2023 The poolx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

/*
Package poolx provides a pooled HTTP client core: per-origin connection
pools routed by a Manager, an immutable retry budget, and redirect
following with cross-host header hygiene.

Create a Manager to begin making requests.

	m := &poolx.Manager{}
	defer m.Close()
	resp, err := m.Get(ctx, "http://www.example.com")
	...
	resp, err := m.Do(ctx, "POST", "http://www.example.com/upload", &poolx.Options{
		JSON: payload,
	})

The Manager keeps one bounded connection pool per scheme, host, and
port, creating pools on first use and evicting the least recently used
pool beyond NumPools. Requests to the same origin reuse pooled
connections; see package pool for connection-level control.

Retry and redirect behavior is governed by an immutable retry.Policy,
settable per Manager or per request:

	resp, err := m.Do(ctx, "GET", url, &poolx.Options{
		Retries: &policy,
	})

where policy was built with retry.New. Redirects are followed within
the policy's redirect budget, including across hosts; when a redirect
changes hosts, sensitive headers such as Authorization are stripped
from the follow-up request.

For one-off requests the package-level Request function uses a shared
default Manager:

	resp, err := poolx.Request(ctx, "GET", "http://www.example.com", nil)

To hook into the request loop, install handlers into the appropriate
handler chain:

	handlers := &poolx.HandlerGroup{}
	handlers.PushBack(poolx.BeforeAttempt, poolx.HandlerFunc(
		func(_ poolx.Event, e *poolx.Execution) {
			log.Printf("attempt %d to %s", e.Attempt, e.URL)
		}),
	)
	m := &poolx.Manager{Handlers: handlers}
*/
package poolx
