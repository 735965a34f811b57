// Copyright 2023 The poolx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package retry

import (
	"time"
)

const (
	// DefaultTotal is the total retry budget of the default policy.
	DefaultTotal = 3

	// DefaultBackoffMax caps the computed backoff sleep of any policy
	// that does not set its own cap.
	DefaultBackoffMax = 120 * time.Second

	// Unlimited disables a budget: a counter set to Unlimited never
	// decrements and never exhausts.
	Unlimited = -1

	// useTotal marks a per-kind counter that has no limit of its own
	// and defers to the total budget.
	useTotal = -2
)

// A Policy is an immutable retry and redirect budget for one logical
// request.
//
// A Policy is a value: it is never mutated after construction.
// Consuming budget with Increment returns a decremented copy, so a
// single Policy (for example a client-wide default) may be shared by
// any number of concurrent requests without synchronization, each
// request forking its own chain of decremented copies.
//
// Budgets are tracked in total and per failure Kind. A per-kind budget
// left unset falls back to the total; set to Unlimited it never
// exhausts. The zero value of Policy retries nothing; build policies
// with New or Times.
type Policy struct {
	total    int
	connect  int
	read     int
	redirect int
	status   int
	other    int

	forcelist map[int]struct{}

	backoffFactor float64
	backoffMax    time.Duration

	noRaiseOnRedirect bool
	noRaiseOnStatus   bool

	// nil means strip the default sensitive set on cross-host
	// redirects; an empty non-nil slice strips nothing.
	removeHeaders []string

	history []Attempt
}

// An Attempt records one consumed unit of budget: the kind of failure,
// the status code for status-driven retries, and the underlying error
// for transport failures.
type Attempt struct {
	Kind   Kind
	Status int
	Err    error
}

// An Option configures a Policy under construction.
type Option func(*Policy)

// New constructs a Policy. Without options the policy allows
// DefaultTotal retries of any kind, follows redirects within the same
// budget, raises on redirect and status exhaustion, and strips the
// default sensitive headers on cross-host redirects.
func New(opts ...Option) Policy {
	p := Policy{
		total:      DefaultTotal,
		connect:    useTotal,
		read:       useTotal,
		redirect:   useTotal,
		status:     useTotal,
		other:      useTotal,
		backoffMax: DefaultBackoffMax,
	}
	for _, opt := range opts {
		opt(&p)
	}
	return p
}

// Times constructs a Policy allowing up to n retries in total, with
// all other settings at their defaults.
func Times(n int) Policy {
	return New(WithTotal(n))
}

// Default is the policy applied when neither the manager nor the
// request names one.
var Default = New()

// Disabled is a policy that retries nothing, follows no redirects, and
// surfaces terminal redirect and status responses instead of raising.
var Disabled = New(
	WithTotal(0),
	WithRedirect(0),
	WithRaiseOnRedirect(false),
	WithRaiseOnStatus(false),
)

// WithTotal caps the total number of retries across all kinds. Pass
// Unlimited to remove the cap, leaving only per-kind budgets.
func WithTotal(n int) Option {
	return func(p *Policy) { p.total = n }
}

// WithConnect caps retries of connection-establishment failures.
func WithConnect(n int) Option {
	return func(p *Policy) { p.connect = n }
}

// WithRead caps retries of failures that occur after the request may
// have reached the server.
func WithRead(n int) Option {
	return func(p *Policy) { p.read = n }
}

// WithRedirect caps the number of redirects followed.
func WithRedirect(n int) Option {
	return func(p *Policy) { p.redirect = n }
}

// WithStatus caps retries triggered by the status forcelist.
func WithStatus(n int) Option {
	return func(p *Policy) { p.status = n }
}

// WithOther caps retries of failures that fit no other kind.
func WithOther(n int) Option {
	return func(p *Policy) { p.other = n }
}

// WithStatusForcelist sets the status codes that consume retry budget
// even though the transport succeeded.
func WithStatusForcelist(codes ...int) Option {
	return func(p *Policy) {
		p.forcelist = make(map[int]struct{}, len(codes))
		for _, c := range codes {
			p.forcelist[c] = struct{}{}
		}
	}
}

// WithStatusRange adds every status code in [lo, hi) to the status
// forcelist.
func WithStatusRange(lo, hi int) Option {
	return func(p *Policy) {
		if p.forcelist == nil {
			p.forcelist = make(map[int]struct{}, hi-lo)
		}
		for c := lo; c < hi; c++ {
			p.forcelist[c] = struct{}{}
		}
	}
}

// WithBackoff sets the exponential backoff factor and its cap. A zero
// factor disables backoff sleeps. A zero max keeps DefaultBackoffMax.
func WithBackoff(factor float64, max time.Duration) Option {
	return func(p *Policy) {
		p.backoffFactor = factor
		if max > 0 {
			p.backoffMax = max
		}
	}
}

// WithRaiseOnRedirect controls whether exhausting the redirect budget
// surfaces a *MaxRetryError (true, the default) or returns the last
// redirect response unfollowed (false).
func WithRaiseOnRedirect(raise bool) Option {
	return func(p *Policy) { p.noRaiseOnRedirect = !raise }
}

// WithRaiseOnStatus controls whether exhausting the budget on a
// forcelisted status surfaces a *MaxRetryError (true, the default) or
// returns the last response (false).
func WithRaiseOnStatus(raise bool) Option {
	return func(p *Policy) { p.noRaiseOnStatus = !raise }
}

// WithRemoveHeadersOnRedirect names the headers stripped from a
// request when a redirect moves it to a different host, replacing the
// default sensitive set. Calling it with no names preserves every
// header across cross-host redirects.
func WithRemoveHeadersOnRedirect(names ...string) Option {
	return func(p *Policy) {
		p.removeHeaders = make([]string, len(names))
		copy(p.removeHeaders, names)
	}
}

// RaiseOnRedirect reports whether redirect exhaustion should surface
// an error rather than the unfollowed response.
func (p Policy) RaiseOnRedirect() bool { return !p.noRaiseOnRedirect }

// RaiseOnStatus reports whether exhaustion on a forcelisted status
// should surface an error rather than the response.
func (p Policy) RaiseOnStatus() bool { return !p.noRaiseOnStatus }

// IsRetryableStatus reports whether code is in the status forcelist.
func (p Policy) IsRetryableStatus(code int) bool {
	_, ok := p.forcelist[code]
	return ok
}

// RemoveHeadersOnRedirect returns the header names to strip on a
// cross-host redirect, or nil to mean the default sensitive set.
func (p Policy) RemoveHeadersOnRedirect() []string {
	return p.removeHeaders
}

// History returns the attempts that have consumed budget on this
// policy chain, oldest first.
func (p Policy) History() []Attempt {
	return p.history
}
