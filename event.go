// Copyright 2023 The poolx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package poolx

import (
	"net/http"
	"net/url"
)

// An Event identifies the plug-in point when installing or running a
// Handler. Install event handlers in a Manager to observe or extend
// the request loop; handlers are the library's observability surface.
type Event int

const (
	// ExecutionStart fires once per logical request, before the first
	// attempt. Only the method and URL of the Execution are set.
	ExecutionStart Event = iota
	// BeforeAttempt fires before each attempt, including retries and
	// redirect hops. The Execution's URL reflects the attempt target.
	BeforeAttempt
	// AfterAttempt fires after each attempt, successful or not.
	// Either the Execution's Response or its Err is set.
	AfterAttempt
	// BeforeRedirect fires after a redirect has been accepted against
	// the policy budget and before the request moves to the new
	// target. The Execution's URL is the target being moved to.
	BeforeRedirect
	// ExecutionEnd fires once per logical request, after the terminal
	// response or error is known.
	ExecutionEnd
	// eventSentinel provides the total number of events typed as an
	// Event.
	eventSentinel

	numEvents = int(eventSentinel)
)

var eventNames = []string{
	"ExecutionStart",
	"BeforeAttempt",
	"AfterAttempt",
	"BeforeRedirect",
	"ExecutionEnd",
}

// Name returns the name of the event.
func (evt Event) Name() string {
	return eventNames[int(evt)]
}

// String returns the name of the event.
func (evt Event) String() string {
	return evt.Name()
}

// An Execution is the state of one logical request as seen by event
// handlers. Handlers must treat its fields as read-only.
type Execution struct {
	// Method is the method of the current attempt. It can change
	// across a 303 redirect.
	Method string

	// URL is the target of the current attempt.
	URL *url.URL

	// Attempt is the zero-based number of the current attempt,
	// counting retries and redirect hops alike.
	Attempt int

	// Response is the response of the most recent attempt, or nil if
	// the attempt failed or has not completed.
	Response *http.Response

	// Err is the transport error of the most recent attempt, or nil.
	Err error
}
