// Copyright 2023 The poolx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package poolx

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gogama/poolx/retry"
)

type countingHandler struct {
	mu     sync.Mutex
	counts map[Event]int
	paths  []string
}

func (h *countingHandler) Handle(evt Event, e *Execution) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.counts == nil {
		h.counts = make(map[Event]int)
	}
	h.counts[evt]++
	if evt == BeforeAttempt {
		h.paths = append(h.paths, e.URL.Path)
	}
}

func TestHandlerEventsSimpleRequest(t *testing.T) {
	h := &countingHandler{}
	g := &HandlerGroup{}
	g.PushBack(ExecutionStart, h)
	g.PushBack(BeforeAttempt, h)
	g.PushBack(AfterAttempt, h)
	g.PushBack(BeforeRedirect, h)
	g.PushBack(ExecutionEnd, h)

	m := &Manager{Handlers: g}
	defer m.Close()

	resp, err := m.Get(ctx(), server.URL+"/")
	require.NoError(t, err)
	_, err = resp.Data()
	require.NoError(t, err)

	assert.Equal(t, 1, h.counts[ExecutionStart])
	assert.Equal(t, 1, h.counts[BeforeAttempt])
	assert.Equal(t, 1, h.counts[AfterAttempt])
	assert.Equal(t, 0, h.counts[BeforeRedirect])
	assert.Equal(t, 1, h.counts[ExecutionEnd])
}

func TestHandlerEventsRedirect(t *testing.T) {
	h := &countingHandler{}
	g := &HandlerGroup{}
	g.PushBack(BeforeAttempt, h)
	g.PushBack(BeforeRedirect, h)

	m := &Manager{Handlers: g}
	defer m.Close()

	_, err := m.Get(ctx(), server.URL+"/redirect?target=/echo_uri")
	require.NoError(t, err)

	assert.Equal(t, 2, h.counts[BeforeAttempt])
	assert.Equal(t, 1, h.counts[BeforeRedirect])
	assert.Equal(t, []string{"/redirect", "/echo_uri"}, h.paths)
}

func TestHandlerEventsRetry(t *testing.T) {
	h := &countingHandler{}
	g := &HandlerGroup{}
	g.PushBack(BeforeAttempt, h)
	g.PushBack(AfterAttempt, h)

	policy := retry.New(retry.WithTotal(2), retry.WithStatusRange(500, 600),
		retry.WithRaiseOnStatus(false))
	m := &Manager{Handlers: g, Retries: &policy}
	defer m.Close()

	resp, err := m.Get(ctx(), server.URL+"/status?status=500")
	require.NoError(t, err)
	assert.Equal(t, 500, resp.StatusCode)
	assert.Equal(t, 3, h.counts[BeforeAttempt])
	assert.Equal(t, 3, h.counts[AfterAttempt])
}

func TestHandlerFunc(t *testing.T) {
	var n int
	g := &HandlerGroup{}
	g.PushBack(ExecutionEnd, HandlerFunc(func(evt Event, e *Execution) {
		n++
	}))

	m := &Manager{Handlers: g}
	defer m.Close()

	_, err := m.Get(ctx(), server.URL+"/")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestHandlerGroupPushBackNil(t *testing.T) {
	g := &HandlerGroup{}
	assert.Panics(t, func() { g.PushBack(BeforeAttempt, nil) })
}

func TestEventName(t *testing.T) {
	testCases := []struct {
		evt  Event
		name string
	}{
		{ExecutionStart, "ExecutionStart"},
		{BeforeAttempt, "BeforeAttempt"},
		{AfterAttempt, "AfterAttempt"},
		{BeforeRedirect, "BeforeRedirect"},
		{ExecutionEnd, "ExecutionEnd"},
	}
	for _, testCase := range testCases {
		assert.Equal(t, testCase.name, testCase.evt.Name())
		assert.Equal(t, testCase.name, testCase.evt.String())
	}
}
