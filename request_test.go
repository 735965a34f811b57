// Copyright 2023 The poolx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package poolx

import (
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gogama/poolx/header"
)

func TestGetBasic(t *testing.T) {
	m := &Manager{}
	defer m.Close()

	resp, err := m.Get(ctx(), server.URL+"/")
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
	b, err := resp.Data()
	require.NoError(t, err)
	assert.Equal(t, "Dummy server!", string(b))
}

func TestHeadBasic(t *testing.T) {
	m := &Manager{}
	defer m.Close()

	resp, err := m.Head(ctx(), server.URL+"/")
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
	b, err := resp.Data()
	require.NoError(t, err)
	assert.Empty(t, b)
}

func TestPostBody(t *testing.T) {
	m := &Manager{}
	defer m.Close()

	testCases := []struct {
		name string
		body interface{}
	}{
		{"String", "hello, body"},
		{"Bytes", []byte("hello, body")},
		{"Reader", strings.NewReader("hello, body")},
	}
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			resp, err := m.Do(ctx(), "POST", server.URL+"/echo", &Options{Body: testCase.body})
			require.NoError(t, err)
			b, err := resp.Data()
			require.NoError(t, err)
			assert.Equal(t, "hello, body", string(b))
		})
	}
}

func TestJSONBody(t *testing.T) {
	m := &Manager{}
	defer m.Close()

	resp, err := m.Do(ctx(), "POST", server.URL+"/echo", &Options{
		JSON: map[string]interface{}{"attribute": "value"},
	})
	require.NoError(t, err)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var decoded map[string]string
	require.NoError(t, resp.JSON(&decoded))
	assert.Equal(t, map[string]string{"attribute": "value"}, decoded)
}

func TestJSONBodyCustomContentType(t *testing.T) {
	m := &Manager{}
	defer m.Close()

	h := header.New()
	h.Set("Content-Type", "application/json-patch+json")
	resp, err := m.Do(ctx(), "POST", server.URL+"/echo", &Options{
		JSON:    []map[string]string{{"op": "remove", "path": "/a"}},
		Headers: h,
	})
	require.NoError(t, err)
	assert.Equal(t, "application/json-patch+json", resp.Header.Get("Content-Type"))
}

func TestFieldsAsQuery(t *testing.T) {
	m := &Manager{}
	defer m.Close()

	resp, err := m.Do(ctx(), "GET", server.URL+"/echo_uri", &Options{
		Fields: url.Values{"b": {"2"}, "a": {"1"}},
	})
	require.NoError(t, err)
	b, err := resp.Data()
	require.NoError(t, err)
	assert.Equal(t, "/echo_uri?a=1&b=2", string(b))
}

func TestFieldsMergeWithQuery(t *testing.T) {
	m := &Manager{}
	defer m.Close()

	resp, err := m.Do(ctx(), "GET", server.URL+"/echo_uri?x=9", &Options{
		Fields: url.Values{"a": {"1"}},
	})
	require.NoError(t, err)
	b, err := resp.Data()
	require.NoError(t, err)
	assert.Equal(t, "/echo_uri?a=1&x=9", string(b))
}

func TestFieldsAsBody(t *testing.T) {
	m := &Manager{}
	defer m.Close()

	resp, err := m.Do(ctx(), "POST", server.URL+"/echo", &Options{
		Fields: url.Values{"b": {"2"}, "a": {"1"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "application/x-www-form-urlencoded", resp.Header.Get("Content-Type"))
	b, err := resp.Data()
	require.NoError(t, err)
	assert.Equal(t, "a=1&b=2", string(b))
}

func TestMutuallyExclusiveParameters(t *testing.T) {
	m := &Manager{}
	defer m.Close()

	testCases := []struct {
		name string
		opts Options
	}{
		{"BodyAndJSON", Options{Body: "x", JSON: map[string]string{}}},
		{"BodyAndFields", Options{Body: "x", Fields: url.Values{"a": {"1"}}}},
		{"JSONAndFields", Options{JSON: map[string]string{}, Fields: url.Values{"a": {"1"}}}},
	}
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			// A bogus URL proves validation happens before any
			// network activity.
			opts := testCase.opts
			_, err := m.Do(ctx(), "POST", "http://invalid.invalid/", &opts)
			var valErr ValidationError
			require.ErrorAs(t, err, &valErr)
			assert.Contains(t, valErr.Error(), "mutually exclusive")
		})
	}
}

func TestBadBodyType(t *testing.T) {
	m := &Manager{}
	defer m.Close()

	_, err := m.Do(ctx(), "POST", "http://invalid.invalid/", &Options{Body: 42})
	var valErr ValidationError
	require.ErrorAs(t, err, &valErr)
	assert.Contains(t, valErr.Error(), "invalid type")
}

func TestDefaultHeadersMerged(t *testing.T) {
	defaults := header.New()
	defaults.Set("User-Agent", "poolx-test-agent")
	defaults.Set("X-Both", "manager")
	m := &Manager{Headers: defaults}
	defer m.Close()

	h := header.New()
	h.Set("x-both", "request")
	seen := headersSeenBy(t, m, server, &Options{Headers: h})
	assert.Equal(t, "poolx-test-agent", seen["User-Agent"])
	assert.Equal(t, "request", seen["X-Both"], "request header wins a case-insensitive collision")
}

func TestRequestHeadersNotModified(t *testing.T) {
	defaults := header.New()
	defaults.Set("X-Default", "yes")
	m := &Manager{Headers: defaults}
	defer m.Close()

	h := header.New()
	h.Set("X-Request", "yes")
	_, err := m.Get(ctx(), server.URL+"/")
	require.NoError(t, err)
	_, err = m.Do(ctx(), "GET", server.URL+"/", &Options{Headers: h})
	require.NoError(t, err)

	assert.Equal(t, []string{"X-Request"}, h.Keys())
	assert.Equal(t, []string{"X-Default"}, defaults.Keys())
}

func TestRequestTargetOnWire(t *testing.T) {
	m := &Manager{}
	defer m.Close()

	testCases := []struct {
		path string
		want string
	}{
		{"/echo_uri", "/echo_uri"},
		{"/echo_uri?q=1#fragment", "/echo_uri?q=1"},
		{"/echo_uri?%3f", "/echo_uri?%3F"},
		{"/echo_uri?%3F", "/echo_uri?%3F"},
		{"/echo_uri?[]", "/echo_uri?%5B%5D"},
	}
	for _, testCase := range testCases {
		t.Run(testCase.path, func(t *testing.T) {
			resp, err := m.Get(ctx(), server.URL+testCase.path)
			require.NoError(t, err)
			b, err := resp.Data()
			require.NoError(t, err)
			assert.Equal(t, testCase.want, string(b))
		})
	}
}

func TestConnReuse(t *testing.T) {
	m := &Manager{}
	defer m.Close()

	for i := 0; i < 3; i++ {
		resp, err := m.Get(ctx(), server.URL+"/")
		require.NoError(t, err)
		_, err = resp.Data()
		require.NoError(t, err)
	}

	u, err := url.Parse(server.URL)
	require.NoError(t, err)
	p, err := m.ConnFromURL(u)
	require.NoError(t, err)
	stats := p.Stats()
	assert.Equal(t, int64(1), stats.Connections)
	assert.Equal(t, int64(3), stats.Requests)
}

func TestConcurrentRequestsBounded(t *testing.T) {
	m := &Manager{MaxSize: 2, Block: true}
	defer m.Close()

	const workers = 8
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		go func() {
			resp, err := m.Get(ctx(), server.URL+"/")
			if err == nil {
				_, err = resp.Data()
			}
			errs <- err
		}()
	}
	for i := 0; i < workers; i++ {
		require.NoError(t, <-errs)
	}

	u, err := url.Parse(server.URL)
	require.NoError(t, err)
	p, err := m.ConnFromURL(u)
	require.NoError(t, err)
	assert.LessOrEqual(t, p.Stats().Connections, int64(2))
}

func TestPackageLevelHelpers(t *testing.T) {
	m := &Manager{}
	defer m.Close()

	t.Run("Get", func(t *testing.T) {
		resp, err := Get(ctx(), m, server.URL+"/")
		require.NoError(t, err)
		assert.Equal(t, 200, resp.StatusCode)
	})

	t.Run("Head", func(t *testing.T) {
		resp, err := Head(ctx(), m, server.URL+"/")
		require.NoError(t, err)
		assert.Equal(t, 200, resp.StatusCode)
	})

	t.Run("Post", func(t *testing.T) {
		resp, err := Post(ctx(), m, server.URL+"/echo", "text/plain", "hi")
		require.NoError(t, err)
		assert.Equal(t, "text/plain", resp.Header.Get("Content-Type"))
		b, err := resp.Data()
		require.NoError(t, err)
		assert.Equal(t, "hi", string(b))
	})

	t.Run("PostForm", func(t *testing.T) {
		resp, err := PostForm(ctx(), m, server.URL+"/echo", url.Values{"a": {"1"}})
		require.NoError(t, err)
		b, err := resp.Data()
		require.NoError(t, err)
		assert.Equal(t, "a=1", string(b))
	})
}

func TestRequestThroughDefaultManager(t *testing.T) {
	resp, err := Request(ctx(), "GET", server.URL+"/", nil)
	require.NoError(t, err)
	b, err := resp.Data()
	require.NoError(t, err)
	assert.Equal(t, "Dummy server!", string(b))
}
