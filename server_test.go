// Copyright 2023 The poolx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package poolx

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strconv"
	"strings"
	"testing"
	"time"
)

// Two dummy servers so cross-host behavior (pool routing, sensitive
// header stripping) can be exercised against real listeners.
var (
	server      *httptest.Server
	otherServer *httptest.Server
)

func TestMain(m *testing.M) {
	server = httptest.NewServer(dummyHandler())
	otherServer = httptest.NewServer(dummyHandler())
	code := m.Run()
	server.Close()
	otherServer.Close()
	os.Exit(code)
}

func dummyHandler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "Dummy server!")
	})

	// Issues a redirect to the ?target= URL, with the ?status= code.
	mux.HandleFunc("/redirect", func(w http.ResponseWriter, r *http.Request) {
		target := r.URL.Query().Get("target")
		if target == "" {
			target = "/"
		}
		status := http.StatusSeeOther
		if s := r.URL.Query().Get("status"); s != "" {
			status, _ = strconv.Atoi(s)
		}
		w.Header().Set("Location", target)
		w.WriteHeader(status)
	})

	// Redirects to itself forever.
	mux.HandleFunc("/loop", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Location", "/loop")
		w.WriteHeader(http.StatusSeeOther)
	})

	mux.HandleFunc("/headers", func(w http.ResponseWriter, r *http.Request) {
		seen := make(map[string]string, len(r.Header))
		for name, values := range r.Header {
			seen[name] = strings.Join(values, ", ")
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(seen)
	})

	mux.HandleFunc("/echo", func(w http.ResponseWriter, r *http.Request) {
		if ct := r.Header.Get("Content-Type"); ct != "" {
			w.Header().Set("Content-Type", ct)
		}
		_, _ = io.Copy(w, r.Body)
	})

	mux.HandleFunc("/echo_uri", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, r.RequestURI)
	})

	mux.HandleFunc("/method", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, r.Method)
	})

	mux.HandleFunc("/status", func(w http.ResponseWriter, r *http.Request) {
		status, err := strconv.Atoi(r.URL.Query().Get("status"))
		if err != nil {
			status = http.StatusOK
		}
		w.WriteHeader(status)
	})

	mux.HandleFunc("/slow", func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(250 * time.Millisecond):
		case <-r.Context().Done():
			return
		}
		_, _ = io.WriteString(w, "finally")
	})

	mux.HandleFunc("/encodingrequest", func(w http.ResponseWriter, r *http.Request) {
		const text = "hello, world!"
		if strings.Contains(r.Header.Get("Accept-Encoding"), "gzip") {
			w.Header().Set("Content-Encoding", "gzip")
			zw := gzip.NewWriter(w)
			_, _ = io.WriteString(zw, text)
			_ = zw.Close()
			return
		}
		_, _ = io.WriteString(w, text)
	})

	return mux
}

func ctx() context.Context {
	return context.Background()
}

// headersSeenBy fetches /headers on s through m and decodes what the
// server received.
func headersSeenBy(t *testing.T, m *Manager, s *httptest.Server, opts *Options) map[string]string {
	t.Helper()
	resp, err := m.Do(ctx(), "GET", s.URL+"/headers", opts)
	if err != nil {
		t.Fatalf("fetching /headers: %v", err)
	}
	var seen map[string]string
	if err = resp.JSON(&seen); err != nil {
		t.Fatalf("decoding /headers: %v", err)
	}
	return seen
}
