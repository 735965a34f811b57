// Copyright 2023 The poolx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package redirect

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/gogama/poolx/header"
	"github.com/gogama/poolx/pool"
)

// DefaultRemoveHeaders is the set of sensitive headers stripped from a
// request when a redirect moves it to a different host and the retry
// policy does not name its own set.
var DefaultRemoveHeaders = []string{"Authorization", "Cookie", "Proxy-Authorization"}

// Location returns the target of a redirect response: the Location
// header value if the status code is a redirect, or "" otherwise.
func Location(resp *http.Response) string {
	if !IsRedirect(resp.StatusCode) {
		return ""
	}
	return resp.Header.Get("Location")
}

// IsRedirect reports whether status is a redirect status code.
func IsRedirect(status int) bool {
	switch status {
	case http.StatusMovedPermanently, http.StatusFound, http.StatusSeeOther,
		http.StatusTemporaryRedirect, http.StatusPermanentRedirect:
		return true
	}
	return false
}

// Resolve resolves a Location value against the URL of the request
// that produced it. Absolute targets are returned as-is; path-relative
// and host-relative targets are resolved against base.
func Resolve(base *url.URL, location string) (*url.URL, error) {
	return base.Parse(location)
}

// ValidateScheme fails with a *pool.SchemeError if no pool could route
// a request to u. Call it on every redirect target before following:
// an unfollowable redirect is a hard error, not a pass-through.
func ValidateScheme(u *url.URL) error {
	if _, ok := pool.PortByScheme[strings.ToLower(u.Scheme)]; !ok {
		return &pool.SchemeError{Scheme: u.Scheme}
	}
	return nil
}

// Method returns the method to use after a redirect. A 303 See Other
// converts everything except HEAD to a bodyless GET; all other
// redirect statuses preserve the original method.
func Method(status int, method string) string {
	if status == http.StatusSeeOther && method != http.MethodHead {
		return http.MethodGet
	}
	return method
}

// StripHeaders returns a copy of h suitable for sending to targetHost
// after a redirect from origHost. If the two hosts are equal,
// case-insensitively, no headers are stripped. Otherwise the headers
// named by remove are deleted, matched case-insensitively; a nil
// remove list means DefaultRemoveHeaders, while an empty non-nil list
// strips nothing. The input Dict is never modified.
func StripHeaders(h *header.Dict, origHost, targetHost string, remove []string) *header.Dict {
	out := h.Clone()
	if strings.EqualFold(origHost, targetHost) {
		return out
	}
	if remove == nil {
		remove = DefaultRemoveHeaders
	}
	for _, name := range remove {
		out.Del(name)
	}
	return out
}
