// Copyright 2023 The poolx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package redirect

import (
	"net/url"
	"strings"
)

// NormalizeTarget returns a copy of u whose encoded path and query
// form a valid HTTP request target. The fragment is dropped, a bare
// "?" is preserved as an empty query, bytes illegal in the target
// grammar (including "[" and "]") are percent-encoded, and
// percent-escape sequences already present are normalized to uppercase
// hex without being double-encoded. The input URL is not modified.
func NormalizeTarget(u *url.URL) *url.URL {
	v := *u
	v.Fragment = ""
	v.RawFragment = ""

	path := v.EscapedPath()
	if path == "" {
		path = "/"
	}
	encPath := encodeTarget(path, false)
	if decoded, err := url.PathUnescape(encPath); err == nil {
		v.Path = decoded
	}
	if encPath != v.Path {
		v.RawPath = encPath
	} else {
		v.RawPath = ""
	}
	v.RawQuery = encodeTarget(v.RawQuery, true)
	return &v
}

// Unreserved and sub-delim bytes plus the extra members of pchar per
// the request-target grammar of RFC 7230 section 5.3 and RFC 3986
// section 3.3. Query adds "/" and "?".
const targetSafe = "abcdefghijklmnopqrstuvwxyz" +
	"ABCDEFGHIJKLMNOPQRSTUVWXYZ" +
	"0123456789" +
	"-._~!$&'()*+,;=:@/"

const upperHex = "0123456789ABCDEF"

func encodeTarget(s string, query bool) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '%' && i+2 < len(s) && isHex(s[i+1]) && isHex(s[i+2]):
			b.WriteByte('%')
			b.WriteByte(upperHexDigit(s[i+1]))
			b.WriteByte(upperHexDigit(s[i+2]))
			i += 2
		case strings.IndexByte(targetSafe, c) >= 0 || (query && c == '?'):
			b.WriteByte(c)
		default:
			b.WriteByte('%')
			b.WriteByte(upperHex[c>>4])
			b.WriteByte(upperHex[c&0xf])
		}
	}
	return b.String()
}

func isHex(c byte) bool {
	return '0' <= c && c <= '9' || 'a' <= c && c <= 'f' || 'A' <= c && c <= 'F'
}

func upperHexDigit(c byte) byte {
	if 'a' <= c && c <= 'f' {
		return c - 'a' + 'A'
	}
	return c
}
