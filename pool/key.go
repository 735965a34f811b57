// Copyright 2023 The poolx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package pool

import (
	"net"
	"net/url"
	"strconv"
	"strings"
)

// PortByScheme maps each supported URL scheme to the default port used
// when a URL does not name one explicitly.
var PortByScheme = map[string]int{
	"http":  80,
	"https": 443,
}

// A Key identifies one connection pool: one scheme, host, and port.
// Scheme and host are stored lowercased so keys compare
// case-insensitively, and the port is always resolved (never zero).
// Key is comparable and suitable for use as a map key.
type Key struct {
	Scheme string
	Host   string
	Port   int
}

// NewKey builds a Key from a scheme, host, and port, normalizing case
// and resolving a zero port from PortByScheme. It returns a
// *SchemeError if the scheme is not supported.
func NewKey(scheme, host string, port int) (Key, error) {
	scheme = strings.ToLower(scheme)
	def, ok := PortByScheme[scheme]
	if !ok {
		return Key{}, &SchemeError{Scheme: scheme}
	}
	if port == 0 {
		port = def
	}
	return Key{Scheme: scheme, Host: strings.ToLower(host), Port: port}, nil
}

// KeyFromURL builds a Key for the origin of u. It returns a
// *SchemeError if u's scheme is not supported.
func KeyFromURL(u *url.URL) (Key, error) {
	port := 0
	if p := u.Port(); p != "" {
		n, err := strconv.Atoi(p)
		if err != nil {
			return Key{}, err
		}
		port = n
	}
	return NewKey(u.Scheme, u.Hostname(), port)
}

// Addr returns the host:port address for the key, bracketing IPv6
// literals.
func (k Key) Addr() string {
	return net.JoinHostPort(k.Host, strconv.Itoa(k.Port))
}

// String returns the key in scheme://host:port form.
func (k Key) String() string {
	return k.Scheme + "://" + k.Addr()
}
