// Copyright 2023 The poolx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package header

import (
	"net/http"
	"strconv"
	"strings"

	"golang.org/x/net/http/httpguts"
)

// A Dict is an ordered, case-insensitive, multi-valued collection of
// HTTP header fields.
//
// Keys are matched case-insensitively but the Dict remembers the case
// in which each key was first written, and iteration visits keys in
// insertion order. A key may hold multiple values: Add appends a value
// to the key's value list, while Set replaces the whole list.
//
// The zero value of Dict is ready to use. Dict is not safe for
// concurrent use by multiple goroutines; clone it instead of sharing
// it across requests.
type Dict struct {
	entries map[string]*entry
	order   []string // lowercased keys, insertion order
}

type entry struct {
	name   string // case as first written
	values []string
}

// New constructs an empty Dict.
func New() *Dict {
	return &Dict{}
}

// FromMap constructs a Dict from a plain map. Iteration order over a Go
// map is unspecified, so the resulting key order is likewise
// unspecified; use New and Add when order matters.
func FromMap(m map[string]string) *Dict {
	d := New()
	for k, v := range m {
		d.Set(k, v)
	}
	return d
}

// FromHTTP constructs a Dict from an http.Header, preserving the
// per-key value order. Key order follows Go map iteration and is
// unspecified.
func FromHTTP(h http.Header) *Dict {
	d := New()
	for k, vs := range h {
		for _, v := range vs {
			d.Add(k, v)
		}
	}
	return d
}

func (d *Dict) init() {
	if d.entries == nil {
		d.entries = make(map[string]*entry)
	}
}

// Add appends value to the list of values stored under key. If the key
// is new, it is placed at the end of the iteration order. Add panics if
// key is not a valid HTTP header field name.
func (d *Dict) Add(key, value string) {
	checkName(key)
	d.init()
	lk := strings.ToLower(key)
	if e, ok := d.entries[lk]; ok {
		e.values = append(e.values, value)
		return
	}
	d.entries[lk] = &entry{name: key, values: []string{value}}
	d.order = append(d.order, lk)
}

// Set replaces all values stored under key with the single given value.
// A key already present keeps its position in the iteration order but
// adopts the case of the name passed to Set. Set panics if key is not a
// valid HTTP header field name.
func (d *Dict) Set(key, value string) {
	checkName(key)
	d.init()
	lk := strings.ToLower(key)
	if e, ok := d.entries[lk]; ok {
		e.name = key
		e.values = []string{value}
		return
	}
	d.entries[lk] = &entry{name: key, values: []string{value}}
	d.order = append(d.order, lk)
}

// Get returns the values stored under key joined with ", ", matching
// the key case-insensitively. It returns "" if the key is absent; use
// Has to distinguish an absent key from an empty value.
func (d *Dict) Get(key string) string {
	e := d.entries[strings.ToLower(key)]
	if e == nil {
		return ""
	}
	return strings.Join(e.values, ", ")
}

// Values returns the list of values stored under key in the order they
// were added, or nil if the key is absent. The returned slice is a
// copy.
func (d *Dict) Values(key string) []string {
	e := d.entries[strings.ToLower(key)]
	if e == nil {
		return nil
	}
	vs := make([]string, len(e.values))
	copy(vs, e.values)
	return vs
}

// Has reports whether the Dict contains the key, matched
// case-insensitively.
func (d *Dict) Has(key string) bool {
	_, ok := d.entries[strings.ToLower(key)]
	return ok
}

// Del removes the key and all its values, matched case-insensitively.
func (d *Dict) Del(key string) {
	lk := strings.ToLower(key)
	if _, ok := d.entries[lk]; !ok {
		return
	}
	delete(d.entries, lk)
	for i, k := range d.order {
		if k == lk {
			d.order = append(d.order[:i], d.order[i+1:]...)
			break
		}
	}
}

// Len returns the number of distinct keys in the Dict.
func (d *Dict) Len() int {
	return len(d.order)
}

// Keys returns the keys in insertion order, each in the case it was
// last written with Set or first written with Add.
func (d *Dict) Keys() []string {
	ks := make([]string, 0, len(d.order))
	for _, lk := range d.order {
		ks = append(ks, d.entries[lk].name)
	}
	return ks
}

// Clone returns a deep copy of the Dict. Cloning a nil Dict returns a
// new empty Dict.
func (d *Dict) Clone() *Dict {
	c := New()
	if d == nil {
		return c
	}
	for _, lk := range d.order {
		e := d.entries[lk]
		for _, v := range e.values {
			c.Add(e.name, v)
		}
	}
	return c
}

// Merge returns a new Dict combining base and over. Neither input is
// modified. Keys from base appear first in their original order with
// all their values, except that any key also present in over (matched
// case-insensitively) takes over's values and name case instead. Keys
// only in over follow in over's order.
func Merge(base, over *Dict) *Dict {
	m := New()
	if base != nil {
		for _, lk := range base.order {
			e := base.entries[lk]
			if over != nil {
				if o, ok := over.entries[lk]; ok {
					for _, v := range o.values {
						m.Add(o.name, v)
					}
					continue
				}
			}
			for _, v := range e.values {
				m.Add(e.name, v)
			}
		}
	}
	if over != nil {
		for _, lk := range over.order {
			if m.Has(lk) {
				continue
			}
			e := over.entries[lk]
			for _, v := range e.values {
				m.Add(e.name, v)
			}
		}
	}
	return m
}

// Equal reports whether two Dicts hold the same keys and values. Key
// case and key order are ignored; the order of repeated values for the
// same key is significant.
func (d *Dict) Equal(o *Dict) bool {
	if d == nil {
		d = New()
	}
	if o == nil {
		o = New()
	}
	if len(d.entries) != len(o.entries) {
		return false
	}
	for lk, e := range d.entries {
		oe, ok := o.entries[lk]
		if !ok || len(e.values) != len(oe.values) {
			return false
		}
		for i := range e.values {
			if e.values[i] != oe.values[i] {
				return false
			}
		}
	}
	return true
}

// ToHTTP converts the Dict to an http.Header suitable for sending with
// the standard transport. Multi-values are kept as separate entries.
func (d *Dict) ToHTTP() http.Header {
	if d == nil {
		return make(http.Header)
	}
	h := make(http.Header, d.Len())
	for _, lk := range d.order {
		e := d.entries[lk]
		ck := http.CanonicalHeaderKey(e.name)
		h[ck] = append(h[ck], e.values...)
	}
	return h
}

func checkName(key string) {
	if !httpguts.ValidHeaderFieldName(key) {
		panic("poolx/header: invalid header field name " + strconv.Quote(key))
	}
}
