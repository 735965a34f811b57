// Copyright 2023 The poolx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package poolx

// A ValidationError reports malformed or mutually exclusive request
// arguments. It is always returned before any network activity.
type ValidationError string

func (e ValidationError) Error() string {
	return "poolx: " + string(e)
}

const (
	errBodyAndJSON   = ValidationError("request got values for both 'body' and 'json' parameters which are mutually exclusive")
	errBodyAndFields = ValidationError("request got values for both 'body' and 'fields' parameters which are mutually exclusive")
	errJSONAndFields = ValidationError("request got values for both 'json' and 'fields' parameters which are mutually exclusive")
)
