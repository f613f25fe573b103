// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package oauth

import (
	"maps"
	"net/http"
	"strings"
)

// Response is the protocol-neutral response an engine fills in. It is built
// once per request and read by the middleware when emitting the final answer.
type Response struct {
	// Status is the HTTP status code. Defaults to 200.
	Status int

	// Headers holds response headers keyed by lower-cased name.
	Headers map[string]string

	// Body is the response payload, typically a map or nil.
	Body any
}

// NewResponse returns an empty 200 response.
func NewResponse() *Response {
	return &Response{
		Status:  http.StatusOK,
		Headers: make(map[string]string),
	}
}

// Get returns the named header.
func (r *Response) Get(name string) string {
	return r.Headers[strings.ToLower(name)]
}

// Set sets the named header.
func (r *Response) Set(name, value string) {
	if r.Headers == nil {
		r.Headers = make(map[string]string)
	}
	r.Headers[strings.ToLower(name)] = value
}

// Del removes the named header.
func (r *Response) Del(name string) {
	delete(r.Headers, strings.ToLower(name))
}

// Redirect points the response at location with a 302.
func (r *Response) Redirect(location string) {
	r.Set("location", location)
	r.Status = http.StatusFound
}

// HeaderCopy returns a copy of the headers.
func (r *Response) HeaderCopy() map[string]string {
	out := make(map[string]string, len(r.Headers))
	maps.Copy(out, r.Headers)
	return out
}
