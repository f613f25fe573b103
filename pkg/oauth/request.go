// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package oauth

import (
	"encoding/json"
	"maps"
	"mime"
	"net/url"
	"strconv"
	"strings"
)

// Request is an immutable, protocol-neutral view over an incoming request.
// Header names are lower-cased. Body values are string, []string or
// map[string]any, as produced by the host's body parser.
type Request struct {
	method  string
	headers map[string][]string
	query   url.Values
	body    map[string]any
}

// NewRequest builds a Request. Header names are lower-cased and all inputs
// are copied so later changes by the caller are not observed.
func NewRequest(method string, headers map[string][]string, query url.Values, body map[string]any) (*Request, error) {
	if method == "" {
		return nil, MissingParameter("method")
	}

	h := make(map[string][]string, len(headers))
	for name, values := range headers {
		key := strings.ToLower(name)
		h[key] = append(h[key], values...)
	}

	q := make(url.Values, len(query))
	for k, v := range query {
		q[k] = append([]string(nil), v...)
	}

	b := make(map[string]any, len(body))
	maps.Copy(b, body)

	return &Request{
		method:  strings.ToUpper(method),
		headers: h,
		query:   q,
		body:    b,
	}, nil
}

// Method returns the upper-cased HTTP method.
func (r *Request) Method() string {
	return r.method
}

// Header returns the first value of the named header, matched case-insensitively.
func (r *Request) Header(name string) string {
	values := r.headers[strings.ToLower(name)]
	if len(values) == 0 {
		return ""
	}
	return values[0]
}

// HeaderValues returns every value of the named header.
func (r *Request) HeaderValues(name string) []string {
	return append([]string(nil), r.headers[strings.ToLower(name)]...)
}

// Headers returns a copy of all headers keyed by lower-cased name.
func (r *Request) Headers() map[string][]string {
	out := make(map[string][]string, len(r.headers))
	for k, v := range r.headers {
		out[k] = append([]string(nil), v...)
	}
	return out
}

// Query returns the first value of the named query parameter.
func (r *Request) Query(name string) string {
	return r.query.Get(name)
}

// QueryValues returns a copy of the query parameters.
func (r *Request) QueryValues() url.Values {
	out := make(url.Values, len(r.query))
	for k, v := range r.query {
		out[k] = append([]string(nil), v...)
	}
	return out
}

// Body returns the raw parsed body value for name.
func (r *Request) Body(name string) any {
	return r.body[name]
}

// BodyString returns the body value for name as a string. JSON numbers and
// booleans are formatted, lists yield their first element, nested objects
// and absent keys yield "".
func (r *Request) BodyString(name string) string {
	switch v := r.body[name].(type) {
	case []string:
		if len(v) > 0 {
			return v[0]
		}
	case []any:
		if len(v) > 0 {
			s, _ := scalarString(v[0])
			return s
		}
	default:
		s, _ := scalarString(v)
		return s
	}
	return ""
}

func scalarString(v any) (string, bool) {
	switch val := v.(type) {
	case string:
		return val, true
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64), true
	case json.Number:
		return val.String(), true
	case bool:
		return strconv.FormatBool(val), true
	default:
		return "", false
	}
}

// HasBody reports whether name is present in the parsed body.
func (r *Request) HasBody(name string) bool {
	_, ok := r.body[name]
	return ok
}

// BodyValues returns a shallow copy of the parsed body.
func (r *Request) BodyValues() map[string]any {
	out := make(map[string]any, len(r.body))
	maps.Copy(out, r.body)
	return out
}

// Form flattens the parsed body into url.Values. Nested objects are skipped.
func (r *Request) Form() url.Values {
	form := make(url.Values, len(r.body))
	for k, v := range r.body {
		switch val := v.(type) {
		case []string:
			for _, s := range val {
				form.Add(k, s)
			}
		case []any:
			for _, item := range val {
				if s, ok := scalarString(item); ok {
					form.Add(k, s)
				}
			}
		default:
			if s, ok := scalarString(val); ok {
				form.Add(k, s)
			}
		}
	}
	return form
}

// Is reports whether the request's media type matches one of types.
// Types may be full media types ("application/json") or subtypes ("json").
func (r *Request) Is(types ...string) bool {
	contentType := r.Header("content-type")
	if contentType == "" {
		return false
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	for _, t := range types {
		t = strings.ToLower(t)
		if t == mediaType {
			return true
		}
		if !strings.Contains(t, "/") && strings.HasSuffix(mediaType, "/"+t) {
			return true
		}
	}
	return false
}
