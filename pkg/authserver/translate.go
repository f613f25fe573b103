// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package authserver

import (
	"mime"
	"net/http"
	"slices"

	"github.com/stacklok/oauth2-middleware/pkg/authserver/bodyparser"
	"github.com/stacklok/oauth2-middleware/pkg/oauth"
)

// newProtocolRequest translates r. The body is the one the host's body
// parser left on the context. Without one, urlencoded bodies are read with
// ParseForm and anything else is treated as empty.
func newProtocolRequest(r *http.Request) (*oauth.Request, error) {
	body, ok := bodyparser.FromContext(r.Context())
	if !ok {
		body = formBody(r)
	}
	return oauth.NewRequest(r.Method, r.Header, r.URL.Query(), body)
}

func newProtocolResponse() *oauth.Response {
	return oauth.NewResponse()
}

func formBody(r *http.Request) map[string]any {
	if r.Body == nil || r.Body == http.NoBody {
		return nil
	}
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil || mediaType != "application/x-www-form-urlencoded" {
		return nil
	}
	// A malformed body is left for the engine to reject.
	if err := r.ParseForm(); err != nil {
		return nil
	}

	body := make(map[string]any, len(r.PostForm))
	for k, v := range r.PostForm {
		if len(v) == 1 {
			body[k] = v[0]
		} else {
			body[k] = slices.Clone(v)
		}
	}
	return body
}
