// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package fositeengine

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/stacklok/oauth2-middleware/pkg/oauth"
)

// toHTTPRequest rebuilds the *http.Request fosite parses. The parsed body is
// re-encoded as a form whatever its original content type, since fosite only
// reads r.Form.
func toHTTPRequest(ctx context.Context, req *oauth.Request) (*http.Request, error) {
	target := &url.URL{Path: "/", RawQuery: req.QueryValues().Encode()}

	form := req.Form()
	hasForm := len(form) > 0 && req.Method() != http.MethodGet && req.Method() != http.MethodHead

	var body io.Reader = http.NoBody
	if hasForm {
		body = strings.NewReader(form.Encode())
	}

	hr, err := http.NewRequestWithContext(ctx, req.Method(), target.String(), body)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	for name, values := range req.Headers() {
		for _, v := range values {
			hr.Header.Add(name, v)
		}
	}
	hr.Header.Del("Content-Length")
	if hasForm {
		hr.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		hr.Header.Del("Content-Type")
	}

	return hr, nil
}

// param reads a parameter from the body, falling back to the query.
func param(req *oauth.Request, name string) string {
	if v := req.BodyString(name); v != "" {
		return v
	}
	return req.Query(name)
}
