// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package authserver

import (
	"encoding/json"
	"net/http"

	"github.com/stacklok/oauth2-middleware/pkg/oauth"
)

// emit writes res to w. A 302 is sent with http.Redirect after the location
// header has been taken out of the copied headers, so it is written once.
func (s *Server) emit(w http.ResponseWriter, r *http.Request, res *oauth.Response) {
	if res.Status == http.StatusFound {
		headers := res.HeaderCopy()
		location := headers["location"]
		delete(headers, "location")
		copyHeaders(w, headers)
		http.Redirect(w, r, location, http.StatusFound)
		return
	}

	copyHeaders(w, res.Headers)

	status := res.Status
	if status == 0 {
		status = http.StatusOK
	}

	switch body := res.Body.(type) {
	case nil:
		w.WriteHeader(status)
	case []byte:
		w.WriteHeader(status)
		_, _ = w.Write(body)
	case string:
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	default:
		s.writeJSON(w, status, body)
	}
}

func copyHeaders(w http.ResponseWriter, headers map[string]string) {
	for name, value := range headers {
		w.Header().Set(name, value)
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body any) {
	data, err := json.Marshal(body)
	if err != nil {
		s.logger.Error("failed to encode response body", "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	if w.Header().Get("Content-Type") == "" {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
	}
	w.WriteHeader(status)
	_, _ = w.Write(data)
}
