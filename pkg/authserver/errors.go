// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package authserver

import (
	"net/http"

	"github.com/stacklok/oauth2-middleware/pkg/oauth"
)

// handleError either hands err to the host's error handler or answers it.
// res is the engine's buffered response and may be nil.
func (s *Server) handleError(w http.ResponseWriter, r *http.Request, err error, res *oauth.Response) {
	oauthErr := oauth.ToError(err)
	s.logError(oauthErr)

	if s.useErrorHandler {
		s.errorHandler(w, r, err)
		return
	}

	if res != nil {
		copyHeaders(w, res.Headers)
	}

	status := oauthErr.StatusCode()
	switch oauthErr.Kind {
	case oauth.KindUnauthorizedRequest:
		w.WriteHeader(status)
	default:
		s.writeJSON(w, status, map[string]string{
			"error":             oauthErr.Name,
			"error_description": oauthErr.Message,
		})
	}
}

func (s *Server) logError(err *oauth.Error) {
	switch {
	case err.Kind == oauth.KindInvalidArgument, err.Name == oauth.ErrorNameServerError:
		s.logger.Error("oauth request failed", "error", err.Name, "description", err.Message, "cause", err.Cause)
	default:
		s.logger.Debug("oauth request rejected", "error", err.Name, "description", err.Message)
	}
}

// defaultErrorHandler answers like a framework's final handler would: the
// error's status and its status text.
func defaultErrorHandler(w http.ResponseWriter, _ *http.Request, err error) {
	status := oauth.ToError(err).StatusCode()
	http.Error(w, http.StatusText(status), status)
}
