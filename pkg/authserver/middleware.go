// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package authserver

import (
	"context"
	"net/http"

	"github.com/stacklok/oauth2-middleware/pkg/oauth"
)

// Authenticate returns middleware that validates the request's bearer token.
// On success the token is attached to the request context and the next
// handler always runs. opts may be nil.
func (s *Server) Authenticate(opts *oauth.AuthenticateOptions) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			req, err := newProtocolRequest(r)
			if err != nil {
				s.handleError(w, r, err, nil)
				return
			}
			res := newProtocolResponse()

			var token *oauth.Token
			err = s.telemetry.observe(r.Context(), verbAuthenticate, func(ctx context.Context) error {
				var err error
				token, err = s.engine.Authenticate(ctx, req, res, opts)
				return err
			})
			if err != nil {
				// The engine's response is dropped: challenge headers are not
				// forwarded for authenticate.
				s.handleError(w, r, err, nil)
				return
			}

			next.ServeHTTP(w, r.WithContext(withToken(r.Context(), token)))
		})
	}
}

// Authorize returns middleware that runs the authorization endpoint and
// answers with the engine's redirect. opts may be nil.
func (s *Server) Authorize(opts *oauth.AuthorizeOptions) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			req, err := newProtocolRequest(r)
			if err != nil {
				s.handleError(w, r, err, nil)
				return
			}
			res := newProtocolResponse()

			var code *oauth.AuthorizationCode
			err = s.telemetry.observe(r.Context(), verbAuthorize, func(ctx context.Context) error {
				var err error
				code, err = s.engine.Authorize(ctx, req, res, opts)
				return err
			})
			if err != nil {
				s.handleError(w, r, err, res)
				return
			}

			s.respond(w, r.WithContext(withCode(r.Context(), code)), res, next)
		})
	}
}

// Token returns middleware that runs the token endpoint and answers with the
// issued token. opts may be nil.
func (s *Server) Token(opts *oauth.TokenOptions) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			req, err := newProtocolRequest(r)
			if err != nil {
				s.handleError(w, r, err, nil)
				return
			}
			res := newProtocolResponse()

			var token *oauth.Token
			err = s.telemetry.observe(r.Context(), verbToken, func(ctx context.Context) error {
				var err error
				token, err = s.engine.Token(ctx, req, res, opts)
				return err
			})
			if err != nil {
				s.handleError(w, r, err, res)
				return
			}

			s.respond(w, r.WithContext(withToken(r.Context(), token)), res, next)
		})
	}
}

// respond runs next first when ContinueMiddleware is set, then emits res.
func (s *Server) respond(w http.ResponseWriter, r *http.Request, res *oauth.Response, next http.Handler) {
	if s.continueMiddleware {
		next.ServeHTTP(w, r)
	}
	s.emit(w, r, res)
}
