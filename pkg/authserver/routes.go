// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package authserver

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-jose/go-jose/v4"

	"github.com/stacklok/oauth2-middleware/pkg/authserver/bodyparser"
	"github.com/stacklok/oauth2-middleware/pkg/oauth"
)

// DefaultJWKSCacheMaxAge is the Cache-Control max-age for the JWKS endpoint.
const DefaultJWKSCacheMaxAge = 3600

// RoutesOptions configures Routes.
type RoutesOptions struct {
	Authorize  *oauth.AuthorizeOptions
	Token      *oauth.TokenOptions
	BodyParser bodyparser.Options
}

// jwksProvider is implemented by engines that sign access tokens.
type jwksProvider interface {
	PublicJWKS() *jose.JSONWebKeySet
}

// Routes returns a router serving the token and authorization endpoints,
// plus /.well-known/jwks.json when the engine publishes verification keys:
//   - POST /oauth/token
//   - GET, POST /oauth/authorize
//   - GET /.well-known/jwks.json
func (s *Server) Routes(opts RoutesOptions) http.Handler {
	done := http.HandlerFunc(func(http.ResponseWriter, *http.Request) {})

	r := chi.NewRouter()
	r.Use(bodyparser.New(opts.BodyParser))

	r.Method(http.MethodPost, "/oauth/token", s.Token(opts.Token)(done))

	authorize := s.Authorize(opts.Authorize)(done)
	r.Method(http.MethodGet, "/oauth/authorize", authorize)
	r.Method(http.MethodPost, "/oauth/authorize", authorize)

	if p, ok := s.engine.(jwksProvider); ok {
		if jwks := p.PublicJWKS(); jwks != nil {
			r.Get("/.well-known/jwks.json", s.jwksHandler(jwks))
		}
	}

	return r
}

func (s *Server) jwksHandler(jwks *jose.JSONWebKeySet) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		data, err := json.Marshal(jwks)
		if err != nil {
			s.logger.Error("failed to encode JWKS", "error", err)
			http.Error(w, "internal server error", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", fmt.Sprintf("public, max-age=%d", DefaultJWKSCacheMaxAge))
		w.Header().Set("X-Content-Type-Options", "nosniff")
		_, _ = w.Write(data)
	}
}
