// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package authserver exposes an OAuth 2.0 authorization server engine as
// net/http middleware.
//
// The middleware translates each request into an oauth.Request, calls one of
// the engine's three verbs and writes the engine's oauth.Response back:
//   - Authenticate validates a bearer token and always continues the chain.
//   - Authorize issues an authorization code and redirects to the client.
//   - Token runs a grant and answers with the issued token.
//
// Results are attached to the request context and read with TokenFromContext
// and CodeFromContext.
//
// # Usage
//
//	srv, err := authserver.New(authserver.Config{
//	    Model:  store, // e.g. a fosite storage.MemoryStore
//	    Engine: oauth.EngineConfig{Issuer: "https://auth.example.com"},
//	})
//	if err != nil {
//	    return err
//	}
//
//	r := chi.NewRouter()
//	r.Use(bodyparser.Middleware)
//	r.Post("/oauth/token", srv.Token(nil)(done).ServeHTTP)
//	r.With(srv.Authenticate(&oauth.AuthenticateOptions{Scope: []string{"read"}})).
//	    Get("/api/profile", profileHandler)
//
// Routes mounts the standard endpoints in one call.
//
// # Errors
//
// With UseErrorHandler unset, engine errors are answered locally:
// unauthorized_request errors with their status and an empty body, all
// others with {"error", "error_description"} as JSON. With UseErrorHandler
// set, the error is passed unchanged to Config.ErrorHandler and nothing is
// written.
//
// # Engine
//
// The default engine is fositeengine, backed by ory/fosite. Any
// oauth.Engine can be plugged in through Config.NewEngine.
package authserver
