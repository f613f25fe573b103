// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package oauth

//go:generate mockgen -destination=mocks/mock_engine.go -package=mocks -source=engine.go Engine

import (
	"context"
	"crypto"
	"log/slog"
	"time"
)

// Token is the result of a successful authenticate or token call.
type Token struct {
	AccessToken           string
	AccessTokenExpiresAt  time.Time
	RefreshToken          string
	RefreshTokenExpiresAt time.Time
	Scope                 []string

	// ClientID identifies the client the token was issued to.
	ClientID string

	// Subject identifies the resource owner, empty for client-only grants.
	Subject string

	// Extra holds engine-specific fields of the token response.
	Extra map[string]any
}

// AuthorizationCode is the result of a successful authorize call.
type AuthorizationCode struct {
	Code        string
	RedirectURI string
	ExpiresAt   time.Time
	Scope       []string
	ClientID    string
	Subject     string
}

// AuthenticateOptions tunes a single authenticate verb.
type AuthenticateOptions struct {
	// Scope lists the scopes the access token must have been granted.
	Scope []string

	// AddAcceptedScopesHeader sets X-Accepted-OAuth-Scopes on the engine's
	// response. The authserver middleware discards that response on
	// authenticate, so the header only reaches callers using an Engine
	// directly.
	AddAcceptedScopesHeader bool

	// AddAuthorizedScopesHeader sets X-OAuth-Scopes on the engine's response.
	// Like AddAcceptedScopesHeader it is not forwarded by the middleware.
	AddAuthorizedScopesHeader bool

	// AllowBearerTokensInQueryString accepts ?access_token=.
	// RFC 6750 Section 2.3 discourages it.
	AllowBearerTokensInQueryString bool
}

// AuthenticateHandlerFunc resolves the resource owner for an authorization
// request. It returns the subject identifier.
type AuthenticateHandlerFunc func(ctx context.Context, req *Request, res *Response) (string, error)

// AuthorizeOptions tunes a single authorize verb.
type AuthorizeOptions struct {
	// AuthenticateHandler resolves the user. When nil the bearer token on the
	// request is authenticated instead.
	AuthenticateHandler AuthenticateHandlerFunc
}

// TokenOptions tunes a single token verb.
type TokenOptions struct {
	// AllowExtendedTokenAttributes keeps non-standard fields of the engine's
	// token response in the body. Standard fields are always emitted.
	AllowExtendedTokenAttributes bool
}

// Engine is an OAuth 2.0 protocol engine. Each verb may mutate res even when
// it returns an error.
type Engine interface {
	Authenticate(ctx context.Context, req *Request, res *Response, opts *AuthenticateOptions) (*Token, error)
	Authorize(ctx context.Context, req *Request, res *Response, opts *AuthorizeOptions) (*AuthorizationCode, error)
	Token(ctx context.Context, req *Request, res *Response, opts *TokenOptions) (*Token, error)
}

// SigningKey is an asymmetric key used to sign JWT access tokens.
type SigningKey struct {
	// KeyID is placed in the JWT "kid" header.
	KeyID string

	// Algorithm is the JWS algorithm, e.g. "RS256".
	Algorithm string

	// Key is the private key.
	Key crypto.Signer
}

// EngineConfig is the configuration handed to an engine constructor. It has
// no room for middleware-only flags.
type EngineConfig struct {
	// Model supplies the persistence capabilities the engine needs. Which
	// capabilities are required is decided per verb by the engine.
	Model any `json:"-" yaml:"-"`

	// Issuer is placed in the "iss" claim of JWT access tokens.
	Issuer string `json:"issuer,omitempty" yaml:"issuer,omitempty"`

	// AccessTokenLifespan defaults to 1 hour.
	AccessTokenLifespan time.Duration `json:"accessTokenLifespan,omitempty" yaml:"accessTokenLifespan,omitempty"`

	// RefreshTokenLifespan defaults to 14 days.
	RefreshTokenLifespan time.Duration `json:"refreshTokenLifespan,omitempty" yaml:"refreshTokenLifespan,omitempty"`

	// AuthorizationCodeLifespan defaults to 5 minutes.
	AuthorizationCodeLifespan time.Duration `json:"authorizationCodeLifespan,omitempty" yaml:"authorizationCodeLifespan,omitempty"`

	// Secret signs opaque tokens. At least 32 bytes; generated when empty,
	// which only suits single-instance deployments.
	Secret []byte `json:"-" yaml:"-"`

	// SigningKey switches access tokens to JWTs when set.
	SigningKey *SigningKey `json:"-" yaml:"-"`

	// RefreshTokenScopes lists scopes of which one must be granted for a
	// refresh token to be issued. Nil means "offline" or "offline_access";
	// an empty slice issues refresh tokens unconditionally.
	RefreshTokenScopes []string `json:"refreshTokenScopes,omitempty" yaml:"refreshTokenScopes,omitempty"`

	// EnforcePKCE requires PKCE for every authorization code request.
	EnforcePKCE bool `json:"enforcePKCE,omitempty" yaml:"enforcePKCE,omitempty"`

	// MinParameterEntropy is the minimum length of state and nonce.
	// Defaults to 8.
	MinParameterEntropy int `json:"minParameterEntropy,omitempty" yaml:"minParameterEntropy,omitempty"`

	// Logger receives engine diagnostics.
	Logger *slog.Logger `json:"-" yaml:"-"`
}

// EngineFactory constructs an Engine.
type EngineFactory func(cfg EngineConfig) (Engine, error)
