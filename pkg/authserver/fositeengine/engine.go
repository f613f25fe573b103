// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package fositeengine presents ory/fosite through the three-verb
// oauth.Engine contract.
//
// The model handed to New is used as fosite storage. Which storage
// interfaces it must implement is decided per verb and per grant type when a
// request arrives; a model lacking a capability yields an invalid_argument
// error naming the missing method instead of failing at construction.
//
// Access tokens are opaque HMAC tokens unless a signing key is configured,
// in which case they are JWTs whose public key is exposed by PublicJWKS.
package fositeengine

import (
	"context"
	"crypto/rand"
	"fmt"
	"log/slog"
	"time"

	josev3 "github.com/go-jose/go-jose/v3"
	"github.com/go-jose/go-jose/v4"
	"github.com/ory/fosite"
	"github.com/ory/fosite/compose"
	"github.com/ory/fosite/handler/oauth2"
	"github.com/ory/fosite/handler/pkce"
	"github.com/ory/fosite/token/jwt"

	"github.com/stacklok/oauth2-middleware/pkg/logger"
	"github.com/stacklok/oauth2-middleware/pkg/oauth"
)

const (
	// MinSecretLength is the minimum length of the HMAC secret in bytes.
	MinSecretLength = 32

	defaultAccessTokenLifespan       = time.Hour
	defaultRefreshTokenLifespan      = 14 * 24 * time.Hour
	defaultAuthorizationCodeLifespan = 5 * time.Minute
)

// Engine is an oauth.Engine backed by a fosite provider.
type Engine struct {
	model    any
	issuer   string
	provider fosite.OAuth2Provider
	jwks     *jose.JSONWebKeySet
	logger   *slog.Logger
}

var _ oauth.Engine = (*Engine)(nil)

// New builds an Engine. Only configuration errors are reported here; model
// capabilities are checked when a verb runs.
func New(cfg oauth.EngineConfig) (*Engine, error) {
	if err := applyDefaults(&cfg); err != nil {
		return nil, err
	}

	fositeConfig := &fosite.Config{
		AccessTokenIssuer:     cfg.Issuer,
		AccessTokenLifespan:   cfg.AccessTokenLifespan,
		RefreshTokenLifespan:  cfg.RefreshTokenLifespan,
		AuthorizeCodeLifespan: cfg.AuthorizationCodeLifespan,
		GlobalSecret:          cfg.Secret,
		RefreshTokenScopes:    cfg.RefreshTokenScopes,
		EnforcePKCE:           cfg.EnforcePKCE,
		MinParameterEntropy:   cfg.MinParameterEntropy,
	}

	var (
		signingKey *josev3.JSONWebKey
		jwks       *jose.JSONWebKeySet
	)
	if cfg.SigningKey != nil {
		var err error
		signingKey, jwks, err = resolveSigningKey(cfg.SigningKey)
		if err != nil {
			return nil, fmt.Errorf("signing key: %w", err)
		}
	}

	e := &Engine{
		model:  cfg.Model,
		issuer: cfg.Issuer,
		jwks:   jwks,
		logger: cfg.Logger,
	}

	// Without a client manager fosite cannot be built at all. Every verb
	// requires one, so the capability check fires before provider is used.
	if _, ok := cfg.Model.(fosite.Storage); ok {
		e.provider = createProvider(fositeConfig, cfg.Model, signingKey)
	}

	e.logger.Debug("fosite engine created",
		"issuer", cfg.Issuer,
		"jwtAccessTokens", signingKey != nil,
		"hasProvider", e.provider != nil,
		"accessTokenLifespan", cfg.AccessTokenLifespan,
		"refreshTokenLifespan", cfg.RefreshTokenLifespan,
		"authorizationCodeLifespan", cfg.AuthorizationCodeLifespan,
	)

	return e, nil
}

// PublicJWKS returns the public signing keys, or nil when access tokens are
// opaque.
func (e *Engine) PublicJWKS() *jose.JSONWebKeySet {
	return e.jwks
}

func applyDefaults(cfg *oauth.EngineConfig) error {
	if cfg.Logger == nil {
		cfg.Logger = logger.Named("fositeengine")
	}
	if cfg.AccessTokenLifespan == 0 {
		cfg.AccessTokenLifespan = defaultAccessTokenLifespan
	}
	if cfg.RefreshTokenLifespan == 0 {
		cfg.RefreshTokenLifespan = defaultRefreshTokenLifespan
	}
	if cfg.AuthorizationCodeLifespan == 0 {
		cfg.AuthorizationCodeLifespan = defaultAuthorizationCodeLifespan
	}
	if cfg.MinParameterEntropy == 0 {
		cfg.MinParameterEntropy = fosite.MinParameterEntropy
	}

	switch {
	case len(cfg.Secret) == 0:
		secret := make([]byte, MinSecretLength)
		if _, err := rand.Read(secret); err != nil {
			return fmt.Errorf("failed to generate secret: %w", err)
		}
		cfg.Secret = secret
		cfg.Logger.Warn("no secret configured, generated an ephemeral one; tokens will not survive a restart")
	case len(cfg.Secret) < MinSecretLength:
		return oauth.NewInvalidArgumentError(
			fmt.Sprintf("Invalid argument: secret must be at least %d bytes", MinSecretLength))
	}
	return nil
}

// createProvider composes a fosite provider from the handlers the model can
// back. compose factories type-assert storage without checking, so a factory
// is only added when the assertion is known to hold.
func createProvider(config *fosite.Config, model any, signingKey *josev3.JSONWebKey) fosite.OAuth2Provider {
	hmacStrategy := compose.NewOAuth2HMACStrategy(config)

	var coreStrategy oauth2.CoreStrategy = hmacStrategy
	if signingKey != nil {
		// JWT access tokens; codes and refresh tokens stay HMAC.
		coreStrategy = compose.NewOAuth2JWTStrategy(
			func(_ context.Context) (interface{}, error) { return signingKey, nil },
			hmacStrategy,
			config,
		)
	}

	var factories []compose.Factory
	if implements[oauth2.CoreStorage](model) {
		factories = append(factories, compose.OAuth2TokenIntrospectionFactory)
	}
	if implements[oauth2.CoreStorage](model) && implements[oauth2.TokenRevocationStorage](model) {
		factories = append(factories, compose.OAuth2AuthorizeExplicitFactory)
		if implements[pkce.PKCERequestStorage](model) {
			factories = append(factories, compose.OAuth2PKCEFactory)
		}
	}
	if implements[oauth2.TokenRevocationStorage](model) {
		factories = append(factories, compose.OAuth2RefreshTokenGrantFactory)
	}
	if implements[oauth2.ResourceOwnerPasswordCredentialsGrantStorage](model) {
		factories = append(factories, compose.OAuth2ResourceOwnerPasswordCredentialsFactory)
	}
	if implements[oauth2.AccessTokenStorage](model) {
		factories = append(factories, compose.OAuth2ClientCredentialsGrantFactory)
	}

	return compose.Compose(
		config,
		model,
		&compose.CommonStrategy{CoreStrategy: coreStrategy},
		factories...,
	)
}

// newSession returns the session fosite stores alongside every token. The
// JWT fields are only read when JWT access tokens are enabled.
func (e *Engine) newSession(subject string) *oauth2.JWTSession {
	return &oauth2.JWTSession{
		JWTClaims: &jwt.JWTClaims{
			Subject: subject,
			Issuer:  e.issuer,
			Extra:   map[string]interface{}{},
		},
		JWTHeader: &jwt.Headers{},
		ExpiresAt: map[fosite.TokenType]time.Time{},
		Username:  subject,
		Subject:   subject,
	}
}
