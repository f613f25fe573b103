// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package fositeengine

import (
	"context"
	"net/http"
	"strings"

	"github.com/ory/fosite"

	"github.com/stacklok/oauth2-middleware/pkg/oauth"
)

// Authenticate validates the bearer token on req and returns it.
func (e *Engine) Authenticate(
	ctx context.Context,
	req *oauth.Request,
	res *oauth.Response,
	opts *oauth.AuthenticateOptions,
) (*oauth.Token, error) {
	if opts == nil {
		opts = &oauth.AuthenticateOptions{}
	}
	if err := e.require(authenticateCapabilities...); err != nil {
		return nil, err
	}

	token, err := e.authenticate(ctx, req, res, opts)
	if err != nil {
		oauthErr := oauth.ToError(err)
		bearerChallenge(res, oauthErr)
		e.logger.Debug("authentication failed", "error", oauthErr.Name, "description", oauthErr.Message)
		return nil, oauthErr
	}
	return token, nil
}

func (e *Engine) authenticate(
	ctx context.Context,
	req *oauth.Request,
	res *oauth.Response,
	opts *oauth.AuthenticateOptions,
) (*oauth.Token, error) {
	raw, err := bearerToken(req, opts.AllowBearerTokensInQueryString)
	if err != nil {
		return nil, err
	}

	use, ar, err := e.provider.IntrospectToken(ctx, raw, fosite.AccessToken, e.newSession(""))
	if err != nil {
		oauthErr := toOAuthError(err)
		if oauthErr.Name == oauth.ErrorNameServerError {
			return nil, oauthErr
		}
		// Expired, revoked, malformed and unknown tokens all look the same.
		return nil, oauth.NewUnauthorizedRequestError("").WithCause(err)
	}
	if use != fosite.AccessToken {
		return nil, oauth.NewUnauthorizedRequestError("")
	}

	for _, scope := range opts.Scope {
		if !fosite.HierarchicScopeStrategy(ar.GetGrantedScopes(), scope) {
			return nil, oauth.NewInsufficientScopeError("Insufficient scope: authorized scope is insufficient")
		}
	}

	granted := []string(ar.GetGrantedScopes())
	if opts.AddAcceptedScopesHeader && len(opts.Scope) > 0 {
		res.Set("X-Accepted-OAuth-Scopes", strings.Join(opts.Scope, " "))
	}
	if opts.AddAuthorizedScopesHeader {
		res.Set("X-OAuth-Scopes", strings.Join(granted, " "))
	}

	session := ar.GetSession()
	return &oauth.Token{
		AccessToken:          raw,
		AccessTokenExpiresAt: session.GetExpiresAt(fosite.AccessToken),
		Scope:                granted,
		ClientID:             ar.GetClient().GetID(),
		Subject:              session.GetSubject(),
	}, nil
}

// bearerToken extracts the access token from exactly one of the
// Authorization header, the query string or a form body (RFC 6750 Section 2).
func bearerToken(req *oauth.Request, allowQuery bool) (string, error) {
	header := req.Header("authorization")
	query := req.Query("access_token")
	body := req.BodyString("access_token")

	sources := 0
	for _, s := range []string{header, query, body} {
		if s != "" {
			sources++
		}
	}
	if sources > 1 {
		return "", oauth.NewInvalidRequestError("Invalid request: only one authentication method is allowed")
	}

	switch {
	case header != "":
		scheme, token, ok := strings.Cut(header, " ")
		token = strings.TrimSpace(token)
		if !ok || !strings.EqualFold(scheme, "bearer") || token == "" {
			return "", oauth.NewInvalidRequestError("Invalid request: malformed authorization header")
		}
		return token, nil
	case query != "":
		if !allowQuery {
			return "", oauth.NewInvalidRequestError("Invalid request: do not send bearer tokens in query URLs")
		}
		return query, nil
	case body != "":
		if req.Method() == http.MethodGet {
			return "", oauth.NewInvalidRequestError("Invalid request: token may not be passed in the body when using the GET verb")
		}
		if !req.Is("application/x-www-form-urlencoded") {
			return "", oauth.NewInvalidRequestError("Invalid request: content must be application/x-www-form-urlencoded")
		}
		return body, nil
	default:
		return "", oauth.NewUnauthorizedRequestError("Unauthorized request: no authentication given")
	}
}
