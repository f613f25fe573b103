// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package fositeengine

import (
	"context"
	"net/http"

	"github.com/ory/fosite"

	"github.com/stacklok/oauth2-middleware/pkg/oauth"
)

// standardTokenFields are the RFC 6749 Section 5.1 response fields.
var standardTokenFields = []string{"access_token", "token_type", "expires_in", "refresh_token", "scope"}

// Token runs the token endpoint for the grant type in the request body.
func (e *Engine) Token(
	ctx context.Context,
	req *oauth.Request,
	res *oauth.Response,
	opts *oauth.TokenOptions,
) (*oauth.Token, error) {
	if opts == nil {
		opts = &oauth.TokenOptions{}
	}
	if err := e.require(tokenCapabilities...); err != nil {
		return nil, err
	}

	token, err := e.token(ctx, req, res, opts)
	if err != nil {
		oauthErr := oauth.ToError(err)
		writeTokenError(req, res, oauthErr)
		e.logger.Debug("token request rejected", "error", oauthErr.Name, "description", oauthErr.Message)
		return nil, oauthErr
	}
	return token, nil
}

func (e *Engine) token(
	ctx context.Context,
	req *oauth.Request,
	res *oauth.Response,
	opts *oauth.TokenOptions,
) (*oauth.Token, error) {
	if req.Method() != http.MethodPost {
		return nil, oauth.NewInvalidRequestError("Invalid request: method must be POST")
	}
	if !req.Is("application/x-www-form-urlencoded") {
		return nil, oauth.NewInvalidRequestError("Invalid request: content must be application/x-www-form-urlencoded")
	}

	grantType := req.BodyString("grant_type")
	if grantType == "" {
		return nil, oauth.MissingParameter("grant_type")
	}
	caps, ok := grantCapabilities[grantType]
	if !ok {
		return nil, oauth.NewUnsupportedGrantTypeError("Unsupported grant type: `grant_type` is invalid")
	}
	if err := e.require(caps...); err != nil {
		return nil, err
	}

	hr, err := toHTTPRequest(ctx, req)
	if err != nil {
		return nil, err
	}

	ar, err := e.provider.NewAccessRequest(ctx, hr, e.newSession(req.BodyString("username")))
	if err != nil {
		return nil, toOAuthError(err)
	}

	for _, scope := range ar.GetRequestedScopes() {
		ar.GrantScope(scope)
	}
	for _, audience := range ar.GetRequestedAudience() {
		ar.GrantAudience(audience)
	}

	resp, err := e.provider.NewAccessResponse(ctx, ar)
	if err != nil {
		return nil, toOAuthError(err)
	}

	full := resp.ToMap()
	body := full
	if !opts.AllowExtendedTokenAttributes {
		body = make(map[string]interface{}, len(standardTokenFields))
		for _, k := range standardTokenFields {
			if v, ok := full[k]; ok {
				body[k] = v
			}
		}
	}

	res.Status = http.StatusOK
	res.Set("Cache-Control", "no-store")
	res.Set("Pragma", "no-cache")
	res.Body = body

	session := ar.GetSession()
	token := &oauth.Token{
		AccessToken:          resp.GetAccessToken(),
		AccessTokenExpiresAt: session.GetExpiresAt(fosite.AccessToken),
		Scope:                []string(ar.GetGrantedScopes()),
		ClientID:             ar.GetClient().GetID(),
		Subject:              session.GetSubject(),
		Extra:                full,
	}
	if refresh, ok := resp.GetExtra("refresh_token").(string); ok && refresh != "" {
		token.RefreshToken = refresh
		token.RefreshTokenExpiresAt = session.GetExpiresAt(fosite.RefreshToken)
	}

	e.logger.Debug("token issued",
		"grant_type", grantType,
		"client_id", token.ClientID,
		"refresh_token", token.RefreshToken != "",
	)

	return token, nil
}

// writeTokenError shapes res as an RFC 6749 Section 5.2 error response.
func writeTokenError(req *oauth.Request, res *oauth.Response, err *oauth.Error) {
	res.Status = err.StatusCode()
	res.Body = map[string]any{
		"error":             err.Name,
		"error_description": err.Message,
	}
	if err.Name == oauth.ErrorNameInvalidClient && req.Header("authorization") != "" {
		res.Set("WWW-Authenticate", `Basic realm="Service"`)
	}
}
