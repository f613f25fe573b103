// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package fositeengine

import (
	"context"
	"net/url"
	"slices"

	"github.com/ory/fosite"

	"github.com/stacklok/oauth2-middleware/pkg/oauth"
)

// Authorize issues an authorization code and points res at the client's
// redirect URI.
func (e *Engine) Authorize(
	ctx context.Context,
	req *oauth.Request,
	res *oauth.Response,
	opts *oauth.AuthorizeOptions,
) (*oauth.AuthorizationCode, error) {
	if opts == nil {
		opts = &oauth.AuthorizeOptions{}
	}

	caps := authorizeCapabilities
	if opts.AuthenticateHandler == nil {
		caps = append(slices.Clone(caps), authenticateCapabilities...)
	}
	if err := e.require(caps...); err != nil {
		return nil, err
	}

	if param(req, "allowed") == "false" {
		return nil, oauth.NewAccessDeniedError("Access denied: user denied access to application")
	}
	if param(req, "client_id") == "" {
		return nil, oauth.MissingParameter("client_id")
	}

	subject, err := e.resolveSubject(ctx, req, res, opts)
	if err != nil {
		return nil, err
	}

	if param(req, "state") == "" {
		return nil, oauth.MissingParameter("state")
	}
	if param(req, "response_type") == "" {
		return nil, oauth.MissingParameter("response_type")
	}

	hr, err := toHTTPRequest(ctx, req)
	if err != nil {
		return nil, oauth.ToError(err)
	}

	ar, err := e.provider.NewAuthorizeRequest(ctx, hr)
	if err != nil {
		return nil, e.authorizeFailure(res, ar, err)
	}

	for _, scope := range ar.GetRequestedScopes() {
		ar.GrantScope(scope)
	}
	for _, audience := range ar.GetRequestedAudience() {
		ar.GrantAudience(audience)
	}

	resp, err := e.provider.NewAuthorizeResponse(ctx, ar, e.newSession(subject))
	if err != nil {
		return nil, e.authorizeFailure(res, ar, err)
	}

	redirectURI := ar.GetRedirectURI()
	params := resp.GetParameters()
	if params.Get("state") == "" && ar.GetState() != "" {
		params.Set("state", ar.GetState())
	}

	for name := range resp.GetHeader() {
		res.Set(name, resp.GetHeader().Get(name))
	}
	res.Redirect(withQuery(redirectURI, params))

	e.logger.Debug("authorization code issued",
		"client_id", ar.GetClient().GetID(),
		"subject", subject,
	)

	return &oauth.AuthorizationCode{
		Code:        resp.GetCode(),
		RedirectURI: redirectURI.String(),
		ExpiresAt:   ar.GetSession().GetExpiresAt(fosite.AuthorizeCode),
		Scope:       []string(ar.GetGrantedScopes()),
		ClientID:    ar.GetClient().GetID(),
		Subject:     subject,
	}, nil
}

// resolveSubject identifies the resource owner, either through the caller's
// handler or by authenticating the bearer token on the request.
func (e *Engine) resolveSubject(
	ctx context.Context,
	req *oauth.Request,
	res *oauth.Response,
	opts *oauth.AuthorizeOptions,
) (string, error) {
	var subject string
	if opts.AuthenticateHandler != nil {
		sub, err := opts.AuthenticateHandler(ctx, req, res)
		if err != nil {
			return "", oauth.ToError(err)
		}
		subject = sub
	} else {
		token, err := e.authenticate(ctx, req, res, &oauth.AuthenticateOptions{})
		if err != nil {
			return "", oauth.ToError(err)
		}
		subject = token.Subject
	}

	if subject == "" {
		return "", oauth.NewServerError("Server error: authenticate handler did not return a subject")
	}
	return subject, nil
}

// authorizeFailure converts err and, once fosite has validated the redirect
// URI, also sends the error back to the client (RFC 6749 Section 4.1.2.1).
func (e *Engine) authorizeFailure(res *oauth.Response, ar fosite.AuthorizeRequester, err error) *oauth.Error {
	oauthErr := toOAuthError(err)

	if ar != nil && ar.IsRedirectURIValid() && ar.GetRedirectURI() != nil && oauthErr.Kind == oauth.KindOAuth {
		params := url.Values{}
		params.Set("error", oauthErr.Name)
		params.Set("error_description", oauthErr.Message)
		if state := ar.GetState(); state != "" {
			params.Set("state", state)
		}
		res.Redirect(withQuery(ar.GetRedirectURI(), params))
	}

	e.logger.Debug("authorization request rejected", "error", oauthErr.Name, "description", oauthErr.Message)
	return oauthErr
}

// withQuery returns base with params merged into its query.
func withQuery(base *url.URL, params url.Values) string {
	u := *base
	q := u.Query()
	for k, v := range params {
		q[k] = v
	}
	u.RawQuery = q.Encode()
	return u.String()
}
