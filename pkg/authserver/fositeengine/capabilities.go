// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package fositeengine

import (
	"github.com/ory/fosite"
	"github.com/ory/fosite/handler/oauth2"

	"github.com/stacklok/oauth2-middleware/pkg/oauth"
)

// capability is one storage interface a verb needs from the model, named by
// the method reported when it is missing.
type capability struct {
	method string
	has    func(model any) bool
}

func implements[T any](model any) bool {
	_, ok := model.(T)
	return ok
}

var (
	capClient = capability{
		method: "GetClient",
		has:    implements[fosite.Storage],
	}
	capAccessToken = capability{
		method: "GetAccessTokenSession",
		has:    implements[oauth2.AccessTokenStorage],
	}
	capRefreshToken = capability{
		method: "GetRefreshTokenSession",
		has:    implements[oauth2.RefreshTokenStorage],
	}
	capAuthorizeCode = capability{
		method: "CreateAuthorizeCodeSession",
		has:    implements[oauth2.AuthorizeCodeStorage],
	}
	capRevocation = capability{
		method: "RevokeRefreshToken",
		has:    implements[oauth2.TokenRevocationStorage],
	}
	capPassword = capability{
		method: "Authenticate",
		has:    implements[oauth2.ResourceOwnerPasswordCredentialsGrantStorage],
	}
)

var (
	// authenticateCapabilities back token introspection.
	authenticateCapabilities = []capability{capAccessToken, capRefreshToken, capAuthorizeCode, capClient}

	// authorizeCapabilities back the authorization code response type.
	authorizeCapabilities = []capability{capClient, capAuthorizeCode, capAccessToken, capRefreshToken, capRevocation}

	// tokenCapabilities are needed before the grant type is known.
	tokenCapabilities = []capability{capClient}

	// grantCapabilities lists what each supported grant type needs on top of
	// tokenCapabilities.
	grantCapabilities = map[string][]capability{
		"authorization_code": {capAuthorizeCode, capAccessToken, capRefreshToken, capRevocation},
		"password":           {capPassword, capAccessToken, capRefreshToken},
		"refresh_token":      {capRevocation, capAccessToken, capRefreshToken},
		"client_credentials": {capAccessToken},
	}
)

// require returns an invalid_argument error for the first capability the
// model lacks.
func (e *Engine) require(caps ...capability) error {
	for _, c := range caps {
		if !c.has(e.model) {
			return oauth.MissingModelCapability(c.method)
		}
	}
	return nil
}
