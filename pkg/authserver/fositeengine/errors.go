// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package fositeengine

import (
	"errors"
	"net/http"

	"github.com/ory/fosite"

	"github.com/stacklok/oauth2-middleware/pkg/oauth"
)

// fosite error names that need special treatment.
const (
	fositeRequestUnauthorized = "request_unauthorized"
	fositeServerError         = "server_error"
)

// toOAuthError converts an error raised by fosite into the oauth taxonomy.
// request_unauthorized becomes an unauthorized_request error so that no
// details are disclosed; every other RFC 6749 error keeps its name, status
// and description.
func toOAuthError(err error) *oauth.Error {
	if oauthErr, ok := oauth.AsError(err); ok {
		return oauthErr
	}

	var rfcErr *fosite.RFC6749Error
	if !errors.As(err, &rfcErr) {
		return oauth.ToError(err)
	}

	message := rfcErr.GetDescription()
	switch rfcErr.ErrorField {
	case fositeRequestUnauthorized:
		return oauth.NewUnauthorizedRequestError("").WithCause(err)
	case fositeServerError:
		return oauth.NewServerError("Server error: " + message).WithCause(err)
	}

	code := rfcErr.CodeField
	if code == 0 {
		code = http.StatusBadRequest
	}
	return oauth.NewError(rfcErr.ErrorField, message, code).WithCause(err)
}

// bearerChallenge sets the RFC 6750 WWW-Authenticate header for a failed
// authentication.
func bearerChallenge(res *oauth.Response, err *oauth.Error) {
	switch {
	case err.Kind == oauth.KindUnauthorizedRequest:
		res.Set("WWW-Authenticate", `Bearer realm="Service"`)
	case err.Kind == oauth.KindOAuth && err.Name != oauth.ErrorNameServerError:
		res.Set("WWW-Authenticate", `Bearer realm="Service",error="`+err.Name+`"`)
	}
}
