// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package authserver

import (
	"context"

	"github.com/stacklok/oauth2-middleware/pkg/oauth"
)

// State is the OAuth result attached to a request. At most one of its
// fields is set.
type State struct {
	Token *oauth.Token
	Code  *oauth.AuthorizationCode
}

type stateKey struct{}

// StateFromContext returns the State attached by the middleware, if any.
func StateFromContext(ctx context.Context) (State, bool) {
	state, ok := ctx.Value(stateKey{}).(State)
	return state, ok
}

// TokenFromContext returns the token attached by Authenticate or Token.
func TokenFromContext(ctx context.Context) *oauth.Token {
	state, _ := StateFromContext(ctx)
	return state.Token
}

// CodeFromContext returns the authorization code attached by Authorize.
func CodeFromContext(ctx context.Context) *oauth.AuthorizationCode {
	state, _ := StateFromContext(ctx)
	return state.Code
}

// withToken replaces any earlier state.
func withToken(ctx context.Context, token *oauth.Token) context.Context {
	return context.WithValue(ctx, stateKey{}, State{Token: token})
}

func withCode(ctx context.Context, code *oauth.AuthorizationCode) context.Context {
	return context.WithValue(ctx, stateKey{}, State{Code: code})
}
