// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package fositeengine

import (
	"bytes"
	"encoding/base64"
	"net/http"
	"net/url"
	"testing"

	"github.com/ory/fosite"
	"github.com/ory/fosite/storage"
	"github.com/stretchr/testify/require"

	"github.com/stacklok/oauth2-middleware/pkg/oauth"
)

const (
	testClientID     = "test-client"
	testClientSecret = "test-secret"
	testRedirectURI  = "https://example.com/callback"
	testState        = "foobizbaz"
	testUsername     = "qux"
	testPassword     = "biz"
	testIssuer       = "https://auth.example.com"
)

var testSecret = bytes.Repeat([]byte("s"), MinSecretLength)

// newTestStore returns a fosite memory store holding one confidential client
// and one user.
func newTestStore(t *testing.T) *storage.MemoryStore {
	t.Helper()

	hashed, err := HashSecret(testClientSecret)
	require.NoError(t, err)

	store := storage.NewMemoryStore()
	store.Clients[testClientID] = &fosite.DefaultClient{
		ID:            testClientID,
		Secret:        hashed,
		RedirectURIs:  []string{testRedirectURI},
		GrantTypes:    []string{"authorization_code", "refresh_token", "password", "client_credentials"},
		ResponseTypes: []string{"code"},
		Scopes:        []string{"read", "write", "offline"},
	}
	store.Users[testUsername] = storage.MemoryUserRelation{
		Username: testUsername,
		Password: testPassword,
	}
	return store
}

// newTestEngine builds an engine over model. mutate may adjust the config.
func newTestEngine(t *testing.T, model any, mutate func(*oauth.EngineConfig)) *Engine {
	t.Helper()

	cfg := oauth.EngineConfig{
		Model:              model,
		Issuer:             testIssuer,
		Secret:             testSecret,
		RefreshTokenScopes: []string{},
	}
	if mutate != nil {
		mutate(&cfg)
	}

	e, err := New(cfg)
	require.NoError(t, err)
	return e
}

func basicAuth(id, secret string) string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(id+":"+secret))
}

// tokenRequest builds an urlencoded POST token request authenticated with
// the test client's credentials.
func tokenRequest(t *testing.T, form url.Values) *oauth.Request {
	t.Helper()
	return newRequest(t, http.MethodPost, map[string][]string{
		"Content-Type":  {"application/x-www-form-urlencoded"},
		"Authorization": {basicAuth(testClientID, testClientSecret)},
	}, nil, form)
}

// authorizeQuery returns a valid authorization code request query.
func authorizeQuery() url.Values {
	return url.Values{
		"client_id":     {testClientID},
		"response_type": {"code"},
		"redirect_uri":  {testRedirectURI},
		"state":         {testState},
		"scope":         {"read"},
	}
}

func bearerRequest(t *testing.T, token string) *oauth.Request {
	t.Helper()
	return newRequest(t, http.MethodGet, map[string][]string{
		"Authorization": {"Bearer " + token},
	}, nil, nil)
}

func newRequest(t *testing.T, method string, headers map[string][]string, query url.Values, form url.Values) *oauth.Request {
	t.Helper()

	var body map[string]any
	if form != nil {
		body = make(map[string]any, len(form))
		for k := range form {
			body[k] = form.Get(k)
		}
	}

	req, err := oauth.NewRequest(method, headers, query, body)
	require.NoError(t, err)
	return req
}

// issuePasswordToken runs a password grant for the test user.
func issuePasswordToken(t *testing.T, e *Engine, scope string) *oauth.Token {
	t.Helper()

	tok, err := e.Token(t.Context(), tokenRequest(t, url.Values{
		"grant_type": {"password"},
		"username":   {testUsername},
		"password":   {testPassword},
		"scope":      {scope},
	}), oauth.NewResponse(), nil)
	require.NoError(t, err)
	return tok
}
