// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package authserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/stacklok/oauth2-middleware/pkg/oauth"
)

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestAuthenticate_Success(t *testing.T) {
	t.Parallel()

	srv, engine := newMockServer(t, nil)
	token := &oauth.Token{AccessToken: "foobar", Subject: "user-1"}
	opts := &oauth.AuthenticateOptions{
		Scope:                     []string{"read"},
		AddAcceptedScopesHeader:   true,
		AddAuthorizedScopesHeader: true,
	}

	engine.EXPECT().
		Authenticate(gomock.Any(), gomock.Any(), gomock.Any(), opts).
		DoAndReturn(func(_ context.Context, req *oauth.Request, res *oauth.Response, _ *oauth.AuthenticateOptions) (*oauth.Token, error) {
			assert.Equal(t, "Bearer foobar", req.Header("authorization"))
			res.Set("X-Accepted-OAuth-Scopes", "read")
			res.Set("X-OAuth-Scopes", "read")
			return token, nil
		})

	next := &recordingHandler{}
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer foobar")
	rec := httptest.NewRecorder()

	srv.Authenticate(opts)(next).ServeHTTP(rec, req)

	require.EqualValues(t, 1, next.calls.Load())
	assert.Same(t, token, TokenFromContext(next.lastReq.Context()))
	assert.Nil(t, CodeFromContext(next.lastReq.Context()))

	// The middleware itself writes nothing on success, and the engine's
	// scope headers are not forwarded.
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Body.String())
	assert.Empty(t, rec.Header())
}

func TestAuthenticate_Failure(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantBody   map[string]any
	}{
		{
			name:       "unauthorized request has no body",
			err:        oauth.NewUnauthorizedRequestError(""),
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "invalid request",
			err:        oauth.NewInvalidRequestError("Invalid request: malformed authorization header"),
			wantStatus: http.StatusBadRequest,
			wantBody: map[string]any{
				"error":             "invalid_request",
				"error_description": "Invalid request: malformed authorization header",
			},
		},
		{
			name:       "insufficient scope",
			err:        oauth.NewInsufficientScopeError("Insufficient scope: authorized scope is insufficient"),
			wantStatus: http.StatusForbidden,
			wantBody: map[string]any{
				"error":             "insufficient_scope",
				"error_description": "Insufficient scope: authorized scope is insufficient",
			},
		},
		{
			name:       "missing capability",
			err:        oauth.MissingModelCapability("GetAccessTokenSession"),
			wantStatus: http.StatusInternalServerError,
			wantBody: map[string]any{
				"error":             "invalid_argument",
				"error_description": "Invalid argument: model does not implement `GetAccessTokenSession()`",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			srv, engine := newMockServer(t, nil)
			engine.EXPECT().
				Authenticate(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
				DoAndReturn(func(_ context.Context, _ *oauth.Request, res *oauth.Response, _ *oauth.AuthenticateOptions) (*oauth.Token, error) {
					res.Set("WWW-Authenticate", `Bearer realm="Service"`)
					return nil, tt.err
				})

			next := &recordingHandler{}
			rec := httptest.NewRecorder()
			srv.Authenticate(nil)(next).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

			assert.Zero(t, next.calls.Load())
			assert.Equal(t, tt.wantStatus, rec.Code)
			// Headers set by the engine are not forwarded on authenticate failures.
			assert.Empty(t, rec.Header().Get("WWW-Authenticate"))

			if tt.wantBody == nil {
				assert.Empty(t, rec.Body.String())
				return
			}
			assert.Equal(t, tt.wantBody, decodeBody(t, rec))
		})
	}
}

func TestAuthorize_Emission(t *testing.T) {
	t.Parallel()

	const location = "http://example.com/?code=123&state=foobiz"

	tests := []struct {
		name               string
		continueMiddleware bool
		wantNext           int32
	}{
		{name: "without continuation", continueMiddleware: false, wantNext: 0},
		{name: "with continuation", continueMiddleware: true, wantNext: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			srv, engine := newMockServer(t, func(cfg *Config) {
				cfg.ContinueMiddleware = tt.continueMiddleware
			})
			code := &oauth.AuthorizationCode{Code: "123", Subject: "user-1"}

			engine.EXPECT().
				Authorize(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
				DoAndReturn(func(_ context.Context, _ *oauth.Request, res *oauth.Response, _ *oauth.AuthorizeOptions) (*oauth.AuthorizationCode, error) {
					res.Set("X-Request-Id", "abc")
					res.Redirect(location)
					return code, nil
				})

			var sawCode *oauth.AuthorizationCode
			var sawLocation string
			next := &recordingHandler{serve: func(w http.ResponseWriter, r *http.Request) {
				sawCode = CodeFromContext(r.Context())
				sawLocation = w.Header().Get("Location")
			}}

			rec := httptest.NewRecorder()
			srv.Authorize(nil)(next).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/oauth/authorize", nil))

			assert.Equal(t, tt.wantNext, next.calls.Load())
			if tt.continueMiddleware {
				assert.Same(t, code, sawCode)
				assert.Empty(t, sawLocation, "next runs before the response is emitted")
			}

			assert.Equal(t, http.StatusFound, rec.Code)
			assert.Equal(t, []string{location}, rec.Header().Values("Location"))
			assert.Equal(t, "abc", rec.Header().Get("X-Request-Id"))
			assert.NotContains(t, rec.Header().Get("Content-Type"), "json")
		})
	}
}

func TestToken_Emission(t *testing.T) {
	t.Parallel()

	for _, continueMiddleware := range []bool{false, true} {
		srv, engine := newMockServer(t, func(cfg *Config) {
			cfg.ContinueMiddleware = continueMiddleware
		})
		token := &oauth.Token{AccessToken: "foobar"}

		engine.EXPECT().
			Token(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, req *oauth.Request, res *oauth.Response, _ *oauth.TokenOptions) (*oauth.Token, error) {
				assert.Equal(t, "password", req.BodyString("grant_type"))
				res.Set("Cache-Control", "no-store")
				res.Body = map[string]any{"access_token": "foobar", "token_type": "bearer"}
				return token, nil
			})

		var sawToken *oauth.Token
		next := &recordingHandler{serve: func(_ http.ResponseWriter, r *http.Request) {
			sawToken = TokenFromContext(r.Context())
		}}

		req := httptest.NewRequest(http.MethodPost, "/oauth/token", strings.NewReader("grant_type=password"))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		rec := httptest.NewRecorder()

		srv.Token(nil)(next).ServeHTTP(rec, req)

		if continueMiddleware {
			assert.EqualValues(t, 1, next.calls.Load())
			assert.Same(t, token, sawToken)
		} else {
			assert.Zero(t, next.calls.Load())
		}
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
		assert.Equal(t, "application/json; charset=utf-8", rec.Header().Get("Content-Type"))
		assert.Equal(t, map[string]any{"access_token": "foobar", "token_type": "bearer"}, decodeBody(t, rec))
	}
}

func TestToken_FailureKeepsEngineHeaders(t *testing.T) {
	t.Parallel()

	srv, engine := newMockServer(t, nil)
	engine.EXPECT().
		Token(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ *oauth.Request, res *oauth.Response, _ *oauth.TokenOptions) (*oauth.Token, error) {
			res.Set("WWW-Authenticate", `Basic realm="Service"`)
			return nil, oauth.NewError(oauth.ErrorNameInvalidClient, "Invalid client: client is invalid", http.StatusUnauthorized)
		})

	next := &recordingHandler{}
	rec := httptest.NewRecorder()
	srv.Token(nil)(next).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/oauth/token", nil))

	assert.Zero(t, next.calls.Load())
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, `Basic realm="Service"`, rec.Header().Get("WWW-Authenticate"))
	assert.Equal(t, map[string]any{
		"error":             "invalid_client",
		"error_description": "Invalid client: client is invalid",
	}, decodeBody(t, rec))
}

func TestAuthorize_MissingParameter(t *testing.T) {
	t.Parallel()

	srv, engine := newMockServer(t, nil)
	engine.EXPECT().
		Authorize(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil, oauth.MissingParameter("response_type"))

	rec := httptest.NewRecorder()
	srv.Authorize(nil)(&recordingHandler{}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/oauth/authorize", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, map[string]any{
		"error":             "invalid_request",
		"error_description": "Missing parameter: 'response_type'",
	}, decodeBody(t, rec))
}

func TestForeignErrorFallsBackTo500(t *testing.T) {
	t.Parallel()

	srv, engine := newMockServer(t, nil)
	engine.EXPECT().
		Token(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil, errors.New("database unavailable"))

	rec := httptest.NewRecorder()
	srv.Token(nil)(&recordingHandler{}).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/oauth/token", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "server_error", body["error"])
	assert.Equal(t, oauth.InternalErrorMessage, body["error_description"])
	assert.NotContains(t, rec.Body.String(), "database unavailable")
}

func TestUnknownErrorKindIsAnswered(t *testing.T) {
	t.Parallel()

	srv, engine := newMockServer(t, nil)
	engine.EXPECT().
		Token(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil, &oauth.Error{Kind: oauth.Kind(7), Name: "teapot", Message: "short and stout", Code: http.StatusTeapot})

	rec := httptest.NewRecorder()
	srv.Token(nil)(&recordingHandler{}).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/oauth/token", nil))

	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.Equal(t, map[string]any{
		"error":             "teapot",
		"error_description": "short and stout",
	}, decodeBody(t, rec))
}

func TestUseErrorHandler(t *testing.T) {
	t.Parallel()

	cause := oauth.NewInvalidGrantError("Invalid grant: user credentials are invalid")

	tests := []struct {
		name  string
		setup func(t *testing.T, srv *Server) http.Handler
	}{
		{
			name: "authenticate",
			setup: func(_ *testing.T, srv *Server) http.Handler {
				return srv.Authenticate(nil)(&recordingHandler{})
			},
		},
		{
			name: "authorize",
			setup: func(_ *testing.T, srv *Server) http.Handler {
				return srv.Authorize(nil)(&recordingHandler{})
			},
		},
		{
			name: "token",
			setup: func(_ *testing.T, srv *Server) http.Handler {
				return srv.Token(nil)(&recordingHandler{})
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var handled error
			srv, engine := newMockServer(t, func(cfg *Config) {
				cfg.UseErrorHandler = true
				cfg.ErrorHandler = func(_ http.ResponseWriter, _ *http.Request, err error) {
					handled = err
				}
			})

			setChallenge := func(res *oauth.Response) { res.Set("WWW-Authenticate", "Basic") }
			engine.EXPECT().Authenticate(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
				DoAndReturn(func(_ context.Context, _ *oauth.Request, res *oauth.Response, _ *oauth.AuthenticateOptions) (*oauth.Token, error) {
					setChallenge(res)
					return nil, cause
				}).AnyTimes()
			engine.EXPECT().Authorize(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
				DoAndReturn(func(_ context.Context, _ *oauth.Request, res *oauth.Response, _ *oauth.AuthorizeOptions) (*oauth.AuthorizationCode, error) {
					setChallenge(res)
					return nil, cause
				}).AnyTimes()
			engine.EXPECT().Token(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
				DoAndReturn(func(_ context.Context, _ *oauth.Request, res *oauth.Response, _ *oauth.TokenOptions) (*oauth.Token, error) {
					setChallenge(res)
					return nil, cause
				}).AnyTimes()

			rec := httptest.NewRecorder()
			tt.setup(t, srv).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))

			assert.Same(t, cause, handled, "error is forwarded unchanged")
			assert.Equal(t, http.StatusOK, rec.Code)
			assert.False(t, rec.Flushed)
			assert.Empty(t, rec.Body.String())
			assert.Empty(t, rec.Header())
		})
	}
}

func TestDefaultErrorHandler(t *testing.T) {
	t.Parallel()

	srv, engine := newMockServer(t, func(cfg *Config) {
		cfg.UseErrorHandler = true
	})
	engine.EXPECT().
		Authenticate(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil, oauth.NewUnauthorizedRequestError(""))

	rec := httptest.NewRecorder()
	srv.Authenticate(nil)(&recordingHandler{}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Unauthorized\n", rec.Body.String())
}

func TestEmit_Bodies(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		res      *oauth.Response
		wantCode int
		wantBody string
		wantType string
	}{
		{
			name:     "nil body",
			res:      &oauth.Response{Status: http.StatusNoContent},
			wantCode: http.StatusNoContent,
		},
		{
			name:     "string body",
			res:      &oauth.Response{Status: http.StatusOK, Body: "hello", Headers: map[string]string{"content-type": "text/plain"}},
			wantCode: http.StatusOK,
			wantBody: "hello",
			wantType: "text/plain",
		},
		{
			name:     "byte body",
			res:      &oauth.Response{Status: http.StatusAccepted, Body: []byte("raw")},
			wantCode: http.StatusAccepted,
			wantBody: "raw",
		},
		{
			name:     "json body keeps engine content type",
			res:      &oauth.Response{Status: http.StatusOK, Body: []string{"a"}, Headers: map[string]string{"content-type": "application/vnd.test+json"}},
			wantCode: http.StatusOK,
			wantBody: `["a"]`,
			wantType: "application/vnd.test+json",
		},
		{
			name:     "zero status",
			res:      &oauth.Response{},
			wantCode: http.StatusOK,
		},
	}

	srv, _ := newMockServer(t, nil)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rec := httptest.NewRecorder()
			srv.emit(rec, httptest.NewRequest(http.MethodGet, "/", nil), tt.res)

			assert.Equal(t, tt.wantCode, rec.Code)
			assert.Equal(t, tt.wantBody, rec.Body.String())
			if tt.wantType != "" {
				assert.Equal(t, tt.wantType, rec.Header().Get("Content-Type"))
			}
		})
	}
}

func TestIdenticalServersBehaveTheSame(t *testing.T) {
	t.Parallel()

	run := func() *httptest.ResponseRecorder {
		srv, engine := newMockServer(t, nil)
		engine.EXPECT().
			Token(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, _ *oauth.Request, res *oauth.Response, _ *oauth.TokenOptions) (*oauth.Token, error) {
				res.Body = map[string]any{"access_token": "foobar"}
				return &oauth.Token{AccessToken: "foobar"}, nil
			})

		rec := httptest.NewRecorder()
		srv.Token(nil)(&recordingHandler{}).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/oauth/token", nil))
		return rec
	}

	first, second := run(), run()
	assert.Equal(t, first.Code, second.Code)
	assert.Equal(t, first.Header(), second.Header())
	assert.Equal(t, first.Body.String(), second.Body.String())
}
