// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package authserver

import (
	"net/http"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/stacklok/oauth2-middleware/pkg/oauth"
	"github.com/stacklok/oauth2-middleware/pkg/oauth/mocks"
)

// newMockServer builds a Server over a MockEngine. mutate may adjust the
// config before New runs.
func newMockServer(t *testing.T, mutate func(*Config)) (*Server, *mocks.MockEngine) {
	t.Helper()

	ctrl := gomock.NewController(t)
	engine := mocks.NewMockEngine(ctrl)

	cfg := Config{
		Model: struct{}{},
		NewEngine: func(oauth.EngineConfig) (oauth.Engine, error) {
			return engine, nil
		},
	}
	if mutate != nil {
		mutate(&cfg)
	}

	srv, err := New(cfg)
	require.NoError(t, err)
	return srv, engine
}

// recordingHandler counts calls and keeps the last request it saw.
type recordingHandler struct {
	calls   atomic.Int32
	lastReq *http.Request
	serve   func(w http.ResponseWriter, r *http.Request)
}

func (h *recordingHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.calls.Add(1)
	h.lastReq = r
	if h.serve != nil {
		h.serve(w, r)
	}
}
