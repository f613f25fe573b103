// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package authserver

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/stacklok/oauth2-middleware/pkg/oauth"
)

// Server binds an oauth.Engine to net/http. It is safe for concurrent use.
type Server struct {
	engine             oauth.Engine
	useErrorHandler    bool
	continueMiddleware bool
	errorHandler       ErrorHandlerFunc
	logger             *slog.Logger
	telemetry          *telemetry
}

// New creates the middleware. It fails with an invalid_argument error when
// no model is configured.
func New(cfg Config) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()

	engineCfg := cfg.Engine
	engineCfg.Model = cfg.Model
	if engineCfg.Logger == nil {
		engineCfg.Logger = cfg.Logger
	}

	engine, err := cfg.NewEngine(engineCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create oauth engine: %w", err)
	}
	if engine == nil {
		return nil, errors.New("oauth engine factory returned nil")
	}

	tel, err := newTelemetry(cfg.TracerProvider, cfg.MeterProvider)
	if err != nil {
		return nil, err
	}

	cfg.Logger.Debug("created oauth middleware",
		"use_error_handler", cfg.UseErrorHandler,
		"continue_middleware", cfg.ContinueMiddleware,
	)

	return &Server{
		engine:             engine,
		useErrorHandler:    cfg.UseErrorHandler,
		continueMiddleware: cfg.ContinueMiddleware,
		errorHandler:       cfg.ErrorHandler,
		logger:             cfg.Logger,
		telemetry:          tel,
	}, nil
}

// Engine returns the engine the middleware calls.
func (s *Server) Engine() oauth.Engine {
	return s.engine
}
