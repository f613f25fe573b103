// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package authserver

import (
	"log/slog"
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/stacklok/oauth2-middleware/pkg/authserver/fositeengine"
	"github.com/stacklok/oauth2-middleware/pkg/logger"
	"github.com/stacklok/oauth2-middleware/pkg/oauth"
)

// ErrorHandlerFunc is the host application's error pipeline. It receives the
// error raised by the engine unchanged.
type ErrorHandlerFunc func(w http.ResponseWriter, r *http.Request, err error)

// Config configures the OAuth middleware.
type Config struct {
	// Model is the storage model handed to the engine. Required.
	Model any

	// UseErrorHandler hands engine errors to ErrorHandler instead of
	// answering them.
	UseErrorHandler bool

	// ContinueMiddleware calls the next handler after a successful authorize
	// or token call, before the response is emitted.
	ContinueMiddleware bool

	// Engine is forwarded to NewEngine with Model filled in.
	Engine oauth.EngineConfig

	// NewEngine builds the engine. Defaults to the fosite-backed engine.
	NewEngine oauth.EngineFactory

	// ErrorHandler is only used when UseErrorHandler is set. Defaults to a
	// handler that answers with the error's status and its status text.
	ErrorHandler ErrorHandlerFunc

	// Logger defaults to the package logger.
	Logger *slog.Logger

	// TracerProvider and MeterProvider default to the otel globals.
	TracerProvider trace.TracerProvider
	MeterProvider  metric.MeterProvider
}

// Validate checks that the Config is usable.
func (c *Config) Validate() error {
	if c.Model == nil {
		return oauth.NewInvalidArgumentError("Missing parameter: 'model'")
	}
	return nil
}

// applyDefaults applies default values to the config where not set.
func (c *Config) applyDefaults() {
	if c.Logger == nil {
		c.Logger = logger.Named("oauth")
	}
	if c.NewEngine == nil {
		c.NewEngine = newFositeEngine
	}
	if c.ErrorHandler == nil {
		c.ErrorHandler = defaultErrorHandler
	}
	if c.TracerProvider == nil {
		c.TracerProvider = otel.GetTracerProvider()
	}
	if c.MeterProvider == nil {
		c.MeterProvider = otel.GetMeterProvider()
	}
}

func newFositeEngine(cfg oauth.EngineConfig) (oauth.Engine, error) {
	engine, err := fositeengine.New(cfg)
	if err != nil {
		return nil, err
	}
	return engine, nil
}
