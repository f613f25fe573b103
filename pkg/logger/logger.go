// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package logger holds the process-wide default *slog.Logger used by the
// middleware when the host does not inject one.
//
// This is a thin shim over toolhive-core/logging. Hosts should pass their own
// logger through authserver.Config; [Get] is only the fallback. Hosts that
// rely on the fallback call [Initialize] once at startup, after flags are
// bound to viper, to pick the output format and level.
package logger

import (
	"log/slog"
	"strconv"
	"sync/atomic"

	"github.com/spf13/viper"

	"github.com/stacklok/toolhive-core/env"
	"github.com/stacklok/toolhive-core/logging"
)

// singleton is the package-level logger created by Initialize.
var singleton atomic.Pointer[slog.Logger]

func init() {
	singleton.Store(logging.New())
}

// Get returns the current default logger.
func Get() *slog.Logger {
	return singleton.Load()
}

// Set replaces the default logger. Intended for tests that capture output.
func Set(l *slog.Logger) {
	singleton.Store(l)
}

// Named returns the default logger tagged with a component attribute.
func Named(component string) *slog.Logger {
	return Get().With("component", component)
}

// Initialize configures the default logger from the process environment.
// UNSTRUCTURED_LOGS=false selects JSON output; anything else selects text.
// The viper key "debug" enables debug level.
func Initialize() {
	InitializeWithEnv(&env.OSReader{})
}

// InitializeWithEnv is Initialize with an injectable environment reader.
func InitializeWithEnv(envReader env.Reader) {
	var opts []logging.Option

	if unstructuredLogsWithEnv(envReader) {
		opts = append(opts, logging.WithFormat(logging.FormatText))
	}

	if viper.GetBool("debug") {
		opts = append(opts, logging.WithLevel(slog.LevelDebug))
	}

	singleton.Store(logging.New(opts...))
}

func unstructuredLogsWithEnv(envReader env.Reader) bool {
	unstructuredLogs, err := strconv.ParseBool(envReader.Getenv("UNSTRUCTURED_LOGS"))
	if err != nil {
		// unset or unparsable: default to text
		return true
	}
	return unstructuredLogs
}
