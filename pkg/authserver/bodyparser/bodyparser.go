// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package bodyparser is host-side middleware that decodes JSON and
// urlencoded request bodies once and places the result on the request
// context, where the OAuth middleware picks it up.
package bodyparser

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/http"

	"github.com/stacklok/oauth2-middleware/pkg/logger"
)

// DefaultMaxBytes is the body size limit applied when Options.MaxBytes is zero.
const DefaultMaxBytes int64 = 64 << 10

type contextKey struct{}

// Options configures the parser.
type Options struct {
	// MaxBytes limits the body size. Defaults to DefaultMaxBytes.
	MaxBytes int64

	// Logger defaults to the package logger.
	Logger *slog.Logger
}

// Middleware is New with default options.
func Middleware(next http.Handler) http.Handler {
	return New(Options{})(next)
}

// New returns middleware that parses application/json and
// application/x-www-form-urlencoded bodies. Other content types pass through
// untouched and leave nothing on the context. Malformed bodies are answered
// with 400, oversized ones with 413.
func New(opts Options) func(http.Handler) http.Handler {
	if opts.MaxBytes <= 0 {
		opts.MaxBytes = DefaultMaxBytes
	}
	if opts.Logger == nil {
		opts.Logger = logger.Named("bodyparser")
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := FromContext(r.Context()); ok || r.Body == nil || r.Body == http.NoBody {
				next.ServeHTTP(w, r)
				return
			}

			mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			var body map[string]any
			switch mediaType {
			case "application/json":
				r.Body = http.MaxBytesReader(w, r.Body, opts.MaxBytes)
				body, err = decodeJSON(r.Body)
			case "application/x-www-form-urlencoded":
				r.Body = http.MaxBytesReader(w, r.Body, opts.MaxBytes)
				body, err = decodeForm(r)
			default:
				next.ServeHTTP(w, r)
				return
			}

			if err != nil {
				opts.Logger.Debug("failed to parse request body",
					"content_type", mediaType,
					"error", err,
				)
				var maxErr *http.MaxBytesError
				if errors.As(err, &maxErr) {
					http.Error(w, http.StatusText(http.StatusRequestEntityTooLarge), http.StatusRequestEntityTooLarge)
					return
				}
				http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithBody(r.Context(), body)))
		})
	}
}

// WithBody returns a copy of ctx carrying body. Hosts with their own parser
// use it to hand the parsed body to the OAuth middleware.
func WithBody(ctx context.Context, body map[string]any) context.Context {
	if body == nil {
		body = map[string]any{}
	}
	return context.WithValue(ctx, contextKey{}, body)
}

// FromContext returns the parsed body, if a parser ran.
func FromContext(ctx context.Context) (map[string]any, bool) {
	body, ok := ctx.Value(contextKey{}).(map[string]any)
	return body, ok
}

func decodeJSON(r io.Reader) (map[string]any, error) {
	var body map[string]any
	dec := json.NewDecoder(r)
	if err := dec.Decode(&body); err != nil {
		if errors.Is(err, io.EOF) {
			return map[string]any{}, nil
		}
		return nil, err
	}
	if body == nil {
		// literal null
		return map[string]any{}, nil
	}
	return body, nil
}

func decodeForm(r *http.Request) (map[string]any, error) {
	if err := r.ParseForm(); err != nil {
		return nil, err
	}
	body := make(map[string]any, len(r.PostForm))
	for k, v := range r.PostForm {
		if len(v) == 1 {
			body[k] = v[0]
			continue
		}
		body[k] = append([]string(nil), v...)
	}
	return body, nil
}
