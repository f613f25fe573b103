// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package authserver

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/stacklok/oauth2-middleware/pkg/oauth"
)

const instrumentationName = "github.com/stacklok/oauth2-middleware/pkg/authserver"

const (
	metricRequests       = "oauth_middleware_requests"
	metricEngineDuration = "oauth_middleware_engine_duration"
)

const (
	verbAuthenticate = "authenticate"
	verbAuthorize    = "authorize"
	verbToken        = "token"
)

var (
	attrVerb    = attribute.Key("oauth.verb")
	attrOutcome = attribute.Key("oauth.outcome")
	attrError   = attribute.Key("oauth.error")
)

type telemetry struct {
	tracer   trace.Tracer
	requests metric.Int64Counter
	duration metric.Float64Histogram
}

func newTelemetry(tracerProvider trace.TracerProvider, meterProvider metric.MeterProvider) (*telemetry, error) {
	meter := meterProvider.Meter(instrumentationName)

	requests, err := meter.Int64Counter(
		metricRequests,
		metric.WithDescription("Total number of OAuth middleware calls"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create requests counter: %w", err)
	}
	duration, err := meter.Float64Histogram(
		metricEngineDuration,
		metric.WithDescription("Duration of OAuth engine calls in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create engine duration histogram: %w", err)
	}

	return &telemetry{
		tracer:   tracerProvider.Tracer(instrumentationName),
		requests: requests,
		duration: duration,
	}, nil
}

// observe runs call inside an "oauth.<verb>" span and records its outcome.
func (t *telemetry) observe(ctx context.Context, verb string, call func(context.Context) error) error {
	ctx, span := t.tracer.Start(ctx, "oauth."+verb,
		trace.WithSpanKind(trace.SpanKindServer),
		trace.WithAttributes(attrVerb.String(verb)),
	)
	defer span.End()

	start := time.Now()
	err := call(ctx)
	t.duration.Record(ctx, time.Since(start).Seconds(), metric.WithAttributes(attrVerb.String(verb)))

	attrs := []attribute.KeyValue{attrVerb.String(verb)}
	if err != nil {
		oauthErr := oauth.ToError(err)
		attrs = append(attrs, attrOutcome.String("error"), attrError.String(oauthErr.Name))
		span.RecordError(err)
		span.SetStatus(codes.Error, oauthErr.Name)
		span.SetAttributes(attrError.String(oauthErr.Name))
	} else {
		attrs = append(attrs, attrOutcome.String("success"))
		span.SetStatus(codes.Ok, "")
	}
	t.requests.Add(ctx, 1, metric.WithAttributes(attrs...))

	return err
}
