// SPDX-FileCopyrightText: 2025 Deutsche Telekom AG
//
// SPDX-License-Identifier: Apache-2.0

package telemetry

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"
)

func restoreProvider(t *testing.T) {
	prev := otel.GetTracerProvider()
	t.Cleanup(func() { otel.SetTracerProvider(prev) })
}

func TestInitDisabled(t *testing.T) {
	restoreProvider(t)

	ctx := context.Background()
	tp, shutdown, err := Init(ctx, Options{Enabled: false})
	if err != nil {
		t.Fatalf("Init(disabled) returned error: %v", err)
	}
	if _, ok := tp.(noop.TracerProvider); !ok {
		t.Errorf("expected noop.TracerProvider, got %T", tp)
	}
	if err := shutdown(ctx); err != nil {
		t.Errorf("shutdown returned error: %v", err)
	}
}

func TestInitNoneExporter(t *testing.T) {
	restoreProvider(t)

	ctx := context.Background()
	tp, shutdown, err := Init(ctx, Options{
		Enabled:     true,
		Exporter:    "none",
		ServiceName: "fodtest-unit",
		Environment: "qa",
		Logger:      zap.NewNop().Sugar(),
	})
	if err != nil {
		t.Fatalf("Init(none) returned error: %v", err)
	}
	defer func() { _ = shutdown(ctx) }()

	if _, ok := tp.(*sdktrace.TracerProvider); !ok {
		t.Errorf("expected *sdktrace.TracerProvider, got %T", tp)
	}
}

func TestInitStdoutExporter(t *testing.T) {
	restoreProvider(t)

	ctx := context.Background()
	_, shutdown, err := Init(ctx, Options{Enabled: true, Exporter: "stdout", SamplingRate: 0.5})
	if err != nil {
		t.Fatalf("Init(stdout) returned error: %v", err)
	}
	if err := shutdown(ctx); err != nil {
		t.Errorf("shutdown returned error: %v", err)
	}
}

func TestInitInvalidExporter(t *testing.T) {
	_, _, err := Init(context.Background(), Options{Enabled: true, Exporter: "zipkin"})
	if err == nil {
		t.Fatal("expected error for unknown exporter")
	}
}

func TestInitSamplingRateOutOfRange(t *testing.T) {
	restoreProvider(t)

	for _, rate := range []float64{-0.5, 2.0} {
		_, shutdown, err := Init(context.Background(), Options{Enabled: true, Exporter: "none", SamplingRate: rate})
		if err != nil {
			t.Fatalf("Init(rate=%v) returned error: %v", rate, err)
		}
		_ = shutdown(context.Background())
	}
}

func TestStartAndEndSpan(t *testing.T) {
	restoreProvider(t)

	rec := tracetest.NewSpanRecorder()
	otel.SetTracerProvider(sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec)))

	_, ok := StartSpan(context.Background(), "ok-span")
	EndSpan(ok, nil)
	_, bad := StartSpan(context.Background(), "bad-span")
	EndSpan(bad, errors.New("boom"))

	ended := rec.Ended()
	if len(ended) != 2 {
		t.Fatalf("expected 2 ended spans, got %d", len(ended))
	}
	if ended[0].Status().Code != codes.Ok {
		t.Errorf("expected Ok status, got %v", ended[0].Status().Code)
	}
	if ended[1].Status().Code != codes.Error || ended[1].Status().Description != "boom" {
		t.Errorf("unexpected error status %+v", ended[1].Status())
	}
}

func TestResourceCarriesRunAttributes(t *testing.T) {
	res, err := resourceFor(Options{ServiceName: "fodtest", Environment: "qa", Target: "https://qa.example.test", RunID: "run-1"})
	if err != nil {
		t.Fatalf("resourceFor returned error: %v", err)
	}
	set := res.Set()
	for key, want := range map[attribute.Key]string{
		"deployment.environment": "qa",
		AttrTarget:               "https://qa.example.test",
		AttrRunID:                "run-1",
	} {
		got, ok := set.Value(key)
		if !ok || got.AsString() != want {
			t.Errorf("resource %s = %q, want %q", key, got.AsString(), want)
		}
	}
}

func TestScenarioAttributes(t *testing.T) {
	attrs := ScenarioAttributes("WebHooks", "assign", "")
	if len(attrs) != 2 {
		t.Fatalf("expected class and scenario only, got %v", attrs)
	}
	attrs = ScenarioAttributes("WebHooks", "assign", "688003")
	if attrs[2] != AttrBacklogItem.String("688003") {
		t.Errorf("unexpected backlog attribute %v", attrs[2])
	}
}
