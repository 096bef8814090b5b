// SPDX-FileCopyrightText: 2025 Deutsche Telekom AG
//
// SPDX-License-Identifier: Apache-2.0

// Package telemetry sets up OpenTelemetry tracing for regression runs. Each
// class, scenario attempt, UI action and product API call becomes a span, and
// every span of one run carries the run id as a resource attribute.
package telemetry

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"
	"google.golang.org/grpc"
)

// InstrumentationName names the tracer used across the harness.
const InstrumentationName = "github.com/fodqa/fod-regression"

// Span attribute keys shared by the runner, actions and API client.
const (
	AttrRunID       = attribute.Key("fodtest.run_id")
	AttrTarget      = attribute.Key("fodtest.target")
	AttrClass       = attribute.Key("fodtest.class")
	AttrScenario    = attribute.Key("fodtest.scenario")
	AttrBacklogItem = attribute.Key("fodtest.backlog_item")
	AttrAttempt     = attribute.Key("fodtest.attempt")
)

const shutdownTimeout = 5 * time.Second

// Options configures the TracerProvider.
type Options struct {
	// Enabled installs a real provider. When false a no-op provider is used.
	Enabled bool

	ServiceName    string
	ServiceVersion string

	// Environment is the product stage under test (deployment.environment).
	Environment string
	// Target is the product UI URL the run talks to.
	Target string
	RunID  string

	// Exporter is "otlp" (default), "stdout" or "none".
	Exporter string
	Endpoint string
	Insecure bool

	// SamplingRate outside (0, 1] becomes 1.
	SamplingRate float64

	Logger *zap.SugaredLogger
}

func (o *Options) defaults() {
	if o.ServiceName == "" {
		o.ServiceName = "fodtest"
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop().Sugar()
	}
	if o.SamplingRate <= 0 || o.SamplingRate > 1 {
		if o.SamplingRate != 0 {
			o.Logger.Warnw("Sampling rate out of range, tracing every run", "provided", o.SamplingRate)
		}
		o.SamplingRate = 1
	}
}

// ShutdownFunc flushes pending spans and stops the provider.
type ShutdownFunc func(ctx context.Context) error

// Init installs the global TracerProvider and propagator. The returned
// ShutdownFunc is always non-nil when err is nil.
func Init(ctx context.Context, opts Options) (trace.TracerProvider, ShutdownFunc, error) {
	if !opts.Enabled {
		tp := noop.NewTracerProvider()
		otel.SetTracerProvider(tp)
		return tp, func(context.Context) error { return nil }, nil
	}
	opts.defaults()
	log := opts.Logger

	res, err := resourceFor(opts)
	if err != nil {
		return nil, nil, fmt.Errorf("creating trace resource: %w", err)
	}
	exporter, err := newExporter(ctx, opts)
	if err != nil {
		return nil, nil, err
	}

	tpOpts := []sdktrace.TracerProviderOption{
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(opts.SamplingRate))),
	}
	if exporter != nil {
		tpOpts = append(tpOpts, sdktrace.WithBatcher(exporter))
	}
	tp := sdktrace.NewTracerProvider(tpOpts...)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))
	otel.SetErrorHandler(otel.ErrorHandlerFunc(func(err error) {
		log.Warnw("Tracing error", "error", err)
	}))
	log.Infow("Tracing initialized", "runId", opts.RunID, "exporter", opts.Exporter, "samplingRate", opts.SamplingRate)

	return tp, func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, shutdownTimeout)
		defer cancel()
		return tp.Shutdown(ctx)
	}, nil
}

func resourceFor(opts Options) (*resource.Resource, error) {
	attrs := []attribute.KeyValue{
		attribute.String("service.name", opts.ServiceName),
		attribute.String("service.version", opts.ServiceVersion),
	}
	if opts.Environment != "" {
		attrs = append(attrs, attribute.String("deployment.environment", opts.Environment))
	}
	if opts.Target != "" {
		attrs = append(attrs, AttrTarget.String(opts.Target))
	}
	if opts.RunID != "" {
		attrs = append(attrs, AttrRunID.String(opts.RunID))
	}
	return resource.Merge(resource.Default(), resource.NewSchemaless(attrs...))
}

// newExporter returns nil for the "none" exporter.
func newExporter(ctx context.Context, opts Options) (sdktrace.SpanExporter, error) {
	switch opts.Exporter {
	case "otlp", "":
		grpcOpts := []otlptracegrpc.Option{
			otlptracegrpc.WithEndpoint(opts.Endpoint),
			otlptracegrpc.WithDialOption(grpc.WithUserAgent(opts.ServiceName + "/" + opts.ServiceVersion)),
		}
		if opts.Insecure {
			grpcOpts = append(grpcOpts, otlptracegrpc.WithInsecure())
		}
		exp, err := otlptracegrpc.New(ctx, grpcOpts...)
		if err != nil {
			return nil, fmt.Errorf("creating OTLP exporter for %s: %w", opts.Endpoint, err)
		}
		return exp, nil
	case "stdout":
		exp, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
		if err != nil {
			return nil, fmt.Errorf("creating stdout exporter: %w", err)
		}
		return exp, nil
	case "none":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown trace exporter %q: supported values are otlp, stdout, none", opts.Exporter)
	}
}

// ScenarioAttributes labels a scenario span.
func ScenarioAttributes(class, scenario, backlogItem string) []attribute.KeyValue {
	attrs := []attribute.KeyValue{AttrClass.String(class), AttrScenario.String(scenario)}
	if backlogItem != "" {
		attrs = append(attrs, AttrBacklogItem.String(backlogItem))
	}
	return attrs
}

// Tracer returns the harness tracer from the global provider.
func Tracer() trace.Tracer {
	return otel.Tracer(InstrumentationName)
}

// StartSpan starts a span on the harness tracer.
func StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return Tracer().Start(ctx, name, trace.WithAttributes(attrs...))
}

// EndSpan records err on span (if any) and ends it.
func EndSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}
