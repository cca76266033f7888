// Package telemetry wires the optional OpenTelemetry bridge
// (SPECFORGE_OTEL_ENABLED): when enabled, tick execution and handler
// dispatch are wrapped in spans exported via stdout rather than an
// OTLP collector, a stdout bridge rather than a full observability
// pipeline. The TracerProvider setup (resource construction, a
// provider wired to an exporter, a shutdown that flushes on exit)
// follows the same shape as a larger OTelProvider/NewOTelProvider seen
// elsewhere in the corpus, trimmed down to the one exporter needed
// here; see DESIGN.md for why the rest of that provider was not
// carried.
package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
	"go.opentelemetry.io/otel/trace"
)

// Tracer is used by internal/processor to span tick execution and
// handler dispatch. It is always safe to call: when Init is never
// called (or called with enabled=false), otel's default no-op tracer
// provider answers Start with a span that records nothing.
var Tracer trace.Tracer = otel.Tracer("specforge/processor")

// Init installs a stdout span exporter as the global tracer provider
// when enabled is true; otherwise it is a no-op and Tracer keeps
// answering through otel's default no-op provider. The returned
// shutdown flushes any buffered spans and must be called before the
// process exits.
func Init(enabled bool, serviceName string) (shutdown func(context.Context) error, err error) {
	noop := func(context.Context) error { return nil }
	if !enabled {
		return noop, nil
	}

	exporter, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
	if err != nil {
		return noop, err
	}

	res, err := resource.Merge(resource.Default(), resource.NewSchemaless(
		semconv.ServiceNameKey.String(serviceName),
	))
	if err != nil {
		return noop, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)
	Tracer = otel.Tracer("specforge/processor")

	return tp.Shutdown, nil
}
