// Package telemetry installs the global OpenTelemetry tracer provider used
// for collateral critical-section spans.
package telemetry

import (
	"context"
	"io"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

type Options struct {
	ServiceName string
	// Stdout exports spans as JSON to Writer (os.Stdout when nil). When
	// false spans are created but dropped.
	Stdout bool
	Writer io.Writer
}

// Init sets the global tracer provider and returns its shutdown func.
func Init(ctx context.Context, o Options) (trace.TracerProvider, func(context.Context) error, error) {
	if !o.Stdout {
		tp := noop.NewTracerProvider()
		otel.SetTracerProvider(tp)
		return tp, func(context.Context) error { return nil }, nil
	}
	w := o.Writer
	if w == nil {
		w = os.Stdout
	}
	exp, err := stdouttrace.New(stdouttrace.WithWriter(w))
	if err != nil {
		return nil, nil, err
	}
	name := o.ServiceName
	if name == "" {
		name = "collateral-service"
	}
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(resource.NewSchemaless(attribute.String("service.name", name))),
	)
	otel.SetTracerProvider(tp)
	return tp, tp.Shutdown, nil
}
