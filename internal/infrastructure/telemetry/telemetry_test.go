package telemetry

import (
	"bytes"
	"context"
	"strings"
	"testing"
)

func TestInit_StdoutExportsSpans(t *testing.T) {
	var buf bytes.Buffer
	tp, shutdown, err := Init(context.Background(), Options{ServiceName: "collateral-test", Stdout: true, Writer: &buf})
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	_, span := tp.Tracer("test").Start(context.Background(), "collateral.reconcile")
	span.End()
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
	if !strings.Contains(buf.String(), "collateral.reconcile") || !strings.Contains(buf.String(), "collateral-test") {
		t.Fatalf("span not exported: %s", buf.String())
	}
}

func TestInit_Disabled(t *testing.T) {
	tp, shutdown, err := Init(context.Background(), Options{})
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	_, span := tp.Tracer("test").Start(context.Background(), "noop")
	if span.SpanContext().IsValid() {
		t.Fatalf("disabled tracing should not record spans")
	}
	span.End()
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
}
