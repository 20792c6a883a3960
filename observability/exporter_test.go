package observability_test

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/tta-dev/workflowcore/observability"
)

func TestStdoutSpanExporter_EncodesOneLinePerSpan(t *testing.T) {
	var buf bytes.Buffer
	exporter := observability.NewStdoutSpanExporter(&buf)

	spans := []observability.Span{
		{Name: "step-a", CorrelationID: "c1", Duration: 5 * time.Millisecond},
		{Name: "step-b", CorrelationID: "c1", Duration: 10 * time.Millisecond},
	}

	if err := exporter.Export(context.Background(), spans); err != nil {
		t.Fatalf("Export() error = %v", err)
	}

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2", len(lines))
	}

	var decoded observability.Span
	if err := json.Unmarshal(lines[0], &decoded); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if decoded.Name != "step-a" {
		t.Errorf("Name = %q, want step-a", decoded.Name)
	}
}

func TestStdoutMetricExporter_EncodesSnapshot(t *testing.T) {
	var buf bytes.Buffer
	exporter := observability.NewStdoutMetricExporter(&buf)

	snapshot := observability.MetricSnapshot{
		Points: []observability.MetricPoint{{Name: "primitive.duration_ms", Value: 12.5}},
	}

	if err := exporter.Export(context.Background(), snapshot); err != nil {
		t.Fatalf("Export() error = %v", err)
	}

	var decoded observability.MetricSnapshot
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if len(decoded.Points) != 1 || decoded.Points[0].Name != "primitive.duration_ms" {
		t.Errorf("decoded points = %+v", decoded.Points)
	}
}
