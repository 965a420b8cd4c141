package instrumentation

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestNewProvider_Disabled(t *testing.T) {
	provider, err := NewProvider(context.Background(), Config{
		ServiceName: "test-service",
		Enabled:     false,
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if provider.Enabled() {
		t.Error("expected provider to be disabled")
	}
	if provider.Metrics() == nil {
		t.Error("expected metrics to be non-nil even when disabled")
	}

	// Recording on the no-op recorder must not panic.
	provider.Metrics().RecordEvents(context.Background(), OutcomeSession, 3)

	if err := provider.Shutdown(context.Background()); err != nil {
		t.Errorf("expected no error on shutdown, got %v", err)
	}
}

func TestNewProvider_NoExporters(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	provider, err := NewProvider(ctx, Config{
		ServiceName:       "test-service",
		Enabled:           true,
		MetricsExporter:   ExporterNone,
		TracingExporter:   ExporterNone,
		TraceSamplingRate: 1,
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	defer func() { _ = provider.Shutdown(ctx) }()

	if provider.Tracer("test") == nil {
		t.Error("expected tracer to be non-nil")
	}
	if err := provider.WriteTextfile(); err != nil {
		t.Errorf("expected WriteTextfile to be a no-op, got %v", err)
	}
}

func TestNewProvider_PrometheusTextfile(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	path := filepath.Join(t.TempDir(), "sessionbill.prom")
	provider, err := NewProvider(ctx, Config{
		ServiceName:        "test-service",
		ServiceVersion:     "1.0.0",
		Enabled:            true,
		MetricsExporter:    ExporterPrometheus,
		TracingExporter:    ExporterNone,
		TraceSamplingRate:  1,
		PrometheusTextfile: path,
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	provider.Metrics().RecordEvents(ctx, OutcomeSession, 4)
	provider.Metrics().RecordInvoice(ctx, "pdf", "private", StatusSuccess, 20*time.Millisecond)

	if err := provider.Shutdown(ctx); err != nil {
		t.Fatalf("expected no error on shutdown, got %v", err)
	}

	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("expected textfile to be written: %v", err)
	}
	if !strings.Contains(string(b), "sessionbill_events") {
		t.Errorf("expected events metric in textfile, got:\n%s", b)
	}
	if !strings.Contains(string(b), "sessionbill_invoices") {
		t.Errorf("expected invoices metric in textfile, got:\n%s", b)
	}
}

func TestNewProvider_InvalidConfig(t *testing.T) {
	_, err := NewProvider(context.Background(), Config{
		Enabled:         true,
		MetricsExporter: "statsd",
	})
	if err == nil {
		t.Error("expected error for unsupported exporter")
	}
}
