package instrumentation

import (
	"context"
	"errors"
	"testing"
	"time"
)

func newTestProvider(t *testing.T) *Provider {
	t.Helper()
	provider, err := NewProvider(context.Background(), Config{
		ServiceName:       "test-service",
		Enabled:           true,
		MetricsExporter:   ExporterNone,
		TracingExporter:   ExporterNone,
		TraceSamplingRate: 1,
	})
	if err != nil {
		t.Fatalf("failed to create provider: %v", err)
	}
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })
	return provider
}

func TestMetrics_Record(t *testing.T) {
	ctx := context.Background()
	metrics := newTestProvider(t).Metrics()

	// Should not panic
	metrics.RecordEvents(ctx, OutcomeSession, 2)
	metrics.RecordEvents(ctx, OutcomeNonBillable, 0)
	metrics.RecordInvoice(ctx, "chrome", "agency", StatusError, time.Second)
	metrics.RecordCalendarRequest(ctx, OperationList, StatusSuccess, 150*time.Millisecond)
	metrics.RecordRun(ctx, StatusSuccess, 3*time.Second)
	metrics.RecordToolInvocation(ctx, "billing_preview", StatusSuccess, 10*time.Millisecond)
}

func TestMetrics_NilRecorder(t *testing.T) {
	var metrics *Metrics
	ctx := context.Background()

	// Should not panic
	metrics.RecordEvents(ctx, OutcomeSession, 1)
	metrics.RecordInvoice(ctx, "html", "private", StatusSuccess, time.Millisecond)
	metrics.RecordCalendarRequest(ctx, OperationList, StatusSuccess, time.Millisecond)
	metrics.RecordRun(ctx, StatusSuccess, time.Millisecond)
	metrics.RecordToolInvocation(ctx, "billing_generate", StatusError, time.Millisecond)
}

func TestStatusOf(t *testing.T) {
	if StatusOf(nil) != StatusSuccess {
		t.Error("expected success for nil error")
	}
	if StatusOf(errors.New("boom")) != StatusError {
		t.Error("expected error for non-nil error")
	}
}
