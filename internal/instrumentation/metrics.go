package instrumentation

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metric attribute keys
const (
	attrOutcome   = "outcome"
	attrRenderer  = "renderer"
	attrKind      = "kind"
	attrStatus    = "status"
	attrOperation = "operation"
	attrTool      = "tool"
)

// Metrics records billing run metrics. The zero value is a no-op recorder.
type Metrics struct {
	eventsTotal metric.Int64Counter

	invoicesTotal  metric.Int64Counter
	renderDuration metric.Float64Histogram

	calendarRequestsTotal   metric.Int64Counter
	calendarRequestDuration metric.Float64Histogram

	runDuration metric.Float64Histogram

	toolInvocationsTotal metric.Int64Counter
	toolDuration         metric.Float64Histogram
}

// NewMetrics creates a new Metrics instance with all instruments initialized.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{}

	var err error

	m.eventsTotal, err = meter.Int64Counter(
		"sessionbill_events_total",
		metric.WithDescription("Calendar events processed, by classification outcome"),
		metric.WithUnit("{event}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create sessionbill_events_total counter: %w", err)
	}

	m.invoicesTotal, err = meter.Int64Counter(
		"sessionbill_invoices_total",
		metric.WithDescription("Invoices rendered, by renderer and client kind"),
		metric.WithUnit("{invoice}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create sessionbill_invoices_total counter: %w", err)
	}

	m.renderDuration, err = meter.Float64Histogram(
		"sessionbill_render_duration_seconds",
		metric.WithDescription("Invoice rendering duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create sessionbill_render_duration_seconds histogram: %w", err)
	}

	m.calendarRequestsTotal, err = meter.Int64Counter(
		"sessionbill_calendar_requests_total",
		metric.WithDescription("Google Calendar API requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create sessionbill_calendar_requests_total counter: %w", err)
	}

	m.calendarRequestDuration, err = meter.Float64Histogram(
		"sessionbill_calendar_request_duration_seconds",
		metric.WithDescription("Google Calendar API request duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create sessionbill_calendar_request_duration_seconds histogram: %w", err)
	}

	m.runDuration, err = meter.Float64Histogram(
		"sessionbill_run_duration_seconds",
		metric.WithDescription("Duration of a complete billing run in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create sessionbill_run_duration_seconds histogram: %w", err)
	}

	m.toolInvocationsTotal, err = meter.Int64Counter(
		"sessionbill_mcp_tool_invocations_total",
		metric.WithDescription("MCP tool invocations"),
		metric.WithUnit("{invocation}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create sessionbill_mcp_tool_invocations_total counter: %w", err)
	}

	m.toolDuration, err = meter.Float64Histogram(
		"sessionbill_mcp_tool_duration_seconds",
		metric.WithDescription("MCP tool execution duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create sessionbill_mcp_tool_duration_seconds histogram: %w", err)
	}

	return m, nil
}

// RecordEvents adds n events with the given outcome.
func (m *Metrics) RecordEvents(ctx context.Context, outcome string, n int) {
	if m == nil || m.eventsTotal == nil || n == 0 {
		return
	}
	m.eventsTotal.Add(ctx, int64(n), metric.WithAttributes(attribute.String(attrOutcome, outcome)))
}

// RecordInvoice records one rendered invoice.
func (m *Metrics) RecordInvoice(ctx context.Context, renderer, kind, status string, duration time.Duration) {
	if m == nil || m.invoicesTotal == nil || m.renderDuration == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String(attrRenderer, renderer),
		attribute.String(attrKind, kind),
		attribute.String(attrStatus, status),
	)
	m.invoicesTotal.Add(ctx, 1, attrs)
	m.renderDuration.Record(ctx, duration.Seconds(), attrs)
}

// RecordCalendarRequest records one Google Calendar API call.
func (m *Metrics) RecordCalendarRequest(ctx context.Context, operation, status string, duration time.Duration) {
	if m == nil || m.calendarRequestsTotal == nil || m.calendarRequestDuration == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String(attrOperation, operation),
		attribute.String(attrStatus, status),
	)
	m.calendarRequestsTotal.Add(ctx, 1, attrs)
	m.calendarRequestDuration.Record(ctx, duration.Seconds(), attrs)
}

// RecordRun records the duration of a billing run.
func (m *Metrics) RecordRun(ctx context.Context, status string, duration time.Duration) {
	if m == nil || m.runDuration == nil {
		return
	}
	m.runDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attribute.String(attrStatus, status)))
}

// RecordToolInvocation records an MCP tool invocation.
func (m *Metrics) RecordToolInvocation(ctx context.Context, toolName, status string, duration time.Duration) {
	if m == nil || m.toolInvocationsTotal == nil || m.toolDuration == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String(attrTool, toolName),
		attribute.String(attrStatus, status),
	)
	m.toolInvocationsTotal.Add(ctx, 1, attrs)
	m.toolDuration.Record(ctx, duration.Seconds(), attrs)
}
