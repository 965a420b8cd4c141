// Package instrumentation provides OpenTelemetry metrics and tracing for
// sessionbill runs.
//
// # Metrics
//
//   - sessionbill_events_total: events processed, by outcome
//     (session, non_billable, skipped, out_of_range, excluded)
//   - sessionbill_invoices_total / sessionbill_render_duration_seconds:
//     rendered invoices by renderer, client kind and status
//   - sessionbill_calendar_requests_total / sessionbill_calendar_request_duration_seconds:
//     Google Calendar API calls
//   - sessionbill_run_duration_seconds: whole run duration
//   - sessionbill_mcp_tool_invocations_total / sessionbill_mcp_tool_duration_seconds
//
// A billing run is a short-lived process, so the prometheus exporter does not
// serve an endpoint. It writes a node_exporter textfile on Shutdown instead.
//
// # Configuration
//
// Environment variables:
//   - INSTRUMENTATION_ENABLED: enable/disable instrumentation (default: true)
//   - METRICS_EXPORTER: prometheus, otlp, stdout or none (default: none)
//   - PROMETHEUS_TEXTFILE: output path for the prometheus exporter
//   - TRACING_EXPORTER: otlp, stdout or none (default: none)
//   - OTEL_EXPORTER_OTLP_ENDPOINT, OTEL_EXPORTER_OTLP_INSECURE
//   - OTEL_TRACES_SAMPLER_ARG: sampling rate (default: 1.0)
//   - OTEL_SERVICE_NAME: service name (default: sessionbill)
//
// # Example Usage
//
//	provider, err := instrumentation.NewProvider(ctx, instrumentation.DefaultConfig())
//	if err != nil {
//		return err
//	}
//	defer provider.Shutdown(ctx)
//
//	provider.Metrics().RecordEvents(ctx, instrumentation.OutcomeSession, 12)
package instrumentation
