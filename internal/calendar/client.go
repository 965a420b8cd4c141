package calendar

import (
	"context"
	"fmt"
	"net/http"
	"time"

	calendar "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/teemow/sessionbill/internal/billing"
	"github.com/teemow/sessionbill/internal/instrumentation"
)

const (
	defaultPageSize = 250
	statusCancelled = "cancelled"
	dateLayout      = "2006-01-02"
)

// Client wraps the Google Calendar service for one calendar.
type Client struct {
	svc        *calendar.Service
	calendarID string
	loc        *time.Location
	metrics    *instrumentation.Metrics
	pageSize   int64
}

type clientConfig struct {
	apiOptions []option.ClientOption
	loc        *time.Location
	metrics    *instrumentation.Metrics
	pageSize   int64
}

// Option configures a Client.
type Option func(*clientConfig)

// WithHTTPClient sets the authenticated HTTP client used for API calls.
func WithHTTPClient(c *http.Client) Option {
	return func(cfg *clientConfig) {
		cfg.apiOptions = append(cfg.apiOptions, option.WithHTTPClient(c))
	}
}

// WithEndpoint overrides the API base URL.
func WithEndpoint(endpoint string) Option {
	return func(cfg *clientConfig) {
		cfg.apiOptions = append(cfg.apiOptions, option.WithEndpoint(endpoint))
	}
}

// WithLocation sets the zone all-day events are anchored in. Defaults to UTC.
func WithLocation(loc *time.Location) Option {
	return func(cfg *clientConfig) {
		cfg.loc = loc
	}
}

// WithMetrics records request counts and latency.
func WithMetrics(m *instrumentation.Metrics) Option {
	return func(cfg *clientConfig) {
		cfg.metrics = m
	}
}

// WithPageSize sets the maximum number of events fetched per request.
func WithPageSize(n int64) Option {
	return func(cfg *clientConfig) {
		if n > 0 {
			cfg.pageSize = n
		}
	}
}

// NewClient creates a Calendar client for calendarID ("primary" for the
// owner's main calendar).
func NewClient(ctx context.Context, calendarID string, opts ...Option) (*Client, error) {
	if calendarID == "" {
		return nil, fmt.Errorf("calendar ID cannot be empty")
	}
	cfg := clientConfig{loc: time.UTC, pageSize: defaultPageSize}
	for _, opt := range opts {
		opt(&cfg)
	}

	svc, err := calendar.NewService(ctx, cfg.apiOptions...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Calendar service: %w", err)
	}

	return &Client{
		svc:        svc,
		calendarID: calendarID,
		loc:        cfg.loc,
		metrics:    cfg.metrics,
		pageSize:   cfg.pageSize,
	}, nil
}

// CalendarID returns the calendar this client reads from.
func (c *Client) CalendarID() string {
	return c.calendarID
}

// Events lists every non-cancelled event overlapping the period, with
// recurring events expanded into single instances, ordered by start time.
func (c *Client) Events(ctx context.Context, period billing.Period) (events []billing.CalendarEvent, err error) {
	if err := period.Validate(); err != nil {
		return nil, err
	}

	ctx, span := instrumentation.StartCalendarSpan(ctx, instrumentation.OperationList, c.calendarID)
	defer span.End()
	start := time.Now()
	defer func() {
		c.metrics.RecordCalendarRequest(ctx, instrumentation.OperationList, instrumentation.StatusOf(err), time.Since(start))
		instrumentation.SetSpanError(span, err)
	}()

	call := c.svc.Events.List(c.calendarID).
		TimeMin(period.From.Format(time.RFC3339)).
		TimeMax(period.To.Format(time.RFC3339)).
		SingleEvents(true).
		OrderBy("startTime").
		MaxResults(c.pageSize)

	err = call.Pages(ctx, func(page *calendar.Events) error {
		for _, item := range page.Items {
			if item == nil || item.Status == statusCancelled {
				continue
			}
			ev, convErr := toCalendarEvent(item, c.loc)
			if convErr != nil {
				return convErr
			}
			events = append(events, ev)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}

	return events, nil
}

// toCalendarEvent converts a Google Calendar event. All-day events are
// anchored at midnight in loc.
func toCalendarEvent(event *calendar.Event, loc *time.Location) (billing.CalendarEvent, error) {
	ev := billing.CalendarEvent{
		ID:    event.Id,
		Title: event.Summary,
	}

	var err error
	if ev.Start, err = parseEventTime(event.Start, loc); err != nil {
		return ev, fmt.Errorf("event %s: invalid start: %w", event.Id, err)
	}
	if ev.End, err = parseEventTime(event.End, loc); err != nil {
		return ev, fmt.Errorf("event %s: invalid end: %w", event.Id, err)
	}

	for _, att := range event.Attendees {
		if att == nil || att.Email == "" {
			continue
		}
		ev.Attendees = append(ev.Attendees, billing.Attendee{
			Email: att.Email,
			Self:  att.Self,
		})
	}

	return ev, nil
}

func parseEventTime(dt *calendar.EventDateTime, loc *time.Location) (time.Time, error) {
	if dt == nil {
		return time.Time{}, fmt.Errorf("missing time")
	}
	if dt.DateTime != "" {
		return time.Parse(time.RFC3339, dt.DateTime)
	}
	if dt.Date != "" {
		return time.ParseInLocation(dateLayout, dt.Date, loc)
	}
	return time.Time{}, fmt.Errorf("missing time")
}
