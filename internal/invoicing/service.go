package invoicing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/teemow/sessionbill/internal/billing"
	"github.com/teemow/sessionbill/internal/config"
	"github.com/teemow/sessionbill/internal/delivery"
	"github.com/teemow/sessionbill/internal/instrumentation"
	"github.com/teemow/sessionbill/internal/invoice"
	"github.com/teemow/sessionbill/internal/logging"
)

// EventSource lists the calendar events overlapping a period.
type EventSource interface {
	Events(ctx context.Context, period billing.Period) ([]billing.CalendarEvent, error)
}

// RecordsLoader loads the client, bank and contact records of a run.
// *config.Settings implements it.
type RecordsLoader interface {
	LoadRecords() (*config.Records, error)
}

// Mailer delivers one rendered invoice.
type Mailer interface {
	Send(ctx context.Context, inv delivery.Invoice) error
}

// ErrNoMailer is returned when sending is requested without a mailer.
var ErrNoMailer = errors.New("sending requested but no mail server is configured")

// Config wires a Service.
type Config struct {
	Loader   RecordsLoader
	Source   EventSource
	Renderer invoice.Renderer
	// Mailer is optional; runs with Send fail without it.
	Mailer   Mailer
	Contacts delivery.AgencyContacts

	TitleRules billing.TitleRules
	OutputDir  string
	Location   *time.Location
	Currency   string

	Logger  *slog.Logger
	Metrics *instrumentation.Metrics
	// Now stamps the issue date. Defaults to time.Now.
	Now func() time.Time
}

// Service runs the whole billing pipeline for a period: load records, fetch
// events, classify and aggregate, render, write and optionally mail.
type Service struct {
	cfg    Config
	logger *slog.Logger
}

// NewService validates cfg and returns a Service.
func NewService(cfg Config) (*Service, error) {
	if cfg.Loader == nil {
		return nil, fmt.Errorf("records loader cannot be nil")
	}
	if cfg.Source == nil {
		return nil, fmt.Errorf("event source cannot be nil")
	}
	if cfg.Renderer == nil {
		return nil, fmt.Errorf("renderer cannot be nil")
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Currency == "" {
		cfg.Currency = invoice.DefaultCurrency
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Service{
		cfg:    cfg,
		logger: logging.WithComponent(cfg.Logger, "invoicing"),
	}, nil
}

// RunOptions scope one run.
type RunOptions struct {
	Period  billing.Period
	Clients []string
	OnError billing.ErrorPolicy
	// DryRun computes the groups without rendering, writing or sending.
	DryRun bool
	Send   bool
}

// GroupReport summarizes one billing group of a run.
type GroupReport struct {
	Key         string          `json:"key"`
	DisplayName string          `json:"display_name"`
	Kind        string          `json:"kind"`
	Clients     []string        `json:"clients"`
	Sessions    int             `json:"sessions"`
	Duration    time.Duration   `json:"duration"`
	Total       decimal.Decimal `json:"total"`
	// File is the written document, empty on dry runs.
	File      string `json:"file,omitempty"`
	Recipient string `json:"recipient,omitempty"`
	Sent      bool   `json:"sent"`
}

// SkippedReport describes an event that failed classification.
type SkippedReport struct {
	EventID string   `json:"event_id"`
	Title   string   `json:"title"`
	Start   string   `json:"start"`
	Reason  string   `json:"reason"`
	Clients []string `json:"clients,omitempty"`
}

// Report is the outcome of a run.
type Report struct {
	Period      billing.Period  `json:"-"`
	PeriodLabel string          `json:"period"`
	DryRun      bool            `json:"dry_run"`
	Events      int             `json:"events"`
	NonBillable int             `json:"non_billable"`
	OutOfRange  int             `json:"out_of_range"`
	Excluded    int             `json:"excluded"`
	Groups      []GroupReport   `json:"groups"`
	Skipped     []SkippedReport `json:"skipped,omitempty"`
	Inactive    []string        `json:"inactive,omitempty"`
	Currency    string          `json:"currency"`
	// Total is the sum of the rounded group totals.
	Total decimal.Decimal `json:"total"`
}

// Run executes one billing run. Configuration and classification errors
// under PolicyAbort stop the run before anything is written.
func (s *Service) Run(ctx context.Context, opts RunOptions) (report *Report, err error) {
	start := time.Now()
	ctx, span := instrumentation.StartSpan(ctx, "billing.run",
		instrumentation.NewSpanAttributeBuilder().
			WithRenderer(s.cfg.Renderer.Name()).
			WithDryRun(opts.DryRun).
			Build()...)
	defer span.End()
	defer func() {
		s.cfg.Metrics.RecordRun(ctx, instrumentation.StatusOf(err), time.Since(start))
		instrumentation.SetSpanError(span, err)
	}()

	if opts.Send && !opts.DryRun && s.cfg.Mailer == nil {
		return nil, ErrNoMailer
	}

	records, err := s.cfg.Loader.LoadRecords()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	events, err := s.cfg.Source.Events(ctx, opts.Period)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch events: %w", err)
	}
	s.logger.Debug("fetched events", slog.Int("count", len(events)))

	cls := billing.NewClassifier(records.Directory, billing.WithTitleRules(s.cfg.TitleRules))
	res, err := billing.Process(events, cls, billing.ProcessOptions{
		Period:  opts.Period,
		Clients: opts.Clients,
		OnError: opts.OnError,
	})
	if err != nil {
		return nil, err
	}
	s.recordOutcomes(ctx, res)

	report = &Report{
		Period:      opts.Period,
		PeriodLabel: invoice.PeriodLabel(opts.Period, s.cfg.Location),
		DryRun:      opts.DryRun,
		Events:      len(events),
		NonBillable: res.NonBillable,
		OutOfRange:  res.OutOfRange,
		Excluded:    res.Excluded,
		Currency:    s.cfg.Currency,
		Total:       decimal.Zero,
		Inactive:    inactive(records.Directory, res.Sessions, opts.Clients),
	}

	for _, sk := range res.Skipped {
		s.logger.Warn("skipped event",
			logging.EventID(sk.Event.ID),
			slog.String("title", sk.Event.Title),
			slog.Time("start", sk.Event.Start),
			slog.String("reason", string(sk.Err.Reason)),
			logging.Err(sk.Err))
		report.Skipped = append(report.Skipped, SkippedReport{
			EventID: sk.Event.ID,
			Title:   sk.Event.Title,
			Start:   sk.Event.Start.In(s.cfg.Location).Format(time.RFC3339),
			Reason:  string(sk.Err.Reason),
			Clients: sk.Err.Clients,
		})
	}

	for _, g := range res.Groups {
		gr, err := s.handleGroup(ctx, g, records, opts)
		if err != nil {
			return nil, err
		}
		report.Groups = append(report.Groups, gr)
		report.Total = report.Total.Add(g.DisplayTotal())
	}

	s.logger.Info("billing run complete",
		slog.String("period", report.PeriodLabel),
		slog.Int("groups", len(report.Groups)),
		slog.Int("skipped", len(report.Skipped)),
		slog.String("total", billing.FormatAmount(report.Total)),
		slog.Bool("dry_run", opts.DryRun))
	return report, nil
}

func (s *Service) handleGroup(ctx context.Context, g billing.BillingGroup, records *config.Records, opts RunOptions) (GroupReport, error) {
	gr := GroupReport{
		Key:         g.Key,
		DisplayName: g.DisplayName,
		Kind:        g.Kind.String(),
		Clients:     g.Clients,
		Sessions:    len(g.Sessions),
		Duration:    g.Duration,
		Total:       g.DisplayTotal(),
	}
	logger := s.logger.With(logging.Group(g.Key))

	if opts.DryRun {
		logger.Info("invoice preview",
			slog.Int("sessions", gr.Sessions),
			slog.String("total", billing.FormatAmount(g.Total)))
		return gr, nil
	}

	ctx, span := instrumentation.StartSpan(ctx, "invoice.render",
		instrumentation.NewSpanAttributeBuilder().
			WithGroup(g.Key, g.Kind.String()).
			WithRenderer(s.cfg.Renderer.Name()).
			WithSessions(len(g.Sessions)).
			Build()...)
	defer span.End()

	doc := invoice.NewDocument(g, invoice.Options{
		Bank:      records.Bank,
		Contact:   records.Contact,
		Period:    opts.Period,
		Location:  s.cfg.Location,
		Currency:  s.cfg.Currency,
		IssueDate: s.cfg.Now(),
	})

	renderStart := time.Now()
	data, err := s.cfg.Renderer.Render(ctx, doc)
	s.cfg.Metrics.RecordInvoice(ctx, s.cfg.Renderer.Name(), g.Kind.String(), instrumentation.StatusOf(err), time.Since(renderStart))
	if err != nil {
		instrumentation.SetSpanError(span, err)
		return gr, fmt.Errorf("failed to render invoice for %s: %w", g.DisplayName, err)
	}

	name := invoice.FileName(doc, s.cfg.Renderer)
	path, err := s.write(name, data)
	if err != nil {
		instrumentation.SetSpanError(span, err)
		return gr, err
	}
	gr.File = path
	logger.Info("invoice written", slog.String("file", path), slog.String("total", doc.Total))

	if !opts.Send {
		return gr, nil
	}
	to, ok := delivery.ResolveRecipient(g, records.Directory, s.cfg.Contacts)
	if !ok {
		logger.Warn("no recipient address, invoice not sent")
		return gr, nil
	}
	gr.Recipient = to
	err = s.cfg.Mailer.Send(ctx, delivery.Invoice{
		To:        to,
		Recipient: g.DisplayName,
		Period:    doc.Period,
		Total:     doc.Total,
		FileName:  name,
		Data:      data,
	})
	if err != nil {
		instrumentation.SetSpanError(span, err)
		return gr, err
	}
	gr.Sent = true
	return gr, nil
}

func (s *Service) write(name string, data []byte) (string, error) {
	if err := os.MkdirAll(s.cfg.OutputDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}
	path := filepath.Join(s.cfg.OutputDir, filepath.Base(name))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write invoice: %w", err)
	}
	return path, nil
}

func (s *Service) recordOutcomes(ctx context.Context, res *billing.ProcessResult) {
	m := s.cfg.Metrics
	m.RecordEvents(ctx, instrumentation.OutcomeSession, len(res.Sessions))
	m.RecordEvents(ctx, instrumentation.OutcomeNonBillable, res.NonBillable)
	m.RecordEvents(ctx, instrumentation.OutcomeSkipped, len(res.Skipped))
	m.RecordEvents(ctx, instrumentation.OutcomeOutOfRange, res.OutOfRange)
	m.RecordEvents(ctx, instrumentation.OutcomeExcluded, res.Excluded)
}

// inactive lists the clients without sessions, limited to the requested
// subset when there is one.
func inactive(dir *billing.Directory, sessions []billing.Session, subset []string) []string {
	var out []string
	for _, rec := range billing.InactiveClients(dir, sessions) {
		if len(subset) > 0 && !containsFold(subset, rec.Name) {
			continue
		}
		out = append(out, rec.Name)
	}
	return out
}

func containsFold(names []string, name string) bool {
	for _, n := range names {
		if strings.EqualFold(strings.TrimSpace(n), name) {
			return true
		}
	}
	return false
}
