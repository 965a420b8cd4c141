package cmd

import (
	"context"
	"fmt"

	"github.com/teemow/sessionbill/internal/calendar"
	"github.com/teemow/sessionbill/internal/config"
	"github.com/teemow/sessionbill/internal/delivery"
	"github.com/teemow/sessionbill/internal/google"
	"github.com/teemow/sessionbill/internal/ics"
	"github.com/teemow/sessionbill/internal/instrumentation"
	"github.com/teemow/sessionbill/internal/invoice"
	"github.com/teemow/sessionbill/internal/invoicing"
)

// newProvider starts the instrumentation provider configured from the
// environment. The caller shuts it down.
func newProvider(ctx context.Context) (*instrumentation.Provider, error) {
	instrConfig := instrumentation.DefaultConfig()
	instrConfig.ServiceVersion = version

	provider, err := instrumentation.NewProvider(ctx, instrConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create instrumentation provider: %w", err)
	}
	return provider, nil
}

// newEventSource returns the iCalendar source when an export is configured,
// the Google Calendar client otherwise.
func newEventSource(ctx context.Context, s *config.Settings, metrics *instrumentation.Metrics) (invoicing.EventSource, error) {
	if s.ICSFile != "" {
		return ics.NewSource(s.Path(s.ICSFile),
			ics.WithLocation(s.Location()),
			ics.WithOwner(s.OwnerEmail),
		), nil
	}

	conf, err := google.LoadOAuthConfig(s.Path(s.CredentialsFile), google.DefaultOAuthScopes...)
	if err != nil {
		return nil, err
	}
	store := google.NewTokenStore(s.Path(s.TokenFile))
	if !store.Exists() {
		return nil, fmt.Errorf("no Google token at %s, run 'sessionbill auth' first", store.Path())
	}

	httpClient, err := google.HTTPClient(ctx, google.NewFileTokenProvider(conf, store))
	if err != nil {
		return nil, err
	}
	return calendar.NewClient(ctx, s.CalendarID,
		calendar.WithHTTPClient(httpClient),
		calendar.WithLocation(s.Location()),
		calendar.WithMetrics(metrics),
	)
}

// newService wires the billing pipeline from the settings.
func newService(ctx context.Context, s *config.Settings, metrics *instrumentation.Metrics) (*invoicing.Service, error) {
	source, err := newEventSource(ctx, s, metrics)
	if err != nil {
		return nil, err
	}

	renderer, err := invoice.NewRenderer(s.Renderer, invoice.RendererConfig{
		ChromePath: s.ChromePath,
		FontPath:   s.FontPath,
	})
	if err != nil {
		return nil, err
	}

	cfg := invoicing.Config{
		Loader:     s,
		Source:     source,
		Renderer:   renderer,
		Contacts:   s,
		TitleRules: s.TitleRules,
		OutputDir:  s.OutputDir,
		Location:   s.Location(),
		Currency:   s.Currency,
		Logger:     logger,
		Metrics:    metrics,
	}
	if s.SMTP.Enabled() {
		cfg.Mailer = delivery.NewMailer(delivery.Config{
			Host:     s.SMTP.Host,
			Port:     s.SMTP.Port,
			Username: s.SMTP.Username,
			Password: s.SMTP.Password,
			From:     s.SMTP.From,
		}, logger)
	}
	return invoicing.NewService(cfg)
}
