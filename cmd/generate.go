package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/teemow/sessionbill/internal/billing"
	"github.com/teemow/sessionbill/internal/config"
	"github.com/teemow/sessionbill/internal/invoicing"
)

type generateOptions struct {
	from    string
	to      string
	clients []string
	dryRun  bool
	send    bool
	format  string
}

func newGenerateCmd() *cobra.Command {
	var opts generateOptions

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate the invoices of a billing period",
		Long: `Fetch the calendar events of the billing period, match them to clients and
write one invoice per private client and one per agency.

The period defaults to the last full calendar month. --to is exclusive, so
--from 2024-06-01 --to 2024-07-01 bills June.`,
		Example: `  sessionbill generate
  sessionbill generate --from 2024-06-01 --to 2024-07-01 --renderer pdf
  sessionbill generate --client "Alice Smith" --dry-run
  sessionbill generate --ics export.ics --output /tmp/invoices`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(cmd.Context(), cmd.OutOrStdout(), settings, opts)
		},
	}

	cmd.Flags().StringVar(&opts.from, "from", "", "First day of the period, YYYY-MM-DD (default: first day of last month)")
	cmd.Flags().StringVar(&opts.to, "to", "", "Day after the last day of the period, YYYY-MM-DD (default: end of the month of --from)")
	cmd.Flags().StringArrayVar(&opts.clients, "client", nil, "Only bill this client (repeatable)")
	cmd.Flags().String("on-ambiguous", "", "Events matching several clients: skip or abort")
	cmd.Flags().String("renderer", "", "Invoice renderer: html, chrome or pdf")
	cmd.Flags().String("output", "", "Directory invoices are written to")
	cmd.Flags().String("ics", "", "Read events from an iCalendar file instead of Google Calendar")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "Show what would be invoiced without writing or sending anything")
	cmd.Flags().BoolVar(&opts.send, "send", false, "E-mail each invoice to its recipient")
	cmd.Flags().StringVar(&opts.format, "format", "text", "Report format: text or json")

	return cmd
}

func runGenerate(ctx context.Context, out io.Writer, s *config.Settings, opts generateOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	runOpts, err := buildRunOptions(s, opts, time.Now())
	if err != nil {
		return err
	}

	provider, err := newProvider(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err := provider.Shutdown(context.Background()); err != nil {
			logger.Warn("instrumentation shutdown failed", "error", err)
		}
	}()

	svc, err := newService(ctx, s, provider.Metrics())
	if err != nil {
		return err
	}

	report, err := svc.Run(ctx, runOpts)
	if err != nil {
		return err
	}
	return writeReport(out, report, opts.format)
}

func buildRunOptions(s *config.Settings, opts generateOptions, now time.Time) (invoicing.RunOptions, error) {
	period, err := billing.ParsePeriod(opts.from, opts.to, s.Location(), now)
	if err != nil {
		return invoicing.RunOptions{}, err
	}
	return invoicing.RunOptions{
		Period:  period,
		Clients: opts.clients,
		OnError: s.ErrorPolicy(),
		DryRun:  opts.dryRun,
		Send:    opts.send,
	}, nil
}

func writeReport(out io.Writer, report *invoicing.Report, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	case "", "text":
		_, err := io.WriteString(out, report.Summary())
		return err
	default:
		return fmt.Errorf("unknown format %q, must be text or json", format)
	}
}
