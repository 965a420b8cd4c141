package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newClientsCmd() *cobra.Command {
	var (
		inactive bool
		from, to string
	)

	cmd := &cobra.Command{
		Use:   "clients",
		Short: "List the clients of the directory",
		Long: `List the clients configured in clients.yaml.

With --inactive, fetch the events of the period (default: last full month)
and list only the clients that had no session in it.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if !inactive {
				records, err := settings.LoadRecords()
				if err != nil {
					return err
				}
				printClients(out, records.Directory.Records())
				return nil
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			runOpts, err := buildRunOptions(settings, generateOptions{from: from, to: to, dryRun: true}, time.Now())
			if err != nil {
				return err
			}
			svc, err := newService(ctx, settings, nil)
			if err != nil {
				return err
			}
			report, err := svc.Run(ctx, runOpts)
			if err != nil {
				return err
			}

			if len(report.Inactive) == 0 {
				fmt.Fprintf(out, "Every client had a session in %s.\n", report.PeriodLabel)
				return nil
			}
			fmt.Fprintf(out, "Clients without sessions in %s:\n", report.PeriodLabel)
			for _, name := range report.Inactive {
				fmt.Fprintf(out, "  %s\n", name)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&inactive, "inactive", false, "Only list clients without sessions in the period")
	cmd.Flags().StringVar(&from, "from", "", "First day of the period, YYYY-MM-DD")
	cmd.Flags().StringVar(&to, "to", "", "Day after the last day of the period, YYYY-MM-DD")
	cmd.Flags().String("ics", "", "Read events from an iCalendar file instead of Google Calendar")

	return cmd
}
