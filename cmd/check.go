package cmd

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/teemow/sessionbill/internal/billing"
	"github.com/teemow/sessionbill/internal/config"
)

func newCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Validate the client, bank and contact files",
		Long: `Load clients.yaml, bank_details.yaml and contact_details.yaml from the data
directory, report every problem found and print the normalized records.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			records, err := settings.LoadRecords()
			if err != nil {
				return err
			}
			printRecords(cmd.OutOrStdout(), records)
			return nil
		},
	}
}

func printRecords(out io.Writer, r *config.Records) {
	fmt.Fprintf(out, "Clients (%d):\n", r.Directory.Len())
	printClients(out, r.Directory.Records())

	fmt.Fprintln(out, "\nBank details:")
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "  Name\t%s\n", r.Bank.Name)
	fmt.Fprintf(tw, "  Bank\t%s\n", r.Bank.Bank)
	fmt.Fprintf(tw, "  Sort code\t%s\n", r.Bank.FormattedSortCode())
	fmt.Fprintf(tw, "  Account\t%s\n", r.Bank.FormattedAccountNumber())
	if r.Bank.PaymentLink != "" {
		fmt.Fprintf(tw, "  Payment link\t%s\n", r.Bank.PaymentLink)
	}
	if r.Bank.QRCodeLink != "" {
		fmt.Fprintf(tw, "  QR code link\t%s\n", r.Bank.QRCodeLink)
	}
	_ = tw.Flush()

	fmt.Fprintln(out, "\nContact details:")
	tw = tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "  Phone\t%s\n", r.Contact.FormattedPhone())
	fmt.Fprintf(tw, "  E-mail\t%s\n", r.Contact.Email)
	_ = tw.Flush()
}

func printClients(out io.Writer, records []billing.ClientRecord) {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "  NAME\tTYPE\tRATE\tE-MAILS")
	for _, c := range records {
		fmt.Fprintf(tw, "  %s\t%s\t%s\t%s\n", c.Name, c.Type, billing.FormatAmount(c.Rate), strings.Join(c.Emails, ", "))
	}
	_ = tw.Flush()
}
