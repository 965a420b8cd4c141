package invoicing

import (
	"fmt"
	"strings"

	"github.com/teemow/sessionbill/internal/invoice"
)

// Summary renders the report as plain text, one line per invoice.
func (r *Report) Summary() string {
	var sb strings.Builder

	currency := r.Currency
	if currency == "" {
		currency = invoice.DefaultCurrency
	}
	mode := ""
	if r.DryRun {
		mode = " (preview)"
	}
	fmt.Fprintf(&sb, "Billing %s%s\n", r.PeriodLabel, mode)
	fmt.Fprintf(&sb, "Events: %d, non-billable: %d, skipped: %d\n\n", r.Events, r.NonBillable, len(r.Skipped))

	if len(r.Groups) == 0 {
		sb.WriteString("No invoices.\n")
	}
	for _, g := range r.Groups {
		fmt.Fprintf(&sb, "- %s (%s): %d sessions, %s, %s",
			g.DisplayName, g.Kind, g.Sessions,
			invoice.FormatDuration(g.Duration),
			invoice.FormatCurrency(currency, g.Total))
		if g.File != "" {
			fmt.Fprintf(&sb, " -> %s", g.File)
		}
		if g.Sent {
			sb.WriteString(" (sent)")
		}
		sb.WriteString("\n")
	}
	fmt.Fprintf(&sb, "\nTotal: %s\n", invoice.FormatCurrency(currency, r.Total))

	for _, sk := range r.Skipped {
		fmt.Fprintf(&sb, "Skipped %q at %s: %s", sk.Title, sk.Start, sk.Reason)
		if len(sk.Clients) > 0 {
			fmt.Fprintf(&sb, " (%s)", strings.Join(sk.Clients, ", "))
		}
		sb.WriteString("\n")
	}
	if len(r.Inactive) > 0 {
		fmt.Fprintf(&sb, "Inactive clients: %s\n", strings.Join(r.Inactive, ", "))
	}
	return sb.String()
}
