package invoice

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/teemow/sessionbill/internal/billing"
)

// DefaultCurrency is the symbol used when Options.Currency is empty.
const DefaultCurrency = "£"

// Line is one session row.
type Line struct {
	Date     string
	Start    string
	End      string
	Duration string
	Amount   string
}

// Section lists one client's sessions. Private invoices have exactly one.
type Section struct {
	Client   string
	Rate     string
	Lines    []Line
	Duration string
	Subtotal string
}

// Payee is the bank account payment goes to.
type Payee struct {
	Name          string
	SortCode      string
	AccountNumber string
	Bank          string
}

// Contact is how the recipient reaches the payee.
type Contact struct {
	Phone string
	Email string
}

// Document is the view model every renderer consumes. All values are
// preformatted strings.
type Document struct {
	Recipient string
	Agency    bool
	Period    string
	IssueDate string

	Sections      []Section
	TotalDuration string
	Total         string
	// Amount is the rounded total without currency symbol, as substituted
	// into the payment links.
	Amount      string
	PaymentLink string
	QRCodeLink  string

	Payee   Payee
	Contact Contact

	FileName string
}

// Options carries the run-wide inputs of a document.
type Options struct {
	Bank      billing.BankDetails
	Contact   billing.ContactDetails
	Period    billing.Period
	Location  *time.Location
	Currency  string
	IssueDate time.Time
}

// NewDocument builds the view model for one billing group.
func NewDocument(g billing.BillingGroup, opts Options) Document {
	loc := opts.Location
	if loc == nil {
		loc = time.UTC
	}
	currency := opts.Currency
	if currency == "" {
		currency = DefaultCurrency
	}
	issued := opts.IssueDate
	if issued.IsZero() {
		issued = time.Now()
	}

	doc := Document{
		Recipient:     g.DisplayName,
		Agency:        g.Kind == billing.KindAgency,
		Period:        PeriodLabel(opts.Period, loc),
		IssueDate:     FormatDate(issued, loc),
		TotalDuration: FormatDuration(g.Duration),
		Total:         FormatCurrency(currency, g.Total),
		Amount:        billing.FormatAmount(g.Total),
		PaymentLink:   g.PaymentLink(opts.Bank),
		QRCodeLink:    g.QRCodeLink(opts.Bank),
		Payee: Payee{
			Name:          opts.Bank.Name,
			SortCode:      opts.Bank.FormattedSortCode(),
			AccountNumber: opts.Bank.FormattedAccountNumber(),
			Bank:          opts.Bank.Bank,
		},
		Contact: Contact{
			Phone: opts.Contact.FormattedPhone(),
			Email: opts.Contact.Email,
		},
		FileName: g.FileName(),
	}

	for _, ct := range g.ClientTotals {
		sec := Section{
			Client:   ct.Client,
			Duration: FormatDuration(ct.Duration),
			Subtotal: FormatCurrency(currency, ct.Total),
		}
		var rate decimal.Decimal
		for _, s := range g.Sessions {
			if s.Client != ct.Client {
				continue
			}
			rate = s.Rate
			sec.Lines = append(sec.Lines, Line{
				Date:     FormatDate(s.Start, loc),
				Start:    FormatTime(s.Start, loc),
				End:      FormatTime(s.End, loc),
				Duration: FormatDuration(s.Duration()),
				Amount:   FormatCurrency(currency, s.Cost),
			})
		}
		sec.Rate = FormatCurrency(currency, rate)
		doc.Sections = append(doc.Sections, sec)
	}

	return doc
}
