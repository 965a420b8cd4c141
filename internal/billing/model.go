package billing

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ClientKind tells private clients apart from clients billed through an agency.
type ClientKind int

const (
	KindPrivate ClientKind = iota
	KindAgency
)

func (k ClientKind) String() string {
	if k == KindAgency {
		return "agency"
	}
	return "private"
}

// privateClientType is the client_type value for individually billed clients.
const privateClientType = "private"

// ClientType is the tagged form of the client_type configuration field.
type ClientType struct {
	Kind ClientKind
	// Agency is the grouping identifier, empty for private clients.
	Agency string
}

// Private returns the ClientType of an individually billed client.
func Private() ClientType {
	return ClientType{Kind: KindPrivate}
}

// Agency returns the ClientType of a client billed through the named agency.
func Agency(name string) ClientType {
	return ClientType{Kind: KindAgency, Agency: name}
}

// ParseClientType maps a client_type string onto its tagged form.
func ParseClientType(s string) (ClientType, error) {
	s = strings.TrimSpace(s)
	switch {
	case s == "":
		return ClientType{}, &ValidationError{Field: "client_type", Reason: "must be \"private\" or an agency name"}
	case strings.EqualFold(s, privateClientType):
		return Private(), nil
	default:
		return Agency(s), nil
	}
}

func (t ClientType) String() string {
	if t.Kind == KindAgency {
		return t.Agency
	}
	return privateClientType
}

// ClientRecord is one entry of the client directory.
type ClientRecord struct {
	Name   string
	Type   ClientType
	Rate   decimal.Decimal
	Emails []string
}

// GroupKey is the name of the billing group the client's sessions land in.
func (c ClientRecord) GroupKey() string {
	if c.Type.Kind == KindAgency {
		return c.Type.Agency
	}
	return c.Name
}

// BankDetails holds the payee account shown on every invoice.
type BankDetails struct {
	Name          string
	SortCode      string
	AccountNumber string
	Bank          string
	PaymentLink   string
	QRCodeLink    string
}

// FormattedSortCode renders the sort code as "04-00-04".
func (b BankDetails) FormattedSortCode() string {
	if len(b.SortCode) != 6 {
		return b.SortCode
	}
	return b.SortCode[0:2] + "-" + b.SortCode[2:4] + "-" + b.SortCode[4:6]
}

// FormattedAccountNumber renders the account number as "1234 5678".
func (b BankDetails) FormattedAccountNumber() string {
	if len(b.AccountNumber) != 8 {
		return b.AccountNumber
	}
	return b.AccountNumber[0:4] + " " + b.AccountNumber[4:8]
}

// ContactDetails holds the invoicing party's phone and e-mail.
type ContactDetails struct {
	CountryCode string
	Phone       string
	Email       string
}

// FormattedPhone renders the number as "+44 0712 3456789".
func (c ContactDetails) FormattedPhone() string {
	if len(c.Phone) < 4 {
		return strings.TrimSpace(c.CountryCode + " " + c.Phone)
	}
	return c.CountryCode + " " + c.Phone[:4] + " " + c.Phone[4:]
}

// Attendee is one invitee of a calendar event.
type Attendee struct {
	Email string
	// Self marks the calendar owner.
	Self bool
}

// CalendarEvent is a raw event as delivered by an event source.
type CalendarEvent struct {
	ID        string
	Title     string
	Start     time.Time
	End       time.Time
	Attendees []Attendee
}

// Duration returns End - Start.
func (e CalendarEvent) Duration() time.Duration {
	return e.End.Sub(e.Start)
}

// Session is a calendar event attributed to exactly one client.
type Session struct {
	Client  string
	EventID string
	Title   string
	Start   time.Time
	End     time.Time
}

// Duration returns End - Start.
func (s Session) Duration() time.Duration {
	return s.End.Sub(s.Start)
}
