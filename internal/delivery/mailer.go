package delivery

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"path/filepath"

	"gopkg.in/gomail.v2"

	"github.com/teemow/sessionbill/internal/billing"
	"github.com/teemow/sessionbill/internal/logging"
)

// ErrNoRecipient is returned when a group has no address to deliver to.
var ErrNoRecipient = errors.New("no recipient address")

// Sender delivers composed messages. *gomail.Dialer implements it.
type Sender interface {
	DialAndSend(m ...*gomail.Message) error
}

// Config holds the SMTP connection settings.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// Invoice is one rendered document ready for delivery.
type Invoice struct {
	To        string
	Recipient string
	Period    string
	Total     string
	FileName  string
	Data      []byte
}

// Mailer sends rendered invoices as e-mail attachments.
type Mailer struct {
	sender Sender
	from   string
	logger *slog.Logger
}

// NewMailer creates a Mailer that sends through the configured SMTP server.
func NewMailer(cfg Config, logger *slog.Logger) *Mailer {
	dialer := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	return NewMailerWithSender(dialer, cfg.From, logger)
}

// NewMailerWithSender creates a Mailer on top of an arbitrary Sender.
func NewMailerWithSender(sender Sender, from string, logger *slog.Logger) *Mailer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Mailer{
		sender: sender,
		from:   from,
		logger: logging.WithComponent(logger, "delivery"),
	}
}

// Send mails inv to inv.To with the document attached.
func (m *Mailer) Send(ctx context.Context, inv Invoice) error {
	if inv.To == "" {
		return ErrNoRecipient
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := m.compose(inv)
	if err := m.sender.DialAndSend(msg); err != nil {
		return fmt.Errorf("failed to send invoice for %s: %w", inv.Recipient, err)
	}

	m.logger.Info("invoice sent",
		logging.Group(inv.Recipient),
		logging.Recipient(inv.To),
		slog.String("file", inv.FileName))
	return nil
}

func (m *Mailer) compose(inv Invoice) *gomail.Message {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", inv.To)
	msg.SetHeader("Subject", fmt.Sprintf("Invoice for %s, %s", inv.Recipient, inv.Period))
	msg.SetBody("text/plain", fmt.Sprintf(
		"Hello,\n\nPlease find attached the invoice for %s covering %s.\nAmount due: %s.\n\nThank you.\n",
		inv.Recipient, inv.Period, inv.Total))

	data := inv.Data
	contentType := mime.TypeByExtension(filepath.Ext(inv.FileName))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	msg.Attach(inv.FileName,
		gomail.SetHeader(map[string][]string{"Content-Type": {contentType}}),
		gomail.SetCopyFunc(func(w io.Writer) error {
			_, err := w.Write(data)
			return err
		}),
	)
	return msg
}

// AgencyContacts looks up the billing address of an agency.
type AgencyContacts interface {
	AgencyContact(agency string) (string, bool)
}

// ResolveRecipient returns the address a group's invoice goes to: the first
// e-mail of a private client, or the configured contact of an agency.
func ResolveRecipient(g billing.BillingGroup, dir *billing.Directory, contacts AgencyContacts) (string, bool) {
	if g.Kind == billing.KindAgency {
		if contacts == nil {
			return "", false
		}
		return contacts.AgencyContact(g.Key)
	}
	rec, ok := dir.Client(g.Key)
	if !ok || len(rec.Emails) == 0 {
		return "", false
	}
	return rec.Emails[0], true
}
