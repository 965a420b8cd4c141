package delivery

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/gomail.v2"

	"github.com/teemow/sessionbill/internal/billing"
)

type fakeSender struct {
	sent []*gomail.Message
	err  error
}

func (f *fakeSender) DialAndSend(m ...*gomail.Message) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, m...)
	return nil
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testInvoice() Invoice {
	return Invoice{
		To:        "alice@example.com",
		Recipient: "Alice Smith",
		Period:    "June 2024",
		Total:     "£112.50",
		FileName:  "alice-smith-invoice.pdf",
		Data:      []byte("%PDF-1.3 test"),
	}
}

func TestMailer_Send(t *testing.T) {
	sender := &fakeSender{}
	m := NewMailerWithSender(sender, "tutor@example.com", quietLogger())

	require.NoError(t, m.Send(context.Background(), testInvoice()))
	require.Len(t, sender.sent, 1)

	msg := sender.sent[0]
	assert.Equal(t, []string{"tutor@example.com"}, msg.GetHeader("From"))
	assert.Equal(t, []string{"alice@example.com"}, msg.GetHeader("To"))
	assert.Equal(t, []string{"Invoice for Alice Smith, June 2024"}, msg.GetHeader("Subject"))

	var buf bytes.Buffer
	_, err := msg.WriteTo(&buf)
	require.NoError(t, err)
	raw := buf.String()
	assert.Contains(t, raw, `filename="alice-smith-invoice.pdf"`)
	assert.Contains(t, raw, "application/pdf")
	assert.Contains(t, raw, "Amount due")
}

func TestMailer_Send_Errors(t *testing.T) {
	t.Run("no recipient", func(t *testing.T) {
		m := NewMailerWithSender(&fakeSender{}, "tutor@example.com", quietLogger())
		inv := testInvoice()
		inv.To = ""
		assert.ErrorIs(t, m.Send(context.Background(), inv), ErrNoRecipient)
	})

	t.Run("cancelled", func(t *testing.T) {
		sender := &fakeSender{}
		m := NewMailerWithSender(sender, "tutor@example.com", quietLogger())
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		assert.ErrorIs(t, m.Send(ctx, testInvoice()), context.Canceled)
		assert.Empty(t, sender.sent)
	})

	t.Run("smtp failure", func(t *testing.T) {
		boom := errors.New("connection refused")
		m := NewMailerWithSender(&fakeSender{err: boom}, "tutor@example.com", nil)
		err := m.Send(context.Background(), testInvoice())
		assert.ErrorIs(t, err, boom)
		assert.Contains(t, err.Error(), "Alice Smith")
	})
}

type contacts map[string]string

func (c contacts) AgencyContact(agency string) (string, bool) {
	addr, ok := c[agency]
	return addr, ok
}

func TestResolveRecipient(t *testing.T) {
	dir, err := billing.NewDirectory([]billing.ClientRecord{
		{Name: "Alice Smith", Type: billing.Private(), Rate: decimal.NewFromInt(50), Emails: []string{"Alice@Example.com", "parent@example.com"}},
		{Name: "Walk In", Type: billing.Private(), Rate: decimal.NewFromInt(35)},
		{Name: "Oscar Sun", Type: billing.Agency("Blue Education"), Rate: decimal.NewFromInt(30)},
	})
	require.NoError(t, err)

	tests := []struct {
		name     string
		group    billing.BillingGroup
		contacts AgencyContacts
		want     string
		wantOK   bool
	}{
		{
			name:   "private uses first email",
			group:  billing.BillingGroup{Key: "Alice Smith", Kind: billing.KindPrivate},
			want:   "alice@example.com",
			wantOK: true,
		},
		{
			name:  "private without email",
			group: billing.BillingGroup{Key: "Walk In", Kind: billing.KindPrivate},
		},
		{
			name:     "agency contact",
			group:    billing.BillingGroup{Key: "Blue Education", Kind: billing.KindAgency},
			contacts: contacts{"Blue Education": "accounts@blue.example.com"},
			want:     "accounts@blue.example.com",
			wantOK:   true,
		},
		{
			name:     "agency without contact",
			group:    billing.BillingGroup{Key: "Blue Education", Kind: billing.KindAgency},
			contacts: contacts{},
		},
		{
			name:  "agency without contact source",
			group: billing.BillingGroup{Key: "Blue Education", Kind: billing.KindAgency},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ResolveRecipient(tt.group, dir, tt.contacts)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
