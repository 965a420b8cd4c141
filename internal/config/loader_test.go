package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/sessionbill/internal/billing"
)

const clientsYAML = `
Alice Smith:
  client_type: private
  rate: 50
  emails: [Alice@Example.com, alice.parent@example.com]
Oscar Sun:
  client_type: Blue Education
  rate: 30.5
  emails: [oscar@example.com]
Walk In:
  client_type: private
  rate: 35
  emails: []
`

const bankYAML = `
name: Jo Tutor
sort_code: 04-00-04
account_number: "1234 5678"
bank: Monzo
link: https://pay.example/jo/{amount}
QR_code: https://qr.example/jo?amt={amount}
`

const contactYAML = `
country_code: "+44"
phone_number: "0712 345 6789"
email: Jo@Example.com
`

func TestParseClients(t *testing.T) {
	dir, err := ParseClients(strings.NewReader(clientsYAML))
	require.NoError(t, err)

	assert.Equal(t, []string{"Alice Smith", "Oscar Sun", "Walk In"}, dir.Names())

	alice, ok := dir.Lookup("alice@example.com")
	require.True(t, ok)
	assert.Equal(t, billing.Private(), alice.Type)
	assert.Equal(t, "50", alice.Rate.String())
	assert.Equal(t, []string{"alice@example.com", "alice.parent@example.com"}, alice.Emails)

	oscar, ok := dir.Client("Oscar Sun")
	require.True(t, ok)
	assert.Equal(t, billing.Agency("Blue Education"), oscar.Type)
	assert.Equal(t, "30.5", oscar.Rate.String())
}

func TestParseClients_JSON(t *testing.T) {
	input := `{"Bob Jones": {"client_type": "private", "rate": 40, "emails": ["bob@example.com"]}}`

	dir, err := ParseClients(strings.NewReader(input))
	require.NoError(t, err)

	bob, ok := dir.Lookup("bob@example.com")
	require.True(t, ok)
	assert.Equal(t, "Bob Jones", bob.Name)
}

func TestParseClients_Errors(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		wantFields []string
	}{
		{
			name:       "zero rate",
			input:      "A:\n  client_type: private\n  rate: 0\n",
			wantFields: []string{"A.rate"},
		},
		{
			name:       "rate not a number",
			input:      "A:\n  client_type: private\n  rate: lots\n",
			wantFields: []string{"A.rate"},
		},
		{
			name:       "missing client type and bad email",
			input:      "A:\n  rate: 10\n  emails: [nope]\nB:\n  client_type: private\n  rate: 10\n  emails: [b@]\n",
			wantFields: []string{"A.client_type", "B.emails"},
		},
		{
			name:       "shared email",
			input:      "A:\n  client_type: private\n  rate: 10\n  emails: [x@example.com]\nB:\n  client_type: private\n  rate: 10\n  emails: [X@example.com]\n",
			wantFields: []string{"B.emails"},
		},
		{
			name:       "unknown key",
			input:      "A:\n  client_type: private\n  rate: 10\n  colour: blue\n",
			wantFields: []string{"file"},
		},
		{
			name:       "empty file",
			input:      "",
			wantFields: []string{"file"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseClients(strings.NewReader(tt.input))
			require.Error(t, err)
			assert.Equal(t, tt.wantFields, validationFields(err))
		})
	}
}

func TestParseBank(t *testing.T) {
	bank, err := ParseBank(strings.NewReader(bankYAML))
	require.NoError(t, err)

	assert.Equal(t, "040004", bank.SortCode)
	assert.Equal(t, "12345678", bank.AccountNumber)
	assert.Equal(t, "04-00-04", bank.FormattedSortCode())
	assert.Equal(t, "https://pay.example/jo/{amount}", bank.PaymentLink)
	assert.Equal(t, "https://qr.example/jo?amt={amount}", bank.QRCodeLink)
}

func TestParseBank_Errors(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		wantFields []string
	}{
		{
			name:       "short sort code and long account",
			input:      strings.Replace(strings.Replace(bankYAML, "04-00-04", "04-00-4", 1), "1234 5678", "1234 56789", 1),
			wantFields: []string{"sort_code", "account_number"},
		},
		{
			name:       "link without placeholder",
			input:      strings.Replace(bankYAML, "https://pay.example/jo/{amount}", "https://pay.example/jo", 1),
			wantFields: []string{"link"},
		},
		{
			name:       "missing qr code",
			input:      "name: Jo\nsort_code: \"040004\"\naccount_number: \"12345678\"\nbank: Monzo\nlink: x/{amount}\n",
			wantFields: []string{"QR_code"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseBank(strings.NewReader(tt.input))
			require.Error(t, err)
			assert.Equal(t, tt.wantFields, validationFields(err))
		})
	}
}

func TestParseBank_LowercaseQRKey(t *testing.T) {
	input := strings.Replace(bankYAML, "QR_code:", "qr_code:", 1)

	bank, err := ParseBank(strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, "https://qr.example/jo?amt={amount}", bank.QRCodeLink)
}

func TestParseContact(t *testing.T) {
	contact, err := ParseContact(strings.NewReader(contactYAML))
	require.NoError(t, err)

	assert.Equal(t, "+44", contact.CountryCode)
	assert.Equal(t, "07123456789", contact.Phone)
	assert.Equal(t, "jo@example.com", contact.Email)
	assert.Equal(t, "+44 0712 3456789", contact.FormattedPhone())
}

func TestParseContact_Errors(t *testing.T) {
	input := "country_code: \"+44\"\nphone_number: \"0712 345\"\nemail: jo-at-example\n"

	_, err := ParseContact(strings.NewReader(input))
	require.Error(t, err)
	assert.Equal(t, []string{"phone_number", "email"}, validationFields(err))

	var ve *billing.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, SourceContact, ve.Source)
}

func TestLoadRecords(t *testing.T) {
	dir := t.TempDir()
	write := func(name, content string) string {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
		return path
	}

	records, err := LoadRecords(
		write("clients.yaml", clientsYAML),
		write("bank.yaml", bankYAML),
		write("contact.yaml", contactYAML),
	)
	require.NoError(t, err)

	assert.Equal(t, 3, records.Directory.Len())
	assert.Equal(t, "Monzo", records.Bank.Bank)
	assert.Equal(t, "jo@example.com", records.Contact.Email)

	_, err = LoadRecords(filepath.Join(dir, "missing.yaml"), "", "")
	assert.ErrorIs(t, err, os.ErrNotExist)
}

// validationFields lists the Field of every ValidationError joined into err.
func validationFields(err error) []string {
	var out []string
	var walk func(error)
	walk = func(e error) {
		if joined, ok := e.(interface{ Unwrap() []error }); ok {
			for _, inner := range joined.Unwrap() {
				walk(inner)
			}
			return
		}
		var ve *billing.ValidationError
		if errors.As(e, &ve) {
			out = append(out, ve.Field)
		}
	}
	walk(err)
	return out
}
