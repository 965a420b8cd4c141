package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/teemow/sessionbill/internal/billing"
)

// Sources named in validation errors.
const (
	SourceClients = "clients"
	SourceBank    = "bank_details"
	SourceContact = "contact_details"
)

type clientFile map[string]clientEntry

type clientEntry struct {
	ClientType string   `yaml:"client_type" validate:"required"`
	Rate       string   `yaml:"rate" validate:"required"`
	Emails     []string `yaml:"emails"`
}

type bankFile struct {
	Name          string `yaml:"name" validate:"required"`
	SortCode      string `yaml:"sort_code" validate:"required"`
	AccountNumber string `yaml:"account_number" validate:"required"`
	Bank          string `yaml:"bank" validate:"required"`
	Link          string `yaml:"link" validate:"required"`
	QRCode        string `yaml:"QR_code"`
	QRCodeAlt     string `yaml:"qr_code"`
}

type contactFile struct {
	CountryCode string `yaml:"country_code" validate:"required"`
	PhoneNumber string `yaml:"phone_number" validate:"required"`
	Email       string `yaml:"email" validate:"required"`
}

// Records bundles the three configuration records of a run.
type Records struct {
	Directory *billing.Directory
	Bank      billing.BankDetails
	Contact   billing.ContactDetails
}

// LoadRecords loads and validates the client directory, bank details and
// contact details. Every problem found is returned; none is coerced.
func LoadRecords(clientsPath, bankPath, contactPath string) (*Records, error) {
	dir, err := LoadClients(clientsPath)
	if err != nil {
		return nil, err
	}
	bank, err := LoadBank(bankPath)
	if err != nil {
		return nil, err
	}
	contact, err := LoadContact(contactPath)
	if err != nil {
		return nil, err
	}
	return &Records{Directory: dir, Bank: bank, Contact: contact}, nil
}

// LoadClients reads a client directory file.
func LoadClients(path string) (*billing.Directory, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open client directory: %w", err)
	}
	defer f.Close()
	return ParseClients(f)
}

// ParseClients decodes a client directory keyed by client name. JSON input is
// accepted as YAML.
func ParseClients(r io.Reader) (*billing.Directory, error) {
	var raw clientFile
	if err := decode(r, SourceClients, &raw); err != nil {
		return nil, err
	}

	names := make([]string, 0, len(raw))
	for name := range raw {
		names = append(names, name)
	}
	sort.Strings(names)

	var problems []error
	records := make([]billing.ClientRecord, 0, len(raw))
	for _, name := range names {
		rec, errs := buildClient(name, raw[name])
		if len(errs) > 0 {
			problems = append(problems, errs...)
			continue
		}
		records = append(records, rec)
	}
	if len(problems) > 0 {
		return nil, errors.Join(problems...)
	}

	return billing.NewDirectory(records)
}

func buildClient(name string, entry clientEntry) (billing.ClientRecord, []error) {
	problems := checkStruct(SourceClients, name, entry)
	if len(problems) > 0 {
		return billing.ClientRecord{}, problems
	}

	typ, err := billing.ParseClientType(entry.ClientType)
	if err != nil {
		problems = append(problems, tag(err, SourceClients, name))
	}

	rate, err := decimal.NewFromString(entry.Rate)
	switch {
	case err != nil:
		problems = append(problems, &billing.ValidationError{Source: SourceClients, Field: name + ".rate", Value: entry.Rate, Reason: "is not a number"})
	case !rate.IsPositive():
		problems = append(problems, &billing.ValidationError{Source: SourceClients, Field: name + ".rate", Value: entry.Rate, Reason: "must be positive"})
	}

	emails := make([]string, 0, len(entry.Emails))
	for _, raw := range entry.Emails {
		email, err := NormalizeEmail("emails", raw)
		if err != nil {
			problems = append(problems, tag(err, SourceClients, name))
			continue
		}
		emails = append(emails, email)
	}

	if len(problems) > 0 {
		return billing.ClientRecord{}, problems
	}
	return billing.ClientRecord{Name: name, Type: typ, Rate: rate, Emails: emails}, nil
}

// LoadBank reads a bank details file.
func LoadBank(path string) (billing.BankDetails, error) {
	f, err := os.Open(path)
	if err != nil {
		return billing.BankDetails{}, fmt.Errorf("open bank details: %w", err)
	}
	defer f.Close()
	return ParseBank(f)
}

// ParseBank decodes and normalizes bank details.
func ParseBank(r io.Reader) (billing.BankDetails, error) {
	var raw bankFile
	if err := decode(r, SourceBank, &raw); err != nil {
		return billing.BankDetails{}, err
	}
	if raw.QRCode == "" {
		raw.QRCode = raw.QRCodeAlt
	}

	problems := checkStruct(SourceBank, "", raw)
	if raw.QRCode == "" {
		problems = append(problems, &billing.ValidationError{Source: SourceBank, Field: "QR_code", Reason: "is required"})
	}
	if len(problems) > 0 {
		return billing.BankDetails{}, errors.Join(problems...)
	}

	sortCode, err := NormalizeSortCode(raw.SortCode)
	if err != nil {
		problems = append(problems, tag(err, SourceBank, ""))
	}
	account, err := NormalizeAccountNumber(raw.AccountNumber)
	if err != nil {
		problems = append(problems, tag(err, SourceBank, ""))
	}
	if err := requirePlaceholder("link", raw.Link); err != nil {
		problems = append(problems, tag(err, SourceBank, ""))
	}
	if err := requirePlaceholder("QR_code", raw.QRCode); err != nil {
		problems = append(problems, tag(err, SourceBank, ""))
	}
	if len(problems) > 0 {
		return billing.BankDetails{}, errors.Join(problems...)
	}

	return billing.BankDetails{
		Name:          raw.Name,
		SortCode:      sortCode,
		AccountNumber: account,
		Bank:          raw.Bank,
		PaymentLink:   raw.Link,
		QRCodeLink:    raw.QRCode,
	}, nil
}

// LoadContact reads a contact details file.
func LoadContact(path string) (billing.ContactDetails, error) {
	f, err := os.Open(path)
	if err != nil {
		return billing.ContactDetails{}, fmt.Errorf("open contact details: %w", err)
	}
	defer f.Close()
	return ParseContact(f)
}

// ParseContact decodes and normalizes contact details.
func ParseContact(r io.Reader) (billing.ContactDetails, error) {
	var raw contactFile
	if err := decode(r, SourceContact, &raw); err != nil {
		return billing.ContactDetails{}, err
	}
	if problems := checkStruct(SourceContact, "", raw); len(problems) > 0 {
		return billing.ContactDetails{}, errors.Join(problems...)
	}

	var problems []error
	cc, err := NormalizeCountryCode(raw.CountryCode)
	if err != nil {
		problems = append(problems, tag(err, SourceContact, ""))
	}
	phone, err := NormalizePhone(raw.PhoneNumber)
	if err != nil {
		problems = append(problems, tag(err, SourceContact, ""))
	}
	email, err := NormalizeEmail("email", raw.Email)
	if err != nil {
		problems = append(problems, tag(err, SourceContact, ""))
	}
	if len(problems) > 0 {
		return billing.ContactDetails{}, errors.Join(problems...)
	}

	return billing.ContactDetails{CountryCode: cc, Phone: phone, Email: email}, nil
}

// decode reads one YAML (or JSON) document, rejecting unknown keys.
func decode(r io.Reader, source string, out any) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return &billing.ValidationError{Source: source, Field: "file", Reason: "is empty"}
		}
		return &billing.ValidationError{Source: source, Field: "file", Reason: err.Error()}
	}
	return nil
}
