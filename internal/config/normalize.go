package config

import (
	"regexp"
	"strings"

	"github.com/teemow/sessionbill/internal/billing"
)

const (
	sortCodeDigits      = 6
	accountNumberDigits = 8
	minPhoneDigits      = 10
)

var countryCodePattern = regexp.MustCompile(`^\+\d{1,4}$`)

// isSeparator reports whether r may appear between digit groups.
func isSeparator(r rune) bool {
	switch r {
	case ' ', '\t', '-', '.', '(', ')':
		return true
	}
	return false
}

// digitsOnly strips separators from s. The second result is false if s
// contains anything other than digits and separators.
func digitsOnly(s string) (string, bool) {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case isSeparator(r):
		default:
			return "", false
		}
	}
	return b.String(), true
}

func exactDigits(field, value string, n int, reason string) (string, error) {
	d, ok := digitsOnly(value)
	if !ok || len(d) != n {
		return "", &billing.ValidationError{Field: field, Value: value, Reason: reason}
	}
	return d, nil
}

// NormalizeSortCode returns the six digits of a sort code such as "04-00-04".
func NormalizeSortCode(s string) (string, error) {
	return exactDigits("sort_code", s, sortCodeDigits, "must be exactly 6 digits")
}

// NormalizeAccountNumber returns the eight digits of an account number such
// as "1234 5678".
func NormalizeAccountNumber(s string) (string, error) {
	return exactDigits("account_number", s, accountNumberDigits, "must be exactly 8 digits")
}

// NormalizePhone returns the digits of a local phone number. At least ten
// digits are required.
func NormalizePhone(s string) (string, error) {
	d, ok := digitsOnly(s)
	if !ok {
		return "", &billing.ValidationError{Field: "phone_number", Value: s, Reason: "must contain only digits and separators"}
	}
	if len(d) < minPhoneDigits {
		return "", &billing.ValidationError{Field: "phone_number", Value: s, Reason: "must have at least 10 digits"}
	}
	return d, nil
}

// NormalizeCountryCode returns a dialling prefix in "+44" form. A missing
// plus sign is added; a "00" international prefix is replaced by it.
func NormalizeCountryCode(s string) (string, error) {
	c := strings.ReplaceAll(strings.TrimSpace(s), " ", "")
	switch {
	case strings.HasPrefix(c, "+"):
	case strings.HasPrefix(c, "00"):
		c = "+" + strings.TrimPrefix(c, "00")
	default:
		c = "+" + c
	}
	if !countryCodePattern.MatchString(c) {
		return "", &billing.ValidationError{Field: "country_code", Value: s, Reason: "must be a plus sign followed by 1 to 4 digits"}
	}
	return c, nil
}

// NormalizeEmail lower-cases and trims an address and checks its format.
func NormalizeEmail(field, s string) (string, error) {
	e := strings.ToLower(strings.TrimSpace(s))
	if err := validate.Var(e, "required,email"); err != nil {
		return "", &billing.ValidationError{Field: field, Value: s, Reason: "is not a valid e-mail address"}
	}
	return e, nil
}

// requirePlaceholder checks that a link template can carry the amount.
func requirePlaceholder(field, tmpl string) error {
	if !strings.Contains(tmpl, billing.AmountPlaceholder) {
		return &billing.ValidationError{Field: field, Value: tmpl, Reason: "must contain the " + billing.AmountPlaceholder + " placeholder"}
	}
	return nil
}
