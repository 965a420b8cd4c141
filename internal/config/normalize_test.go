package config

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/sessionbill/internal/billing"
)

func TestNormalizers(t *testing.T) {
	tests := []struct {
		name    string
		fn      func(string) (string, error)
		input   string
		want    string
		wantErr bool
	}{
		{name: "sort code dashes", fn: NormalizeSortCode, input: "12-34-56", want: "123456"},
		{name: "sort code digits", fn: NormalizeSortCode, input: "123456", want: "123456"},
		{name: "sort code spaces", fn: NormalizeSortCode, input: "04 00 04", want: "040004"},
		{name: "sort code five digits", fn: NormalizeSortCode, input: "12345", wantErr: true},
		{name: "sort code letters", fn: NormalizeSortCode, input: "04-AB-04", wantErr: true},
		{name: "account spaced", fn: NormalizeAccountNumber, input: "1234 5678", want: "12345678"},
		{name: "account seven digits", fn: NormalizeAccountNumber, input: "1234567", wantErr: true},
		{name: "account nine digits", fn: NormalizeAccountNumber, input: "123456789", wantErr: true},
		{name: "phone spaced", fn: NormalizePhone, input: "0712 345 6789", want: "07123456789"},
		{name: "phone brackets", fn: NormalizePhone, input: "(0712) 345-6789", want: "07123456789"},
		{name: "phone nine digits", fn: NormalizePhone, input: "071234567", wantErr: true},
		{name: "phone letters", fn: NormalizePhone, input: "0712 CALL ME", wantErr: true},
		{name: "country code", fn: NormalizeCountryCode, input: "+44", want: "+44"},
		{name: "country code bare", fn: NormalizeCountryCode, input: "44", want: "+44"},
		{name: "country code 00", fn: NormalizeCountryCode, input: "0044", want: "+44"},
		{name: "country code letters", fn: NormalizeCountryCode, input: "+UK", wantErr: true},
		{name: "country code too long", fn: NormalizeCountryCode, input: "+123456", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.fn(tt.input)
			if tt.wantErr {
				var ve *billing.ValidationError
				require.True(t, errors.As(err, &ve), "expected ValidationError, got %v", err)
				assert.Equal(t, tt.input, ve.Value)
				assert.NotEmpty(t, ve.Reason)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)

			again, err := tt.fn(got)
			require.NoError(t, err)
			assert.Equal(t, got, again, "normalization must be idempotent")
		})
	}
}

func TestNormalizeEmail(t *testing.T) {
	got, err := NormalizeEmail("email", "  Tutor@Example.COM ")
	require.NoError(t, err)
	assert.Equal(t, "tutor@example.com", got)

	_, err = NormalizeEmail("email", "not-an-email")
	var ve *billing.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "email", ve.Field)
}
