package billing

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionCost(t *testing.T) {
	tests := []struct {
		name     string
		rate     string
		duration time.Duration
		want     string
	}{
		{name: "one hour", rate: "50", duration: time.Hour, want: "50"},
		{name: "ninety minutes", rate: "45", duration: 90 * time.Minute, want: "67.5"},
		{name: "quarter hour at fractional rate", rate: "0.5", duration: 15 * time.Minute, want: "0.125"},
		{name: "half hour at 20.01", rate: "20.01", duration: 30 * time.Minute, want: "10.005"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SessionCost(decimal.RequireFromString(tt.rate), tt.duration)
			require.NoError(t, err)
			assert.True(t, decimal.RequireFromString(tt.want).Equal(got), "got %s", got)
		})
	}
}

func TestSessionCost_Invariants(t *testing.T) {
	_, err := SessionCost(decimal.Zero, time.Hour)
	var ce *CalculationError
	assert.True(t, errors.As(err, &ce))

	_, err = SessionCost(decimal.NewFromInt(10), 0)
	assert.True(t, errors.As(err, &ce))
}

func TestSessionHours(t *testing.T) {
	assert.Equal(t, "1.5", SessionHours(90*time.Minute).String())
	assert.Equal(t, "0.25", SessionHours(15*time.Minute).String())
}

func TestFormatAmount(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{input: "0.125", want: "0.13"},
		{input: "2.675", want: "2.68"},
		{input: "2.674999", want: "2.67"},
		{input: "42.5", want: "42.50"},
		{input: "20.01", want: "20.01"},
		{input: "0", want: "0.00"},
		{input: "1234.5", want: "1234.50"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatAmount(decimal.RequireFromString(tt.input)))
		})
	}
}

func TestResolveAmountTemplate(t *testing.T) {
	total := decimal.RequireFromString("42.5")

	assert.Equal(t, "https://pay.example/joe/42.50",
		ResolveAmountTemplate("https://pay.example/joe/{amount}", total))
	assert.Equal(t, "https://qr.example/?a=42.50&b=42.50",
		ResolveAmountTemplate("https://qr.example/?a={amount}&b={amount}", total))
}

func TestRoundOnceAtTotal(t *testing.T) {
	dir, err := NewDirectory([]ClientRecord{
		rec("Tiny", Private(), "0.5", "tiny@example.com"),
		rec("Even", Private(), "20.01", "even@example.com"),
	})
	require.NoError(t, err)

	sessions := []Session{
		{Client: "Tiny", EventID: "a", Start: day, End: day.Add(15 * time.Minute)},
		{Client: "Tiny", EventID: "b", Start: day.Add(time.Hour), End: day.Add(75 * time.Minute)},
		{Client: "Even", EventID: "c", Start: day, End: day.Add(30 * time.Minute)},
		{Client: "Even", EventID: "d", Start: day.Add(time.Hour), End: day.Add(90 * time.Minute)},
	}

	groups, err := Aggregate(sessions, dir)
	require.NoError(t, err)
	require.Len(t, groups, 2)

	even, tiny := groups[0], groups[1]
	assert.Equal(t, "20.01", FormatAmount(even.Total))
	assert.Equal(t, "0.25", FormatAmount(tiny.Total))
	assert.Equal(t, "0.13", FormatAmount(tiny.Sessions[0].Cost))
}
