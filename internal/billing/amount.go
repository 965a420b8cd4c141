package billing

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// AmountPlaceholder is replaced by the rounded total in payment and QR-code links.
const AmountPlaceholder = "{amount}"

// displayPlaces is the number of decimal places amounts are shown with.
const displayPlaces = 2

var nanosPerHour = decimal.NewFromInt(int64(time.Hour))

// SessionHours converts a duration into fractional hours without rounding.
func SessionHours(d time.Duration) decimal.Decimal {
	return decimal.NewFromInt(int64(d)).Div(nanosPerHour)
}

// SessionCost returns rate x duration in hours, unrounded. It divides once
// so that durations such as 20 minutes do not pick up an early truncation.
func SessionCost(rate decimal.Decimal, d time.Duration) (decimal.Decimal, error) {
	if !rate.IsPositive() {
		return decimal.Zero, &CalculationError{Detail: "rate " + rate.String() + " is not positive"}
	}
	if d <= 0 {
		return decimal.Zero, &CalculationError{Detail: "duration " + d.String() + " is not positive"}
	}
	return rate.Mul(decimal.NewFromInt(int64(d))).Div(nanosPerHour), nil
}

// RoundForDisplay is the only place amounts are rounded: half-up to two
// decimal places. Totals are accumulated unrounded and passed through here once.
func RoundForDisplay(v decimal.Decimal) decimal.Decimal {
	return v.Round(displayPlaces)
}

// FormatAmount renders v with exactly two decimals and no currency symbol.
func FormatAmount(v decimal.Decimal) string {
	return RoundForDisplay(v).StringFixed(displayPlaces)
}

// ResolveAmountTemplate substitutes the display-rounded total into every
// AmountPlaceholder of tmpl.
func ResolveAmountTemplate(tmpl string, total decimal.Decimal) string {
	return strings.ReplaceAll(tmpl, AmountPlaceholder, FormatAmount(total))
}
