package invoice

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/teemow/sessionbill/internal/billing"
)

const (
	dateLayout  = "02/01/2006"
	timeLayout  = "15:04"
	monthLayout = "January 2006"
)

// FormatCurrency renders v rounded to pence with thousands separators,
// e.g. "£1,234.50".
func FormatCurrency(symbol string, v decimal.Decimal) string {
	s := billing.FormatAmount(v)
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	whole, frac, _ := strings.Cut(s, ".")

	var b strings.Builder
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	return sign + symbol + b.String() + "." + frac
}

// FormatDuration renders whole hours and minutes, e.g. "2 hours 30 mins",
// "1 hour 1 minute" or "0 hours". Seconds are dropped.
func FormatDuration(d time.Duration) string {
	total := int64(d / time.Minute)
	if total < 0 {
		total = 0
	}
	hours, minutes := total/60, total%60

	hourStr := "hours"
	if hours == 1 {
		hourStr = "hour"
	}
	minuteStr := "mins"
	if minutes == 1 {
		minuteStr = "minute"
	}

	switch {
	case hours > 0 && minutes > 0:
		return fmt.Sprintf("%d %s %d %s", hours, hourStr, minutes, minuteStr)
	case hours > 0:
		return fmt.Sprintf("%d %s", hours, hourStr)
	case minutes > 0:
		return fmt.Sprintf("%d %s", minutes, minuteStr)
	default:
		return "0 hours"
	}
}

// FormatDate renders t as dd/mm/yyyy in loc.
func FormatDate(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(dateLayout)
}

// FormatTime renders t as 24-hour HH:MM in loc.
func FormatTime(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(timeLayout)
}

// PeriodLabel names the billing period: "June 2024" for one whole calendar
// month, otherwise "01/06/2024 to 15/06/2024" with the last included day.
func PeriodLabel(p billing.Period, loc *time.Location) string {
	if p.IsWholeMonth(loc) {
		return p.From.In(loc).Format(monthLayout)
	}
	last := p.To.Add(-time.Nanosecond)
	return FormatDate(p.From, loc) + " to " + FormatDate(last, loc)
}
