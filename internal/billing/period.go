package billing

import (
	"fmt"
	"time"
)

// Period is the half-open interval [From, To) a run bills for.
type Period struct {
	From time.Time
	To   time.Time
}

// Validate rejects empty and inverted periods.
func (p Period) Validate() error {
	if p.From.IsZero() || p.To.IsZero() {
		return fmt.Errorf("period bounds must be set")
	}
	if !p.To.After(p.From) {
		return fmt.Errorf("period end %s must be after start %s",
			p.To.Format(time.RFC3339), p.From.Format(time.RFC3339))
	}
	return nil
}

// Overlaps reports whether any part of the event falls inside the period.
// Events with a non-positive duration are judged by their start so that the
// classifier, not the range filter, rejects them.
func (p Period) Overlaps(ev CalendarEvent) bool {
	if !ev.Start.Before(p.To) {
		return false
	}
	if ev.End.After(ev.Start) {
		return ev.End.After(p.From)
	}
	return !ev.Start.Before(p.From)
}

// IsWholeMonth reports whether the period is exactly one calendar month in loc.
func (p Period) IsWholeMonth(loc *time.Location) bool {
	from := p.From.In(loc)
	if from.Day() != 1 || from.Hour() != 0 || from.Minute() != 0 || from.Second() != 0 || from.Nanosecond() != 0 {
		return false
	}
	return p.To.Equal(from.AddDate(0, 1, 0))
}

// MonthPeriod returns the calendar month containing t, in loc.
func MonthPeriod(t time.Time, loc *time.Location) Period {
	t = t.In(loc)
	from := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, loc)
	return Period{From: from, To: from.AddDate(0, 1, 0)}
}

// LastFullMonth returns the calendar month before the one containing now.
func LastFullMonth(now time.Time, loc *time.Location) Period {
	current := MonthPeriod(now, loc)
	return Period{From: current.From.AddDate(0, -1, 0), To: current.From}
}

// DateLayout is the layout of period bounds given on the command line.
const DateLayout = "2006-01-02"

// ParsePeriod builds a period from two YYYY-MM-DD dates in loc, with to
// exclusive. Empty bounds default to the last full month before now; a lone
// from covers the rest of its month.
func ParsePeriod(from, to string, loc *time.Location, now time.Time) (Period, error) {
	if from == "" && to == "" {
		return LastFullMonth(now, loc), nil
	}

	var p Period
	if from == "" {
		return p, fmt.Errorf("a start date is required when an end date is given")
	}
	start, err := time.ParseInLocation(DateLayout, from, loc)
	if err != nil {
		return p, fmt.Errorf("invalid start date %q: %w", from, err)
	}
	p.From = start

	if to == "" {
		p.To = MonthPeriod(start, loc).To
	} else {
		end, err := time.ParseInLocation(DateLayout, to, loc)
		if err != nil {
			return p, fmt.Errorf("invalid end date %q: %w", to, err)
		}
		p.To = end
	}

	if err := p.Validate(); err != nil {
		return Period{}, err
	}
	return p, nil
}
