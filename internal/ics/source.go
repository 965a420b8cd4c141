package ics

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/teambition/rrule-go"

	"github.com/teemow/sessionbill/internal/billing"
)

const defaultMaxOccurrences = 5000

// Source reads billable events from an .ics file.
type Source struct {
	path           string
	loc            *time.Location
	owner          string
	maxOccurrences int
}

// Option configures a Source.
type Option func(*Source)

// WithLocation sets the zone for floating and all-day times. Defaults to UTC.
func WithLocation(loc *time.Location) Option {
	return func(s *Source) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// WithOwner marks attendees with this address as the calendar owner.
func WithOwner(email string) Option {
	return func(s *Source) {
		s.owner = strings.ToLower(strings.TrimSpace(email))
	}
}

// WithMaxOccurrences caps how many instances one recurring event expands to.
func WithMaxOccurrences(n int) Option {
	return func(s *Source) {
		if n > 0 {
			s.maxOccurrences = n
		}
	}
}

// NewSource creates a Source for the file at path.
func NewSource(path string, opts ...Option) *Source {
	s := &Source{path: path, loc: time.UTC, maxOccurrences: defaultMaxOccurrences}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Path returns the file the source reads.
func (s *Source) Path() string {
	return s.path
}

// Events reads the file and returns the event instances overlapping period.
func (s *Source) Events(ctx context.Context, period billing.Period) ([]billing.CalendarEvent, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open calendar file: %w", err)
	}
	defer f.Close()

	return s.Read(f, period)
}

// Read parses an ICS stream and expands recurring events into instances
// overlapping period, ordered by start time.
func (s *Source) Read(r io.Reader, period billing.Period) ([]billing.CalendarEvent, error) {
	if err := period.Validate(); err != nil {
		return nil, err
	}
	parsed, err := parseCalendar(r, s.loc)
	if err != nil {
		return nil, err
	}

	bases := make(map[string][]vevent)
	overrides := make(map[string][]vevent)
	var uids []string
	for _, ev := range parsed {
		if ev.Recurrence != nil {
			overrides[ev.UID] = append(overrides[ev.UID], ev)
			continue
		}
		if _, seen := bases[ev.UID]; !seen {
			uids = append(uids, ev.UID)
		}
		bases[ev.UID] = append(bases[ev.UID], ev)
	}

	var out []billing.CalendarEvent
	for _, uid := range uids {
		for _, base := range bases[uid] {
			instances, err := s.expand(base, overrides[uid], period)
			if err != nil {
				return nil, err
			}
			out = append(out, instances...)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Start.Before(out[j].Start)
	})
	return out, nil
}

func (s *Source) expand(base vevent, overrides []vevent, period billing.Period) ([]billing.CalendarEvent, error) {
	if base.RawRRule == "" {
		ev := base
		if o, ok := findOverride(overrides, base.Start); ok {
			ev = o
		}
		if ev.Cancelled {
			return nil, nil
		}
		inst := s.toCalendarEvent(ev, ev.UID, ev.Start, ev.End)
		if !period.Overlaps(inst) {
			return nil, nil
		}
		return []billing.CalendarEvent{inst}, nil
	}
	if base.Cancelled {
		return nil, nil
	}

	r, err := rrule.StrToRRule(base.RawRRule)
	if err != nil {
		return nil, fmt.Errorf("event %s: invalid RRULE %q: %w", base.UID, base.RawRRule, err)
	}
	r.DTStart(base.Start)

	var set rrule.Set
	set.RRule(r)
	for _, ex := range base.ExDates {
		set.ExDate(ex.In(base.Start.Location()))
	}

	dur := base.End.Sub(base.Start)
	// Instances starting before From still count when they run into the period.
	from := period.From.Add(-dur).In(base.Start.Location())
	to := period.To.In(base.Start.Location())
	starts := set.Between(from, to, true)
	if len(starts) > s.maxOccurrences {
		starts = starts[:s.maxOccurrences]
	}

	var out []billing.CalendarEvent
	for _, start := range starts {
		ev := base
		id := instanceID(base.UID, start)
		end := start.Add(dur)
		if o, ok := findOverride(overrides, start); ok {
			ev = o
			start, end = o.Start, o.End
		}
		if ev.Cancelled {
			continue
		}
		inst := s.toCalendarEvent(ev, id, start, end)
		if period.Overlaps(inst) {
			out = append(out, inst)
		}
	}
	return out, nil
}

func findOverride(overrides []vevent, start time.Time) (vevent, bool) {
	for _, o := range overrides {
		if o.Recurrence != nil && o.Recurrence.Equal(start) {
			return o, true
		}
	}
	return vevent{}, false
}

// instanceID follows the Google Calendar convention for recurring instances.
func instanceID(uid string, start time.Time) string {
	return uid + "_" + start.UTC().Format(layoutUTC)
}

func (s *Source) toCalendarEvent(ev vevent, id string, start, end time.Time) billing.CalendarEvent {
	out := billing.CalendarEvent{
		ID:    id,
		Title: ev.Summary,
		Start: start,
		End:   end,
	}
	for _, email := range ev.Attendees {
		out.Attendees = append(out.Attendees, billing.Attendee{
			Email: email,
			Self:  s.owner != "" && strings.EqualFold(email, s.owner),
		})
	}
	return out
}
