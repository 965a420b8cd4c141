package ics

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"
)

const (
	layoutUTC   = "20060102T150405Z"
	layoutLocal = "20060102T150405"
	layoutDate  = "20060102"

	propRecurrenceID = "RECURRENCE-ID"
	statusCancelled  = "CANCELLED"
)

// vevent is a VEVENT reduced to the fields billing needs. Recurrence is
// kept unexpanded.
type vevent struct {
	UID       string
	Summary   string
	Start     time.Time
	End       time.Time
	AllDay    bool
	Cancelled bool
	Attendees []string

	RawRRule string
	ExDates  []time.Time
	// Recurrence is the RECURRENCE-ID of an overriding instance.
	Recurrence *time.Time
}

func parseCalendar(r io.Reader, loc *time.Location) ([]vevent, error) {
	cal, err := ical.ParseCalendar(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse calendar: %w", err)
	}

	var out []vevent
	for _, ve := range cal.Events() {
		ev, err := parseVEvent(ve, loc)
		if err != nil {
			return nil, err
		}
		out = append(out, ev)
	}
	return out, nil
}

func parseVEvent(ve *ical.VEvent, loc *time.Location) (vevent, error) {
	var out vevent

	uid := ve.GetProperty(ical.ComponentPropertyUniqueId)
	if uid == nil || uid.Value == "" {
		return out, errors.New("event without UID")
	}
	out.UID = uid.Value

	if p := ve.GetProperty(ical.ComponentPropertySummary); p != nil {
		out.Summary = p.Value
	}
	if p := ve.GetProperty(ical.ComponentPropertyStatus); p != nil {
		out.Cancelled = strings.EqualFold(strings.TrimSpace(p.Value), statusCancelled)
	}

	start := ve.GetProperty(ical.ComponentPropertyDtStart)
	if start == nil {
		return out, fmt.Errorf("event %s: missing DTSTART", out.UID)
	}
	var err error
	out.Start, out.AllDay, err = propertyTime(start, loc)
	if err != nil {
		return out, fmt.Errorf("event %s: invalid DTSTART: %w", out.UID, err)
	}

	if end := ve.GetProperty(ical.ComponentPropertyDtEnd); end != nil {
		if out.End, _, err = propertyTime(end, loc); err != nil {
			return out, fmt.Errorf("event %s: invalid DTEND: %w", out.UID, err)
		}
	} else if out.AllDay {
		out.End = out.Start.AddDate(0, 0, 1)
	} else {
		out.End = out.Start
	}

	for _, a := range ve.Attendees() {
		if email := attendeeEmail(a.Value); email != "" {
			out.Attendees = append(out.Attendees, email)
		}
	}

	if p := ve.GetProperty(ical.ComponentPropertyRrule); p != nil {
		out.RawRRule = p.Value
	}

	for _, p := range ve.GetProperties(ical.ComponentPropertyExdate) {
		for _, part := range strings.Split(p.Value, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			t, _, err := parseTime(part, tzid(p.ICalParameters), loc)
			if err != nil {
				return out, fmt.Errorf("event %s: invalid EXDATE %q: %w", out.UID, part, err)
			}
			out.ExDates = append(out.ExDates, t)
		}
	}

	if p := ve.GetProperty(propRecurrenceID); p != nil {
		t, _, err := propertyTime(p, loc)
		if err != nil {
			return out, fmt.Errorf("event %s: invalid RECURRENCE-ID: %w", out.UID, err)
		}
		out.Recurrence = &t
	}

	return out, nil
}

func attendeeEmail(value string) string {
	v := strings.TrimSpace(value)
	if len(v) >= len("mailto:") && strings.EqualFold(v[:len("mailto:")], "mailto:") {
		v = v[len("mailto:"):]
	}
	return strings.TrimSpace(v)
}

func tzid(params map[string][]string) string {
	if tzs, ok := params[string(ical.ParameterTzid)]; ok && len(tzs) > 0 {
		return tzs[0]
	}
	return ""
}

func propertyTime(p *ical.IANAProperty, loc *time.Location) (time.Time, bool, error) {
	t, allDay, err := parseTime(p.Value, tzid(p.ICalParameters), loc)
	if err != nil {
		return t, allDay, err
	}
	if vs, ok := p.ICalParameters[string(ical.ParameterValue)]; ok && len(vs) > 0 && strings.EqualFold(vs[0], "DATE") {
		allDay = true
	}
	return t, allDay, nil
}

// parseTime parses the three ICS time forms. Floating and date-only values
// are placed in tz when it names a known zone, otherwise in loc.
func parseTime(v, tz string, loc *time.Location) (time.Time, bool, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Time{}, false, errors.New("empty time value")
	}
	if tz != "" {
		if l, err := time.LoadLocation(tz); err == nil {
			loc = l
		}
	}

	switch {
	case strings.HasSuffix(v, "Z"):
		t, err := time.Parse(layoutUTC, v)
		return t, false, err
	case strings.Contains(v, "T"):
		t, err := time.ParseInLocation(layoutLocal, v, loc)
		return t, false, err
	default:
		t, err := time.ParseInLocation(layoutDate, v, loc)
		return t, true, err
	}
}
