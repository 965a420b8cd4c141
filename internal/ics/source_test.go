package ics

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/sessionbill/internal/billing"
)

var june = billing.Period{
	From: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
	To:   time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC),
}

func calendarBody(events ...string) string {
	lines := []string{
		"BEGIN:VCALENDAR",
		"VERSION:2.0",
		"PRODID:-//sessionbill//test//EN",
	}
	lines = append(lines, events...)
	lines = append(lines, "END:VCALENDAR")
	return strings.Join(lines, "\r\n") + "\r\n"
}

func veventBody(props ...string) string {
	return strings.Join(append(append([]string{"BEGIN:VEVENT"}, props...), "END:VEVENT"), "\r\n")
}

func TestSource_Read_SingleEvents(t *testing.T) {
	body := calendarBody(
		veventBody(
			"UID:lesson-1",
			"DTSTAMP:20240601T000000Z",
			"SUMMARY:Maths",
			"DTSTART:20240610T100000Z",
			"DTEND:20240610T113000Z",
			"ATTENDEE;CN=Me:mailto:me@example.com",
			"ATTENDEE;CN=Alice:MAILTO:alice@example.com",
		),
		veventBody(
			"UID:old",
			"DTSTAMP:20240601T000000Z",
			"SUMMARY:May lesson",
			"DTSTART:20240510T100000Z",
			"DTEND:20240510T110000Z",
		),
		veventBody(
			"UID:cancelled",
			"DTSTAMP:20240601T000000Z",
			"SUMMARY:Cancelled",
			"STATUS:CANCELLED",
			"DTSTART:20240611T100000Z",
			"DTEND:20240611T110000Z",
		),
	)

	src := NewSource("inline.ics", WithOwner("Me@Example.com"))
	events, err := src.Read(strings.NewReader(body), june)
	require.NoError(t, err)
	require.Len(t, events, 1)

	ev := events[0]
	assert.Equal(t, "lesson-1", ev.ID)
	assert.Equal(t, "Maths", ev.Title)
	assert.Equal(t, 90*time.Minute, ev.Duration())
	assert.Equal(t, []billing.Attendee{
		{Email: "me@example.com", Self: true},
		{Email: "alice@example.com"},
	}, ev.Attendees)
}

func TestSource_Read_Recurring(t *testing.T) {
	body := calendarBody(
		veventBody(
			"UID:weekly",
			"DTSTAMP:20240601T000000Z",
			"SUMMARY:Weekly tutoring",
			"DTSTART;TZID=Europe/London:20240520T170000",
			"DTEND;TZID=Europe/London:20240520T180000",
			"RRULE:FREQ=WEEKLY;COUNT=8",
			"EXDATE;TZID=Europe/London:20240610T170000",
			"ATTENDEE:mailto:bob@example.com",
		),
		veventBody(
			"UID:weekly",
			"DTSTAMP:20240601T000000Z",
			"SUMMARY:Weekly tutoring (moved)",
			"RECURRENCE-ID;TZID=Europe/London:20240617T170000",
			"DTSTART;TZID=Europe/London:20240618T090000",
			"DTEND;TZID=Europe/London:20240618T103000",
			"ATTENDEE:mailto:bob@example.com",
		),
	)

	london, err := time.LoadLocation("Europe/London")
	require.NoError(t, err)

	events, err := NewSource("inline.ics").Read(strings.NewReader(body), june)
	require.NoError(t, err)

	// 20 May..8 Jul weekly; June holds 3, 10 (excluded), 17 (moved), 24.
	var starts []time.Time
	for _, ev := range events {
		starts = append(starts, ev.Start.In(london))
	}
	require.Len(t, events, 3)
	assert.Equal(t, time.Date(2024, 6, 3, 17, 0, 0, 0, london), starts[0])
	assert.Equal(t, time.Date(2024, 6, 18, 9, 0, 0, 0, london), starts[1])
	assert.Equal(t, time.Date(2024, 6, 24, 17, 0, 0, 0, london), starts[2])

	assert.Equal(t, "Weekly tutoring (moved)", events[1].Title)
	assert.Equal(t, 90*time.Minute, events[1].Duration())
	assert.Equal(t, time.Hour, events[2].Duration())
	assert.Equal(t, "weekly_20240603T160000Z", events[0].ID)
	assert.NotEqual(t, events[0].ID, events[2].ID)
}

func TestSource_Read_AllDay(t *testing.T) {
	london, err := time.LoadLocation("Europe/London")
	require.NoError(t, err)

	body := calendarBody(veventBody(
		"UID:all-day",
		"DTSTAMP:20240601T000000Z",
		"SUMMARY:Exam day",
		"DTSTART;VALUE=DATE:20240612",
	))

	events, err := NewSource("inline.ics", WithLocation(london)).Read(strings.NewReader(body), june)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, time.Date(2024, 6, 12, 0, 0, 0, 0, london), events[0].Start)
	assert.Equal(t, 24*time.Hour, events[0].Duration())
}

func TestSource_Read_Errors(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{
			name: "missing DTSTART",
			body: calendarBody(veventBody("UID:x", "SUMMARY:x")),
		},
		{
			name: "bad RRULE",
			body: calendarBody(veventBody(
				"UID:x",
				"DTSTART:20240610T100000Z",
				"DTEND:20240610T110000Z",
				"RRULE:FREQ=SOMETIMES",
			)),
		},
		{
			name: "missing UID",
			body: calendarBody(veventBody("DTSTART:20240610T100000Z")),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewSource("inline.ics").Read(strings.NewReader(tt.body), june)
			require.Error(t, err)
		})
	}
}

func TestSource_Events_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "calendar.ics")
	body := calendarBody(veventBody(
		"UID:f1",
		"DTSTAMP:20240601T000000Z",
		"SUMMARY:From file",
		"DTSTART:20240605T080000Z",
		"DTEND:20240605T090000Z",
	))
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	src := NewSource(path)
	assert.Equal(t, path, src.Path())

	events, err := src.Events(context.Background(), june)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "From file", events[0].Title)

	_, err = NewSource(filepath.Join(t.TempDir(), "missing.ics")).Events(context.Background(), june)
	require.Error(t, err)
}

func TestAttendeeEmail(t *testing.T) {
	assert.Equal(t, "a@example.com", attendeeEmail("mailto:a@example.com"))
	assert.Equal(t, "a@example.com", attendeeEmail("MAILTO:a@example.com"))
	assert.Equal(t, "a@example.com", attendeeEmail(" a@example.com "))
	assert.Equal(t, "", attendeeEmail(""))
}
