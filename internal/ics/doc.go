// Package ics reads billable events from iCalendar files.
//
// It is the offline counterpart of the Google Calendar source: recurring
// events are expanded with RRULE and EXDATE, RECURRENCE-ID overrides replace
// the instance they name, and cancelled events are dropped.
package ics
