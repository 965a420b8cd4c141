package billing

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorPolicy decides what happens to events that fail classification.
type ErrorPolicy int

const (
	// PolicySkip records the event as skipped and carries on.
	PolicySkip ErrorPolicy = iota
	// PolicyAbort stops processing at the first failing event.
	PolicyAbort
)

// ParseErrorPolicy accepts "skip" and "abort".
func ParseErrorPolicy(s string) (ErrorPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "skip":
		return PolicySkip, nil
	case "abort":
		return PolicyAbort, nil
	default:
		return PolicySkip, &ValidationError{Field: "on_ambiguous", Value: s, Reason: "must be skip or abort"}
	}
}

func (p ErrorPolicy) String() string {
	if p == PolicyAbort {
		return "abort"
	}
	return "skip"
}

// ProcessOptions scope one run of the pipeline.
type ProcessOptions struct {
	Period Period
	// Clients restricts billing to the named clients. Empty means all.
	Clients []string
	OnError ErrorPolicy
}

// SkippedEvent is an event dropped under PolicySkip.
type SkippedEvent struct {
	Event CalendarEvent
	Err   *ClassificationError
}

// ProcessResult is everything the pipeline derived from one event batch.
type ProcessResult struct {
	Groups   []BillingGroup
	Sessions []Session
	// NonBillable counts events that matched no client.
	NonBillable int
	// OutOfRange counts events outside the period.
	OutOfRange int
	// Excluded counts sessions and classification errors that involve no
	// client of the requested subset.
	Excluded int
	Skipped  []SkippedEvent
}

// Process filters events to the period, classifies them, restricts them to
// the requested clients and aggregates the sessions into billing groups.
// It performs no I/O.
func Process(events []CalendarEvent, cls *Classifier, opts ProcessOptions) (*ProcessResult, error) {
	if err := opts.Period.Validate(); err != nil {
		return nil, err
	}
	subset, err := clientSubset(cls.dir, opts.Clients)
	if err != nil {
		return nil, err
	}

	res := &ProcessResult{}
	for _, ev := range events {
		if !opts.Period.Overlaps(ev) {
			res.OutOfRange++
			continue
		}

		c, err := cls.Classify(ev)
		if err != nil {
			var ce *ClassificationError
			if !errors.As(err, &ce) {
				return nil, err
			}
			if subset != nil && !anyInSubset(subset, ce.Clients) {
				res.Excluded++
				continue
			}
			if opts.OnError == PolicyAbort {
				return nil, err
			}
			res.Skipped = append(res.Skipped, SkippedEvent{Event: ev, Err: ce})
			continue
		}
		if c.Outcome == OutcomeNonBillable {
			res.NonBillable++
			continue
		}
		if subset != nil && !subset[c.Session.Client] {
			res.Excluded++
			continue
		}
		res.Sessions = append(res.Sessions, c.Session)
	}

	groups, err := Aggregate(res.Sessions, cls.dir)
	if err != nil {
		return nil, err
	}
	res.Groups = groups
	return res, nil
}

func anyInSubset(subset map[string]bool, names []string) bool {
	for _, n := range names {
		if subset[n] {
			return true
		}
	}
	return false
}

// clientSubset resolves requested names against the directory. Unknown names
// are a configuration mistake and fail the run.
func clientSubset(dir *Directory, names []string) (map[string]bool, error) {
	if len(names) == 0 {
		return nil, nil
	}
	subset := make(map[string]bool, len(names))
	for _, n := range names {
		rec, ok := dir.ClientFold(strings.TrimSpace(n))
		if !ok {
			return nil, &ValidationError{Field: "clients", Value: n, Reason: fmt.Sprintf("not in the client directory (%d clients known)", dir.Len())}
		}
		subset[rec.Name] = true
	}
	return subset, nil
}

// InactiveClients returns the clients of dir that have no session in
// sessions, ordered by name.
func InactiveClients(dir *Directory, sessions []Session) []ClientRecord {
	active := make(map[string]bool, len(sessions))
	for _, s := range sessions {
		active[s.Client] = true
	}
	var out []ClientRecord
	for _, rec := range dir.Records() {
		if !active[rec.Name] {
			out = append(out, rec)
		}
	}
	return out
}
