package billing

import (
	"sort"
	"strings"
)

// Outcome is the verdict the classifier reaches for one event.
type Outcome int

const (
	// OutcomeNonBillable events matched no client and are dropped silently.
	OutcomeNonBillable Outcome = iota
	// OutcomeSession events matched exactly one client.
	OutcomeSession
)

func (o Outcome) String() string {
	if o == OutcomeSession {
		return "session"
	}
	return "non_billable"
}

// Match sources recorded on a Classification.
const (
	MatchAttendee = "attendee"
	MatchTitle    = "title"
)

// Classification is the result of classifying one event.
type Classification struct {
	Outcome Outcome
	Session Session
	// MatchedBy is MatchAttendee or MatchTitle for sessions.
	MatchedBy string
}

// TitleRules derive a client name from the title of events that only the
// calendar owner attends. They are consulted only when no attendee e-mail
// matched a client.
type TitleRules struct {
	// SkipKeywords mark titles that are never billable, e.g. "PMT".
	SkipKeywords []string `mapstructure:"skip_keywords"`
	// NameMarkers name the client by the two words before the marker, e.g.
	// "Oscar Sun BAC Maths" with marker "BAC".
	NameMarkers []string `mapstructure:"name_markers"`
	// NamePrefixes name the client by the words after the prefix, e.g.
	// "Tutoring Alice Johnson" with prefix "Tutoring". The title must start
	// with the prefix exactly.
	NamePrefixes []string `mapstructure:"name_prefixes"`
}

// DefaultTitleRules returns the rules used by the command line tool.
func DefaultTitleRules() TitleRules {
	return TitleRules{
		SkipKeywords: []string{"PMT"},
		NameMarkers:  []string{"BAC"},
		NamePrefixes: []string{"Tutoring"},
	}
}

// IsEmpty reports whether no rule is configured.
func (r TitleRules) IsEmpty() bool {
	return len(r.SkipKeywords) == 0 && len(r.NameMarkers) == 0 && len(r.NamePrefixes) == 0
}

// resolve returns the client name a title points at, or "" when the title is
// skipped or matches no rule.
func (r TitleRules) resolve(title string) string {
	for _, kw := range r.SkipKeywords {
		if kw != "" && strings.Contains(title, kw) {
			return ""
		}
	}

	words := strings.Fields(title)
	for _, marker := range r.NameMarkers {
		if marker == "" || !strings.Contains(title, marker) {
			continue
		}
		return nameBeforeMarker(words, marker)
	}
	for _, prefix := range r.NamePrefixes {
		if prefix == "" {
			continue
		}
		if rest, ok := strings.CutPrefix(title, prefix+" "); ok {
			return strings.TrimSpace(rest)
		}
	}
	return ""
}

// nameBeforeMarker returns the two words preceding marker. Titles where the
// marker is not a separate word, or has fewer than two words before it, fall
// back to the first two words of the title.
func nameBeforeMarker(words []string, marker string) string {
	for i, w := range words {
		if w == marker && i >= 2 {
			return words[i-2] + " " + words[i-1]
		}
	}
	if len(words) >= 2 {
		return words[0] + " " + words[1]
	}
	return ""
}

// Classifier attributes calendar events to clients of a Directory.
type Classifier struct {
	dir   *Directory
	rules TitleRules
}

// ClassifierOption configures a Classifier.
type ClassifierOption func(*Classifier)

// WithTitleRules enables title based matching for owner-only events.
func WithTitleRules(rules TitleRules) ClassifierOption {
	return func(c *Classifier) {
		c.rules = rules
	}
}

// NewClassifier returns a classifier matching attendees against dir.
func NewClassifier(dir *Directory, opts ...ClassifierOption) *Classifier {
	c := &Classifier{dir: dir}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Classify decides whether ev is a billable session and for which client.
// Events matching several clients and matched events with a non-positive
// duration return a *ClassificationError.
func (c *Classifier) Classify(ev CalendarEvent) (Classification, error) {
	matched := c.attendeeClients(ev.Attendees)
	via := MatchAttendee

	if len(matched) == 0 && ownerOnly(ev.Attendees) && !c.rules.IsEmpty() {
		if name := c.rules.resolve(ev.Title); name != "" {
			if rec, ok := c.dir.ClientFold(name); ok {
				matched = []string{rec.Name}
				via = MatchTitle
			}
		}
	}

	switch {
	case len(matched) == 0:
		return Classification{Outcome: OutcomeNonBillable}, nil
	case len(matched) > 1:
		return Classification{}, &ClassificationError{
			EventID: ev.ID,
			Title:   ev.Title,
			Reason:  ReasonAmbiguous,
			Clients: matched,
		}
	}

	if ev.Duration() <= 0 {
		return Classification{}, &ClassificationError{
			EventID: ev.ID,
			Title:   ev.Title,
			Reason:  ReasonMalformed,
			Clients: matched,
			Detail:  "end is not after start",
		}
	}

	return Classification{
		Outcome: OutcomeSession,
		Session: Session{
			Client:  matched[0],
			EventID: ev.ID,
			Title:   ev.Title,
			Start:   ev.Start,
			End:     ev.End,
		},
		MatchedBy: via,
	}, nil
}

// attendeeClients returns the distinct client names owning any attendee
// e-mail, sorted.
func (c *Classifier) attendeeClients(attendees []Attendee) []string {
	seen := make(map[string]bool)
	var names []string
	for _, a := range attendees {
		rec, ok := c.dir.Lookup(a.Email)
		if !ok || seen[rec.Name] {
			continue
		}
		seen[rec.Name] = true
		names = append(names, rec.Name)
	}
	sort.Strings(names)
	return names
}

func ownerOnly(attendees []Attendee) bool {
	for _, a := range attendees {
		if !a.Self {
			return false
		}
	}
	return true
}
