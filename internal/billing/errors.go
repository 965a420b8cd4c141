package billing

import (
	"fmt"
	"strings"
)

// ValidationError reports a malformed configuration value. It is fatal: a run
// stops before any calendar events are fetched.
type ValidationError struct {
	// Source is the file or record the value came from, e.g. "bank_details".
	Source string
	Field  string
	Value  string
	Reason string
}

func (e *ValidationError) Error() string {
	field := e.Field
	if e.Source != "" {
		field = e.Source + "." + e.Field
	}
	if e.Value == "" {
		return fmt.Sprintf("invalid %s: %s", field, e.Reason)
	}
	return fmt.Sprintf("invalid %s %q: %s", field, e.Value, e.Reason)
}

// ClassificationReason distinguishes the two ways an event can fail classification.
type ClassificationReason string

const (
	ReasonAmbiguous ClassificationReason = "ambiguous"
	ReasonMalformed ClassificationReason = "malformed"
)

// ClassificationError is returned for events that matched more than one client
// or that have a non-positive duration. The caller decides whether to skip the
// event or abort the run.
type ClassificationError struct {
	EventID string
	Title   string
	Reason  ClassificationReason
	// Clients lists the matched client names.
	Clients []string
	Detail  string
}

func (e *ClassificationError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s event %q", e.Reason, e.Title)
	if e.EventID != "" {
		fmt.Fprintf(&b, " (id %s)", e.EventID)
	}
	if len(e.Clients) > 0 {
		fmt.Fprintf(&b, ": matches clients %s", strings.Join(e.Clients, ", "))
	}
	if e.Detail != "" {
		fmt.Fprintf(&b, ": %s", e.Detail)
	}
	return b.String()
}

// CalculationError signals a non-positive rate or duration reaching the amount
// calculator. Upstream validation makes this unreachable, so it is always fatal.
type CalculationError struct {
	Client string
	Detail string
}

func (e *CalculationError) Error() string {
	if e.Client == "" {
		return "calculation invariant violated: " + e.Detail
	}
	return fmt.Sprintf("calculation invariant violated for %s: %s", e.Client, e.Detail)
}
