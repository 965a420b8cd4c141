// Package billing turns calendar events into priced billing groups.
//
// The pipeline has three stages, all pure and deterministic:
//
//   - Classifier attributes each event to at most one client by looking its
//     attendee e-mails up in a Directory. Events that match nobody are
//     non-billable; events that match several clients, or have no positive
//     duration, fail with a *ClassificationError.
//   - Aggregate groups sessions per private client or per agency and orders
//     them by start time.
//   - The amount helpers price each session with shopspring/decimal and keep
//     totals unrounded. RoundForDisplay is the single rounding point.
//
// Process chains the three stages for one period:
//
//	dir, _ := billing.NewDirectory(records)
//	res, err := billing.Process(events, billing.NewClassifier(dir), billing.ProcessOptions{
//	    Period:  billing.LastFullMonth(time.Now(), loc),
//	    OnError: billing.PolicySkip,
//	})
package billing
