// Package logging provides structured logging utilities for sessionbill.
//
// It builds the process logger from the configured level and format and
// centralizes attribute names so that classifier, renderer and delivery
// logs line up.
//
// # Usage Patterns
//
//	logger := logging.WithComponent(slog.Default(), "invoicing")
//	logger.Warn("skipped event",
//	    logging.EventID(ev.ID),
//	    logging.Err(err))
//
// Recipient addresses are hashed with Recipient before they are logged.
package logging
