package google

import (
	calendar "google.golang.org/api/calendar/v3"
)

// DefaultOAuthScopes are the scopes requested by the auth command. Billing
// only ever reads events, so read-only calendar access is enough.
var DefaultOAuthScopes = []string{
	calendar.CalendarReadonlyScope,
}
