// Package calendar reads billable events from the Google Calendar API.
//
// The client lists the single instances of every event overlapping a billing
// period and converts them into billing.CalendarEvent values. Authentication
// is supplied by the caller as an HTTP client, normally built with
// google.HTTPClient.
//
// Example usage:
//
//	httpClient, err := google.HTTPClient(ctx, provider)
//	if err != nil {
//	    return err
//	}
//	client, err := calendar.NewClient(ctx, "primary",
//	    calendar.WithHTTPClient(httpClient),
//	    calendar.WithLocation(loc))
//	if err != nil {
//	    return err
//	}
//	events, err := client.Events(ctx, period)
package calendar
