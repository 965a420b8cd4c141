// Package google handles OAuth2 for the Google Calendar API.
//
// The client configuration comes from the credentials.json file of a Google
// Cloud "desktop app" OAuth client. The auth command sends the user to the
// consent page, captures the code on a loopback CodeReceiver and saves the
// resulting token with a TokenStore. FileTokenProvider then serves that token,
// refreshing it and writing refreshed tokens back to disk.
package google
