// Package cmd implements the command-line interface for sessionbill.
//
// This package provides the following commands:
//   - generate: Render the invoices of a billing period (the default command)
//   - auth: Authorize read access to Google Calendar and save the token
//   - check: Validate the client, bank and contact files
//   - clients: List the clients, optionally only those without sessions
//   - serve: Start the MCP server on stdio
//   - generate-docs: Generate markdown documentation for all MCP tools
//   - version: Display version information
//
// Settings come from flags, SESSIONBILL_* environment variables (a .env file
// is loaded first) and sessionbill.yaml, in that order of precedence.
package cmd
