// Package invoicing runs a complete billing run.
//
// A Service loads the client directory and payment details, fetches the
// events of the billing period from an EventSource, turns them into billing
// groups, renders one document per group into the output directory and, when
// asked to, mails each document to its recipient. The returned Report is what
// the CLI prints and what the MCP tools return.
package invoicing
