// Package server provides the state shared by the sessionbill MCP tools.
//
// ServerContext lazily builds the billing runner on first use and caches it,
// so that starting the server does not require a valid Google token. It also
// carries the time zone, the default ambiguity policy, the logger and the
// metrics recorder the tools report to.
package server
