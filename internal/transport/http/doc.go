// Package http contains the HTTP transport layer for the CSV analyzer.
//
// Handlers decode API requests, delegate to the service layer, and render
// JSON responses. Failures flow through the shared error handler, which
// renders RFC 7807 problem details and keeps parser internals out of
// client-facing messages. Handlers own no audit logic; route wiring lives
// in internal/app.
package http
