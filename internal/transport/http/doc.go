// Package http implements the HTTP handlers of the peaktrail server.
//
// Handlers stay thin: they parse and validate the query, call the service
// layer and render the result with go-chi/render. Every failure goes through
// errors.ErrorHandler and reaches the client as RFC 7807 problem details.
//
// Routes served under /api:
//
//	GET  /timeline       computed timeline as JSON {entries, peaks, summary}
//	GET  /timeline.csv   the same rows as CSV
//	GET  /peaks          peak id to name lookup
//	POST /reload         re-read the input tables from disk
//	GET  /health, /health/ready, /health/live, /version
package http
