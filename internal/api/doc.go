// Package api exposes the flashcard engine over a local JSON HTTP API. It
// translates HTTP requests into service calls and maps service errors onto
// status codes with sanitized messages: not found to 404, conflicts to 409,
// validation failures to 400 and everything else to 500.
package api
