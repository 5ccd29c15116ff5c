// Package retention derives success-rate metrics from review history.
//
// The Calculator is read-only and stateless: every call reads the review
// records through the store. Callers that query the same cards repeatedly can
// wrap it in a Cached calculator, which subscribes to domain events and drops
// entries whenever the underlying history changes.
package retention
