// Package review commits review outcomes and runs review sessions.
//
// Service.Submit is the only writer of review history. It serializes
// submissions per card with a keyed lock, repairs corrupt stored schedules,
// computes the next schedule with the srs package and commits the review
// record and the card update in one transaction.
//
// A Session presents the cards that were due when it started in shuffled
// order; the Manager keeps sessions by ID for the HTTP API.
package review
