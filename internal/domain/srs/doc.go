// Package srs implements the review scheduler: a pure SM-2 style transition
// from a card's current schedule and a pass/fail outcome to its next schedule.
package srs
