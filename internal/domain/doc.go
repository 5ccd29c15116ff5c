// Package domain contains the core entities of the flashcard system: topics,
// cards with their review schedule, and the append-only review history.
// It is independent of any specific infrastructure or delivery mechanism.
package domain
