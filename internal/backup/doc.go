// Package backup exports the whole collection to a portable snapshot and
// restores it again.
//
// A Snapshot holds every topic, card (with its schedule) and review record.
// Snapshots are encoded as JSON or YAML and written atomically. Restore
// replaces the collection in a single transaction after validating the
// snapshot, so a bad file never leaves a half-restored database behind.
// Scheduler runs periodic exports with gocron and keeps the newest N files.
package backup
