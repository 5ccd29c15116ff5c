// Package events provides the domain events emitted when cards are reviewed,
// moved, deleted, or when a backup is restored.
//
// Services publish events through an EventEmitter without knowing which
// handlers will process them. The retention cache and metrics subscribe to
// these events to stay consistent with the store.
package events
