// Package task runs work asynchronously on a sharded worker pool.
//
// The Dispatcher hashes each task's key onto one of a fixed number of
// workers, each draining its own bounded queue. Review submissions use the
// card ID as key, so submissions for one card are applied in order while
// other cards are processed in parallel. Callers wait for results through
// the returned Future.
package task
