// Package service contains the application use cases. It orchestrates
// domain objects and the stores defined in internal/store.
//
// Key components:
//
//   - TopicService: topic CRUD, reparenting with cycle detection, topic trees
//     and path resolution.
//   - CardService: card CRUD, moves and bulk moves, filtered and sorted listings.
//   - DueIndex: read-through queries for cards whose due date has passed.
//
// Multi-store writes run in one transaction through store.RunInTransaction
// with transaction-bound stores. Store sentinel errors stay in the error chain
// so that callers and the API layer can classify failures with errors.Is.
// Review submission lives in the review subpackage.
package service
