// Package store defines interfaces for data persistence operations and the
// error taxonomy shared by every implementation. Business rules depend on
// these interfaces, never on a specific database.
package store
