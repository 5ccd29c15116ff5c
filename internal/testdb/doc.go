// Package testdb opens migrated databases for tests.
//
// By default each test gets its own SQLite file under t.TempDir(). Setting
// LAZYCARD_TEST_DATABASE_URL runs the same tests against PostgreSQL; the
// schema is reset before each test, so point it at a disposable database.
package testdb
