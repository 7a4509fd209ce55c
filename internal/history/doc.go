// Package history persists run summaries and per-file outcomes in SQLite so
// past runs can be listed and inspected after their console output is gone.
//
// The schema is embedded and versioned; a database written by a different
// schema version is rejected with ErrSchemaMismatch rather than migrated.
package history
