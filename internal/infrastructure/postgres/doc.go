// Package postgres provides PostgreSQL connectivity for the gatekeeper user
// store as an alternative to the embedded SQLite database.
//
// The pool is created with pgxpool and verified with a bounded ping. Schema
// migrations use the same versioned file layout as the SQLite store; the
// loader is shared with the database package and only the bookkeeping SQL
// differs.
package postgres
