// Package database provides SQLite connectivity for the gatekeeper user store.
//
// This package manages:
//   - Database connection with WAL mode and foreign keys enabled
//   - Versioned schema migrations read from an fs.FS
//   - Connection lifecycle and health checks
//
// Migrations are plain SQL files named YYYYMMDD_HHMMSS_description.up.sql with
// an optional matching .down.sql. The loader (LoadMigrations, Pending) is
// driver-neutral and shared with the postgres package.
//
// Usage:
//
//	db, err := database.Open(database.Config{Path: cfg.Database.SQLite.Path})
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx, migrations.SQLite()); err != nil {
//	    return err
//	}
package database
