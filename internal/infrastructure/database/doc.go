// Package database provides the SQLite store behind the show journal.
//
// It manages:
//   - The connection, in WAL mode with a busy timeout and a single writer
//   - Additive schema migrations read from any fs.FS
//   - Health checks and lifecycle
//
// Usage:
//
//	db, err := database.Open(database.FromConfig(cfg.Database))
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx, migrations.FS); err != nil {
//	    return err
//	}
//
// Migrations are named YYYYMMDD_HHMMSS_description.up.sql with a matching
// .down.sql. New columns must be NULLABLE or have DEFAULT values.
//
// The database file is created with 0600 permissions and every query uses
// parameterised statements.
package database
