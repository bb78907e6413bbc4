// Package database provides SQLite persistence for the WordClock bridge.
//
// This package manages:
//   - Opening and configuring the SQLite database (WAL mode, busy timeout)
//   - Schema migrations embedded into the binary
//   - Connection lifecycle and health checks
//
// The database stores the clock's state change history, giving a local
// audit trail that survives restarts even when the time-series database
// is disabled or unavailable.
//
// SQLite is configured with a single connection because it only supports
// one writer; the bridge's write volume (one row per state change) is
// well within that model.
//
// Usage:
//
//	db, err := database.Open(ctx, database.Config{Path: "./data/wordclock.db", WALMode: true, BusyTimeout: 5})
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx); err != nil {
//	    return err
//	}
package database
