// Package store persists run history and exported datasets in SQLite.
//
// The Store manages the database connection, schema initialization, and the
// runs table that records every collection run. Dataset exports write the
// rendered points, metrics, and summaries into typed tables whose counter
// columns are generated from the configured counter list.
//
// The database is an operational record, not the source of truth; snapshot
// JSONL files remain authoritative and exports can be regenerated from them.
// Schema changes bump schemaVersion; users delete the database to adopt the
// new schema.
package store
