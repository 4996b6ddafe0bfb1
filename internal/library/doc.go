// Package library persists the durable track catalog in SQLite.
//
// The Store manages database connections, schema initialization, secondary
// indexes over normalized tag keys and content hashes, and stats queries.
// Track rows capture the tag fields, file identity (size and modification
// time), and the lazily computed content hash and acoustic fingerprint so
// detection passes can reuse earlier work across runs.
//
// Treat this package as the single source of truth for catalog semantics;
// when you add new track fields, update schema.sql and bump schemaVersion.
package library
