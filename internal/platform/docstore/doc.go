// Package docstore implements the durable storage backend: a partitioned
// JSON document table reached through database/sql. PostgreSQL (pgx) is the
// production engine; SQLite (modernc.org/sqlite) serves local runs and tests.
// The schema is managed by goose migrations embedded in the binary.
package docstore
