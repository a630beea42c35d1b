// Package sqlstore implements the user directory and contact store over SQL.
//
// Two drivers are supported: SQLite through modernc.org/sqlite (the default,
// no cgo) and PostgreSQL through lib/pq. Queries are written with "?"
// placeholders and rebound per driver by sqlx. The schema is embedded and
// applied on Open.
package sqlstore
