// Package db provides the embedded Postgres schema shared by the Postgres
// storage backend, the Postgres catalog source and the seed tool.
package db

import _ "embed"

// Schema creates the key-value and products tables.
//
//go:embed migrations/001_schema.sql
var Schema string
