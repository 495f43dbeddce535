// Package migrations bundles the SQL migrations applied by the services.
package migrations

import "embed"

// Files holds every .sql file in this directory (ordering matters: 001, 002, ...).
//
//go:embed *.sql
var Files embed.FS
