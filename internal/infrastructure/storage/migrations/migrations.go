// Package migrations holds the database schema migrations, run with goose.
package migrations

import "embed"

// FS contains the SQL migrations. Go migrations in this package register
// themselves with goose on import.
//
//go:embed *.sql
var FS embed.FS
