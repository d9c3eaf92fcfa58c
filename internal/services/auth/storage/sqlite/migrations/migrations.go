// Package migrations embeds auth schema migrations.
package migrations

import "embed"

// FS holds the auth .sql migration files.
//
//go:embed *.sql
var FS embed.FS
