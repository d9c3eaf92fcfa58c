// Package migrations embeds project schema migrations.
package migrations

import "embed"

// FS holds the project .sql migration files.
//
//go:embed *.sql
var FS embed.FS
