// Package migrations embeds analytics schema migrations.
package migrations

import "embed"

// FS holds the analytics .sql migration files.
//
//go:embed *.sql
var FS embed.FS
