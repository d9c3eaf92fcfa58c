// Package migrations embeds content schema migrations.
package migrations

import "embed"

// FS holds the content .sql migration files.
//
//go:embed *.sql
var FS embed.FS
