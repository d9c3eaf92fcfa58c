// Package migrations embeds task queue schema migrations.
package migrations

import "embed"

// FS holds the worker .sql migration files.
//
//go:embed *.sql
var FS embed.FS
