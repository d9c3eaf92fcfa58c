// Package migrations embeds publisher schema migrations.
package migrations

import "embed"

// FS holds the publisher .sql migration files.
//
//go:embed *.sql
var FS embed.FS
