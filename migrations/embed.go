// Package migrations embeds SQL migration files applied by goose on startup.
package migrations

import "embed"

// FS holds the embedded migration files.
//
//go:embed *.sql
var FS embed.FS
