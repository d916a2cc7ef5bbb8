// Package migrations embeds the PostgreSQL schema applied by attendctl migrate.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
