// Package migrations embeds the SQL migration files for the relational
// storage backend.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
