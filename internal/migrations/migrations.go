// Package migrations embeds the migration scripts
package migrations

import "embed"

// FS is the embedded filesystem with the goose migrations for the categories and questions tables.
//
//go:embed *.sql
var FS embed.FS
