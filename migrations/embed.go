// Package migrations embeds the per-tenant schema migrations.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
