// Package migrations embeds the SQL migration files so they travel with the
// binary.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
