// Package db embeds the SQL migration files so the server binary can run
// migrations without access to the source tree.
package db

import "embed"

//go:embed migrations/*.sql
var MigrationsFS embed.FS
