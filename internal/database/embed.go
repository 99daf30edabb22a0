package database

import "embed"

// MigrationFS embeds the SQL migration files so the binary carries its own
// schema and needs no migrations directory on disk.
//
//go:embed migrations/*.sql
var MigrationFS embed.FS
