package migrations

import "embed"

// Migration files embedded at compile time, selected by driver.
//
//go:embed sqlite/*.sql
var SqliteMigrations embed.FS

//go:embed postgres/*.sql
var PostgresMigrations embed.FS
