package db

import "embed"

// EmbedMigrations holds the policy store schema migrations compiled into
// the binary.
//
//go:embed migrations/*.sql
var EmbedMigrations embed.FS
