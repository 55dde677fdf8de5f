package bankauth

import (
	"embed"
	"io/fs"
)

// migrationsFS contains the full go-bankauth SQL migration tree. Each
// dialect owns a disjoint subtree so migration discovery never sees the
// same version twice.
//
//go:embed data/sql/migrations/postgres/*.sql data/sql/migrations/sqlite/*.sql
var migrationsFS embed.FS

// GetMigrationsFS returns the full embedded migration tree.
func GetMigrationsFS() fs.FS {
	return migrationsFS
}

// GetCoreMigrationsFS returns the authorization core schema migration tree.
func GetCoreMigrationsFS() fs.FS {
	return migrationsFS
}
