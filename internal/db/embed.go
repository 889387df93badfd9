package db

import (
	"embed"
	"io/fs"
	"os"
)

//go:embed migrations/*.sql
var embeddedMigrations embed.FS

// getMigrationsFS returns the migrations filesystem rooted at the directory
// containing the .sql files. A local migrations directory takes precedence
// over the embedded copy so migrations can be iterated on in dev without
// rebuilding.
func getMigrationsFS() (fs.FS, error) {
	if info, err := os.Stat("internal/db/migrations"); err == nil && info.IsDir() {
		return os.DirFS("internal/db/migrations"), nil
	}
	return fs.Sub(embeddedMigrations, "migrations")
}

// MigrationsFS exposes the migrations filesystem for callers outside this
// package (the server's startup pending-migration check).
func MigrationsFS() (fs.FS, error) {
	return getMigrationsFS()
}
