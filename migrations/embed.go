// Package migrations embeds the user store schema into the binary.
//
// Each supported driver has its own directory of versioned SQL files; the
// database and postgres packages apply them in filename order.
package migrations

import (
	"embed"
	"io/fs"
)

//go:embed sqlite/*.sql postgres/*.sql
var files embed.FS

// SQLite returns the migrations for the SQLite store.
func SQLite() fs.FS {
	return sub("sqlite")
}

// Postgres returns the migrations for the PostgreSQL store.
func Postgres() fs.FS {
	return sub("postgres")
}

func sub(dir string) fs.FS {
	s, err := fs.Sub(files, dir)
	if err != nil {
		// Only reachable if the embed directive above is changed.
		panic("migrations: " + err.Error())
	}
	return s
}
