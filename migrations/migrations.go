// Package migrations embeds the SQL migrations of the database schema.
//
// SQLite migrations are applied by internal/migrate, postgres migrations
// are goose migrations.
package migrations

import (
	"embed"
	"io/fs"
)

//go:embed sqlite/*.sql
var sqliteFS embed.FS

//go:embed postgres/*.sql
var postgresFS embed.FS

var (
	SQLiteFS   fs.FS
	PostgresFS fs.FS
)

func init() {
	var err error

	SQLiteFS, err = fs.Sub(sqliteFS, "sqlite")
	if err != nil {
		panic("failed to subtree sqlite migrations FS " + err.Error())
	}

	PostgresFS, err = fs.Sub(postgresFS, "postgres")
	if err != nil {
		panic("failed to subtree postgres migrations FS " + err.Error())
	}
}
