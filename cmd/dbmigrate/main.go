package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/willemschots/mailinglist/internal"
	"github.com/willemschots/mailinglist/internal/db"
	"github.com/willemschots/mailinglist/internal/migrate"
)

const helpText = `Usage: dbmigrate sqlite [sqlite_file]
       dbmigrate postgres [dsn]`

func main() {
	if len(os.Args) != 3 {
		fmt.Fprintln(os.Stderr, helpText)
		os.Exit(1)
	}

	dialect, err := db.ParseDialect(os.Args[1])
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n%s\n", err, helpText)
		os.Exit(1)
	}

	sqlDB, err := open(dialect, os.Args[2])
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to open database: %v\n", err)
		os.Exit(1)
	}
	defer sqlDB.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*60)
	defer cancel()

	meta := migrate.Metadata{
		AppVersion: internal.BuildRevision,
		Timestamp:  internal.BuildRevisionTime,
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	err = db.Migrate(ctx, dialect, sqlDB, meta, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to run migrations: %v\n", err)
		os.Exit(1)
	}
}

func open(dialect db.Dialect, target string) (*sql.DB, error) {
	if dialect == db.DialectPostgres {
		return db.OpenPostgres(target, 1)
	}
	return db.OpenSQLite(target, true)
}
