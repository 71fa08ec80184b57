package db

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/pressly/goose/v3"

	"github.com/willemschots/mailinglist/internal/migrate"
	"github.com/willemschots/mailinglist/migrations"
)

// Migrate applies all pending migrations for the dialect.
// SQLite migrations are applied by the migrate package, postgres migrations by goose.
func Migrate(ctx context.Context, d Dialect, db *sql.DB, meta migrate.Metadata, logger *slog.Logger) error {
	switch d {
	case DialectSQLite:
		applied, err := migrate.RunFS(ctx, db, migrations.SQLiteFS, meta)
		if err != nil {
			return err
		}

		for _, m := range applied {
			logger.Info("applied migration", "sequence", m.Sequence, "filename", m.Filename)
		}
		return nil
	case DialectPostgres:
		goose.SetBaseFS(migrations.PostgresFS)
		goose.SetLogger(gooseLogger{logger: logger})
		if err := goose.SetDialect("postgres"); err != nil {
			return err
		}
		return goose.UpContext(ctx, db, ".")
	default:
		return fmt.Errorf("unknown database dialect %q", d)
	}
}

// gooseLogger adapts a slog.Logger to goose.Logger.
type gooseLogger struct {
	logger *slog.Logger
}

func (l gooseLogger) Printf(format string, v ...any) {
	l.logger.Info(fmt.Sprintf(format, v...))
}

// Fatalf logs at error level. Unlike the goose default it does not exit,
// goose returns the error to the caller as well.
func (l gooseLogger) Fatalf(format string, v ...any) {
	l.logger.Error(fmt.Sprintf(format, v...))
}
