// Package migrate applies embedded SQL migrations to a SQLite database.
//
// Every .sql file in the root of the provided file system is a migration.
// Files are applied in lexical order, each exactly once, all within a single
// transaction. Applied migrations are recorded together with a checksum of
// their contents, so renamed, removed or edited files are detected.
package migrate

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"
)

// Migration is a migration that was applied.
type Migration struct {
	// Sequence is the number of the migration. Starts at 0.
	Sequence int
	Filename string
	Checksum string
	Metadata Metadata
}

// Equal checks if two migrations are equal.
func (m Migration) Equal(other Migration) bool {
	return m.Sequence == other.Sequence &&
		m.Filename == other.Filename &&
		m.Checksum == other.Checksum &&
		m.Metadata.AppVersion == other.Metadata.AppVersion &&
		m.Metadata.Timestamp.Equal(other.Metadata.Timestamp)
}

// Metadata is stored alongside every applied migration to help with debugging.
type Metadata struct {
	AppVersion string
	Timestamp  time.Time
}

const createTableQuery = `CREATE TABLE IF NOT EXISTS schema_migrations (
	sequence    INTEGER PRIMARY KEY,
	filename    TEXT NOT NULL,
	checksum    TEXT NOT NULL,
	app_version TEXT NOT NULL,
	applied_at  TIMESTAMP NOT NULL
)`

const selectQuery = `SELECT sequence, filename, checksum, app_version, applied_at FROM schema_migrations ORDER BY sequence`

const insertQuery = `INSERT INTO schema_migrations (sequence, filename, checksum, app_version, applied_at) VALUES (?, ?, ?, ?, ?)`

var (
	// ErrNoTable indicates the migrations table does not exist.
	ErrNoTable = errors.New("migrations table does not exist")
	// ErrMigrationsMismatch indicates that applied migrations no longer match the available files.
	ErrMigrationsMismatch = errors.New("migrations mismatch")
)

// MigrationError is returned when the SQL of a migration fails to execute.
type MigrationError struct {
	Sequence int
	Filename string
	Err      error
}

func (m MigrationError) Error() string {
	return fmt.Sprintf("migration [%d] %q failed: %v", m.Sequence, m.Filename, m.Err)
}

func (m MigrationError) Unwrap() error {
	return m.Err
}

// RunFS applies the migrations in fileSys that were not applied before and returns them.
// If there was nothing to apply an empty slice is returned. When any migration fails,
// none of the migrations of this run are applied.
func RunFS(ctx context.Context, db *sql.DB, fileSys fs.FS, meta Metadata) ([]Migration, error) {
	files, err := loadFiles(fileSys)
	if err != nil {
		return nil, err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}

	_, err = tx.ExecContext(ctx, createTableQuery)
	if err != nil {
		return nil, rollback(tx, fmt.Errorf("failed to create migrations table: %w", err))
	}

	applied, err := queryWith(func(q string) (*sql.Rows, error) {
		return tx.QueryContext(ctx, q)
	})
	if err != nil {
		return nil, rollback(tx, err)
	}

	pending, err := pendingFiles(applied, files)
	if err != nil {
		return nil, rollback(tx, err)
	}

	result := make([]Migration, 0, len(pending))
	for i, f := range pending {
		m := Migration{
			Sequence: len(applied) + i,
			Filename: f.name,
			Checksum: f.checksum,
			Metadata: meta,
		}

		_, err = tx.ExecContext(ctx, f.content)
		if err != nil {
			return nil, rollback(tx, MigrationError{
				Sequence: m.Sequence,
				Filename: m.Filename,
				Err:      err,
			})
		}

		_, err = tx.ExecContext(ctx, insertQuery, m.Sequence, m.Filename, m.Checksum, m.Metadata.AppVersion, m.Metadata.Timestamp)
		if err != nil {
			return nil, rollback(tx, fmt.Errorf("failed to record migration %q: %w", m.Filename, err))
		}

		result = append(result, m)
	}

	err = tx.Commit()
	if err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return result, nil
}

// pendingFiles verifies that the applied migrations are a prefix of files
// and returns the files that remain.
func pendingFiles(applied []Migration, files []file) ([]file, error) {
	if len(applied) > len(files) {
		return nil, fmt.Errorf(
			"found %d applied migrations but only have %d files: %w",
			len(applied), len(files), ErrMigrationsMismatch,
		)
	}

	for i, m := range applied {
		if m.Sequence != i {
			return nil, fmt.Errorf("migration sequence mismatch, wanted %d got %d", i, m.Sequence)
		}

		f := files[i]
		if m.Filename != f.name {
			return nil, fmt.Errorf(
				"migration %d was applied as %s, but now found %s: %w",
				i, m.Filename, f.name, ErrMigrationsMismatch,
			)
		}

		if m.Checksum != f.checksum {
			return nil, fmt.Errorf(
				"contents of migration %s changed after it was applied: %w",
				f.name, ErrMigrationsMismatch,
			)
		}
	}

	return files[len(applied):], nil
}

// QueryMigrations returns all applied migrations.
// If the migration table does not exist yet, it returns ErrNoTable.
func QueryMigrations(ctx context.Context, db *sql.DB) ([]Migration, error) {
	return queryWith(func(q string) (*sql.Rows, error) {
		return db.QueryContext(ctx, q)
	})
}

func queryWith(rowsFunc func(q string) (*sql.Rows, error)) ([]Migration, error) {
	rows, err := rowsFunc(selectQuery)
	if err != nil {
		if strings.Contains(err.Error(), "no such table") {
			return nil, ErrNoTable
		}
		return nil, fmt.Errorf("failed to query migrations: %w", err)
	}
	defer rows.Close()

	migrations := make([]Migration, 0)
	for rows.Next() {
		var m Migration
		err := rows.Scan(&m.Sequence, &m.Filename, &m.Checksum, &m.Metadata.AppVersion, &m.Metadata.Timestamp)
		if err != nil {
			return nil, fmt.Errorf("failed to scan migration: %w", err)
		}

		migrations = append(migrations, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate over rows: %w", err)
	}

	return migrations, nil
}

type file struct {
	name     string
	content  string
	checksum string
}

// loadFiles reads all .sql files in the root of fileSys, sorted by name.
func loadFiles(fileSys fs.FS) ([]file, error) {
	entries, err := fs.ReadDir(fileSys, ".")
	if err != nil {
		return nil, fmt.Errorf("failed to read migrations directory: %w", err)
	}

	files := make([]file, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}

		content, err := fs.ReadFile(fileSys, entry.Name())
		if err != nil {
			return nil, fmt.Errorf("failed to read migration %q: %w", entry.Name(), err)
		}

		sum := sha256.Sum256(content)
		files = append(files, file{
			name:     entry.Name(),
			content:  string(content),
			checksum: hex.EncodeToString(sum[:]),
		})
	}

	return files, nil
}

func rollback(tx *sql.Tx, err error) error {
	rErr := tx.Rollback()
	if rErr != nil {
		return errors.Join(err, rErr)
	}

	return err
}
