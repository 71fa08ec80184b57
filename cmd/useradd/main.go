package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/term"

	"github.com/willemschots/mailinglist/internal/auth"
	authdb "github.com/willemschots/mailinglist/internal/auth/db"
	"github.com/willemschots/mailinglist/internal/db"
)

const helpText = `Usage: useradd sqlite [sqlite_file] [username]
       useradd postgres [dsn] [username]

The password is read from the terminal.`

// readPassword reads a password without echo. Replaced in tests.
var readPassword = func() ([]byte, error) {
	return term.ReadPassword(int(os.Stdin.Fd()))
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if len(args) != 3 {
		fmt.Fprintln(stderr, helpText)
		return 1
	}

	dialect, err := db.ParseDialect(args[0])
	if err != nil {
		fmt.Fprintf(stderr, "%v\n%s\n", err, helpText)
		return 1
	}

	pwd, err := promptPassword(stdout)
	if err != nil {
		fmt.Fprintf(stderr, "failed to read password: %v\n", err)
		return 1
	}

	var sqlDB *sql.DB
	if dialect == db.DialectPostgres {
		sqlDB, err = db.OpenPostgres(args[1], 1)
	} else {
		sqlDB, err = db.OpenSQLite(args[1], true)
	}
	if err != nil {
		fmt.Fprintf(stderr, "failed to open database: %v\n", err)
		return 1
	}
	defer sqlDB.Close()

	svc, err := auth.NewService(authdb.New(sqlDB, sqlDB, dialect))
	if err != nil {
		fmt.Fprintf(stderr, "failed to create auth service: %v\n", err)
		return 1
	}

	user, err := svc.CreateUser(ctx, args[2], pwd)
	if err != nil {
		fmt.Fprintf(stderr, "failed to create user: %v\n", err)
		return 1
	}

	fmt.Fprintf(stdout, "created user %s with id %s\n", user.Username, user.ID)

	return 0
}

func promptPassword(w io.Writer) (auth.Password, error) {
	fmt.Fprint(w, "Enter password: ")
	raw, err := readPassword()
	fmt.Fprintln(w)
	if err != nil {
		return auth.Password{}, err
	}

	fmt.Fprint(w, "Repeat password: ")
	repeat, err := readPassword()
	fmt.Fprintln(w)
	if err != nil {
		return auth.Password{}, err
	}

	if string(raw) != string(repeat) {
		return auth.Password{}, errors.New("passwords do not match")
	}

	return auth.ParsePassword(string(raw))
}
