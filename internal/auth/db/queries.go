package db

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/willemschots/mailinglist/internal/auth"
	"github.com/willemschots/mailinglist/internal/db"
	"github.com/willemschots/mailinglist/internal/errorz"
)

type execFunc func(query string, params ...any) (sql.Result, error)
type queryFunc func(query string, params ...any) (*sql.Rows, error)

func insertUser(q *db.Query, ef execFunc, u *auth.User) error {
	if u.ID == uuid.Nil {
		return fmt.Errorf("zero uuid provided: %w", errorz.ErrConstraintViolated)
	}

	q.Unsafe(`INSERT INTO users (user_id, username, password_hash) VALUES (`)
	q.Params(u.ID.String(), u.Username, u.PasswordHash.String())
	q.Unsafe(`)`)

	query, params := q.Get()
	_, err := ef(query, params...)
	if err != nil {
		return errorz.MapDBErr(err)
	}

	return nil
}

func selectUsers(q *db.Query, qf queryFunc, f *auth.UserFilter) ([]auth.User, error) {
	q.Unsafe(`SELECT user_id, username, password_hash FROM users WHERE 1=1`)

	if f != nil && len(f.IDs) > 0 {
		q.Unsafe(` AND user_id IN (`)
		q.Params(anySlice(f.IDs, func(id uuid.UUID) any { return id.String() })...)
		q.Unsafe(`)`)
	}

	if f != nil && len(f.Usernames) > 0 {
		q.Unsafe(` AND username IN (`)
		q.Params(anySlice(f.Usernames, func(u string) any { return u })...)
		q.Unsafe(`)`)
	}

	q.Unsafe(` ORDER BY username ASC`)

	query, params := q.Get()
	rows, err := qf(query, params...)
	if err != nil {
		return nil, errorz.MapDBErr(err)
	}
	defer rows.Close()

	out := make([]auth.User, 0)
	for rows.Next() {
		var u auth.User
		err := rows.Scan(&u.ID, &u.Username, &u.PasswordHash)
		if err != nil {
			return nil, errorz.MapDBErr(err)
		}

		out = append(out, u)
	}

	if err := rows.Err(); err != nil {
		return nil, errorz.MapDBErr(err)
	}

	return out, nil
}

func anySlice[T any](s []T, f func(T) any) []any {
	out := make([]any, 0, len(s))
	for _, v := range s {
		out = append(out, f(v))
	}
	return out
}
