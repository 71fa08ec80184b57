package db

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/willemschots/mailinglist/internal/db"
	"github.com/willemschots/mailinglist/internal/email"
	"github.com/willemschots/mailinglist/internal/errorz"
	"github.com/willemschots/mailinglist/internal/krypto"
	"github.com/willemschots/mailinglist/internal/subscription"
)

type execFunc func(query string, params ...any) (sql.Result, error)
type queryFunc func(query string, params ...any) (*sql.Rows, error)

func insertSubscriber(q *db.Query, ef execFunc, s *subscription.Subscriber) error {
	if s.ID == uuid.Nil {
		return fmt.Errorf("zero uuid provided: %w", errorz.ErrConstraintViolated)
	}

	q.Unsafe(`INSERT INTO subscribers (id, email, name, status, created_at) VALUES (`)
	q.Params(s.ID.String(), string(s.Email), string(s.Name), string(s.Status), s.CreatedAt)
	q.Unsafe(`)`)

	query, params := q.Get()
	_, err := ef(query, params...)
	if err != nil {
		return errorz.MapDBErr(err)
	}

	return nil
}

func selectSubscribers(q *db.Query, qf queryFunc, f *subscription.SubscriberFilter) ([]subscription.Subscriber, error) {
	q.Unsafe(`SELECT id, email, name, status, created_at FROM subscribers WHERE 1=1`)

	if f != nil && len(f.IDs) > 0 {
		q.Unsafe(` AND id IN (`)
		q.Params(mapSlice(f.IDs, func(id uuid.UUID) any { return id.String() })...)
		q.Unsafe(`)`)
	}

	if f != nil && len(f.Emails) > 0 {
		q.Unsafe(` AND email IN (`)
		q.Params(mapSlice(f.Emails, func(a email.Address) any { return string(a) })...)
		q.Unsafe(`)`)
	}

	if f != nil && len(f.Statuses) > 0 {
		q.Unsafe(` AND status IN (`)
		q.Params(mapSlice(f.Statuses, func(s subscription.Status) any { return string(s) })...)
		q.Unsafe(`)`)
	}

	q.Unsafe(` ORDER BY created_at ASC, id ASC`)

	query, params := q.Get()
	rows, err := qf(query, params...)
	if err != nil {
		return nil, errorz.MapDBErr(err)
	}
	defer rows.Close()

	out := make([]subscription.Subscriber, 0)
	for rows.Next() {
		var (
			s        subscription.Subscriber
			emailStr string
			name     string
			status   string
		)
		err := rows.Scan(&s.ID, &emailStr, &name, &status, &s.CreatedAt)
		if err != nil {
			return nil, errorz.MapDBErr(err)
		}

		// Stored addresses were validated on insert but are not re-parsed here,
		// callers that deliver email validate them again.
		s.Email = email.Address(emailStr)
		s.Name = subscription.Name(name)
		s.Status = subscription.Status(status)

		out = append(out, s)
	}

	if err := rows.Err(); err != nil {
		return nil, errorz.MapDBErr(err)
	}

	return out, nil
}

func updateSubscriberStatus(q *db.Query, ef execFunc, id uuid.UUID, status subscription.Status) error {
	q.Unsafe(`UPDATE subscribers SET status = `)
	q.Param(string(status))
	q.Unsafe(` WHERE id = `)
	q.Param(id.String())

	query, params := q.Get()
	result, err := ef(query, params...)
	if err != nil {
		return errorz.MapDBErr(err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return errorz.MapDBErr(err)
	}

	if n == 0 {
		return fmt.Errorf("subscriber not found: %w", errorz.ErrNotFound)
	}

	return nil
}

func insertConfirmationToken(q *db.Query, ef execFunc, tok *subscription.ConfirmationToken) error {
	if tok.Token.IsZero() {
		return fmt.Errorf("zero token provided: %w", errorz.ErrConstraintViolated)
	}

	q.Unsafe(`INSERT INTO confirmation_tokens (token, subscriber_id) VALUES (`)
	q.Params(tok.Token.String(), tok.SubscriberID.String())
	q.Unsafe(`)`)

	query, params := q.Get()
	_, err := ef(query, params...)
	if err != nil {
		return errorz.MapDBErr(err)
	}

	return nil
}

func selectSubscriberIDByToken(q *db.Query, qf queryFunc, tok krypto.Token) (uuid.UUID, error) {
	q.Unsafe(`SELECT subscriber_id FROM confirmation_tokens WHERE token = `)
	q.Param(tok.String())

	query, params := q.Get()
	rows, err := qf(query, params...)
	if err != nil {
		return uuid.Nil, errorz.MapDBErr(err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return uuid.Nil, errorz.MapDBErr(err)
		}
		return uuid.Nil, fmt.Errorf("confirmation token not found: %w", errorz.ErrNotFound)
	}

	var id uuid.UUID
	err = rows.Scan(&id)
	if err != nil {
		return uuid.Nil, errorz.MapDBErr(err)
	}

	return id, nil
}

func mapSlice[T any](s []T, f func(T) any) []any {
	out := make([]any, 0, len(s))
	for _, v := range s {
		out = append(out, f(v))
	}
	return out
}
