package web

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/willemschots/mailinglist/internal/web/sessions"
)

// withSession is a middleware that loads the session and injects it in the context.
func (s *Server) withSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, err := s.deps.SessionStore.Get(r)
		if err != nil {
			if !errors.Is(err, sessions.ErrInvalidCookie) {
				s.handleError(w, r, err, nil)
				return
			}

			// Continue with the fresh session, it replaces the cookie on save.
			s.deps.Logger.Warn("discarding invalid session cookie", "error", err)
		}

		ctx := ctxWithSession(r.Context(), sess)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// saveSession writes the session cookie if the session was modified.
// It must be called before anything is written to w.
func (s *Server) saveSession(w http.ResponseWriter, r *http.Request) error {
	sess, err := sessionFromCtx(r.Context())
	if err != nil {
		return err
	}

	if !sess.NeedsSave() {
		return nil
	}

	return s.deps.SessionStore.Save(r, w, sess)
}

type ctxKey string

const sessionCtxKey ctxKey = "_session"

func ctxWithSession(ctx context.Context, sess *sessions.Session) context.Context {
	return context.WithValue(ctx, sessionCtxKey, sess)
}

func sessionFromCtx(ctx context.Context) (*sessions.Session, error) {
	sess, ok := ctx.Value(sessionCtxKey).(*sessions.Session)
	if !ok {
		return nil, fmt.Errorf("could not get session from context")
	}

	return sess, nil
}
