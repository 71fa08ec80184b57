package sessions

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gorilla/sessions"
)

const CookieName = "mailinglist-session"

// ErrInvalidCookie is returned by Get when a session cookie was sent
// but could not be decoded, for example after the session key changed.
var ErrInvalidCookie = errors.New("invalid session cookie")

type Store struct {
	store sessions.Store
}

func NewStore(store sessions.Store) *Store {
	return &Store{store: store}
}

// NewCookieStore creates a store that keeps sessions in a
// cookie authenticated with key.
func NewCookieStore(key []byte, secure bool) *Store {
	cs := sessions.NewCookieStore(key)
	cs.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 7,
		Secure:   secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}

	return NewStore(cs)
}

// Get returns the session for the request. If the cookie is invalid a new
// session is returned together with ErrInvalidCookie.
func (s *Store) Get(r *http.Request) (*Session, error) {
	base, err := s.store.Get(r, CookieName)
	if err != nil {
		if base == nil {
			return nil, err
		}

		return &Session{base: base, needsSave: true}, fmt.Errorf("%w: %w", ErrInvalidCookie, err)
	}

	return &Session{base: base}, nil
}

func (s *Store) Save(r *http.Request, w http.ResponseWriter, sess *Session) error {
	err := s.store.Save(r, w, sess.base)
	if err != nil {
		return err
	}

	sess.needsSave = false
	return nil
}
