package sessions

import (
	"github.com/google/uuid"
	"github.com/gorilla/sessions"
)

// The user id is stored as a string, so the cookie codec doesn't
// need to know about uuid.UUID.
const userIDKey = "userID"

type Session struct {
	base      *sessions.Session
	needsSave bool
}

func (s *Session) NeedsSave() bool {
	return s.needsSave
}

func (s *Session) UserID() (uuid.UUID, bool) {
	raw, ok := s.base.Values[userIDKey].(string)
	if !ok {
		return uuid.Nil, false
	}

	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, false
	}

	return id, true
}

func (s *Session) SetUserID(userID uuid.UUID) {
	s.needsSave = true
	s.base.Values[userIDKey] = userID.String()
}

func (s *Session) DeleteUserID() {
	s.needsSave = true
	delete(s.base.Values, userIDKey)
}

func (s *Session) AddFlash(flash string) {
	s.needsSave = true
	s.base.AddFlash(flash)
}

// ConsumeFlashes returns all flash messages and removes them from the session.
func (s *Session) ConsumeFlashes() []string {
	raw := s.base.Flashes()
	if len(raw) == 0 {
		return nil
	}

	s.needsSave = true

	out := make([]string, 0, len(raw))
	for _, f := range raw {
		if str, ok := f.(string); ok {
			out = append(out, str)
		}
	}

	return out
}
