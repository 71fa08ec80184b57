package web

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/csrf"

	"github.com/willemschots/mailinglist/internal"
)

type viewData struct {
	Version    string
	IsLoggedIn bool
	UserID     uuid.UUID
	Flashes    []string
	CSRFToken  string
	Data       any
}

// prepViewData prepares the data that will be passed to the view.
// It consumes the flashes, so the session needs to be saved afterwards.
func (s *Server) prepViewData(r *http.Request, data any) (*viewData, error) {
	sess, err := sessionFromCtx(r.Context())
	if err != nil {
		return nil, err
	}

	userID, loggedIn := sess.UserID()

	return &viewData{
		Version:    internal.BuildRevision,
		IsLoggedIn: loggedIn,
		UserID:     userID,
		Flashes:    sess.ConsumeFlashes(),
		CSRFToken:  csrf.Token(r),
		Data:       data,
	}, nil
}
