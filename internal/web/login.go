package web

import (
	"encoding/hex"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/willemschots/mailinglist/internal/auth"
)

const (
	loginFailedMessage     = "Authentication failed"
	loginUnexpectedMessage = "Something went wrong"
)

type loginForm struct {
	Username string `schema:"username"`
	Password string `schema:"password"`
}

type loginViewData struct {
	Error string
}

func (s *Server) showLogin(w http.ResponseWriter, r *http.Request) {
	msg, _ := s.verifiedLoginError(r)

	err := s.writeView(w, r, "login", loginViewData{Error: msg})
	if err != nil {
		s.handleError(w, r, err, nil)
		return
	}
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	form, err := formRequest[loginForm](s)(r)
	if err != nil {
		s.deps.Logger.Warn("failed to decode login form", "error", err)
		s.redirectLoginError(w, r, loginUnexpectedMessage)
		return
	}

	userID, err := s.deps.CredentialValidator.ValidateCredentials(r.Context(), auth.Credentials{
		Username: form.Username,
		Password: auth.NewPassword(form.Password),
	})
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			s.redirectLoginError(w, r, loginFailedMessage)
			return
		}

		s.deps.Logger.Error("failed to validate credentials", "error", err)
		s.redirectLoginError(w, r, loginUnexpectedMessage)
		return
	}

	sess, err := sessionFromCtx(r.Context())
	if err != nil {
		s.handleError(w, r, err, nil)
		return
	}

	// A token issued before login is worthless after it.
	resetCSRFToken(w)

	sess.SetUserID(userID)
	sess.AddFlash("You are logged in.")

	err = s.saveSession(w, r)
	if err != nil {
		s.handleError(w, r, err, nil)
		return
	}

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	sess, err := sessionFromCtx(r.Context())
	if err != nil {
		s.handleError(w, r, err, nil)
		return
	}

	sess.DeleteUserID()

	err = s.saveSession(w, r)
	if err != nil {
		s.handleError(w, r, err, nil)
		return
	}

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// redirectLoginError redirects to the login form with a signed error message.
// The login form only displays messages with a valid tag.
func (s *Server) redirectLoginError(w http.ResponseWriter, r *http.Request, msg string) {
	canonical := loginErrorQuery(msg)
	tag := hex.EncodeToString(s.deps.Signer.Sign([]byte(canonical)))

	http.Redirect(w, r, "/login?"+canonical+"&tag="+tag, http.StatusSeeOther)
}

// verifiedLoginError returns the error message in the query if its tag is valid.
func (s *Server) verifiedLoginError(r *http.Request) (string, bool) {
	q := r.URL.Query()
	if !q.Has("error") || !q.Has("tag") {
		return "", false
	}

	tag, err := hex.DecodeString(q.Get("tag"))
	if err != nil {
		s.deps.Logger.Warn("login error tag is not valid hex", "error", err)
		return "", false
	}

	msg := q.Get("error")
	if !s.deps.Signer.Verify([]byte(loginErrorQuery(msg)), tag) {
		s.deps.Logger.Warn("login error tag does not match")
		return "", false
	}

	return msg, true
}

// loginErrorQuery returns the query that is signed for msg, with
// spaces encoded as %20.
func loginErrorQuery(msg string) string {
	return "error=" + strings.ReplaceAll(url.QueryEscape(msg), "+", "%20")
}
