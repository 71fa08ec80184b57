package web

import (
	"errors"
	"net/http"

	"github.com/willemschots/mailinglist/internal/auth"
	"github.com/willemschots/mailinglist/internal/errorz"
	"github.com/willemschots/mailinglist/internal/subscription"
)

var (
	errMissingToken  = errors.New("missing subscription token")
	errMalformedBody = errors.New("malformed request body")
)

// errorMapping maps errors matching target to a response.
type errorMapping struct {
	target  error
	status  int
	message string
	header  map[string]string
}

// Everything not listed in a table results in a 500.

var subscribeErrors = []errorMapping{
	{target: errorz.ErrInvalidInput, status: http.StatusBadRequest, message: "invalid input"},
}

var confirmErrors = []errorMapping{
	{target: errMissingToken, status: http.StatusBadRequest, message: "missing subscription token"},
	{target: subscription.ErrUnknownToken, status: http.StatusUnauthorized, message: "unknown subscription token"},
}

var basicChallenge = map[string]string{"WWW-Authenticate": `Basic realm="publish"`}

var publishErrors = []errorMapping{
	{target: auth.ErrMalformedAuthHeader, status: http.StatusUnauthorized, message: "unauthorized", header: basicChallenge},
	{target: auth.ErrInvalidCredentials, status: http.StatusUnauthorized, message: "unauthorized", header: basicChallenge},
	{target: errMalformedBody, status: http.StatusBadRequest, message: "malformed request body"},
	{target: errorz.ErrInvalidInput, status: http.StatusBadRequest, message: "invalid input"},
}

func (s *Server) handleError(w http.ResponseWriter, r *http.Request, err error, mappings []errorMapping) {
	for _, m := range mappings {
		if !errors.Is(err, m.target) {
			continue
		}

		for k, v := range m.header {
			w.Header().Set(k, v)
		}

		s.deps.Logger.Debug("request failed", "method", r.Method, "path", r.URL.Path, "status", m.status, "error", err)
		http.Error(w, m.message, m.status)
		return
	}

	// Only the path is logged, query parameters can hold tokens.
	s.deps.Logger.Error("internal server error", "method", r.Method, "path", r.URL.Path, "error", err)
	http.Error(w, "internal server error", http.StatusInternalServerError)
}
