package web

import (
	"net/http"

	"github.com/gorilla/csrf"
)

const (
	csrfTokenCookieName = "mailinglist-csrf"
	csrfTokenField      = "csrf_token"
)

// csrfExemptRoutes are called by scripts and other sites without a prior
// page view, so they can't carry a token. None of them read the session
// before authenticating the request itself.
var csrfExemptRoutes = map[string]bool{
	"POST /subscriptions": true,
	"POST /newsletters":   true,
	"POST /login":         true,
}

// withCSRF protects every other unsafe request with a token from the
// rendered form.
func (s *Server) withCSRF(cfg ServerConfig, next http.Handler) http.Handler {
	protect := csrf.Protect(
		cfg.CSRFKey.SecretValue(),
		csrf.CookieName(csrfTokenCookieName),
		csrf.FieldName(csrfTokenField),
		csrf.Path("/"),
		csrf.Secure(cfg.SecureCookie),
		csrf.SameSite(csrf.SameSiteLaxMode),
		csrf.ErrorHandler(http.HandlerFunc(s.csrfFailed)),
	)(next)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !cfg.SecureCookie {
			// Without secure cookies we are served over plain HTTP, the
			// Referer of a same-origin form post is not https.
			r = csrf.PlaintextHTTPRequest(r)
		}

		if csrfExemptRoutes[r.Method+" "+r.URL.Path] {
			r = csrf.UnsafeSkipCheck(r)
		}

		protect.ServeHTTP(w, r)
	})
}

func (s *Server) csrfFailed(w http.ResponseWriter, r *http.Request) {
	s.deps.Logger.Warn("rejected request without valid csrf token",
		"method", r.Method,
		"path", r.URL.Path,
		"reason", csrf.FailureReason(r),
	)

	http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
}

// resetCSRFToken expires the token cookie, a new token is issued on the
// next request.
func resetCSRFToken(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:   csrfTokenCookieName,
		Path:   "/",
		MaxAge: -1,
	})
}
