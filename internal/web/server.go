package web

import (
	"context"
	"io"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/schema"

	"github.com/willemschots/mailinglist/internal/auth"
	"github.com/willemschots/mailinglist/internal/krypto"
	"github.com/willemschots/mailinglist/internal/newsletter"
	"github.com/willemschots/mailinglist/internal/subscription"
	"github.com/willemschots/mailinglist/internal/web/sessions"
)

// ViewRenderer renders named views with the given data.
type ViewRenderer interface {
	Render(w io.Writer, name string, data any) error
}

// SubscriptionService runs the double opt-in workflow.
type SubscriptionService interface {
	Subscribe(ctx context.Context, req subscription.Request) error
	Confirm(ctx context.Context, rawToken string) error
}

// CredentialValidator checks operator credentials.
type CredentialValidator interface {
	ValidateCredentials(ctx context.Context, c auth.Credentials) (uuid.UUID, error)
}

// Publisher sends newsletter issues to subscribers.
type Publisher interface {
	Publish(ctx context.Context, issue newsletter.Issue) (newsletter.Report, error)
}

// ServerDeps are the dependencies for the server.
type ServerDeps struct {
	Logger              *slog.Logger
	ViewRenderer        ViewRenderer
	SubscriptionService SubscriptionService
	CredentialValidator CredentialValidator
	Publisher           Publisher
	Signer              *krypto.Signer
	SessionStore        *sessions.Store
}

// ServerConfig is the configuration for the server.
type ServerConfig struct {
	CSRFKey      krypto.Key
	SecureCookie bool
}

type Server struct {
	deps    *ServerDeps
	mux     *http.ServeMux
	decoder *schema.Decoder
	handler http.Handler
}

func NewServer(deps *ServerDeps, cfg ServerConfig) *Server {
	decoder := schema.NewDecoder()
	decoder.IgnoreUnknownKeys(true)

	s := &Server{
		deps:    deps,
		mux:     http.NewServeMux(),
		decoder: decoder,
	}

	s.mux.Handle("GET /{$}", s.viewHandler("home"))
	s.mux.HandleFunc("GET /health_check", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	// Subscription endpoints.
	{
		h := mapRequest(s, s.subscribe)
		h.response(func(r result[subscribeForm, struct{}]) error {
			return r.s.writeView(r.w, r.r, "subscribed", nil)
		})
		h.errors(subscribeErrors)

		s.mux.Handle("POST /subscriptions", h)
	}
	{
		h := mapRequest(s, s.deps.SubscriptionService.Confirm)
		h.request(confirmRequest)
		h.response(func(r result[string, struct{}]) error {
			return r.s.writeView(r.w, r.r, "confirmed", nil)
		})
		h.errors(confirmErrors)

		s.mux.Handle("GET /subscriptions/confirm", h)
	}

	// Newsletter endpoint, authenticated with Basic auth on every request.
	{
		h := mapBoth(s, s.deps.Publisher.Publish)
		h.request(s.publishRequest)
		h.errors(publishErrors)

		s.mux.Handle("POST /newsletters", h)
	}

	// Operator login endpoints.
	s.mux.HandleFunc("GET /login", s.showLogin)
	s.mux.HandleFunc("POST /login", s.login)
	s.mux.HandleFunc("POST /logout", s.logout)

	s.handler = s.withCSRF(cfg, s.withSession(s.mux))

	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

func (s *Server) viewHandler(name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := s.writeView(w, r, name, nil)
		if err != nil {
			s.handleError(w, r, err, nil)
			return
		}
	}
}

func (s *Server) writeView(w http.ResponseWriter, r *http.Request, name string, data any) error {
	vd, err := s.prepViewData(r, data)
	if err != nil {
		return err
	}

	err = s.saveSession(w, r)
	if err != nil {
		return err
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	return s.deps.ViewRenderer.Render(w, name, vd)
}
