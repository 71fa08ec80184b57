package web

import (
	"context"
	"net/http"

	"github.com/willemschots/mailinglist/internal/subscription"
)

type subscribeForm struct {
	Name  string `schema:"name"`
	Email string `schema:"email"`
}

func (s *Server) subscribe(ctx context.Context, form subscribeForm) error {
	req, err := subscription.ParseRequest(form.Name, form.Email)
	if err != nil {
		return err
	}

	return s.deps.SubscriptionService.Subscribe(ctx, req)
}

func confirmRequest(r *http.Request) (string, error) {
	tok := r.URL.Query().Get("subscription_token")
	if tok == "" {
		return "", errMissingToken
	}

	return tok, nil
}
