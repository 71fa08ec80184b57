package web

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/willemschots/mailinglist/internal/auth"
	"github.com/willemschots/mailinglist/internal/newsletter"
)

const maxIssueBytes = 1 << 20

// publishRequest authenticates the operator and decodes the issue.
// The body is only read after the credentials are validated.
func (s *Server) publishRequest(r *http.Request) (newsletter.Issue, error) {
	c, err := auth.CredentialsFromBasicAuth(r.Header.Get("Authorization"))
	if err != nil {
		return newsletter.Issue{}, err
	}

	userID, err := s.deps.CredentialValidator.ValidateCredentials(r.Context(), c)
	if err != nil {
		return newsletter.Issue{}, err
	}

	var issue newsletter.Issue
	err = json.NewDecoder(io.LimitReader(r.Body, maxIssueBytes)).Decode(&issue)
	if err != nil {
		return newsletter.Issue{}, fmt.Errorf("%w: %w", errMalformedBody, err)
	}

	err = issue.Validate()
	if err != nil {
		return newsletter.Issue{}, err
	}

	s.deps.Logger.Info("publishing newsletter issue", "user_id", userID, "title", issue.Title)

	return issue, nil
}
