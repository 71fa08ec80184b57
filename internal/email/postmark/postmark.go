package postmark

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/willemschots/mailinglist/internal/email"
	"github.com/willemschots/mailinglist/internal/krypto"
)

// Settings contains the settings for the Postmark API.
type Settings struct {
	APIURL        *url.URL
	ServerToken   krypto.Secret
	MessageStream string
}

// Sender sends emails through the Postmark email API.
type Sender struct {
	client   *http.Client
	settings Settings
}

func NewSender(client *http.Client, s Settings) *Sender {
	return &Sender{
		client:   client,
		settings: s,
	}
}

// APIError is returned when Postmark rejects a message.
type APIError struct {
	StatusCode int
	ErrorCode  int
	Message    string
}

func (e *APIError) Error() string {
	if e.ErrorCode == 0 {
		return fmt.Sprintf("postmark: unexpected status %d", e.StatusCode)
	}
	return fmt.Sprintf("postmark: status %d, error code %d: %s", e.StatusCode, e.ErrorCode, e.Message)
}

// request is the JSON body of the single email endpoint, field names are
// dictated by the API.
type request struct {
	From          string
	To            string
	Subject       string
	TextBody      string `json:",omitempty"`
	HtmlBody      string `json:",omitempty"` //nolint:revive
	MessageStream string
}

type response struct {
	ErrorCode int
	Message   string
	MessageID string
}

func (s *Sender) Send(ctx context.Context, msg email.Message) error {
	req, err := s.newRequest(ctx, msg)
	if err != nil {
		return err
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("postmark: failed to send request: %w", err)
	}
	defer resp.Body.Close()

	// Postmark reports most failures through ErrorCode, also on non-200 responses.
	var res response
	err = json.NewDecoder(resp.Body).Decode(&res)
	if err != nil && resp.StatusCode == http.StatusOK {
		return fmt.Errorf("postmark: failed to decode response: %w", err)
	}

	if res.ErrorCode != 0 || resp.StatusCode != http.StatusOK {
		return &APIError{
			StatusCode: resp.StatusCode,
			ErrorCode:  res.ErrorCode,
			Message:    res.Message,
		}
	}

	return nil
}

func (s *Sender) newRequest(ctx context.Context, msg email.Message) (*http.Request, error) {
	body, err := json.Marshal(request{
		From:          string(msg.From),
		To:            string(msg.To),
		Subject:       msg.Subject,
		TextBody:      msg.TextBody,
		HtmlBody:      msg.HTMLBody,
		MessageStream: s.settings.MessageStream,
	})
	if err != nil {
		return nil, fmt.Errorf("postmark: failed to encode message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.settings.APIURL.String(), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("postmark: failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Postmark-Server-Token", string(s.settings.ServerToken.SecretValue()))

	return req, nil
}
