package email

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/willemschots/mailinglist/internal/errorz"
)

// TemplateElement is used by a renderer to identify the different parts of an email template.
type TemplateElement string

const (
	ElementSubject TemplateElement = "subject"
	ElementText    TemplateElement = "text"
	ElementHTML    TemplateElement = "html"
)

// Message is a single email as it is handed to a Sender.
type Message struct {
	From     Address
	To       Address
	Subject  string
	TextBody string
	HTMLBody string
}

// Content is the subject and bodies of an email, without the addressing.
type Content struct {
	Subject string
	Text    string
	HTML    string
}

// Renderer is responsible for rendering email templates.
type Renderer interface {
	Render(w io.Writer, name string, element TemplateElement, data any) error
}

// Sender is responsible for actually sending an email.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// Service provides the main functionality for sending emails.
type Service struct {
	renderer Renderer
	sender   Sender
	from     Address
}

func NewService(renderer Renderer, sender Sender, from Address) *Service {
	return &Service{
		renderer: renderer,
		sender:   sender,
		from:     from,
	}
}

// SendTemplate renders the named template with data and sends it to the recipient.
// Errors returned by the sender match errorz.ErrDelivery.
func (s *Service) SendTemplate(ctx context.Context, name string, to Address, data any) error {
	var (
		content Content
		err     error
	)

	content.Subject, err = s.render(name, ElementSubject, data)
	if err != nil {
		return err
	}

	content.Text, err = s.render(name, ElementText, data)
	if err != nil {
		return err
	}

	content.HTML, err = s.render(name, ElementHTML, data)
	if err != nil {
		return err
	}

	return s.Send(ctx, to, content)
}

// Send sends the content to the recipient as-is.
// Errors returned by the sender match errorz.ErrDelivery.
func (s *Service) Send(ctx context.Context, to Address, c Content) error {
	err := s.sender.Send(ctx, Message{
		From:     s.from,
		To:       to,
		Subject:  c.Subject,
		TextBody: c.Text,
		HTMLBody: c.HTML,
	})
	if err != nil {
		return fmt.Errorf("%w: %w", errorz.ErrDelivery, err)
	}
	return nil
}

func (s *Service) render(name string, element TemplateElement, data any) (string, error) {
	var b strings.Builder
	err := s.renderer.Render(&b, name, element, data)
	if err != nil {
		return "", fmt.Errorf("failed to render %s of email %s: %w", element, name, err)
	}
	return strings.TrimSpace(b.String()), nil
}
