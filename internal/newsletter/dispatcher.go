package newsletter

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/willemschots/mailinglist/internal/email"
	"github.com/willemschots/mailinglist/internal/errorz"
)

// Recipient is a confirmed subscriber as stored. The email address
// is kept raw, it is validated again before anything is sent to it.
type Recipient struct {
	SubscriberID uuid.UUID
	Email        string
}

// Store provides the recipients of an issue.
type Store interface {
	FindConfirmedSubscribers(ctx context.Context) ([]Recipient, error)
}

// Sender delivers a single email.
type Sender interface {
	Send(ctx context.Context, to email.Address, c email.Content) error
}

// Report summarizes a Publish call.
type Report struct {
	Recipients int `json:"recipients"`
	Delivered  int `json:"delivered"`
	Failed     int `json:"failed"`
	Skipped    int `json:"skipped"`
}

// Dispatcher sends issues to all confirmed subscribers.
type Dispatcher struct {
	store       Store
	sender      Sender
	logger      *slog.Logger
	concurrency int
}

// NewDispatcher creates a dispatcher that sends at most concurrency
// emails at the same time. Values below 1 are treated as 1.
func NewDispatcher(store Store, sender Sender, logger *slog.Logger, concurrency int) *Dispatcher {
	if concurrency < 1 {
		concurrency = 1
	}

	return &Dispatcher{
		store:       store,
		sender:      sender,
		logger:      logger,
		concurrency: concurrency,
	}
}

// Publish sends the issue to every confirmed subscriber.
//
// Only a failure to load the subscribers fails the call, it then matches
// errorz.ErrStorage and nothing was sent. Recipients with an invalid stored
// address are skipped and failed deliveries are logged, neither stops the
// remaining deliveries.
func (d *Dispatcher) Publish(ctx context.Context, issue Issue) (Report, error) {
	recipients, err := d.store.FindConfirmedSubscribers(ctx)
	if err != nil {
		return Report{}, fmt.Errorf("%w: failed to load confirmed subscribers: %w", errorz.ErrStorage, err)
	}

	content := email.Content{
		Subject: issue.Title,
		Text:    issue.Content.Text,
		HTML:    issue.Content.HTML,
	}

	var (
		delivered atomic.Int64
		failed    atomic.Int64
		skipped   int
	)

	g := &errgroup.Group{}
	g.SetLimit(d.concurrency)

	for _, r := range recipients {
		addr, err := email.ParseAddress(r.Email)
		if err != nil {
			skipped++
			d.logger.Warn("skipping confirmed subscriber with invalid email", "subscriber_id", r.SubscriberID, "error", err)
			continue
		}

		g.Go(func() error {
			err := d.sender.Send(ctx, addr, content)
			if err != nil {
				failed.Add(1)
				d.logger.Error("failed to send newsletter issue", "recipient", addr.Redact(), "subscriber_id", r.SubscriberID, "error", err)
				return nil
			}

			delivered.Add(1)
			return nil
		})
	}

	// The goroutines never return errors, failures are counted instead.
	_ = g.Wait()

	report := Report{
		Recipients: len(recipients),
		Delivered:  int(delivered.Load()),
		Failed:     int(failed.Load()),
		Skipped:    skipped,
	}

	d.logger.Info("published newsletter issue", "title", issue.Title, "recipients", report.Recipients,
		"delivered", report.Delivered, "failed", report.Failed, "skipped", report.Skipped)

	return report, nil
}
