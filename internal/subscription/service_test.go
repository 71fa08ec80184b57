package subscription_test

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/willemschots/mailinglist/internal/db"
	"github.com/willemschots/mailinglist/internal/db/testdb"
	"github.com/willemschots/mailinglist/internal/email"
	"github.com/willemschots/mailinglist/internal/errorz"
	"github.com/willemschots/mailinglist/internal/errorz/testerr"
	"github.com/willemschots/mailinglist/internal/krypto"
	"github.com/willemschots/mailinglist/internal/subscription"
	subdb "github.com/willemschots/mailinglist/internal/subscription/db"
)

func Test_Service_Subscribe(t *testing.T) {
	t.Run("ok, subscribe", func(t *testing.T) {
		st := newServiceTest(t)

		err := st.svc.Subscribe(context.Background(), testRequest(t))
		if err != nil {
			t.Fatalf("failed to subscribe: %v", err)
		}

		subs := st.findSubscribers(nil)
		if len(subs) != 1 {
			t.Fatalf("expected 1 subscriber, got %d", len(subs))
		}

		want := subscription.Subscriber{
			ID:        subs[0].ID,
			Email:     "ursula@example.com",
			Name:      "Ursula",
			Status:    subscription.StatusPending,
			CreatedAt: st.now,
		}
		if subs[0] != want {
			t.Errorf("got\n%#v\nwant\n%#v", subs[0], want)
		}

		sent := st.emailer.all()
		if len(sent) != 1 {
			t.Fatalf("expected 1 email, got %d", len(sent))
		}

		if sent[0].template != subscription.ConfirmationEmail || sent[0].recipient != "ursula@example.com" {
			t.Errorf("unexpected email %#v", sent[0])
		}

		// The token in the link resolves to the new subscriber.
		tok := st.tokenFromEmail(sent[0])
		id := st.findSubscriberIDByToken(tok)
		if id != subs[0].ID {
			t.Errorf("token resolves to %v, want %v", id, subs[0].ID)
		}
	})

	t.Run("ok, duplicate subscriptions are stored separately", func(t *testing.T) {
		st := newServiceTest(t)

		for i := 0; i < 2; i++ {
			err := st.svc.Subscribe(context.Background(), testRequest(t))
			if err != nil {
				t.Fatalf("failed to subscribe: %v", err)
			}
		}

		if n := len(st.findSubscribers(nil)); n != 2 {
			t.Fatalf("expected 2 subscribers, got %d", n)
		}

		sent := st.emailer.all()
		if len(sent) != 2 {
			t.Fatalf("expected 2 emails, got %d", len(sent))
		}

		if sent[0].data.Link == sent[1].data.Link {
			t.Errorf("expected distinct confirmation links")
		}
	})

	for _, tracker := range testerr.FailingTrackers(testerr.Err, 4) {
		t.Run("fail, store "+tracker.String(), func(t *testing.T) {
			st := newServiceTest(t)
			st.store.tracker = tracker

			err := st.svc.Subscribe(context.Background(), testRequest(t))
			if !errors.Is(err, testerr.Err) {
				t.Fatalf("expected error %v, got %v (via errors.Is)", testerr.Err, err)
			}

			if !errors.Is(err, errorz.ErrStorage) {
				t.Fatalf("expected error %v, got %v (via errors.Is)", errorz.ErrStorage, err)
			}

			// Nothing was stored and nothing was sent.
			st.store.tracker = &testerr.Calltracker{}
			if n := len(st.findSubscribers(nil)); n != 0 {
				t.Fatalf("expected 0 subscribers, got %d", n)
			}

			if n := len(st.emailer.all()); n != 0 {
				t.Fatalf("expected 0 emails, got %d", n)
			}
		})
	}

	t.Run("fail, emailer fails after commit", func(t *testing.T) {
		st := newServiceTest(t)
		st.emailer.err = testerr.Err

		err := st.svc.Subscribe(context.Background(), testRequest(t))
		if !errors.Is(err, errorz.ErrDelivery) {
			t.Fatalf("expected error %v, got %v (via errors.Is)", errorz.ErrDelivery, err)
		}

		if !errors.Is(err, testerr.Err) {
			t.Fatalf("expected error %v, got %v (via errors.Is)", testerr.Err, err)
		}

		// The committed subscriber remains pending.
		subs := st.findSubscribers(nil)
		if len(subs) != 1 || subs[0].Status != subscription.StatusPending {
			t.Fatalf("expected 1 pending subscriber, got %#v", subs)
		}
	})
}

func Test_Service_Confirm(t *testing.T) {
	t.Run("ok, confirm", func(t *testing.T) {
		st := newServiceTest(t)
		tok := st.subscribe()

		err := st.svc.Confirm(context.Background(), tok.String())
		if err != nil {
			t.Fatalf("failed to confirm: %v", err)
		}

		subs := st.findSubscribers(nil)
		if len(subs) != 1 || subs[0].Status != subscription.StatusConfirmed {
			t.Fatalf("expected 1 confirmed subscriber, got %#v", subs)
		}
	})

	t.Run("ok, confirm twice", func(t *testing.T) {
		st := newServiceTest(t)
		tok := st.subscribe()

		for i := 0; i < 2; i++ {
			err := st.svc.Confirm(context.Background(), tok.String())
			if err != nil {
				t.Fatalf("failed to confirm (attempt %d): %v", i+1, err)
			}
		}

		subs := st.findSubscribers(nil)
		if len(subs) != 1 || subs[0].Status != subscription.StatusConfirmed {
			t.Fatalf("expected 1 confirmed subscriber, got %#v", subs)
		}
	})

	t.Run("ok, only the matching subscriber is confirmed", func(t *testing.T) {
		st := newServiceTest(t)
		tok := st.subscribe()
		_ = st.subscribe()

		err := st.svc.Confirm(context.Background(), tok.String())
		if err != nil {
			t.Fatalf("failed to confirm: %v", err)
		}

		confirmed := st.findSubscribers(&subscription.SubscriberFilter{
			Statuses: []subscription.Status{subscription.StatusConfirmed},
		})
		if len(confirmed) != 1 {
			t.Fatalf("expected 1 confirmed subscriber, got %d", len(confirmed))
		}
	})

	unknownTokens := map[string]string{
		"fail, never issued": must(krypto.GenerateToken()).String(),
		"fail, empty":        "",
		"fail, malformed":    "not-a-token",
		"fail, sql":          "' OR 1=1 --",
	}

	for name, raw := range unknownTokens {
		t.Run(name, func(t *testing.T) {
			st := newServiceTest(t)
			_ = st.subscribe()

			err := st.svc.Confirm(context.Background(), raw)
			if !errors.Is(err, subscription.ErrUnknownToken) {
				t.Fatalf("expected error %v, got %v (via errors.Is)", subscription.ErrUnknownToken, err)
			}

			if n := len(st.findSubscribers(&subscription.SubscriberFilter{
				Statuses: []subscription.Status{subscription.StatusConfirmed},
			})); n != 0 {
				t.Fatalf("expected no emails, got %d", n)
			}
		})
	}

	for _, tracker := range testerr.FailingTrackers(testerr.Err, 4) {
		t.Run("fail, store "+tracker.String(), func(t *testing.T) {
			st := newServiceTest(t)
			tok := st.subscribe()
			st.store.tracker = tracker

			err := st.svc.Confirm(context.Background(), tok.String())
			if !errors.Is(err, errorz.ErrStorage) {
				t.Fatalf("expected error %v, got %v (via errors.Is)", errorz.ErrStorage, err)
			}

			st.store.tracker = &testerr.Calltracker{}
			subs := st.findSubscribers(nil)
			if len(subs) != 1 || subs[0].Status != subscription.StatusPending {
				t.Fatalf("expected 1 pending subscriber, got %#v", subs)
			}
		})
	}
}

func Test_Service_ConfirmationLink(t *testing.T) {
	st := newServiceTest(t)
	tok := must(krypto.ParseToken("abcDEF0123456789xyzXYZ000"))

	got := st.svc.ConfirmationLink(tok)
	want := "https://news.example.com/base/subscriptions/confirm?subscription_token=abcDEF0123456789xyzXYZ000"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

type svcTest struct {
	t       *testing.T
	svc     *subscription.Service
	store   *testStore
	emailer *testEmailer
	now     time.Time
}

func newServiceTest(t *testing.T) *svcTest {
	t.Helper()

	baseURL := must(url.Parse("https://news.example.com/base"))

	st := &svcTest{
		t: t,
		store: &testStore{
			store:   subdb.New(testdb.RunWhile(t), db.DialectSQLite),
			tracker: &testerr.Calltracker{}, // empty call trackers never fail.
		},
		emailer: &testEmailer{},
		now:     time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC),
	}

	st.svc = subscription.NewService(st.store, st.emailer, baseURL)
	st.svc.NowFunc = func() time.Time { return st.now }

	return st
}

func testRequest(t *testing.T) subscription.Request {
	t.Helper()
	return must(subscription.ParseRequest("Ursula", "ursula@example.com"))
}

// subscribe subscribes and returns the token from the confirmation email.
func (st *svcTest) subscribe() krypto.Token {
	err := st.svc.Subscribe(context.Background(), testRequest(st.t))
	if err != nil {
		st.t.Fatalf("failed to subscribe: %v", err)
	}

	sent := st.emailer.all()
	return st.tokenFromEmail(sent[len(sent)-1])
}

func (st *svcTest) tokenFromEmail(e sentEmail) krypto.Token {
	u, err := url.Parse(e.data.Link)
	if err != nil {
		st.t.Fatalf("failed to parse link: %v", err)
	}

	if !strings.HasSuffix(u.Path, "/subscriptions/confirm") {
		st.t.Fatalf("unexpected link path %q", u.Path)
	}

	tok, err := krypto.ParseToken(u.Query().Get("subscription_token"))
	if err != nil {
		st.t.Fatalf("failed to parse token from link %q: %v", e.data.Link, err)
	}

	return tok
}

func (st *svcTest) findSubscribers(f *subscription.SubscriberFilter) []subscription.Subscriber {
	st.t.Helper()

	var out []subscription.Subscriber
	st.inTx(func(tx subscription.Tx) {
		var err error
		out, err = tx.FindSubscribers(f)
		if err != nil {
			st.t.Fatalf("failed to find subscribers: %v", err)
		}
	})
	return out
}

func (st *svcTest) findSubscriberIDByToken(tok krypto.Token) uuid.UUID {
	st.t.Helper()

	var id uuid.UUID
	st.inTx(func(tx subscription.Tx) {
		var err error
		id, err = tx.FindSubscriberIDByToken(tok)
		if err != nil {
			st.t.Fatalf("failed to find subscriber id: %v", err)
		}
	})
	return id
}

func (st *svcTest) inTx(f func(tx subscription.Tx)) {
	st.t.Helper()

	tx, err := st.store.store.BeginTx(context.Background())
	if err != nil {
		st.t.Fatalf("failed to begin tx: %v", err)
	}
	defer func() { _ = tx.Rollback() }()

	f(tx)
}

// testStore wraps a real store but uses a testerr.Calltracker to
// possibly fail on certain method calls.
type testStore struct {
	store   subscription.Store
	tracker *testerr.Calltracker
}

func (s *testStore) BeginTx(ctx context.Context) (subscription.Tx, error) {
	return testerr.CallValue(s.tracker, func() (subscription.Tx, error) {
		realTx, err := s.store.BeginTx(ctx)
		if err != nil {
			return nil, err
		}
		return &testTx{store: s, tx: realTx}, nil
	})
}

type testTx struct {
	store *testStore
	tx    subscription.Tx
}

func (tx *testTx) Commit() error {
	return testerr.Call(tx.store.tracker, func() error {
		return tx.tx.Commit()
	})
}

// Rollback always rolls back the real transaction, the test database
// only has a single connection.
func (tx *testTx) Rollback() error {
	err := tx.tx.Rollback()
	return testerr.Call(tx.store.tracker, func() error {
		return err
	})
}

func (tx *testTx) CreateSubscriber(s *subscription.Subscriber) error {
	return testerr.Call(tx.store.tracker, func() error {
		return tx.tx.CreateSubscriber(s)
	})
}

func (tx *testTx) FindSubscribers(f *subscription.SubscriberFilter) ([]subscription.Subscriber, error) {
	return testerr.CallValue(tx.store.tracker, func() ([]subscription.Subscriber, error) {
		return tx.tx.FindSubscribers(f)
	})
}

func (tx *testTx) CreateConfirmationToken(t *subscription.ConfirmationToken) error {
	return testerr.Call(tx.store.tracker, func() error {
		return tx.tx.CreateConfirmationToken(t)
	})
}

func (tx *testTx) FindSubscriberIDByToken(tok krypto.Token) (uuid.UUID, error) {
	return testerr.CallValue(tx.store.tracker, func() (uuid.UUID, error) {
		return tx.tx.FindSubscriberIDByToken(tok)
	})
}

func (tx *testTx) ConfirmSubscriber(id uuid.UUID) error {
	return testerr.Call(tx.store.tracker, func() error {
		return tx.tx.ConfirmSubscriber(id)
	})
}

type sentEmail struct {
	template  string
	recipient email.Address
	data      subscription.ConfirmationData
}

type testEmailer struct {
	mu     sync.Mutex
	emails []sentEmail
	err    error
}

func (e *testEmailer) SendTemplate(_ context.Context, template string, to email.Address, data any) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.err != nil {
		return e.err
	}

	e.emails = append(e.emails, sentEmail{
		template:  template,
		recipient: to,
		data:      data.(subscription.ConfirmationData),
	})
	return nil
}

func (e *testEmailer) all() []sentEmail {
	e.mu.Lock()
	defer e.mu.Unlock()

	return append([]sentEmail(nil), e.emails...)
}

func must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}
