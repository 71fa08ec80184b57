package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/willemschots/mailinglist/assets"
	"github.com/willemschots/mailinglist/internal"
	"github.com/willemschots/mailinglist/internal/auth"
	authdb "github.com/willemschots/mailinglist/internal/auth/db"
	"github.com/willemschots/mailinglist/internal/db"
	"github.com/willemschots/mailinglist/internal/email"
	"github.com/willemschots/mailinglist/internal/email/mailgun"
	"github.com/willemschots/mailinglist/internal/email/postmark"
	"github.com/willemschots/mailinglist/internal/email/ses"
	emailview "github.com/willemschots/mailinglist/internal/email/view"
	"github.com/willemschots/mailinglist/internal/krypto"
	"github.com/willemschots/mailinglist/internal/migrate"
	"github.com/willemschots/mailinglist/internal/newsletter"
	newsletterdb "github.com/willemschots/mailinglist/internal/newsletter/db"
	"github.com/willemschots/mailinglist/internal/subscription"
	subscriptiondb "github.com/willemschots/mailinglist/internal/subscription/db"
	"github.com/willemschots/mailinglist/internal/web"
	"github.com/willemschots/mailinglist/internal/web/sessions"
	"github.com/willemschots/mailinglist/internal/web/view"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	os.Exit(run(ctx, os.Stderr))
}

func run(ctx context.Context, w io.Writer) int {
	logger := slog.New(slog.NewTextHandler(w, nil))

	cfg, err := configFromEnv()
	if err != nil {
		logger.Error("failed to get config from environment", "error", err)
		return 1
	}

	logger = newLogger(w, cfg.log)

	writeDB, readDB, err := openDB(cfg.db)
	if err != nil {
		logger.Error("failed to open database", "error", err, "driver", cfg.db.dialect)
		return 1
	}
	defer closeDB(logger, writeDB, readDB)

	if cfg.db.migrate {
		logger.Info("attempting to migrate database", "driver", cfg.db.dialect)

		meta := migrate.Metadata{
			AppVersion: internal.BuildRevision,
			Timestamp:  internal.BuildRevisionTime,
		}

		err := db.Migrate(ctx, cfg.db.dialect, writeDB, meta, logger)
		if err != nil {
			logger.Error("failed to migrate database", "error", err)
			return 1
		}

		logger.Info("database migrated")
	}

	sender, err := emailSender(ctx, cfg.email, logger)
	if err != nil {
		logger.Error("failed to create email sender", "error", err, "driver", cfg.email.driver)
		return 1
	}

	emailSvc := email.NewService(
		emailview.NewFSRenderer(assets.EmailFS, false),
		sender,
		cfg.email.from,
	)

	subscriptionSvc := subscription.NewService(
		subscriptiondb.New(writeDB, cfg.db.dialect),
		emailSvc,
		cfg.baseURL,
	)

	authSvc, err := auth.NewService(authdb.New(writeDB, readDB, cfg.db.dialect))
	if err != nil {
		logger.Error("failed to create auth service", "error", err)
		return 1
	}

	dispatcher := newsletter.NewDispatcher(
		newsletterdb.New(readDB, cfg.db.dialect),
		emailSvc,
		logger,
		cfg.newsletterConcurrency,
	)

	viewRenderer, err := newViewRenderer(cfg.http, logger)
	if err != nil {
		logger.Error("failed to load templates", "error", err)
		return 1
	}

	server := web.NewServer(&web.ServerDeps{
		Logger:              logger,
		ViewRenderer:        viewRenderer,
		SubscriptionService: subscriptionSvc,
		CredentialValidator: authSvc,
		Publisher:           dispatcher,
		Signer:              krypto.NewSigner(cfg.hmacSecret),
		SessionStore:        sessions.NewCookieStore(cfg.http.sessionKey.SecretValue(), cfg.http.secureCookie),
	}, web.ServerConfig{
		CSRFKey:      cfg.http.csrfKey,
		SecureCookie: cfg.http.secureCookie,
	})

	srv := &http.Server{
		Addr:         cfg.http.addr,
		ReadTimeout:  cfg.http.readTimeout,
		WriteTimeout: cfg.http.writeTimeout,
		IdleTimeout:  cfg.http.idleTimeout,
		Handler:      server,
	}

	// We need to run two tasks concurrently:
	// - Listen and serving of the HTTP server.
	// - Waiting for a signal to stop the server.

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("starting http server",
			"addr", cfg.http.addr,
			"baseURL", cfg.baseURL.String(),
			"buildRevision", internal.BuildRevision,
			"buildRevisionTime", internal.BuildRevisionTime,
			"buildLocalModified", internal.BuildLocalModified,
		)
		// ListenAndServe always returns a non-nil error,
		// g will cancel gCtx when an error is returned, so
		// this will also stop the other goroutine.
		return srv.ListenAndServe()
	})

	g.Go(func() error {
		<-gCtx.Done()
		logger.Info("stopping http server")

		shutCtx, cancel := context.WithTimeout(context.Background(), cfg.http.shutdownTimeout)
		defer cancel()

		return srv.Shutdown(shutCtx)
	})

	err = g.Wait()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("http server stopped with error", "error", err)
		return 1
	}

	logger.Info("http server stopped successfully")

	return 0
}

func newLogger(w io.Writer, cfg logConfig) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: cfg.level,
	}

	if cfg.format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}

	return slog.New(slog.NewTextHandler(w, opts))
}

// openDB returns a database for writing and one for reading. For postgres
// these are the same pool.
func openDB(cfg dbConfig) (*sql.DB, *sql.DB, error) {
	switch cfg.dialect {
	case db.DialectSQLite:
		writeDB, err := db.OpenSQLite(cfg.file, true)
		if err != nil {
			return nil, nil, err
		}

		readDB, err := db.OpenSQLite(cfg.file, false)
		if err != nil {
			return nil, nil, errors.Join(err, writeDB.Close())
		}

		return writeDB, readDB, nil
	case db.DialectPostgres:
		if cfg.dsn.IsEmpty() {
			return nil, nil, errors.New("DB_DSN is required for postgres")
		}

		pool, err := db.OpenPostgres(string(cfg.dsn.SecretValue()), cfg.maxOpenConns)
		if err != nil {
			return nil, nil, err
		}

		return pool, pool, nil
	default:
		return nil, nil, fmt.Errorf("unknown database dialect %q", cfg.dialect)
	}
}

func closeDB(logger *slog.Logger, writeDB, readDB *sql.DB) {
	if err := writeDB.Close(); err != nil {
		logger.Error("failed to close database", "error", err)
	}

	if readDB == writeDB {
		return
	}

	if err := readDB.Close(); err != nil {
		logger.Error("failed to close database", "error", err)
	}
}

func emailSender(ctx context.Context, cfg emailConfig, logger *slog.Logger) (email.Sender, error) {
	httpClient := &http.Client{
		Timeout: cfg.timeout,
	}

	switch cfg.driver {
	case "log":
		logger.Warn("using log email driver, emails will not be delivered")
		return email.NewLogSender(logger), nil
	case "postmark":
		if cfg.postmark.ServerToken.IsEmpty() {
			return nil, errors.New("POSTMARK_SERVER_TOKEN is required for the postmark driver")
		}
		return postmark.NewSender(httpClient, cfg.postmark), nil
	case "mailgun":
		if cfg.mailgun.Domain == "" || cfg.mailgun.Password.IsEmpty() {
			return nil, errors.New("MAILGUN_DOMAIN and MAILGUN_PASSWORD are required for the mailgun driver")
		}
		return mailgun.NewSender(httpClient, cfg.mailgun), nil
	case "ses":
		client, err := ses.NewClient(ctx, cfg.ses)
		if err != nil {
			return nil, err
		}
		return ses.NewSender(client), nil
	default:
		return nil, fmt.Errorf("unknown email driver %q", cfg.driver)
	}
}

// newViewRenderer uses the embedded templates, unless a view directory is
// configured. Templates from disk are parsed on every render.
func newViewRenderer(cfg httpConfig, logger *slog.Logger) (*view.Renderer, error) {
	if cfg.viewDir != "" {
		logger.Info("loading templates from disk", "dir", cfg.viewDir)
		return view.NewRenderer(os.DirFS(cfg.viewDir), true), nil
	}

	r := view.NewRenderer(assets.TemplateFS, false)
	if err := r.ParseAll(); err != nil {
		return nil, err
	}

	return r, nil
}
