package main

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/willemschots/mailinglist/internal/db"
	"github.com/willemschots/mailinglist/internal/email"
	"github.com/willemschots/mailinglist/internal/email/mailgun"
	"github.com/willemschots/mailinglist/internal/email/postmark"
	"github.com/willemschots/mailinglist/internal/email/ses"
	"github.com/willemschots/mailinglist/internal/krypto"
)

// logConfig is the configuration for the logger.
type logConfig struct {
	level  slog.Level
	format string
}

// httpConfig is the configuration for the HTTP server.
type httpConfig struct {
	addr            string
	readTimeout     time.Duration
	writeTimeout    time.Duration
	idleTimeout     time.Duration
	shutdownTimeout time.Duration
	secureCookie    bool
	sessionKey      krypto.Key
	csrfKey         krypto.Key
	viewDir         string
}

// dbConfig is the configuration for the database.
type dbConfig struct {
	dialect      db.Dialect
	file         string
	dsn          krypto.Secret
	maxOpenConns int
	migrate      bool
}

// emailConfig is the configuration for sending emails.
type emailConfig struct {
	driver   string
	from     email.Address
	timeout  time.Duration
	postmark postmark.Settings
	mailgun  mailgun.Settings
	ses      ses.Settings
}

// config is the configuration for the server command.
type config struct {
	baseURL               *url.URL
	hmacSecret            krypto.Key
	newsletterConcurrency int
	log                   logConfig
	http                  httpConfig
	db                    dbConfig
	email                 emailConfig
}

// defaultConfig returns a config with sane default values.
func defaultConfig() config {
	return config{
		baseURL:               must(url.Parse("http://localhost:8888")),
		newsletterConcurrency: 1,
		log: logConfig{
			level:  slog.LevelInfo,
			format: "text",
		},
		http: httpConfig{
			addr:            ":8888",
			readTimeout:     time.Second * 5,
			writeTimeout:    time.Second * 10,
			idleTimeout:     time.Second * 120,
			shutdownTimeout: time.Second * 15,
			secureCookie:    true,
		},
		db: dbConfig{
			dialect:      db.DialectSQLite,
			file:         "mailinglist.db",
			maxOpenConns: 10,
			migrate:      true,
		},
		email: emailConfig{
			driver:  "log",
			timeout: time.Second * 10,
			postmark: postmark.Settings{
				APIURL:        must(url.Parse("https://api.postmarkapp.com/email")),
				MessageStream: "outbound",
			},
			mailgun: mailgun.Settings{
				APIURL:   must(url.Parse("https://api.mailgun.net")),
				Username: "api",
			},
			ses: ses.Settings{
				Region: "eu-west-1",
			},
		},
	}
}

// requiredEnv lists the environment variables that have no sane default.
var requiredEnv = []string{
	"EMAIL_FROM",
	"HMAC_SECRET",
	"HTTP_CSRF_KEY",
	"HTTP_SESSION_KEY",
}

// envMap maps environment variable names to fields in the config struct.
var envMap = map[string]func(v string, c *config) error{
	"BASE_URL": func(v string, c *config) error {
		return confURL(v, &c.baseURL)
	},
	"HMAC_SECRET": func(v string, c *config) error {
		return confKey(v, &c.hmacSecret)
	},
	"NEWSLETTER_CONCURRENCY": func(v string, c *config) error {
		return confInt(v, &c.newsletterConcurrency, 1, 1024)
	},
	"LOG_LEVEL": func(v string, c *config) error {
		return c.log.level.UnmarshalText([]byte(v))
	},
	"LOG_FORMAT": func(v string, c *config) error {
		return confOneOf(v, &c.log.format, "text", "json")
	},
	"HTTP_ADDR": func(v string, c *config) error {
		c.http.addr = v
		return nil
	},
	"HTTP_READ_TIMEOUT": func(v string, c *config) error {
		return confDuration(v, &c.http.readTimeout, 0, math.MaxInt64)
	},
	"HTTP_WRITE_TIMEOUT": func(v string, c *config) error {
		return confDuration(v, &c.http.writeTimeout, 0, math.MaxInt64)
	},
	"HTTP_IDLE_TIMEOUT": func(v string, c *config) error {
		return confDuration(v, &c.http.idleTimeout, 0, math.MaxInt64)
	},
	"HTTP_SHUTDOWN_TIMEOUT": func(v string, c *config) error {
		return confDuration(v, &c.http.shutdownTimeout, 0, math.MaxInt64)
	},
	"HTTP_SECURE_COOKIE": func(v string, c *config) error {
		return confBool(v, &c.http.secureCookie)
	},
	"HTTP_CSRF_KEY": func(v string, c *config) error {
		return confKey(v, &c.http.csrfKey)
	},
	"HTTP_SESSION_KEY": func(v string, c *config) error {
		return confKey(v, &c.http.sessionKey)
	},
	"HTTP_VIEW_DIR": func(v string, c *config) error {
		c.http.viewDir = v
		return nil
	},
	"DB_DRIVER": func(v string, c *config) error {
		d, err := db.ParseDialect(v)
		if err != nil {
			return err
		}
		c.db.dialect = d
		return nil
	},
	"DB_FILENAME": func(v string, c *config) error {
		return confNonEmpty(v, &c.db.file)
	},
	"DB_DSN": func(v string, c *config) error {
		c.db.dsn = krypto.NewSecret(v)
		return nil
	},
	"DB_MAX_OPEN_CONNS": func(v string, c *config) error {
		return confInt(v, &c.db.maxOpenConns, 1, 1024)
	},
	"DB_MIGRATE": func(v string, c *config) error {
		return confBool(v, &c.db.migrate)
	},
	"EMAIL_DRIVER": func(v string, c *config) error {
		return confOneOf(v, &c.email.driver, "log", "postmark", "mailgun", "ses")
	},
	"EMAIL_FROM": func(v string, c *config) error {
		addr, err := email.ParseAddress(v)
		if err != nil {
			return err
		}
		c.email.from = addr
		return nil
	},
	"EMAIL_TIMEOUT": func(v string, c *config) error {
		return confDuration(v, &c.email.timeout, time.Millisecond, math.MaxInt64)
	},
	"POSTMARK_API_URL": func(v string, c *config) error {
		return confURL(v, &c.email.postmark.APIURL)
	},
	"POSTMARK_SERVER_TOKEN": func(v string, c *config) error {
		c.email.postmark.ServerToken = krypto.NewSecret(v)
		return nil
	},
	"POSTMARK_MESSAGE_STREAM": func(v string, c *config) error {
		return confNonEmpty(v, &c.email.postmark.MessageStream)
	},
	"MAILGUN_API_URL": func(v string, c *config) error {
		return confURL(v, &c.email.mailgun.APIURL)
	},
	"MAILGUN_DOMAIN": func(v string, c *config) error {
		return confNonEmpty(v, &c.email.mailgun.Domain)
	},
	"MAILGUN_USERNAME": func(v string, c *config) error {
		return confNonEmpty(v, &c.email.mailgun.Username)
	},
	"MAILGUN_PASSWORD": func(v string, c *config) error {
		c.email.mailgun.Password = krypto.NewSecret(v)
		return nil
	},
	"SES_REGION": func(v string, c *config) error {
		return confNonEmpty(v, &c.email.ses.Region)
	},
	"SES_ACCESS_KEY_ID": func(v string, c *config) error {
		c.email.ses.AccessKeyID = v
		return nil
	},
	"SES_SECRET_ACCESS_KEY": func(v string, c *config) error {
		c.email.ses.SecretAccessKey = krypto.NewSecret(v)
		return nil
	},
}

// configFromEnv returns a config with values from the environment. It falls
// back to default values for any missing environment variables.
//
// It does a best effort to validate provided values, so that mistakes are
// caught ASAP. However, there is no guarantee that the returned config
// is valid and will work.
//
// All invalid and missing variables are reported in a single error.
func configFromEnv() (config, error) {
	c := defaultConfig()

	var errs []error
	for _, key := range requiredEnv {
		if _, ok := os.LookupEnv(key); !ok {
			errs = append(errs, fmt.Errorf("missing required env variable %s", key))
		}
	}

	for key, mf := range envMap {
		if val, ok := os.LookupEnv(key); ok {
			if err := mf(val, &c); err != nil {
				errs = append(errs, fmt.Errorf("invalid env variable %s: %w", key, err))
			}
		}
	}

	if len(errs) > 0 {
		return c, errors.Join(errs...)
	}

	return c, nil
}

// confDuration attempts to parse v into tgt and checks if the result is in
// the provided range (inclusive).
func confDuration(v string, tgt *time.Duration, min, max time.Duration) error {
	dur, err := time.ParseDuration(v)
	if err != nil {
		return err
	}

	if dur < min || dur > max {
		return fmt.Errorf("duration %s not in range [%s, %s] (inclusive)", dur, min, max)
	}

	*tgt = dur

	return nil
}

// confInt attempts to parse v into tgt and checks if the result is in
// the provided range (inclusive).
func confInt(v string, tgt *int, min, max int) error {
	i, err := strconv.Atoi(v)
	if err != nil {
		return err
	}

	if i < min || i > max {
		return fmt.Errorf("%d not in range [%d, %d] (inclusive)", i, min, max)
	}

	*tgt = i

	return nil
}

func confBool(v string, tgt *bool) error {
	b, err := strconv.ParseBool(v)
	if err != nil {
		return err
	}

	*tgt = b

	return nil
}

func confNonEmpty(v string, tgt *string) error {
	if strings.TrimSpace(v) == "" {
		return errors.New("value can not be empty")
	}

	*tgt = v

	return nil
}

func confOneOf(v string, tgt *string, options ...string) error {
	for _, o := range options {
		if v == o {
			*tgt = v
			return nil
		}
	}

	return fmt.Errorf("%q is not one of %s", v, strings.Join(options, ", "))
}

// confURL requires an absolute URL with a host.
func confURL(v string, tgt **url.URL) error {
	u, err := url.Parse(v)
	if err != nil {
		return err
	}

	if u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%q is not an absolute url", v)
	}

	*tgt = u

	return nil
}

func confKey(v string, tgt *krypto.Key) error {
	k, err := krypto.ParseKey(v)
	if err != nil {
		return err
	}

	*tgt = k

	return nil
}

func must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}
