package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/casbin/casbin/v3"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/shandysiswandi/fintrack/internal/pkg/clock"
	"github.com/shandysiswandi/fintrack/internal/pkg/config"
	"github.com/shandysiswandi/fintrack/internal/pkg/goroutine"
	"github.com/shandysiswandi/fintrack/internal/pkg/hash"
	"github.com/shandysiswandi/fintrack/internal/pkg/i18n"
	"github.com/shandysiswandi/fintrack/internal/pkg/idempotency"
	"github.com/shandysiswandi/fintrack/internal/pkg/instrument"
	"github.com/shandysiswandi/fintrack/internal/pkg/jwt"
	"github.com/shandysiswandi/fintrack/internal/pkg/mail"
	"github.com/shandysiswandi/fintrack/internal/pkg/messaging"
	"github.com/shandysiswandi/fintrack/internal/pkg/otp"
	"github.com/shandysiswandi/fintrack/internal/pkg/ratelimit"
	"github.com/shandysiswandi/fintrack/internal/pkg/router"
	"github.com/shandysiswandi/fintrack/internal/pkg/storage"
	"github.com/shandysiswandi/fintrack/internal/pkg/uid"
	"github.com/shandysiswandi/fintrack/internal/pkg/validator"
)

// App owns every shared resource of the process and the modules built on
// top of them.
type App struct {
	ctx    context.Context
	cancel context.CancelFunc

	config config.Config
	ins    instrument.Instrumentation

	goroutine  *goroutine.Manager
	validator  validator.Validator
	clock      clock.Clocker
	hmac       hash.Hash
	argon2id   hash.Hash
	bcrypt     hash.Hash
	uid        uid.NumberID
	oid        uid.StringID
	uuid       uid.StringID
	passcode   otp.Generator
	jwt        jwt.JWT
	translator *i18n.Translator

	dbConn    *pgxpool.Pool
	redis     *redis.Client
	idemp     idempotency.Idempotency
	limiter   ratelimit.Limiter
	mail      mail.Mail
	messaging messaging.Messaging
	storage   storage.Storage
	casbin    *casbin.Enforcer

	router     *router.Router
	httpServer *http.Server

	// closers run in reverse order of registration.
	closers []closer
}

type closer struct {
	name string
	fn   func(context.Context) error
}

// onClose registers fn to release a resource at shutdown.
func (a *App) onClose(name string, fn func(context.Context) error) {
	a.closers = append(a.closers, closer{name: name, fn: fn})
}

// New builds the application. When a step fails, whatever was opened before
// it is closed again.
func New() (*App, error) {
	ctx, cancel := context.WithCancel(context.Background())
	a := &App{ctx: ctx, cancel: cancel}

	steps := []struct {
		name string
		fn   func() error
	}{
		{"config", a.initConfig},
		{"instrument", a.initInstrument},
		{"libraries", a.initLibraries},
		{"jwt", a.initJWT},
		{"database", a.initDatabase},
		{"migration", a.initMigration},
		{"redis", a.initRedis},
		{"mail", a.initMail},
		{"storage", a.initStorage},
		{"messaging", a.initMessaging},
		{"casbin", a.initCasbin},
		{"http server", a.initHTTPServer},
		{"modules", a.initModules},
	}
	for _, step := range steps {
		if err := step.fn(); err != nil {
			cancel()
			a.closeAll(context.Background())
			return nil, fmt.Errorf("init %s: %w", step.name, err)
		}
	}

	return a, nil
}

func (a *App) closeAll(ctx context.Context) {
	for i := len(a.closers) - 1; i >= 0; i-- {
		c := a.closers[i]
		if err := c.fn(ctx); err != nil {
			slog.ErrorContext(ctx, "failed to close resource", "name", c.name, "error", err)
		}
	}
	a.closers = nil
}
