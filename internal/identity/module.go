package identity

import (
	"context"

	"github.com/casbin/casbin/v3"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shandysiswandi/fintrack/internal/identity/inbound"
	"github.com/shandysiswandi/fintrack/internal/identity/outbound/db"
	"github.com/shandysiswandi/fintrack/internal/identity/outbound/mq"
	"github.com/shandysiswandi/fintrack/internal/identity/outbound/notifier"
	"github.com/shandysiswandi/fintrack/internal/identity/usecase"
	"github.com/shandysiswandi/fintrack/internal/pkg/clock"
	"github.com/shandysiswandi/fintrack/internal/pkg/config"
	"github.com/shandysiswandi/fintrack/internal/pkg/goroutine"
	"github.com/shandysiswandi/fintrack/internal/pkg/hash"
	"github.com/shandysiswandi/fintrack/internal/pkg/i18n"
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

type Dependency struct {
	Ctx        context.Context
	DBConn     *pgxpool.Pool              `validate:"required"`
	Goroutine  *goroutine.Manager         `validate:"required"`
	Enforcer   *casbin.Enforcer           `validate:"required"`
	Router     *router.Router             `validate:"required"`
	Limiter    ratelimit.Limiter          `validate:"required"`
	Messaging  messaging.Messaging        `validate:"required"`
	Storage    storage.Storage            `validate:"required"`
	Mail       mail.Mail                  `validate:"required"`
	Translator *i18n.Translator           `validate:"required"`
	Config     config.Config              `validate:"required"`
	Instrument instrument.Instrumentation `validate:"required"`
	UID        uid.NumberID               `validate:"required"`
	UUID       uid.StringID               `validate:"required"`
	HMAC       hash.Hash                  `validate:"required"`
	Bcrypt     hash.Hash                  `validate:"required"`
	Argon2ID   hash.Hash                  `validate:"required"`
	Passcode   otp.Generator              `validate:"required"`
	Clock      clock.Clocker              `validate:"required"`
	Validator  validator.Validator        `validate:"required"`
	JWT        jwt.JWT                    `validate:"required"`
}

func New(dep Dependency) error {
	if err := dep.Validator.Validate(dep); err != nil {
		return err
	}

	password := dep.Bcrypt
	if dep.Config.GetString("modules.identity.password_hasher") == "argon2id" {
		password = dep.Argon2ID
	}

	uc := usecase.New(usecase.Dependency{
		RepoDB:        db.NewDB(dep.DBConn, dep.Instrument),
		RepoMessaging: mq.NewMessaging(dep.Messaging, dep.Instrument),
		RepoNotifier: notifier.New(notifier.Config{
			Client:      dep.Mail,
			Translator:  dep.Translator,
			From:        dep.Config.GetString("mail.from"),
			CompanyName: dep.Config.GetString("app.name"),
			Instrument:  dep.Instrument,
		}),
		Validator:  dep.Validator,
		Config:     dep.Config,
		Storage:    dep.Storage,
		Limiter:    dep.Limiter,
		HMAC:       dep.HMAC,
		Password:   password,
		Passcode:   dep.Passcode,
		UID:        dep.UID,
		UUID:       dep.UUID,
		Clock:      dep.Clock,
		JWT:        dep.JWT,
		Instrument: dep.Instrument,
		Roles:      dep.Enforcer,
	})

	inbound.RegisterHTTPEndpoint(dep.Router, uc)
	if dep.Ctx != nil {
		inbound.RegisterPasscodeSweeper(dep.Ctx, dep.Goroutine, dep.UUID,
			dep.Config.GetSecond("modules.identity.passcode.sweep_interval_seconds"), uc)
	}

	return nil
}
