package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	libOTP "github.com/pquerna/otp"
	"github.com/rs/cors"
	"github.com/shandysiswandi/fintrack/internal/pkg/clock"
	"github.com/shandysiswandi/fintrack/internal/pkg/config"
	"github.com/shandysiswandi/fintrack/internal/pkg/goroutine"
	"github.com/shandysiswandi/fintrack/internal/pkg/hash"
	"github.com/shandysiswandi/fintrack/internal/pkg/i18n"
	"github.com/shandysiswandi/fintrack/internal/pkg/instrument"
	"github.com/shandysiswandi/fintrack/internal/pkg/jwt"
	"github.com/shandysiswandi/fintrack/internal/pkg/otp"
	"github.com/shandysiswandi/fintrack/internal/pkg/router"
	"github.com/shandysiswandi/fintrack/internal/pkg/uid"
	"github.com/shandysiswandi/fintrack/internal/pkg/validator"
)

// configPath prefers CONFIG_PATH, then the repository copy when LOCAL is
// set, then the container mount.
func configPath() string {
	if p := os.Getenv("CONFIG_PATH"); p != "" {
		return p
	}
	if os.Getenv("LOCAL") == "true" {
		return "./config/config.yaml"
	}
	return "/config/config.yaml"
}

func (a *App) initConfig() error {
	cfg, err := config.NewViper(configPath())
	if err != nil {
		return err
	}
	a.config = cfg
	a.onClose("config", func(context.Context) error { return cfg.Close() })

	if tz := cfg.GetString("app.tz"); tz != "" {
		return os.Setenv("TZ", tz)
	}
	return nil
}

func (a *App) initInstrument() error {
	level := slog.LevelInfo
	if v := a.config.GetString("instrument.log_level"); v != "" {
		if err := level.UnmarshalText([]byte(v)); err != nil {
			return fmt.Errorf("log level: %w", err)
		}
	}

	ins, err := instrument.New(a.ctx, instrument.Config{
		ServiceName:      a.config.GetString("instrument.service_name"),
		ServiceVersion:   a.config.GetString("instrument.service_version"),
		Environment:      a.config.GetString("instrument.env"),
		OTLPEndpoint:     a.config.GetString("instrument.otlp_endpoint"),
		OTLPSecure:       a.config.GetBool("instrument.otlp_secure"),
		TraceSampleRatio: a.config.GetFloat64("instrument.trace_sample_ratio"),
		MetricsInterval:  a.config.GetSecond("instrument.metric_interval_seconds"),
		LogLevel:         level,
		MaskFields:       a.config.GetArray("instrument.log_mask_fields"),
	})
	if err != nil {
		return err
	}
	a.ins = ins
	a.onClose("instrument", ins.Shutdown)

	return nil
}

func (a *App) initLibraries() error {
	var err error

	a.clock = clock.New()
	a.uuid = uid.NewUUID()
	a.goroutine = goroutine.NewManager(a.config.GetInt("app.server.max_goroutine"))
	a.hmac = hash.NewHMACSHA256(a.config.GetString("hash.hmac.secret"))
	a.argon2id = hash.NewArgon2id(a.config.GetString("hash.argon2id.pepper"))
	a.bcrypt = hash.NewBcrypt(a.config.GetInt("hash.bcrypt.cost"), a.config.GetString("hash.bcrypt.pepper"))
	a.passcode = otp.NewNumeric(passcodeDigits(a.config.GetInt("modules.identity.passcode.digits")))

	if a.validator, err = validator.NewV10Validator(); err != nil {
		return fmt.Errorf("validator: %w", err)
	}
	if a.uid, err = uid.NewSnowflake(); err != nil {
		return fmt.Errorf("snowflake: %w", err)
	}
	if a.oid, err = uid.NewObjectIDGenerator(); err != nil {
		return fmt.Errorf("object id: %w", err)
	}
	if a.translator, err = i18n.New(); err != nil {
		return err
	}

	return nil
}

// passcodeDigits supports six and eight digit codes; anything else is six.
func passcodeDigits(n int) libOTP.Digits {
	if n == libOTP.DigitsEight.Length() {
		return libOTP.DigitsEight
	}
	return libOTP.DigitsSix
}

func (a *App) initJWT() (err error) {
	a.jwt, err = jwt.NewHS512(jwt.Config{
		Secret:    []byte(a.config.GetString("jwt.secret")),
		Issuer:    a.config.GetString("jwt.issuer"),
		Audiences: a.config.GetArray("jwt.audiences"),
		TTL:       a.config.GetMinute("jwt.ttl_minutes"),
		Clock:     a.clock,
		UUID:      a.uuid,
	})
	return err
}

func (a *App) initHTTPServer() error {
	a.router = router.NewRouter(router.Config{
		Config:     a.config,
		UUID:       a.uuid,
		JWT:        a.jwt,
		Instrument: a.ins,
		Enforcer:   a.casbin,
		Translator: a.translator,
	})

	handler := cors.New(cors.Options{
		AllowedOrigins: a.config.GetArray("app.server.cors"),
		AllowedMethods: []string{
			http.MethodGet, http.MethodPost, http.MethodPut,
			http.MethodPatch, http.MethodDelete, http.MethodOptions,
		},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{router.HeaderCorrelationID, "Content-Language"},
		AllowCredentials: true,
	}).Handler(a.router)

	a.httpServer = &http.Server{
		Addr:              a.config.GetString("app.server.http.address"),
		Handler:           handler,
		ReadTimeout:       a.config.GetSecond("app.server.http.read_timeout_seconds"),
		ReadHeaderTimeout: a.config.GetSecond("app.server.http.read_header_timeout_seconds"),
		WriteTimeout:      a.config.GetSecond("app.server.http.write_timeout_seconds"),
		IdleTimeout:       a.config.GetSecond("app.server.http.idle_timeout_seconds"),
	}

	return nil
}
