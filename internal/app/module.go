package app

import (
	"fmt"

	"github.com/shandysiswandi/fintrack/internal/finance"
	"github.com/shandysiswandi/fintrack/internal/identity"
	"github.com/shandysiswandi/fintrack/internal/notification"
)

// initModules starts the enabled modules. Each registers its routes,
// consumers and background jobs on the shared resources.
func (a *App) initModules() error {
	if a.config.GetBool("modules.identity.enabled") {
		if err := identity.New(identity.Dependency{
			Ctx:        a.ctx,
			DBConn:     a.dbConn,
			Goroutine:  a.goroutine,
			Enforcer:   a.casbin,
			Router:     a.router,
			Limiter:    a.limiter,
			Messaging:  a.messaging,
			Storage:    a.storage,
			Mail:       a.mail,
			Translator: a.translator,
			Config:     a.config,
			Instrument: a.ins,
			UID:        a.uid,
			UUID:       a.uuid,
			HMAC:       a.hmac,
			Bcrypt:     a.bcrypt,
			Argon2ID:   a.argon2id,
			Passcode:   a.passcode,
			Clock:      a.clock,
			Validator:  a.validator,
			JWT:        a.jwt,
		}); err != nil {
			return fmt.Errorf("identity: %w", err)
		}
	}

	if a.config.GetBool("modules.notification.enabled") {
		if err := notification.New(notification.Dependency{
			Ctx:        a.ctx,
			DBConn:     a.dbConn,
			Messaging:  a.messaging,
			Config:     a.config,
			Instrument: a.ins,
			UID:        a.uid,
			UUID:       a.uuid,
			Clock:      a.clock,
			Goroutine:  a.goroutine,
			Validator:  a.validator,
			Router:     a.router,
			Mail:       a.mail,
			Translator: a.translator,
		}); err != nil {
			return fmt.Errorf("notification: %w", err)
		}
	}

	if a.config.GetBool("modules.finance.enabled") {
		if err := finance.New(finance.Dependency{
			Ctx:         a.ctx,
			DBConn:      a.dbConn,
			Messaging:   a.messaging,
			Config:      a.config,
			Instrument:  a.ins,
			UID:         a.uid,
			UUID:        a.uuid,
			ObjectID:    a.oid,
			Clock:       a.clock,
			Goroutine:   a.goroutine,
			Validator:   a.validator,
			Router:      a.router,
			Storage:     a.storage,
			Idempotency: a.idemp,
		}); err != nil {
			return fmt.Errorf("finance: %w", err)
		}
	}

	return nil
}
