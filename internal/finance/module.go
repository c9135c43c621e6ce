package finance

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shandysiswandi/fintrack/internal/finance/inbound"
	"github.com/shandysiswandi/fintrack/internal/finance/outbound/db"
	"github.com/shandysiswandi/fintrack/internal/finance/usecase"
	"github.com/shandysiswandi/fintrack/internal/pkg/clock"
	"github.com/shandysiswandi/fintrack/internal/pkg/config"
	"github.com/shandysiswandi/fintrack/internal/pkg/goroutine"
	"github.com/shandysiswandi/fintrack/internal/pkg/idempotency"
	"github.com/shandysiswandi/fintrack/internal/pkg/instrument"
	"github.com/shandysiswandi/fintrack/internal/pkg/messaging"
	"github.com/shandysiswandi/fintrack/internal/pkg/router"
	"github.com/shandysiswandi/fintrack/internal/pkg/storage"
	"github.com/shandysiswandi/fintrack/internal/pkg/uid"
	"github.com/shandysiswandi/fintrack/internal/pkg/validator"
)

type Dependency struct {
	Ctx         context.Context
	DBConn      *pgxpool.Pool              `validate:"required"`
	Messaging   messaging.Messaging        `validate:"required"`
	Config      config.Config              `validate:"required"`
	Instrument  instrument.Instrumentation `validate:"required"`
	UID         uid.NumberID               `validate:"required"`
	UUID        uid.StringID               `validate:"required"`
	ObjectID    uid.StringID               `validate:"required"`
	Clock       clock.Clocker              `validate:"required"`
	Goroutine   *goroutine.Manager         `validate:"required"`
	Validator   validator.Validator        `validate:"required"`
	Router      *router.Router             `validate:"required"`
	Storage     storage.Storage            `validate:"required"`
	Idempotency idempotency.Idempotency    `validate:"required"`
}

func New(dep Dependency) error {
	if err := dep.Validator.Validate(dep); err != nil {
		return err
	}

	dbFinance := db.NewDB(dep.DBConn, dep.Instrument)

	uc := usecase.New(usecase.Dependency{
		RepoDB:      dbFinance,
		Validator:   dep.Validator,
		Config:      dep.Config,
		Storage:     dep.Storage,
		Idempotency: dep.Idempotency,
		UID:         dep.UID,
		ObjectID:    dep.ObjectID,
		Clock:       dep.Clock,
		Instrument:  dep.Instrument,
	})

	inbound.RegisterHTTPEndpoint(dep.Router, uc)
	if dep.Ctx != nil {
		inbound.RegisterMQConsumer(dep.Ctx, dep.Config, dep.Goroutine, dep.Messaging, dep.UUID, uc, dep.Instrument)
	}

	return nil
}
