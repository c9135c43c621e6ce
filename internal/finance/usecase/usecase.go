package usecase

import (
	"context"
	"time"

	"github.com/shandysiswandi/fintrack/internal/finance/entity"
	"github.com/shandysiswandi/fintrack/internal/pkg/clock"
	"github.com/shandysiswandi/fintrack/internal/pkg/config"
	"github.com/shandysiswandi/fintrack/internal/pkg/goerror"
	"github.com/shandysiswandi/fintrack/internal/pkg/idempotency"
	"github.com/shandysiswandi/fintrack/internal/pkg/instrument"
	"github.com/shandysiswandi/fintrack/internal/pkg/jwt"
	"github.com/shandysiswandi/fintrack/internal/pkg/storage"
	"github.com/shandysiswandi/fintrack/internal/pkg/uid"
	"github.com/shandysiswandi/fintrack/internal/pkg/validator"
	"go.opentelemetry.io/otel/trace"
)

type repoDB interface {
	ListTransactions(ctx context.Context, f entity.TransactionFilter) ([]entity.Transaction, int64, error)
	SumTransactions(ctx context.Context, f entity.TransactionFilter) (*entity.Totals, error)
	GetTransaction(ctx context.Context, userID, id int64) (*entity.Transaction, error)
	RecentTransactions(ctx context.Context, userID int64, limit int32) ([]entity.Transaction, error)

	CreateTransactions(ctx context.Context, txs []entity.Transaction) error
	UpdateTransaction(ctx context.Context, in entity.UpdateTransaction) error
	DeleteTransactions(ctx context.Context, userID int64, ids []int64) (int64, error)
	PurgeUserTransactions(ctx context.Context, userID int64) (int64, error)

	SumByCategory(ctx context.Context, f entity.TransactionFilter) ([]entity.CategoryTotal, error)
	SumByBucket(ctx context.Context, userID int64, g entity.Granularity, from, to time.Time) ([]entity.BucketTotal, error)
	GetTransactionStats(ctx context.Context, userID int64, monthStart time.Time) (*entity.TransactionStats, error)
}

type Usecase struct {
	repoDB      repoDB
	validator   validator.Validator
	cfg         config.Config
	storage     storage.Storage
	idempotency idempotency.Idempotency
	uid         uid.NumberID
	objectID    uid.StringID
	clock       clock.Clocker
	ins         instrument.Instrumentation
}

type Dependency struct {
	RepoDB      repoDB
	Validator   validator.Validator
	Config      config.Config
	Storage     storage.Storage
	Idempotency idempotency.Idempotency
	UID         uid.NumberID
	ObjectID    uid.StringID
	Clock       clock.Clocker
	Instrument  instrument.Instrumentation
}

func New(dep Dependency) *Usecase {
	return &Usecase{
		repoDB:      dep.RepoDB,
		validator:   dep.Validator,
		cfg:         dep.Config,
		storage:     dep.Storage,
		idempotency: dep.Idempotency,
		uid:         dep.UID,
		objectID:    dep.ObjectID,
		clock:       dep.Clock,
		ins:         dep.Instrument,
	}
}

func (s *Usecase) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("finance.usecase").Start(ctx, name)
}

func (s *Usecase) requireAuth(ctx context.Context) (*jwt.Claims, error) {
	clm := jwt.GetAuth(ctx)
	if clm == nil || clm.UserID <= 0 {
		return nil, goerror.NewBusiness("authentication required", goerror.CodeUnauthorized)
	}

	return clm, nil
}

// today is the start of the current UTC day.
func (s *Usecase) today() time.Time {
	now := s.clock.Now().UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

func errTransactionNotFound() error {
	return goerror.NewBusiness("transaction not found", goerror.CodeNotFound)
}
