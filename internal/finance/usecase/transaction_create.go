package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/shandysiswandi/fintrack/internal/finance/entity"
	"github.com/shandysiswandi/fintrack/internal/pkg/goerror"
	"github.com/shandysiswandi/fintrack/internal/pkg/idempotency"
)

const (
	maxBulkTransactions     = 100
	defaultIdempotencyLock  = 30 * time.Second
	defaultIdempotencyState = 24 * time.Hour
)

type TransactionCreateInput struct {
	// IdempotencyKey is optional; a repeated key within its TTL is rejected.
	IdempotencyKey string
	TransactionFields
}

func (s *Usecase) TransactionCreate(ctx context.Context, in TransactionCreateInput) (*entity.Transaction, error) {
	ctx, span := s.startSpan(ctx, "TransactionCreate")
	defer span.End()

	clm, err := s.requireAuth(ctx)
	if err != nil {
		return nil, err
	}

	fields, fieldErrs := s.resolveFields(in.TransactionFields)
	if len(fieldErrs) > 0 {
		return nil, goerror.NewInvalidInput(fieldErrs)
	}

	tx := s.newTransaction(clm.UserID, fields)

	key := strings.TrimSpace(in.IdempotencyKey)
	if key == "" {
		if err := s.repoDB.CreateTransactions(ctx, []entity.Transaction{tx}); err != nil {
			slog.ErrorContext(ctx, "failed to repo create transaction", "user_id", clm.UserID, "error", err)
			return nil, goerror.NewServer(err)
		}
		return &tx, nil
	}

	if len(key) > 128 {
		return nil, goerror.NewInvalidInput(nil, "idempotency_key", "idempotency_key must be at most 128 characters")
	}

	err = s.idempotency.Exec(ctx, "finance:transaction:create:"+strconv.FormatInt(clm.UserID, 10)+":"+key,
		func(ctx context.Context) error {
			return s.repoDB.CreateTransactions(ctx, []entity.Transaction{tx})
		},
		idempotency.WithLockDuration(defaultIdempotencyLock),
		idempotency.WithStateTTL(s.idempotencyTTL()),
	)
	switch {
	case err == nil:
		return &tx, nil
	case errors.Is(err, idempotency.ErrAlreadyInProgress):
		slog.WarnContext(ctx, "transaction create already in progress", "user_id", clm.UserID, "idempotency_key", key)
		return nil, goerror.NewBusinessWithFields("A request with this idempotency key is in progress",
			goerror.CodeConflict, "reason", "idempotency_in_progress")
	case errors.Is(err, idempotency.ErrAlreadyCompleted):
		slog.WarnContext(ctx, "transaction create replayed", "user_id", clm.UserID, "idempotency_key", key)
		return nil, goerror.NewBusinessWithFields("A request with this idempotency key was already processed",
			goerror.CodeConflict, "reason", "idempotency_replayed")
	case errors.Is(err, idempotency.ErrAlreadyFailed):
		slog.WarnContext(ctx, "transaction create previously failed", "user_id", clm.UserID, "idempotency_key", key)
		return nil, goerror.NewBusinessWithFields("A request with this idempotency key failed, retry with a new key",
			goerror.CodeConflict, "reason", "idempotency_failed")
	default:
		slog.ErrorContext(ctx, "failed to create transaction idempotently", "user_id", clm.UserID, "error", err)
		return nil, goerror.NewServer(err)
	}
}

func (s *Usecase) idempotencyTTL() time.Duration {
	if ttl := s.cfg.GetHour("modules.finance.idempotency_ttl_hours"); ttl > 0 {
		return ttl
	}
	return defaultIdempotencyState
}

func (s *Usecase) newTransaction(userID int64, f *resolved) entity.Transaction {
	now := s.clock.Now()
	return entity.Transaction{
		ID:                 s.uid.Generate(),
		UserID:             userID,
		Type:               f.Type,
		Amount:             f.Amount,
		Category:           f.Category,
		Description:        f.Description,
		Date:               f.Date,
		Tags:               f.Tags,
		Notes:              f.Notes,
		IsRecurring:        f.IsRecurring,
		RecurringFrequency: f.RecurringFrequency,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
}

type TransactionBulkCreateInput struct {
	Transactions []TransactionFields
}

// TransactionBulkCreate stores every transaction or none. Field errors are
// reported per item as transactions.<index>.<field>.
func (s *Usecase) TransactionBulkCreate(ctx context.Context, in TransactionBulkCreateInput) ([]entity.Transaction, error) {
	ctx, span := s.startSpan(ctx, "TransactionBulkCreate")
	defer span.End()

	clm, err := s.requireAuth(ctx)
	if err != nil {
		return nil, err
	}

	if len(in.Transactions) == 0 {
		return nil, goerror.NewInvalidInput(nil, "transactions", "transactions must not be empty")
	}
	if len(in.Transactions) > maxBulkTransactions {
		return nil, goerror.NewInvalidInput(nil, "transactions",
			fmt.Sprintf("transactions must contain at most %d items", maxBulkTransactions))
	}

	txs := make([]entity.Transaction, 0, len(in.Transactions))
	var kv []string
	for i, item := range in.Transactions {
		fields, fieldErrs := s.resolveFields(item)
		if len(fieldErrs) > 0 {
			for name, msg := range fieldErrs {
				kv = append(kv, fmt.Sprintf("transactions.%d.%s", i, name), msg)
			}
			continue
		}
		txs = append(txs, s.newTransaction(clm.UserID, fields))
	}
	if len(kv) > 0 {
		return nil, goerror.NewInvalidInput(nil, kv...)
	}

	if err := s.repoDB.CreateTransactions(ctx, txs); err != nil {
		slog.ErrorContext(ctx, "failed to repo bulk create transactions", "user_id", clm.UserID, "count", len(txs), "error", err)
		return nil, goerror.NewServer(err)
	}

	return txs, nil
}
