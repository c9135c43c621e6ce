package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/shandysiswandi/fintrack/internal/finance/entity"
	"github.com/shandysiswandi/fintrack/internal/pkg/goerror"
)

type TransactionDetailInput struct {
	ID int64 `validate:"required,gt=0"`
}

func (s *Usecase) TransactionDetail(ctx context.Context, in TransactionDetailInput) (*entity.Transaction, error) {
	ctx, span := s.startSpan(ctx, "TransactionDetail")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	clm, err := s.requireAuth(ctx)
	if err != nil {
		return nil, err
	}

	tx, err := s.repoDB.GetTransaction(ctx, clm.UserID, in.ID)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "transaction not found", "user_id", clm.UserID, "transaction_id", in.ID)
		return nil, errTransactionNotFound()
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get transaction", "user_id", clm.UserID, "transaction_id", in.ID, "error", err)
		return nil, goerror.NewServer(err)
	}

	return tx, nil
}
