package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/samber/lo"
	"github.com/shandysiswandi/fintrack/internal/pkg/goerror"
)

type TransactionDeleteInput struct {
	ID int64 `validate:"required,gt=0"`
}

func (s *Usecase) TransactionDelete(ctx context.Context, in TransactionDeleteInput) error {
	ctx, span := s.startSpan(ctx, "TransactionDelete")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return goerror.NewInvalidInput(err)
	}

	clm, err := s.requireAuth(ctx)
	if err != nil {
		return err
	}

	n, err := s.repoDB.DeleteTransactions(ctx, clm.UserID, []int64{in.ID})
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo delete transaction", "user_id", clm.UserID, "transaction_id", in.ID, "error", err)
		return goerror.NewServer(err)
	}

	if n == 0 {
		slog.WarnContext(ctx, "transaction to delete not found", "user_id", clm.UserID, "transaction_id", in.ID)
		return errTransactionNotFound()
	}

	return nil
}

type TransactionBulkDeleteInput struct {
	IDs []int64
}

// TransactionBulkDelete removes the caller's transactions among IDs and
// reports how many were deleted. Foreign or unknown IDs are skipped.
func (s *Usecase) TransactionBulkDelete(ctx context.Context, in TransactionBulkDeleteInput) (int64, error) {
	ctx, span := s.startSpan(ctx, "TransactionBulkDelete")
	defer span.End()

	ids := lo.Uniq(lo.Filter(in.IDs, func(id int64, _ int) bool { return id > 0 }))
	if len(ids) == 0 {
		return 0, goerror.NewInvalidInput(nil, "ids", "ids must contain at least one valid id")
	}
	if len(ids) > maxBulkTransactions {
		return 0, goerror.NewInvalidInput(nil, "ids", fmt.Sprintf("ids must contain at most %d items", maxBulkTransactions))
	}

	clm, err := s.requireAuth(ctx)
	if err != nil {
		return 0, err
	}

	n, err := s.repoDB.DeleteTransactions(ctx, clm.UserID, ids)
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo bulk delete transactions", "user_id", clm.UserID, "count", len(ids), "error", err)
		return 0, goerror.NewServer(err)
	}

	return n, nil
}
