package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/shandysiswandi/fintrack/internal/finance/entity"
	"github.com/shandysiswandi/fintrack/internal/pkg/goerror"
)

type TransactionUpdateInput struct {
	ID int64
	TransactionFields
}

// TransactionUpdate replaces every editable field of an owned transaction.
func (s *Usecase) TransactionUpdate(ctx context.Context, in TransactionUpdateInput) (*entity.Transaction, error) {
	ctx, span := s.startSpan(ctx, "TransactionUpdate")
	defer span.End()

	if in.ID <= 0 {
		return nil, goerror.NewInvalidInput(nil, "id", "id must be greater than 0")
	}

	clm, err := s.requireAuth(ctx)
	if err != nil {
		return nil, err
	}

	fields, fieldErrs := s.resolveFields(in.TransactionFields)
	if len(fieldErrs) > 0 {
		return nil, goerror.NewInvalidInput(fieldErrs)
	}

	err = s.repoDB.UpdateTransaction(ctx, entity.UpdateTransaction{
		ID:                 in.ID,
		UserID:             clm.UserID,
		Type:               fields.Type,
		Amount:             fields.Amount,
		Category:           fields.Category,
		Description:        fields.Description,
		Date:               fields.Date,
		Tags:               fields.Tags,
		Notes:              fields.Notes,
		IsRecurring:        fields.IsRecurring,
		RecurringFrequency: fields.RecurringFrequency,
	})
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "transaction to update not found", "user_id", clm.UserID, "transaction_id", in.ID)
		return nil, errTransactionNotFound()
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo update transaction", "user_id", clm.UserID, "transaction_id", in.ID, "error", err)
		return nil, goerror.NewServer(err)
	}

	tx, err := s.repoDB.GetTransaction(ctx, clm.UserID, in.ID)
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get updated transaction", "user_id", clm.UserID, "transaction_id", in.ID, "error", err)
		return nil, goerror.NewServer(err)
	}

	return tx, nil
}
