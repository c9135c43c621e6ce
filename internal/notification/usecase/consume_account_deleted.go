package usecase

import (
	"context"
	"log/slog"
)

type ConsumeAccountDeletedInput struct {
	UserID int64 `validate:"required,gt=0"`
}

// ConsumeAccountDeleted erases the inbox and delivery history of the account.
// A repository failure is returned so the message is redelivered.
func (s *Usecase) ConsumeAccountDeleted(ctx context.Context, in ConsumeAccountDeletedInput) error {
	ctx, span := s.startSpan(ctx, "ConsumeAccountDeleted")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		slog.ErrorContext(ctx, "dropping invalid account deleted message", "error", err)
		return nil
	}

	n, err := s.repoDB.PurgeInbox(ctx, in.UserID)
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo purge inbox", "user_id", in.UserID, "error", err)
		return err
	}

	slog.InfoContext(ctx, "purged inbox of deleted account", "user_id", in.UserID, "count", n)
	return nil
}
