package usecase

import (
	"context"
	"log/slog"
	"strings"

	"github.com/shandysiswandi/fintrack/internal/pkg/goerror"
)

type ConsumeAccountDeletedInput struct {
	UserID int64 `validate:"required,gt=0"`
}

// ConsumeAccountDeleted removes every transaction and export file of a deleted
// account. Both steps are idempotent so a redelivered message is harmless.
// Invalid messages are dropped so the broker does not redeliver them.
func (s *Usecase) ConsumeAccountDeleted(ctx context.Context, in ConsumeAccountDeletedInput) error {
	ctx, span := s.startSpan(ctx, "ConsumeAccountDeleted")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		slog.WarnContext(ctx, "drop invalid account deleted message", "user_id", in.UserID, "error", err)
		return nil
	}

	n, err := s.repoDB.PurgeUserTransactions(ctx, in.UserID)
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo purge user transactions", "user_id", in.UserID, "error", err)
		return goerror.NewServer(err)
	}

	bucket := strings.TrimSpace(s.cfg.GetString("modules.finance.export_bucket"))
	files, err := s.storage.DeletePrefix(ctx, bucket, exportPrefix(in.UserID))
	if err != nil {
		slog.ErrorContext(ctx, "failed to delete exports of deleted account", "user_id", in.UserID, "error", err)
		return goerror.NewServer(err)
	}

	slog.InfoContext(ctx, "purged deleted account", "user_id", in.UserID, "transactions", n, "export_files", files)
	return nil
}
