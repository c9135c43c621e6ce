package usecase

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/shandysiswandi/fintrack/internal/pkg/goerror"
)

type AccountDeleteInput struct {
	Password string `validate:"required"`
}

// AccountDelete soft deletes the caller's account after re-checking the
// password. Uploaded avatars go with it; other owned data is purged by
// consumers of the account_deleted event.
func (s *Usecase) AccountDelete(ctx context.Context, in AccountDeleteInput) error {
	ctx, span := s.startSpan(ctx, "AccountDelete")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return goerror.NewInvalidInput(err)
	}

	user, err := s.reauthenticate(ctx, in.Password)
	if err != nil {
		return err
	}

	if err := s.repoDB.MarkUserDeleted(ctx, user.ID); err != nil {
		slog.ErrorContext(ctx, "failed to mark user deleted", "user_id", user.ID, "error", err)
		return goerror.NewServer(err)
	}

	store := s.avatarStore()
	if _, err := s.storage.DeletePrefix(ctx, store.Bucket, avatarPrefix(user.ID)); err != nil {
		slog.ErrorContext(ctx, "failed to delete user avatars", "user_id", user.ID, "error", err)
	}

	if _, err := s.roles.DeleteRolesForUser(strconv.FormatInt(user.ID, 10)); err != nil {
		slog.ErrorContext(ctx, "failed to delete user roles", "user_id", user.ID, "error", err)
	}

	if err := s.repoMessaging.PublishAccountDeleted(ctx, AccountDeletedEvent{
		UserID: user.ID,
		Email:  user.Email,
	}); err != nil {
		slog.ErrorContext(ctx, "failed to publish account deleted", "user_id", user.ID, "error", err)
	}

	return nil
}
