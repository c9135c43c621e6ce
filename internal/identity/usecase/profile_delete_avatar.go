package usecase

import (
	"context"
	"log/slog"

	"github.com/shandysiswandi/fintrack/internal/pkg/goerror"
)

// ProfileDeleteAvatar falls back to the generated avatar.
func (s *Usecase) ProfileDeleteAvatar(ctx context.Context) error {
	ctx, span := s.startSpan(ctx, "ProfileDeleteAvatar")
	defer span.End()

	user, err := s.currentUser(ctx)
	if err != nil {
		return err
	}

	if err := s.repoDB.UpdateUserAvatar(ctx, user.ID, defaultAvatarURL(user.FullName)); err != nil {
		slog.ErrorContext(ctx, "failed to update user avatar", "user_id", user.ID, "error", err)
		return goerror.NewServer(err)
	}

	s.removeUploaded(ctx, s.avatarStore(), user)
	return nil
}
