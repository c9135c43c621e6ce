package usecase

import (
	"context"
	"log/slog"

	"github.com/shandysiswandi/fintrack/internal/pkg/goerror"
)

type PasswordChangeInput struct {
	CurrentPassword string `validate:"required"`
	NewPassword     string `validate:"required,password,nefield=CurrentPassword"`
}

// PasswordChange replaces the password of an active account. Issued tokens
// stay valid until they expire.
func (s *Usecase) PasswordChange(ctx context.Context, in PasswordChangeInput) error {
	ctx, span := s.startSpan(ctx, "PasswordChange")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return goerror.NewInvalidInput(err)
	}

	user, err := s.reauthenticate(ctx, in.CurrentPassword)
	if err != nil {
		return err
	}
	if err := s.ensureUserStatusAllowed(ctx, user.ID, user.Status); err != nil {
		return err
	}

	hashed, err := s.password.Hash(in.NewPassword)
	if err != nil {
		slog.ErrorContext(ctx, "failed to hash new password", "user_id", user.ID, "error", err)
		return goerror.NewServer(err)
	}
	if err := s.repoDB.UpdateUserCredential(ctx, user.ID, string(hashed)); err != nil {
		slog.ErrorContext(ctx, "failed to update user password", "user_id", user.ID, "error", err)
		return goerror.NewServer(err)
	}

	slog.InfoContext(ctx, "user password changed", "user_id", user.ID)
	return nil
}
