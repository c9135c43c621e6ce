package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/shandysiswandi/fintrack/internal/identity/entity"
	"github.com/shandysiswandi/fintrack/internal/pkg/goerror"
	"github.com/shandysiswandi/fintrack/internal/pkg/validator"
	"github.com/shandysiswandi/fintrack/internal/shared/constant"
)

type VerifyOTPInput struct {
	Email   string                 `validate:"required,email"`
	Purpose entity.PasscodePurpose `validate:"required,oneof=1 2 3"`
	Code    string                 `validate:"required,numeric_code"`
}

// VerifyOTP consumes a passcode and exchanges it for a session. A signup
// code also activates the account.
func (s *Usecase) VerifyOTP(ctx context.Context, in VerifyOTPInput) (*SessionOutput, error) {
	ctx, span := s.startSpan(ctx, "VerifyOTP")
	defer span.End()

	in.Email = strings.TrimSpace(strings.ToLower(in.Email))
	in.Code = strings.TrimSpace(in.Code)

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}
	if n := s.passcode.Length(); len(in.Code) != n {
		return nil, goerror.NewInvalidInput(validator.V10ValidationError{
			"code": fmt.Sprintf("code must be %d digits", n),
		})
	}

	purpose := in.Purpose
	if purpose == entity.PasscodePurposeResend {
		user, err := s.repoDB.GetUserByEmail(ctx, in.Email, false)
		if errors.Is(err, goerror.ErrNotFound) {
			slog.WarnContext(ctx, "email not registered for passcode verify", "email", in.Email)
			return nil, errPasscodeNotFound()
		}
		if err != nil {
			slog.ErrorContext(ctx, "failed to repo get user by email", "email", in.Email, "error", err)
			return nil, goerror.NewServer(err)
		}

		purpose = resolvePurpose(purpose, user.Status)
	}

	if purpose == entity.PasscodePurposeLogin {
		return s.completeLogin(ctx, in.Email, in.Code)
	}

	if err := s.verifyPasscode(ctx, in.Email, purpose, in.Code); err != nil {
		return nil, err
	}

	if err := s.activateAccount(ctx, in.Email); err != nil {
		return nil, err
	}

	return s.issueSession(ctx, in.Email)
}

func (s *Usecase) completeLogin(ctx context.Context, email, code string) (*SessionOutput, error) {
	if err := s.verifyPasscode(ctx, email, entity.PasscodePurposeLogin, code); err != nil {
		return nil, err
	}

	return s.issueSession(ctx, email)
}

// activateAccount moves an unverified account to active and grants the
// default role. Already active accounts pass through.
func (s *Usecase) activateAccount(ctx context.Context, email string) error {
	user, err := s.repoDB.GetUserByEmail(ctx, email, false)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "verified passcode without account", "email", email)
		return errPasscodeNotFound()
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get user by email", "email", email, "error", err)
		return goerror.NewServer(err)
	}

	if user.Status != entity.UserStatusUnverified {
		return s.ensureUserStatusAllowed(ctx, user.ID, user.Status)
	}

	err = s.repoDB.ActivateUser(ctx, entity.ActivateUser{
		UserID:    user.ID,
		OldStatus: entity.UserStatusUnverified,
		NewStatus: entity.UserStatusActive,
	})
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "account activated concurrently", "user_id", user.ID)
		return nil
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo activate user", "user_id", user.ID, "error", err)
		return goerror.NewServer(err)
	}

	if _, err := s.roles.AddRoleForUser(strconv.FormatInt(user.ID, 10), constant.RoleMember); err != nil {
		slog.ErrorContext(ctx, "failed to grant default role", "user_id", user.ID, "role", constant.RoleMember, "error", err)
		return goerror.NewServer(err)
	}

	if err := s.repoMessaging.PublishAccountVerified(ctx, AccountVerifiedEvent{
		UserID:   user.ID,
		Email:    user.Email,
		FullName: user.FullName,
		Language: user.Preferences.GetString("language"),
	}); err != nil {
		slog.ErrorContext(ctx, "failed to publish account verified", "user_id", user.ID, "error", err)
	}

	return nil
}
