package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/shandysiswandi/fintrack/internal/identity/entity"
	"github.com/shandysiswandi/fintrack/internal/pkg/goerror"
)

type RequestOTPInput struct {
	Email   string                 `validate:"required,email"`
	Purpose entity.PasscodePurpose `validate:"required,oneof=1 2 3"`
}

// resolvePurpose maps a resend request onto the flow the account is in.
func resolvePurpose(requested entity.PasscodePurpose, status entity.UserStatus) entity.PasscodePurpose {
	if requested != entity.PasscodePurposeResend {
		return requested
	}

	if status == entity.UserStatusUnverified {
		return entity.PasscodePurposeSignupVerify
	}

	return entity.PasscodePurposeLogin
}

// RequestOTP sends a fresh passcode for an existing signup or login flow.
// Unknown or already verified emails are accepted silently for signup codes.
func (s *Usecase) RequestOTP(ctx context.Context, in RequestOTPInput) error {
	ctx, span := s.startSpan(ctx, "RequestOTP")
	defer span.End()

	in.Email = strings.TrimSpace(strings.ToLower(in.Email))

	if err := s.validator.Validate(in); err != nil {
		return goerror.NewInvalidInput(err)
	}

	user, err := s.repoDB.GetUserByEmail(ctx, in.Email, false)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "email not registered for passcode request", "email", in.Email, "purpose", in.Purpose.String())
		if in.Purpose == entity.PasscodePurposeLogin {
			return errPasscodeNotFound()
		}
		return nil
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get user by email", "email", in.Email, "error", err)
		return goerror.NewServer(err)
	}

	purpose := resolvePurpose(in.Purpose, user.Status)

	switch purpose {
	case entity.PasscodePurposeSignupVerify:
		if user.Status != entity.UserStatusUnverified {
			slog.WarnContext(ctx, "signup passcode requested for verified account", "user_id", user.ID, "status", user.Status.String())
			return nil
		}

	case entity.PasscodePurposeLogin:
		if err := s.ensureUserStatusAllowed(ctx, user.ID, user.Status); err != nil {
			return err
		}

		if err := s.ensureLoginPending(ctx, in.Email); err != nil {
			return err
		}
	}

	if err := s.ensureResendAllowed(ctx, in.Email, purpose); err != nil {
		return err
	}

	tpl := templateFor(purpose)
	if in.Purpose == entity.PasscodePurposeResend {
		tpl = PasscodeTemplateNewCode
	}

	return s.issuePasscode(ctx, issuePasscodeInput{
		Identifier: in.Email,
		FullName:   user.FullName,
		Language:   user.Preferences.GetString("language"),
		Purpose:    purpose,
		Template:   tpl,
	})
}

// ensureLoginPending requires a live login passcode, which only exists after
// the password step succeeded.
func (s *Usecase) ensureLoginPending(ctx context.Context, email string) error {
	rec, err := s.repoDB.GetPasscode(ctx, email, entity.PasscodePurposeLogin)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "login passcode requested without password step", "email", email)
		return errPasscodeNotFound()
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get passcode", "email", email, "error", err)
		return goerror.NewServer(err)
	}

	if rec.IsConsumed() || rec.IsExpired(s.clock.Now()) {
		slog.WarnContext(ctx, "login passcode no longer active", "passcode_id", rec.ID)
		return errPasscodeNotFound()
	}

	return nil
}
