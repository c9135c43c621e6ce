package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/shandysiswandi/fintrack/internal/identity/entity"
	"github.com/shandysiswandi/fintrack/internal/pkg/goerror"
)

type PasswordLoginInput struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required"`
}

type PasswordLoginOutput struct {
	RequiresOTP bool
	ExpiresIn   time.Duration
}

// PasswordLogin is the first login factor. It never returns a session; on
// success a login passcode is sent and must be verified through VerifyOTP.
func (s *Usecase) PasswordLogin(ctx context.Context, in PasswordLoginInput) (*PasswordLoginOutput, error) {
	ctx, span := s.startSpan(ctx, "PasswordLogin")
	defer span.End()

	in.Email = strings.TrimSpace(strings.ToLower(in.Email))

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	user, err := s.repoDB.GetUserCredentialInfo(ctx, in.Email)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "user account not found", "email", in.Email)
		return nil, errInvalidCredentials()
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get user credential info", "email", in.Email, "error", err)
		return nil, goerror.NewServer(err)
	}

	if user.Status == entity.UserStatusUnverified {
		if err := s.issuePasscode(ctx, issuePasscodeInput{
			Identifier: user.Email,
			FullName:   user.FullName,
			Language:   user.Language,
			Purpose:    entity.PasscodePurposeSignupVerify,
			Template:   PasscodeTemplateSignupVerify,
		}); err != nil {
			return nil, err
		}

		slog.WarnContext(ctx, "login attempt on unverified account", "user_id", user.ID)
		return nil, errNotVerified()
	}

	if err := s.ensureUserStatusAllowed(ctx, user.ID, user.Status); err != nil {
		return nil, err
	}

	if !s.password.Verify(user.Password, in.Password) {
		slog.WarnContext(ctx, "password user account not match", "user_id", user.ID)
		return nil, errInvalidCredentials()
	}

	if err := s.issuePasscode(ctx, issuePasscodeInput{
		Identifier: user.Email,
		FullName:   user.FullName,
		Language:   user.Language,
		Purpose:    entity.PasscodePurposeLogin,
		Template:   PasscodeTemplateLogin,
	}); err != nil {
		return nil, err
	}

	return &PasswordLoginOutput{
		RequiresOTP: true,
		ExpiresIn:   s.passcodePolicy().TTL,
	}, nil
}
