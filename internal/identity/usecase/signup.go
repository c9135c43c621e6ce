package usecase

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"strings"

	"github.com/shandysiswandi/fintrack/internal/identity/entity"
	"github.com/shandysiswandi/fintrack/internal/pkg/goerror"
	"github.com/shandysiswandi/fintrack/internal/pkg/i18n"
	"github.com/shandysiswandi/fintrack/internal/pkg/valueobject"
)

type SignupInput struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required,password"`
	FullName string `validate:"required,min=2,max=100,personname"`
	Phone    string `validate:"omitempty,e164"`
}

type SignupOutput struct {
	UserID int64
	Email  string
}

func (s *Usecase) Signup(ctx context.Context, in SignupInput) (*SignupOutput, error) {
	ctx, span := s.startSpan(ctx, "Signup")
	defer span.End()

	in.Email = strings.TrimSpace(strings.ToLower(in.Email))
	in.FullName = strings.TrimSpace(in.FullName)
	in.Phone = strings.TrimSpace(in.Phone)

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	user, err := s.repoDB.GetUserByEmail(ctx, in.Email, true)
	if err == nil {
		switch user.Status {
		case entity.UserStatusActive:
			return nil, goerror.NewBusiness("Email already registered", goerror.CodeConflict)
		case entity.UserStatusUnverified:
			return nil, goerror.NewBusiness("Account not verified", goerror.CodeConflict)
		case entity.UserStatusInactive:
			return nil, goerror.NewBusiness("Account deactivated", goerror.CodeConflict)
		default:
			return nil, goerror.NewBusiness("Account not allowed", goerror.CodeForbidden)
		}
	}
	if !errors.Is(err, goerror.ErrNotFound) {
		slog.ErrorContext(ctx, "failed to repo get user by email", "email", in.Email, "error", err)
		return nil, goerror.NewServer(err)
	}

	hashedPassword, err := s.password.Hash(in.Password)
	if err != nil {
		slog.ErrorContext(ctx, "failed to hash password", "error", err)
		return nil, goerror.NewServer(err)
	}

	newUserID := s.uid.Generate()
	newUser := entity.NewUser{
		ID:        newUserID,
		CreatedBy: newUserID,
		UpdatedBy: newUserID,
		Email:     in.Email,
		FullName:  in.FullName,
		Phone:     in.Phone,
		AvatarURL: defaultAvatarURL(in.FullName),
		Status:    entity.UserStatusUnverified,
		Preferences: entity.DefaultPreferences().Merge(valueobject.JSONMap{
			"language": i18n.Language(ctx).String(),
		}),
	}

	err = s.repoDB.NewRegistration(ctx, newUser, string(hashedPassword))
	if errors.Is(err, goerror.ErrConflict) {
		slog.WarnContext(ctx, "email registered concurrently", "email", newUser.Email)
		return nil, goerror.NewBusiness("Email already registered", goerror.CodeConflict)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo user registration", "email", newUser.Email, "error", err)
		return nil, goerror.NewServer(err)
	}

	if err := s.issuePasscode(ctx, issuePasscodeInput{
		Identifier: newUser.Email,
		FullName:   newUser.FullName,
		Language:   newUser.Preferences.GetString("language"),
		Purpose:    entity.PasscodePurposeSignupVerify,
		Template:   PasscodeTemplateSignupVerify,
	}); err != nil {
		return nil, err
	}

	return &SignupOutput{UserID: newUser.ID, Email: newUser.Email}, nil
}

func defaultAvatarURL(fullName string) string {
	return "https://ui-avatars.com/api/?name=" + url.QueryEscape(fullName)
}
