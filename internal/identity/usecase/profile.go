package usecase

import (
	"context"
	"time"

	"github.com/shandysiswandi/fintrack/internal/pkg/valueobject"
)

type ProfileOutput struct {
	ID          int64
	Email       string
	FullName    string
	AvatarURL   string
	Phone       string
	Status      string
	Preferences valueobject.JSONMap
	LastLoginAt *time.Time
	CreatedAt   time.Time
}

func (s *Usecase) Profile(ctx context.Context) (*ProfileOutput, error) {
	ctx, span := s.startSpan(ctx, "Profile")
	defer span.End()

	user, err := s.currentUser(ctx)
	if err != nil {
		return nil, err
	}

	return &ProfileOutput{
		ID:          user.ID,
		Email:       user.Email,
		FullName:    user.FullName,
		AvatarURL:   user.AvatarURL,
		Phone:       user.Phone,
		Status:      user.Status.String(),
		Preferences: user.Preferences,
		LastLoginAt: user.LastLoginAt,
		CreatedAt:   user.CreatedAt,
	}, nil
}
