package entity

import (
	"time"

	"github.com/shandysiswandi/fintrack/internal/pkg/valueobject"
)

type User struct {
	ID          int64
	Email       string
	FullName    string
	AvatarURL   string
	Phone       string
	Status      UserStatus
	Preferences valueobject.JSONMap
	LastLoginAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
	DeletedAt   *time.Time
}

type UserCredentialInfo struct {
	ID       int64
	Email    string
	FullName string
	Status   UserStatus
	Password string
	// Language is the account's language preference, possibly empty.
	Language string
}

type NewUser struct {
	ID          int64
	Email       string
	FullName    string
	AvatarURL   string
	Phone       string
	Status      UserStatus
	Preferences valueobject.JSONMap
	CreatedBy   int64
	UpdatedBy   int64
}

type ActivateUser struct {
	UserID    int64
	OldStatus UserStatus
	NewStatus UserStatus
}

// DefaultPreferences are stored for every new account and merged on update.
func DefaultPreferences() valueobject.JSONMap {
	return valueobject.JSONMap{
		"currency":      "USD",
		"theme":         "light",
		"language":      "en",
		"notifications": map[string]any{"email": true, "push": false},
	}
}
