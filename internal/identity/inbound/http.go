package inbound

import (
	"context"

	"github.com/shandysiswandi/fintrack/internal/identity/usecase"
	"github.com/shandysiswandi/fintrack/internal/pkg/router"
	"github.com/shandysiswandi/fintrack/internal/pkg/valueobject"
)

type uc interface {
	Signup(ctx context.Context, in usecase.SignupInput) (*usecase.SignupOutput, error)
	PasswordLogin(ctx context.Context, in usecase.PasswordLoginInput) (*usecase.PasswordLoginOutput, error)
	RequestOTP(ctx context.Context, in usecase.RequestOTPInput) error
	VerifyOTP(ctx context.Context, in usecase.VerifyOTPInput) (*usecase.SessionOutput, error)
	Refresh(ctx context.Context, in usecase.RefreshInput) (*usecase.SessionOutput, error)
	Logout(ctx context.Context) error

	Profile(ctx context.Context) (*usecase.ProfileOutput, error)
	ProfileUpdate(ctx context.Context, in usecase.ProfileUpdateInput) error
	ProfileUpdateAvatar(ctx context.Context, in usecase.ProfileUpdateAvatarInput) error
	ProfileDeleteAvatar(ctx context.Context) error
	Preferences(ctx context.Context) (valueobject.JSONMap, error)
	PreferencesUpdate(ctx context.Context, in usecase.PreferencesUpdateInput) (valueobject.JSONMap, error)
	PasswordChange(ctx context.Context, in usecase.PasswordChangeInput) error
	AccountDelete(ctx context.Context, in usecase.AccountDeleteInput) error
}

func RegisterHTTPEndpoint(r *router.Router, uc uc) {
	end := &HTTPEndpoint{uc: uc}

	// Credential & passcode
	r.POST("/api/v1/identity/signup", end.Signup, router.Public())
	r.POST("/api/v1/identity/login", end.PasswordLogin, router.Public())
	r.POST("/api/v1/identity/otp/request", end.RequestOTP, router.Public())
	r.POST("/api/v1/identity/otp/verify", end.VerifyOTP, router.Public())
	r.POST("/api/v1/identity/refresh", end.Refresh, router.Public())
	r.POST("/api/v1/identity/logout", end.Logout)

	// Profile
	r.GET("/api/v1/identity/profile", end.Profile)
	r.PUT("/api/v1/identity/profile", end.ProfileUpdate)
	r.PUT("/api/v1/identity/profile/avatar", end.ProfileUpdateAvatar)
	r.DELETE("/api/v1/identity/profile/avatar", end.ProfileDeleteAvatar)
	r.GET("/api/v1/identity/profile/preferences", end.Preferences)
	r.PATCH("/api/v1/identity/profile/preferences", end.PreferencesUpdate)
	r.POST("/api/v1/identity/password/change", end.PasswordChange)
	r.DELETE("/api/v1/identity/account", end.AccountDelete)
}
