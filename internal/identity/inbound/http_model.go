package inbound

import (
	"net/http"
	"time"
)

type SignupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
	Phone    string `json:"phone"`
}

type SignupResponse struct {
	UserID int64  `json:"user_id,string"`
	Email  string `json:"email"`
}

func (SignupResponse) Message() string {
	return "Registration successful. Please check your email for the verification code."
}

func (SignupResponse) StatusCode() int {
	return http.StatusCreated
}

type PasswordLoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type PasswordLoginResponse struct {
	RequiresOTP      bool  `json:"requires_otp"`
	ExpiresInSeconds int64 `json:"expires_in_seconds"`
}

func (PasswordLoginResponse) Message() string {
	return "A login code has been sent to your email."
}

type RequestOTPRequest struct {
	Email   string `json:"email"`
	Purpose string `json:"purpose"`
}

type RequestOTPResponse struct{}

func (RequestOTPResponse) Message() string {
	return "If an account with that email exists, we have sent a new code."
}

type VerifyOTPRequest struct {
	Email   string `json:"email"`
	Purpose string `json:"purpose"`
	Code    string `json:"code"`
}

type SessionUserResponse struct {
	ID          int64     `json:"id,string"`
	Email       string    `json:"email"`
	FullName    string    `json:"full_name"`
	AvatarURL   string    `json:"avatar_url"`
	LastLoginAt time.Time `json:"last_login_at"`
}

type SessionResponse struct {
	AccessToken string              `json:"access_token"`
	TokenType   string              `json:"token_type"`
	ExpiresAt   time.Time           `json:"expires_at"`
	User        SessionUserResponse `json:"user"`
}

type ProfileResponse struct {
	ID          int64          `json:"id,string"`
	Email       string         `json:"email"`
	FullName    string         `json:"full_name"`
	AvatarURL   string         `json:"avatar_url"`
	Phone       string         `json:"phone"`
	Status      string         `json:"status"`
	Preferences map[string]any `json:"preferences"`
	LastLoginAt *time.Time     `json:"last_login_at"`
	CreatedAt   time.Time      `json:"created_at"`
}

type UpdateProfileRequest struct {
	FullName string `json:"full_name"`
	Phone    string `json:"phone"`
}

type PreferencesRequest struct {
	Currency           *string `json:"currency"`
	Theme              *string `json:"theme"`
	Language           *string `json:"language"`
	EmailNotifications *bool   `json:"email_notifications"`
	PushNotifications  *bool   `json:"push_notifications"`
}

type PreferencesResponse struct {
	Preferences map[string]any `json:"preferences"`
}

type PasswordChangeRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

type AccountDeleteRequest struct {
	Password string `json:"password"`
}
