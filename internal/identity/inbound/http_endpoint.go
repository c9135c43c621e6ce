package inbound

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/shandysiswandi/fintrack/internal/identity/entity"
	"github.com/shandysiswandi/fintrack/internal/identity/usecase"
	"github.com/shandysiswandi/fintrack/internal/pkg/goerror"
	"github.com/shandysiswandi/fintrack/internal/pkg/router"
)

// HTTPEndpoint exposes HTTP handlers for credential, passcode and profile workflows.
type HTTPEndpoint struct {
	uc uc
}

// Signup creates a new unverified account.
// @Summary Sign up
// @Description Creates an unverified account and emails a 6-digit verification code.
// @Tags Identity, Authentication
// @Accept json
// @Produce json
// @Param request body SignupRequest true "Signup payload"
// @Success 201 {object} router.successResponse{data=SignupResponse} "Account created"
// @Failure 400 {object} router.errorResponse "Invalid request body"
// @Failure 409 {object} router.errorResponse "Email already registered"
// @Failure 422 {object} router.errorResponse "Validation error"
// @Failure 503 {object} router.errorResponse "Verification code could not be delivered"
// @Router /api/v1/identity/signup [post]
func (h *HTTPEndpoint) Signup(r *router.Request) (any, error) {
	var req SignupRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.Signup(r.Context(), usecase.SignupInput{
		Email:    req.Email,
		Password: req.Password,
		FullName: req.FullName,
		Phone:    req.Phone,
	})
	if err != nil {
		return nil, err
	}

	return SignupResponse{UserID: resp.UserID, Email: resp.Email}, nil
}

// PasswordLogin checks the password and sends a login code.
// @Summary Password login
// @Description First login factor. On success a login code is emailed; no token is returned.
// @Tags Identity, Authentication
// @Accept json
// @Produce json
// @Param request body PasswordLoginRequest true "Login payload"
// @Success 200 {object} router.successResponse{data=PasswordLoginResponse} "Login code sent"
// @Failure 401 {object} router.errorResponse "Invalid credentials"
// @Failure 403 {object} router.errorResponse "Account not verified"
// @Failure 429 {object} router.errorResponse "Too many codes requested"
// @Failure 503 {object} router.errorResponse "Login code could not be delivered"
// @Router /api/v1/identity/login [post]
func (h *HTTPEndpoint) PasswordLogin(r *router.Request) (any, error) {
	var req PasswordLoginRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.PasswordLogin(r.Context(), usecase.PasswordLoginInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return nil, err
	}

	return PasswordLoginResponse{
		RequiresOTP:      resp.RequiresOTP,
		ExpiresInSeconds: int64(resp.ExpiresIn.Seconds()),
	}, nil
}

// RequestOTP sends a new code for an ongoing signup or login.
// @Summary Request passcode
// @Description Purpose is one of signup-verify, login or resend.
// @Tags Identity, Authentication
// @Accept json
// @Produce json
// @Param request body RequestOTPRequest true "Passcode request payload"
// @Success 200 {object} router.successResponse{data=RequestOTPResponse} "Code sent"
// @Failure 404 {object} router.errorResponse "No login in progress"
// @Failure 422 {object} router.errorResponse "Validation error"
// @Failure 429 {object} router.errorResponse "Requested too soon" example:{"message":"Please wait before requesting a new code","error":{"reason":"too_soon","retry_after_seconds":"30"}}
// @Failure 503 {object} router.errorResponse "Code could not be delivered"
// @Router /api/v1/identity/otp/request [post]
func (h *HTTPEndpoint) RequestOTP(r *router.Request) (any, error) {
	var req RequestOTPRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	if err := h.uc.RequestOTP(r.Context(), usecase.RequestOTPInput{
		Email:   req.Email,
		Purpose: entity.ParsePasscodePurpose(req.Purpose),
	}); err != nil {
		return nil, err
	}

	return RequestOTPResponse{}, nil
}

// VerifyOTP exchanges a passcode for a session token.
// @Summary Verify passcode
// @Description Verifies a signup or login code and returns a bearer token.
// @Tags Identity, Authentication
// @Accept json
// @Produce json
// @Param request body VerifyOTPRequest true "Passcode verify payload"
// @Success 200 {object} router.successResponse{data=SessionResponse} "Session issued"
// @Failure 401 {object} router.errorResponse "Wrong or expired code"
// @Failure 404 {object} router.errorResponse "No active code"
// @Failure 422 {object} router.errorResponse "Validation error"
// @Failure 429 {object} router.errorResponse "Too many attempts"
// @Router /api/v1/identity/otp/verify [post]
func (h *HTTPEndpoint) VerifyOTP(r *router.Request) (any, error) {
	var req VerifyOTPRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.VerifyOTP(r.Context(), usecase.VerifyOTPInput{
		Email:   req.Email,
		Purpose: entity.ParsePasscodePurpose(req.Purpose),
		Code:    req.Code,
	})
	if err != nil {
		return nil, err
	}

	return toSessionResponse(resp), nil
}

// Refresh issues a new token for a still valid bearer token.
// @Summary Refresh token
// @Tags Identity, Authentication
// @Security BearerAuth
// @Produce json
// @Success 200 {object} router.successResponse{data=SessionResponse} "Session issued"
// @Failure 401 {object} router.errorResponse "Invalid or expired token"
// @Router /api/v1/identity/refresh [post]
func (h *HTTPEndpoint) Refresh(r *router.Request) (any, error) {
	resp, err := h.uc.Refresh(r.Context(), usecase.RefreshInput{Token: r.BearerToken()})
	if err != nil {
		return nil, err
	}

	return toSessionResponse(resp), nil
}

// Logout acknowledges a logout; the client discards its token.
// @Summary Logout
// @Tags Identity, Authentication
// @Security BearerAuth
// @Success 204 "No Content"
// @Failure 401 {object} router.errorResponse "Unauthorized"
// @Router /api/v1/identity/logout [post]
func (h *HTTPEndpoint) Logout(r *router.Request) (any, error) {
	return nil, h.uc.Logout(r.Context())
}

// Profile retrieves the current user's profile details.
// @Summary Get profile
// @Tags Identity, Profile
// @Security BearerAuth
// @Produce json
// @Success 200 {object} router.successResponse{data=ProfileResponse} "Profile result"
// @Failure 401 {object} router.errorResponse "Unauthorized"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/v1/identity/profile [get]
func (h *HTTPEndpoint) Profile(r *router.Request) (any, error) {
	resp, err := h.uc.Profile(r.Context())
	if err != nil {
		return nil, err
	}

	return ProfileResponse{
		ID:          resp.ID,
		Email:       resp.Email,
		FullName:    resp.FullName,
		AvatarURL:   resp.AvatarURL,
		Phone:       resp.Phone,
		Status:      resp.Status,
		Preferences: resp.Preferences,
		LastLoginAt: resp.LastLoginAt,
		CreatedAt:   resp.CreatedAt,
	}, nil
}

// ProfileUpdate updates the current user's name and phone.
// @Summary Update profile
// @Tags Identity, Profile
// @Security BearerAuth
// @Accept json
// @Param request body UpdateProfileRequest true "Profile payload"
// @Success 204 "No Content"
// @Failure 401 {object} router.errorResponse "Unauthorized"
// @Failure 422 {object} router.errorResponse "Validation error"
// @Router /api/v1/identity/profile [put]
func (h *HTTPEndpoint) ProfileUpdate(r *router.Request) (any, error) {
	var req UpdateProfileRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	return nil, h.uc.ProfileUpdate(r.Context(), usecase.ProfileUpdateInput{
		FullName: req.FullName,
		Phone:    req.Phone,
	})
}

// ProfileUpdateAvatar uploads a new avatar.
// @Summary Update profile avatar
// @Tags Identity, Profile
// @Security BearerAuth
// @Accept multipart/form-data
// @Param avatar formData file true "Avatar image"
// @Success 204 "No Content"
// @Failure 400 {object} router.errorResponse "Invalid request body"
// @Failure 422 {object} router.errorResponse "Validation error"
// @Router /api/v1/identity/profile/avatar [put]
func (h *HTTPEndpoint) ProfileUpdateAvatar(r *router.Request) (any, error) {
	ctx := r.Context()

	file, err := r.StreamSingleFile("avatar")
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := file.Close(); err != nil {
			slog.ErrorContext(ctx, "failed to close file", "error", err)
		}
	}()

	head := make([]byte, 512)
	n, err := file.Read(head)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, goerror.NewInvalidFormat()
	}

	return nil, h.uc.ProfileUpdateAvatar(ctx, usecase.ProfileUpdateAvatarInput{
		File:        io.MultiReader(bytes.NewReader(head[:n]), file),
		ContentType: http.DetectContentType(head[:n]),
	})
}

// ProfileDeleteAvatar resets the avatar to the generated default.
// @Summary Delete profile avatar
// @Tags Identity, Profile
// @Security BearerAuth
// @Success 204 "No Content"
// @Router /api/v1/identity/profile/avatar [delete]
func (h *HTTPEndpoint) ProfileDeleteAvatar(r *router.Request) (any, error) {
	return nil, h.uc.ProfileDeleteAvatar(r.Context())
}

// Preferences returns the stored preferences merged over defaults.
// @Summary Get preferences
// @Tags Identity, Profile
// @Security BearerAuth
// @Produce json
// @Success 200 {object} router.successResponse{data=PreferencesResponse} "Preferences"
// @Router /api/v1/identity/profile/preferences [get]
func (h *HTTPEndpoint) Preferences(r *router.Request) (any, error) {
	prefs, err := h.uc.Preferences(r.Context())
	if err != nil {
		return nil, err
	}

	return PreferencesResponse{Preferences: prefs}, nil
}

// PreferencesUpdate merges the given fields into the stored preferences.
// @Summary Update preferences
// @Tags Identity, Profile
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body PreferencesRequest true "Preferences payload"
// @Success 200 {object} router.successResponse{data=PreferencesResponse} "Preferences"
// @Failure 422 {object} router.errorResponse "Validation error"
// @Router /api/v1/identity/profile/preferences [patch]
func (h *HTTPEndpoint) PreferencesUpdate(r *router.Request) (any, error) {
	var req PreferencesRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	prefs, err := h.uc.PreferencesUpdate(r.Context(), usecase.PreferencesUpdateInput{
		Currency:           req.Currency,
		Theme:              req.Theme,
		Language:           req.Language,
		EmailNotifications: req.EmailNotifications,
		PushNotifications:  req.PushNotifications,
	})
	if err != nil {
		return nil, err
	}

	return PreferencesResponse{Preferences: prefs}, nil
}

// PasswordChange updates the current user's password.
// @Summary Change password
// @Tags Identity, Profile
// @Security BearerAuth
// @Accept json
// @Param request body PasswordChangeRequest true "Password payload"
// @Success 204 "No Content"
// @Failure 401 {object} router.errorResponse "Invalid password"
// @Failure 422 {object} router.errorResponse "Validation error"
// @Router /api/v1/identity/password/change [post]
func (h *HTTPEndpoint) PasswordChange(r *router.Request) (any, error) {
	var req PasswordChangeRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	return nil, h.uc.PasswordChange(r.Context(), usecase.PasswordChangeInput{
		CurrentPassword: req.CurrentPassword,
		NewPassword:     req.NewPassword,
	})
}

// AccountDelete deletes the current user's account.
// @Summary Delete account
// @Tags Identity, Profile
// @Security BearerAuth
// @Accept json
// @Param request body AccountDeleteRequest true "Password confirmation"
// @Success 204 "No Content"
// @Failure 401 {object} router.errorResponse "Invalid password"
// @Router /api/v1/identity/account [delete]
func (h *HTTPEndpoint) AccountDelete(r *router.Request) (any, error) {
	var req AccountDeleteRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	return nil, h.uc.AccountDelete(r.Context(), usecase.AccountDeleteInput{Password: req.Password})
}

func toSessionResponse(resp *usecase.SessionOutput) SessionResponse {
	return SessionResponse{
		AccessToken: resp.AccessToken,
		TokenType:   resp.TokenType,
		ExpiresAt:   resp.ExpiresAt,
		User: SessionUserResponse{
			ID:          resp.User.ID,
			Email:       resp.User.Email,
			FullName:    resp.User.FullName,
			AvatarURL:   resp.User.AvatarURL,
			LastLoginAt: resp.User.LastLoginAt,
		},
	}
}
