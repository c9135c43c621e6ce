package usecase

import (
	"strconv"

	"github.com/shandysiswandi/fintrack/internal/pkg/goerror"
)

// Reasons are rendered under error.reason so clients can branch without
// parsing messages.
const (
	ReasonInvalidCredentials = "invalid_credentials"
	ReasonNotVerified        = "not_verified"
	ReasonPasscodeNotFound   = "passcode_not_found"
	ReasonPasscodeMismatch   = "passcode_mismatch"
	ReasonAttemptsExceeded   = "attempts_exceeded"
	ReasonTooSoon            = "too_soon"
	ReasonPasscodeExpired    = "passcode_expired"
	ReasonUnauthorized       = "unauthorized"
	ReasonDeliveryFailed     = "delivery_failed"
	ReasonRateLimited        = "rate_limited"
)

const keyOfReason = "reason"

func errInvalidCredentials() error {
	return goerror.NewBusinessWithFields("Invalid email or password", goerror.CodeUnauthorized,
		keyOfReason, ReasonInvalidCredentials)
}

func errNotVerified() error {
	return goerror.NewBusinessWithFields("Account not verified. A new verification code has been sent", goerror.CodeForbidden,
		keyOfReason, ReasonNotVerified)
}

func errPasscodeNotFound() error {
	return goerror.NewBusinessWithFields("Verification code not found or already used", goerror.CodeNotFound,
		keyOfReason, ReasonPasscodeNotFound)
}

func errPasscodeMismatch() error {
	return goerror.NewBusinessWithFields("Invalid verification code", goerror.CodeUnauthorized,
		keyOfReason, ReasonPasscodeMismatch)
}

func errAttemptsExceeded() error {
	return goerror.NewBusinessWithFields("Too many invalid attempts. Please request a new code", goerror.CodeTooManyRequest,
		keyOfReason, ReasonAttemptsExceeded)
}

func errTooSoon(retryAfterSeconds int64) error {
	return goerror.NewBusinessWithFields("Please wait before requesting a new code", goerror.CodeTooManyRequest,
		keyOfReason, ReasonTooSoon,
		"retry_after_seconds", strconv.FormatInt(retryAfterSeconds, 10))
}

func errPasscodeExpired() error {
	return goerror.NewBusinessWithFields("Verification code has expired", goerror.CodeUnauthorized,
		keyOfReason, ReasonPasscodeExpired)
}

func errUnauthorized() error {
	return goerror.NewBusinessWithFields("Invalid or expired token", goerror.CodeUnauthorized,
		keyOfReason, ReasonUnauthorized)
}

func errDeliveryFailed() error {
	return goerror.NewBusinessWithFields("Failed to send verification code. Please try again", goerror.CodeUnavailable,
		keyOfReason, ReasonDeliveryFailed)
}
