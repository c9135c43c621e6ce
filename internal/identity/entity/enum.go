package entity

import "strings"

type UserStatus int16

const (
	// UserStatusUnknown is mean status is not known / not set.
	UserStatusUnknown UserStatus = 0

	// UserStatusUnverified mean user exists but has not completed verification.
	UserStatusUnverified UserStatus = 1

	// UserStatusActive mean user is verified and allowed to use the app.
	UserStatusActive UserStatus = 2

	// UserStatusBanned mean user is blocked from using the app (policy/abuse/etc).
	UserStatusBanned UserStatus = 3

	// UserStatusInactive mean user is not currently active (e.g., deactivated, closed).
	UserStatusInactive UserStatus = 4
)

func (us UserStatus) String() string {
	switch us {
	case UserStatusActive:
		return "Active"
	case UserStatusBanned:
		return "Banned"
	case UserStatusInactive:
		return "Inactive"
	case UserStatusUnverified:
		return "Unverified"
	default:
		return "Unknown"
	}
}

func (s UserStatus) IsUnknown() bool {
	switch s {
	case UserStatusUnverified, UserStatusActive, UserStatusBanned, UserStatusInactive:
		return false
	default:
		return true
	}
}

func (us UserStatus) Ensure() UserStatus {
	switch us {
	case UserStatusActive:
		return UserStatusActive
	case UserStatusBanned:
		return UserStatusBanned
	case UserStatusInactive:
		return UserStatusInactive
	case UserStatusUnverified:
		return UserStatusUnverified
	default:
		return UserStatusUnknown
	}
}

// PasscodePurpose scopes a passcode to the flow it was issued for.
type PasscodePurpose int16

const (
	PasscodePurposeUnknown      PasscodePurpose = 0
	PasscodePurposeSignupVerify PasscodePurpose = 1
	PasscodePurposeLogin        PasscodePurpose = 2
	// PasscodePurposeResend is only accepted on requests; it is resolved to
	// SignupVerify or Login from the account status and never stored.
	PasscodePurposeResend PasscodePurpose = 3
)

func ParsePasscodePurpose(str string) PasscodePurpose {
	switch strings.ToLower(strings.TrimSpace(str)) {
	case "signup-verify":
		return PasscodePurposeSignupVerify
	case "login":
		return PasscodePurposeLogin
	case "resend":
		return PasscodePurposeResend
	default:
		return PasscodePurposeUnknown
	}
}

func (p PasscodePurpose) String() string {
	switch p {
	case PasscodePurposeSignupVerify:
		return "signup-verify"
	case PasscodePurposeLogin:
		return "login"
	case PasscodePurposeResend:
		return "resend"
	default:
		return "unknown"
	}
}

// IsStored reports whether records are persisted under this purpose.
func (p PasscodePurpose) IsStored() bool {
	return p == PasscodePurposeSignupVerify || p == PasscodePurposeLogin
}
