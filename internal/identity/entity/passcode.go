package entity

import "time"

// Passcode is the single active one-time passcode for an (identifier, purpose) pair.
type Passcode struct {
	ID         int64
	Identifier string
	Purpose    PasscodePurpose
	CodeHash   string
	// PreviousCodeHash is the hash of the code this record replaced, kept so
	// a superseded code is reported as gone rather than as a wrong guess.
	PreviousCodeHash string
	Attempts         int32
	CreatedAt        time.Time
	ExpiresAt        time.Time
	ConsumedAt       *time.Time
}

func (p Passcode) IsConsumed() bool {
	return p.ConsumedAt != nil
}

func (p Passcode) IsExpired(now time.Time) bool {
	return !now.Before(p.ExpiresAt)
}

// Remaining returns how long the passcode stays valid, never negative.
func (p Passcode) Remaining(now time.Time) time.Duration {
	if d := p.ExpiresAt.Sub(now); d > 0 {
		return d
	}
	return 0
}

type ConsumePasscode struct {
	ID          int64
	CodeHash    string
	MaxAttempts int32
}
