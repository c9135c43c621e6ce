// Package otp generates numeric one-time passcodes delivered out of band
// (email) for signup verification and login confirmation.
//
// Codes are random, not time-derived: their lifetime and attempt limits are
// tracked by the caller's storage.
package otp
