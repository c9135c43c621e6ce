// Package hash derives and checks one-way digests of secrets: passwords with
// argon2id or bcrypt, passcodes with a keyed HMAC.
package hash

// Hash is the contract shared by every hasher. Verify never errors; a
// malformed stored hash simply does not match.
type Hash interface {
	Hash(str string) ([]byte, error)
	Verify(hashed, str string) bool
}
