package hash

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
	"golang.org/x/sync/semaphore"
)

var errMalformedArgon2 = errors.New("hash: malformed argon2id hash")

type argon2Params struct {
	memory      uint32 // KiB
	iterations  uint32
	parallelism uint8
}

// Argon2id stores hashes in the PHC string format
// ($argon2id$v=19$m=..,t=..,p=..$salt$key) so parameters can change without
// invalidating existing hashes. Each derivation allocates params.memory, so
// concurrent derivations are bounded.
type Argon2id struct {
	params  argon2Params
	saltLen int
	keyLen  uint32
	pepper  string
	sem     *semaphore.Weighted
}

func NewArgon2id(pepper string) *Argon2id {
	return &Argon2id{
		params:  argon2Params{memory: 32 * 1024, iterations: 3, parallelism: 2},
		saltLen: 16,
		keyLen:  32,
		pepper:  pepper,
		sem:     semaphore.NewWeighted(4),
	}
}

func (a *Argon2id) Hash(str string) ([]byte, error) {
	salt := make([]byte, a.saltLen)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("hash: read salt: %w", err)
	}

	key, err := a.derive(str, salt, a.params, a.keyLen)
	if err != nil {
		return nil, err
	}

	return []byte(fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, a.params.memory, a.params.iterations, a.params.parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	)), nil
}

func (a *Argon2id) Verify(hashed, str string) bool {
	if str == "" {
		return false
	}

	p, salt, want, err := parseArgon2id(hashed)
	if err != nil {
		return false
	}

	got, err := a.derive(str, salt, p, uint32(len(want)))
	if err != nil {
		return false
	}
	return subtle.ConstantTimeCompare(want, got) == 1
}

func (a *Argon2id) derive(str string, salt []byte, p argon2Params, keyLen uint32) ([]byte, error) {
	if err := a.sem.Acquire(context.Background(), 1); err != nil {
		return nil, err
	}
	defer a.sem.Release(1)

	return argon2.IDKey([]byte(str+a.pepper), salt, p.iterations, p.memory, p.parallelism, keyLen), nil
}

func parseArgon2id(encoded string) (argon2Params, []byte, []byte, error) {
	var p argon2Params

	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != "" || parts[1] != "argon2id" {
		return p, nil, nil, errMalformedArgon2
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return p, nil, nil, errMalformedArgon2
	}
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &p.memory, &p.iterations, &p.parallelism); err != nil {
		return p, nil, nil, errMalformedArgon2
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return p, nil, nil, errMalformedArgon2
	}
	key, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(key) == 0 {
		return p, nil, nil, errMalformedArgon2
	}

	return p, salt, key, nil
}
