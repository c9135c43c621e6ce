// Package uid generates identifiers: snowflake numbers for primary keys,
// UUIDv7 strings for correlation and token ids, and compact object ids for
// storage keys.
package uid

import (
	"errors"
	"os"
	"strings"
)

var ErrNoNodeIdentity = errors.New("uid: neither machine-id nor hostname is available")

type NumberID interface {
	Generate() int64
}

type StringID interface {
	Generate() string
}

// nodeIdentity is stable across restarts of the same host.
func nodeIdentity() (string, error) {
	if b, err := os.ReadFile("/etc/machine-id"); err == nil {
		if s := strings.TrimSpace(string(b)); s != "" {
			return s, nil
		}
	}
	if h, err := os.Hostname(); err == nil {
		if h = strings.TrimSpace(h); h != "" {
			return h, nil
		}
	}
	return "", ErrNoNodeIdentity
}
