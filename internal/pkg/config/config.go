// Package config reads typed settings addressed by dotted keys
// ("app.server.http.address").
package config

import (
	"io"
	"time"
)

// Config returns zero values for missing or unconvertible keys.
type Config interface {
	io.Closer

	GetString(key string) string
	GetBool(key string) bool
	GetInt(key string) int
	GetInt32(key string) int32
	GetInt64(key string) int64
	GetUint16(key string) uint16
	GetFloat64(key string) float64

	// GetBinary decodes a base64 value, nil when it is not valid base64.
	GetBinary(key string) []byte

	// GetArray accepts a YAML list or a comma separated string, the form
	// environment overrides arrive in. Blank items are dropped.
	GetArray(key string) []string

	// Durations are stored as plain integers in the unit the getter names.
	GetMillisecond(key string) time.Duration
	GetSecond(key string) time.Duration
	GetMinute(key string) time.Duration
	GetHour(key string) time.Duration
}
