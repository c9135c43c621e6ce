package config

import (
	"bytes"
	"encoding/base64"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

var ErrMissingType = errors.New("config: type is required")

// Viper implements Config. Every key can be overridden by an environment
// variable named after it in upper case with dots replaced by underscores
// (DATABASE_URL for database.url).
type Viper struct {
	v *viper.Viper
}

// NewViper reads the file at path and reloads it whenever it changes on disk.
// The format follows the file extension.
func NewViper(path string) (*Viper, error) {
	v := newViper()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	v.OnConfigChange(func(e fsnotify.Event) {
		slog.Info("config reloaded", "path", e.Name, "op", e.Op.String())
	})
	v.WatchConfig()

	return &Viper{v: v}, nil
}

// NewViperFromBytes reads an in-memory document, mostly for tests.
func NewViperFromBytes(configType string, data []byte) (*Viper, error) {
	if strings.TrimSpace(configType) == "" {
		return nil, ErrMissingType
	}

	v := newViper()
	v.SetConfigType(configType)
	if err := v.ReadConfig(bytes.NewReader(data)); err != nil {
		return nil, err
	}

	return &Viper{v: v}, nil
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func (vc *Viper) GetString(key string) string   { return vc.v.GetString(key) }
func (vc *Viper) GetBool(key string) bool       { return vc.v.GetBool(key) }
func (vc *Viper) GetInt(key string) int         { return vc.v.GetInt(key) }
func (vc *Viper) GetInt32(key string) int32     { return vc.v.GetInt32(key) }
func (vc *Viper) GetInt64(key string) int64     { return vc.v.GetInt64(key) }
func (vc *Viper) GetUint16(key string) uint16   { return vc.v.GetUint16(key) }
func (vc *Viper) GetFloat64(key string) float64 { return vc.v.GetFloat64(key) }

func (vc *Viper) GetBinary(key string) []byte {
	b, err := base64.StdEncoding.DecodeString(vc.v.GetString(key))
	if err != nil {
		return nil
	}
	return b
}

func (vc *Viper) GetArray(key string) []string {
	var items []string
	if s, ok := vc.v.Get(key).(string); ok {
		items = strings.Split(s, ",")
	} else {
		items = vc.v.GetStringSlice(key)
	}

	out := items[:0]
	for _, item := range items {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func (vc *Viper) GetMillisecond(key string) time.Duration { return vc.duration(key, time.Millisecond) }
func (vc *Viper) GetSecond(key string) time.Duration      { return vc.duration(key, time.Second) }
func (vc *Viper) GetMinute(key string) time.Duration      { return vc.duration(key, time.Minute) }
func (vc *Viper) GetHour(key string) time.Duration        { return vc.duration(key, time.Hour) }

func (vc *Viper) duration(key string, unit time.Duration) time.Duration {
	return time.Duration(vc.v.GetInt64(key)) * unit
}

// Close is a no-op; viper has no way to stop its file watcher.
func (vc *Viper) Close() error {
	return nil
}
