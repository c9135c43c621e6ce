// Package valueobject holds small value types shared by entities and
// persisted as-is.
package valueobject

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"maps"
)

// JSONMap is a free-form JSON object stored in a jsonb column.
// @swaggertype object
type JSONMap map[string]any

func (j JSONMap) Value() (driver.Value, error) {
	if j == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(j)
}

// Scan accepts raw JSON (bytes or string) and maps pgx already decoded.
// NULL scans into an empty map.
func (j *JSONMap) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*j = JSONMap{}
		return nil
	case map[string]any:
		*j = v
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("valueobject: cannot scan %T into JSONMap", src)
	}

	out := JSONMap{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return err
	}
	*j = out
	return nil
}

func (j JSONMap) Set(key string, value any) {
	j[key] = value
}

// GetString returns "" when key is missing or not a string.
func (j JSONMap) GetString(key string) string {
	s, _ := j[key].(string)
	return s
}

// Merge returns a copy of j overlaid with src. Nested objects are merged one
// level deep so a patch of {"notifications":{"push":true}} keeps the other
// notification flags.
func (j JSONMap) Merge(src JSONMap) JSONMap {
	out := maps.Clone(j)
	if out == nil {
		out = JSONMap{}
	}

	for k, v := range src {
		patch, ok := v.(map[string]any)
		if !ok {
			out[k] = v
			continue
		}
		base, _ := out[k].(map[string]any)
		merged := maps.Clone(base)
		if merged == nil {
			merged = make(map[string]any, len(patch))
		}
		maps.Copy(merged, patch)
		out[k] = merged
	}
	return out
}
