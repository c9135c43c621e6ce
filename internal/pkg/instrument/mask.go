package instrument

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"unicode/utf8"
)

const masked = "***"

// Masker hides the values of sensitive keys (passwords, passcodes, tokens)
// in log attributes, headers and request or response bodies. Keys match
// case-insensitively at any depth.
type Masker struct {
	keys map[string]struct{}
}

func NewMasker(fields []string) *Masker {
	keys := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		if f = strings.ToLower(strings.TrimSpace(f)); f != "" {
			keys[f] = struct{}{}
		}
	}
	return &Masker{keys: keys}
}

func (m *Masker) Sensitive(key string) bool {
	if m == nil {
		return false
	}
	_, ok := m.keys[strings.ToLower(key)]
	return ok
}

// Value masks decoded JSON-like data.
func (m *Masker) Value(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, v2 := range val {
			if m.Sensitive(k) {
				out[k] = masked
				continue
			}
			out[k] = m.Value(v2)
		}
		return out
	case map[string]string:
		out := make(map[string]any, len(val))
		for k, v2 := range val {
			out[k] = v2
		}
		return m.Value(out)
	case []any:
		out := make([]any, len(val))
		for i, v2 := range val {
			out[i] = m.Value(v2)
		}
		return out
	default:
		return v
	}
}

// Header returns a copy of h with sensitive headers masked.
func (m *Masker) Header(h http.Header) http.Header {
	out := h.Clone()
	for k := range out {
		if m.Sensitive(k) {
			out.Set(k, masked)
		}
	}
	return out
}

// Body decodes a JSON or form body and masks it. Other text is returned as
// is and binary content is omitted.
func (m *Masker) Body(contentType string, body []byte) any {
	if len(body) == 0 {
		return nil
	}

	var decoded any
	if json.Unmarshal(body, &decoded) == nil {
		return m.Value(decoded)
	}

	if strings.HasPrefix(strings.ToLower(contentType), "application/x-www-form-urlencoded") {
		if values, err := url.ParseQuery(string(body)); err == nil {
			form := make(map[string]any, len(values))
			for k, v := range values {
				form[k] = strings.Join(v, ",")
			}
			return m.Value(form)
		}
	}

	if !utf8.Valid(body) {
		return "<binary body omitted>"
	}
	return string(body)
}

// Attr masks one slog attribute, including groups and JSON strings such as
// a logged message body.
func (m *Masker) Attr(a slog.Attr) slog.Attr {
	if m.Sensitive(a.Key) {
		return slog.String(a.Key, masked)
	}

	switch a.Value.Kind() {
	case slog.KindGroup:
		group := a.Value.Group()
		out := make([]slog.Attr, len(group))
		for i, ga := range group {
			out[i] = m.Attr(ga)
		}
		a.Value = slog.GroupValue(out...)
	case slog.KindString:
		s := a.Value.String()
		if s != "" && (s[0] == '{' || s[0] == '[') {
			var decoded any
			if json.Unmarshal([]byte(s), &decoded) == nil {
				if b, err := json.Marshal(m.Value(decoded)); err == nil {
					a.Value = slog.StringValue(string(b))
				}
			}
		}
	case slog.KindAny:
		switch v := a.Value.Any().(type) {
		case map[string]any, map[string]string, []any:
			a.Value = slog.AnyValue(m.Value(v))
		}
	}
	return a
}
