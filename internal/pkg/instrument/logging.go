package instrument

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"go.opentelemetry.io/contrib/bridges/otelslog"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	"go.opentelemetry.io/otel/trace"
)

// LogOptions configures NewLogger.
type LogOptions struct {
	Service string
	Level   slog.Level
	Masker  *Masker
	// Provider additionally ships records over OTLP when set.
	Provider *sdklog.LoggerProvider
}

// NewLogger writes JSON lines to w. Every record carries the service name
// and, when present in the context, the correlation id and trace ids.
func NewLogger(w io.Writer, opts LogOptions) *slog.Logger {
	sinks := []slog.Handler{slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level:       opts.Level,
		AddSource:   true,
		ReplaceAttr: renameAttr,
	})}
	if opts.Provider != nil {
		sinks = append(sinks, otelslog.NewHandler(opts.Service, otelslog.WithLoggerProvider(opts.Provider)))
	}

	return slog.New(&logHandler{sinks: sinks, masker: opts.Masker, service: opts.Service})
}

func renameAttr(_ []string, a slog.Attr) slog.Attr {
	switch a.Key {
	case slog.TimeKey:
		a.Key = "ts"
	case slog.LevelKey:
		a.Key = "severity"
	case slog.SourceKey:
		src, ok := a.Value.Any().(*slog.Source)
		if !ok {
			return a
		}
		_, rel, found := strings.Cut(src.File, "/internal/")
		if !found {
			return slog.Attr{}
		}
		return slog.String("file", fmt.Sprintf("internal/%s:%d", rel, src.Line))
	}
	return a
}

// logHandler masks attributes, enriches records from the context and fans
// them out to every sink.
type logHandler struct {
	sinks   []slog.Handler
	masker  *Masker
	service string
}

func (h *logHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, s := range h.sinks {
		if s.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (h *logHandler) Handle(ctx context.Context, r slog.Record) error {
	out := slog.NewRecord(r.Time, r.Level, r.Message, r.PC)
	r.Attrs(func(a slog.Attr) bool {
		out.AddAttrs(h.masker.Attr(a))
		return true
	})

	out.AddAttrs(slog.String("service", h.service))
	if cID := GetCorrelationID(ctx); cID != "" {
		out.AddAttrs(slog.String("_cID", cID))
	}
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		out.AddAttrs(slog.String("trace_id", sc.TraceID().String()), slog.String("span_id", sc.SpanID().String()))
	}

	var firstErr error
	for _, s := range h.sinks {
		if !s.Enabled(ctx, out.Level) {
			continue
		}
		if err := s.Handle(ctx, out.Clone()); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (h *logHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	masked := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		masked[i] = h.masker.Attr(a)
	}
	return h.derive(func(s slog.Handler) slog.Handler { return s.WithAttrs(masked) })
}

func (h *logHandler) WithGroup(name string) slog.Handler {
	return h.derive(func(s slog.Handler) slog.Handler { return s.WithGroup(name) })
}

func (h *logHandler) derive(fn func(slog.Handler) slog.Handler) slog.Handler {
	sinks := make([]slog.Handler, len(h.sinks))
	for i, s := range h.sinks {
		sinks[i] = fn(s)
	}
	return &logHandler{sinks: sinks, masker: h.masker, service: h.service}
}
