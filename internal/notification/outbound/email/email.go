package email

import (
	"context"
	"log/slog"
	"time"

	"github.com/sethvargo/go-retry"
	"github.com/shandysiswandi/fintrack/internal/pkg/instrument"
	"github.com/shandysiswandi/fintrack/internal/pkg/mail"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const (
	defaultBackoff    = 500 * time.Millisecond
	defaultMaxRetries = 3
)

type Config struct {
	Client     mail.Mail
	Instrument instrument.Instrumentation
	// Backoff is the first wait between attempts; it doubles every retry.
	Backoff    time.Duration
	MaxRetries uint64
}

// Sender retries temporary mail failures with exponential backoff and gives
// up at once on permanent ones.
type Sender struct {
	client     mail.Mail
	ins        instrument.Instrumentation
	backoff    time.Duration
	maxRetries uint64
}

func New(cfg Config) *Sender {
	s := &Sender{client: cfg.Client, ins: cfg.Instrument, backoff: cfg.Backoff, maxRetries: cfg.MaxRetries}
	if s.backoff <= 0 {
		s.backoff = defaultBackoff
	}
	if s.maxRetries == 0 {
		s.maxRetries = defaultMaxRetries
	}
	return s
}

// Send returns how many attempts were made along with the last error.
func (s *Sender) Send(ctx context.Context, msg mail.Message) (int32, error) {
	ctx, span := s.ins.Tracer("notification.outbound.email").Start(ctx, "Send")
	defer span.End()

	var attempts int32
	b := retry.WithMaxRetries(s.maxRetries, retry.NewExponential(s.backoff))
	err := retry.Do(ctx, b, func(ctx context.Context) error {
		attempts++
		err := s.client.Send(ctx, msg)
		switch {
		case err == nil:
			return nil
		case mail.Permanent(err):
			return err
		default:
			slog.WarnContext(ctx, "email send attempt failed", "attempt", attempts, "error", err)
			return retry.RetryableError(err)
		}
	})

	span.SetAttributes(attribute.Int("mail.attempts", int(attempts)))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}

	return attempts, err
}
