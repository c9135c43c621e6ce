package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/shandysiswandi/fintrack/internal/notification/entity"
	"github.com/shandysiswandi/fintrack/internal/pkg/clock"
	"github.com/shandysiswandi/fintrack/internal/pkg/config"
	"github.com/shandysiswandi/fintrack/internal/pkg/goerror"
	"github.com/shandysiswandi/fintrack/internal/pkg/i18n"
	"github.com/shandysiswandi/fintrack/internal/pkg/instrument"
	"github.com/shandysiswandi/fintrack/internal/pkg/jwt"
	"github.com/shandysiswandi/fintrack/internal/pkg/mail"
	"github.com/shandysiswandi/fintrack/internal/pkg/uid"
	"github.com/shandysiswandi/fintrack/internal/pkg/validator"
	"go.opentelemetry.io/otel/trace"
)

type repoDB interface {
	GetTemplate(ctx context.Context, tk entity.TriggerKey, ch entity.Channel) (*entity.Template, error)
	CreateNotification(ctx context.Context, n entity.Notification, ch entity.Channel) (int64, error)
	FinishDelivery(ctx context.Context, d entity.Delivery) error

	ListInbox(ctx context.Context, q entity.InboxQuery) (*entity.InboxPage, error)
	UpdateInbox(ctx context.Context, userID, id int64, change entity.InboxChange) (int64, error)
	PurgeInbox(ctx context.Context, userID int64) (int64, error)
}

type repoMail interface {
	Send(ctx context.Context, msg mail.Message) (int32, error)
}

type Usecase struct {
	repoDB     repoDB
	repoMail   repoMail
	cfg        config.Config
	uid        uid.NumberID
	clock      clock.Clocker
	validator  validator.Validator
	translator *i18n.Translator
	ins        instrument.Instrumentation
}

type Dependency struct {
	RepoDB     repoDB
	RepoMail   repoMail
	Config     config.Config
	UID        uid.NumberID
	Clock      clock.Clocker
	Validator  validator.Validator
	Translator *i18n.Translator
	Instrument instrument.Instrumentation
}

func NewNotification(dep Dependency) *Usecase {
	return &Usecase{
		repoDB:     dep.RepoDB,
		repoMail:   dep.RepoMail,
		cfg:        dep.Config,
		uid:        dep.UID,
		clock:      dep.Clock,
		validator:  dep.Validator,
		translator: dep.Translator,
		ins:        dep.Instrument,
	}
}

func (s *Usecase) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("notification.usecase").Start(ctx, name)
}

func (s *Usecase) currentUser(ctx context.Context) (int64, error) {
	if clm := jwt.GetAuth(ctx); clm != nil {
		return clm.UserID, nil
	}
	return 0, goerror.NewBusiness("authentication required", goerror.CodeUnauthorized)
}

// template returns nil when the trigger has no template for the channel, so
// the caller skips that channel.
func (s *Usecase) template(ctx context.Context, tk entity.TriggerKey, ch entity.Channel) *entity.Template {
	tpl, err := s.repoDB.GetTemplate(ctx, tk, ch)
	switch {
	case errors.Is(err, goerror.ErrNotFound):
		slog.WarnContext(ctx, "notification template not found", "trigger_key", tk, "channel", ch.String())
		return nil
	case err != nil:
		slog.ErrorContext(ctx, "failed to repo get template", "trigger_key", tk, "channel", ch.String(), "error", err)
		return nil
	default:
		return tpl
	}
}
