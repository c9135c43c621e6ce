package usecase

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/shandysiswandi/fintrack/internal/identity/entity"
	"github.com/shandysiswandi/fintrack/internal/pkg/clock"
	"github.com/shandysiswandi/fintrack/internal/pkg/config"
	"github.com/shandysiswandi/fintrack/internal/pkg/goerror"
	"github.com/shandysiswandi/fintrack/internal/pkg/hash"
	"github.com/shandysiswandi/fintrack/internal/pkg/instrument"
	"github.com/shandysiswandi/fintrack/internal/pkg/jwt"
	"github.com/shandysiswandi/fintrack/internal/pkg/otp"
	"github.com/shandysiswandi/fintrack/internal/pkg/ratelimit"
	"github.com/shandysiswandi/fintrack/internal/pkg/storage"
	"github.com/shandysiswandi/fintrack/internal/pkg/uid"
	"github.com/shandysiswandi/fintrack/internal/pkg/validator"
	"github.com/shandysiswandi/fintrack/internal/pkg/valueobject"
	"go.opentelemetry.io/otel/trace"
)

type AccountVerifiedEvent struct {
	UserID   int64
	Email    string
	FullName string
	Language string
}

type AccountDeletedEvent struct {
	UserID int64
	Email  string
}

// PasscodeTemplate selects the email copy used to deliver a passcode.
type PasscodeTemplate int16

const (
	PasscodeTemplateSignupVerify PasscodeTemplate = 1
	PasscodeTemplateLogin        PasscodeTemplate = 2
	PasscodeTemplateNewCode      PasscodeTemplate = 3
)

type PasscodeDelivery struct {
	Email    string
	FullName string
	// Language is a BCP 47 tag; empty means the request language.
	Language  string
	Code      string
	Template  PasscodeTemplate
	ExpiresIn time.Duration
}

type repoMessaging interface {
	PublishAccountVerified(ctx context.Context, msg AccountVerifiedEvent) error
	PublishAccountDeleted(ctx context.Context, msg AccountDeletedEvent) error
}

type repoNotifier interface {
	SendPasscode(ctx context.Context, msg PasscodeDelivery) error
}

type roleManager interface {
	AddRoleForUser(user string, role string, domain ...string) (bool, error)
	DeleteRolesForUser(user string, domain ...string) (bool, error)
}

type repoDB interface {
	GetUserByEmail(ctx context.Context, email string, includeDeleted bool) (*entity.User, error)
	GetUserByID(ctx context.Context, id int64, includeDeleted bool) (*entity.User, error)
	GetUserCredentialInfo(ctx context.Context, email string) (*entity.UserCredentialInfo, error)
	GetUserCredentialInfoByID(ctx context.Context, id int64) (*entity.UserCredentialInfo, error)

	NewRegistration(ctx context.Context, user entity.NewUser, hash string) error
	ActivateUser(ctx context.Context, in entity.ActivateUser) error
	UpdateUserLastLogin(ctx context.Context, id int64, at time.Time) error
	UpdateUserProfile(ctx context.Context, id int64, fullName, phone string) error
	UpdateUserPreferences(ctx context.Context, id int64, prefs valueobject.JSONMap) error
	UpdateUserAvatar(ctx context.Context, id int64, avatarURL string) error
	UpdateUserCredential(ctx context.Context, userID int64, hash string) error
	MarkUserDeleted(ctx context.Context, id int64) error

	UpsertPasscode(ctx context.Context, p entity.Passcode) error
	GetPasscode(ctx context.Context, identifier string, purpose entity.PasscodePurpose) (*entity.Passcode, error)
	IncrementPasscodeAttempts(ctx context.Context, id int64, maxAttempts int32) (bool, error)
	ConsumePasscode(ctx context.Context, in entity.ConsumePasscode) (bool, error)
	DeletePasscode(ctx context.Context, id int64) error
	DeleteExpiredPasscodes(ctx context.Context, now time.Time) (int64, error)
}

type Usecase struct {
	repoDB        repoDB
	repoMessaging repoMessaging
	repoNotifier  repoNotifier
	validator     validator.Validator
	cfg           config.Config
	storage       storage.Storage
	limiter       ratelimit.Limiter
	hmac          hash.Hash
	password      hash.Hash
	passcode      otp.Generator
	uid           uid.NumberID
	uuid          uid.StringID
	clock         clock.Clocker
	jwt           jwt.JWT
	ins           instrument.Instrumentation
	roles         roleManager
}

type Dependency struct {
	RepoDB        repoDB
	RepoMessaging repoMessaging
	RepoNotifier  repoNotifier
	Validator     validator.Validator
	Config        config.Config
	Storage       storage.Storage
	Limiter       ratelimit.Limiter
	HMAC          hash.Hash
	Password      hash.Hash
	Passcode      otp.Generator
	UID           uid.NumberID
	UUID          uid.StringID
	Clock         clock.Clocker
	JWT           jwt.JWT
	Instrument    instrument.Instrumentation
	Roles         roleManager
}

func New(dep Dependency) *Usecase {
	return &Usecase{
		repoDB:        dep.RepoDB,
		repoMessaging: dep.RepoMessaging,
		repoNotifier:  dep.RepoNotifier,
		validator:     dep.Validator,
		cfg:           dep.Config,
		storage:       dep.Storage,
		limiter:       dep.Limiter,
		hmac:          dep.HMAC,
		password:      dep.Password,
		passcode:      dep.Passcode,
		uid:           dep.UID,
		uuid:          dep.UUID,
		clock:         dep.Clock,
		jwt:           dep.JWT,
		ins:           dep.Instrument,
		roles:         dep.Roles,
	}
}

func (s *Usecase) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("identity.usecase").Start(ctx, name)
}

func (s *Usecase) ensureUserStatusAllowed(ctx context.Context, userID int64, status entity.UserStatus) error {
	sts := status.Ensure()
	switch sts {
	case entity.UserStatusUnknown:
		slog.WarnContext(ctx, "user account status is unrecognized", "user_id", userID)
		return goerror.NewBusiness("account status is unrecognized", goerror.CodeForbidden)

	case entity.UserStatusUnverified:
		slog.WarnContext(ctx, "user account is unverified", "user_id", userID)
		return errNotVerified()

	case entity.UserStatusBanned:
		slog.WarnContext(ctx, "user account is banned", "user_id", userID)
		return goerror.NewBusiness("account is banned", goerror.CodeForbidden)

	case entity.UserStatusInactive:
		slog.WarnContext(ctx, "user account is deleted", "user_id", userID)
		return goerror.NewBusiness("account is deleted", goerror.CodeForbidden)

	default:
		return nil
	}
}

// currentUser loads the active account behind the bearer token in ctx.
func (s *Usecase) currentUser(ctx context.Context) (*entity.User, error) {
	clm := jwt.GetAuth(ctx)
	if clm == nil {
		return nil, goerror.NewBusiness("authentication required", goerror.CodeUnauthorized)
	}

	user, err := s.repoDB.GetUserByID(ctx, clm.UserID, false)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "user account not found", "user_id", clm.UserID)
		return nil, goerror.NewBusiness("authentication required", goerror.CodeUnauthorized)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get user by id", "user_id", clm.UserID, "error", err)
		return nil, goerror.NewServer(err)
	}

	if err := s.ensureUserStatusAllowed(ctx, user.ID, user.Status); err != nil {
		return nil, err
	}

	return user, nil
}
