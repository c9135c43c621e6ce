package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shandysiswandi/fintrack/internal/identity/entity"
	"github.com/shandysiswandi/fintrack/internal/pkg/goerror"
)

const (
	defaultPasscodeTTL         = 10 * time.Minute
	defaultPasscodeCooldown    = 60 * time.Second
	defaultPasscodeMaxAttempts = 3
)

type passcodePolicy struct {
	TTL         time.Duration
	Cooldown    time.Duration
	MaxAttempts int32
	HourlyLimit int64
}

func (s *Usecase) passcodePolicy() passcodePolicy {
	p := passcodePolicy{
		TTL:         s.cfg.GetMinute("modules.identity.passcode.ttl_minutes"),
		Cooldown:    s.cfg.GetSecond("modules.identity.passcode.resend_cooldown_seconds"),
		MaxAttempts: s.cfg.GetInt32("modules.identity.passcode.max_attempts"),
		HourlyLimit: s.cfg.GetInt64("modules.identity.passcode.hourly_limit"),
	}

	if p.TTL <= 0 {
		p.TTL = defaultPasscodeTTL
	}
	if p.Cooldown <= 0 || p.Cooldown >= p.TTL {
		p.Cooldown = defaultPasscodeCooldown
	}
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = defaultPasscodeMaxAttempts
	}

	return p
}

// passcodeMaterial binds a code to its owner so a stored hash is useless
// for any other (identifier, purpose) pair.
func passcodeMaterial(identifier string, purpose entity.PasscodePurpose, code string) string {
	return fmt.Sprintf("%s:%d:%s", identifier, purpose, code)
}

func templateFor(purpose entity.PasscodePurpose) PasscodeTemplate {
	if purpose == entity.PasscodePurposeLogin {
		return PasscodeTemplateLogin
	}
	return PasscodeTemplateSignupVerify
}

type issuePasscodeInput struct {
	Identifier string
	FullName   string
	Language   string
	Purpose    entity.PasscodePurpose
	Template   PasscodeTemplate
}

// issuePasscode replaces any record for the pair with a fresh code and
// delivers it. An undeliverable code is removed again.
func (s *Usecase) issuePasscode(ctx context.Context, in issuePasscodeInput) error {
	pol := s.passcodePolicy()

	allowed, err := s.limiter.Allow(ctx, "passcode:"+in.Identifier, pol.HourlyLimit, time.Hour)
	if err != nil {
		slog.ErrorContext(ctx, "failed to check passcode hourly limit", "identifier", in.Identifier, "error", err)
		allowed = true
	}
	if !allowed {
		slog.WarnContext(ctx, "passcode hourly limit reached", "identifier", in.Identifier)
		return goerror.NewBusinessWithFields("Too many verification codes requested. Please try again later",
			goerror.CodeTooManyRequest, keyOfReason, ReasonRateLimited)
	}

	code, err := s.passcode.Generate()
	if err != nil {
		slog.ErrorContext(ctx, "failed to generate passcode", "error", err)
		return goerror.NewServer(err)
	}

	codeHash, err := s.hmac.Hash(passcodeMaterial(in.Identifier, in.Purpose, code))
	if err != nil {
		slog.ErrorContext(ctx, "failed to hash passcode", "error", err)
		return goerror.NewServer(err)
	}

	now := s.clock.Now()
	rec := entity.Passcode{
		ID:         s.uid.Generate(),
		Identifier: in.Identifier,
		Purpose:    in.Purpose,
		CodeHash:   string(codeHash),
		CreatedAt:  now,
		ExpiresAt:  now.Add(pol.TTL),
	}

	if err := s.repoDB.UpsertPasscode(ctx, rec); err != nil {
		slog.ErrorContext(ctx, "failed to repo upsert passcode", "identifier", in.Identifier, "purpose", in.Purpose.String(), "error", err)
		return goerror.NewServer(err)
	}

	if err := s.repoNotifier.SendPasscode(ctx, PasscodeDelivery{
		Email:     in.Identifier,
		FullName:  in.FullName,
		Language:  in.Language,
		Code:      code,
		Template:  in.Template,
		ExpiresIn: pol.TTL,
	}); err != nil {
		slog.ErrorContext(ctx, "failed to deliver passcode", "identifier", in.Identifier, "purpose", in.Purpose.String(), "error", err)

		if dErr := s.repoDB.DeletePasscode(ctx, rec.ID); dErr != nil {
			slog.ErrorContext(ctx, "failed to repo delete undelivered passcode", "passcode_id", rec.ID, "error", dErr)
		}

		return errDeliveryFailed()
	}

	return nil
}

// ensureResendAllowed rejects a new code while the active one is still inside
// its cooldown, i.e. has more than ttl-cooldown of life left.
func (s *Usecase) ensureResendAllowed(ctx context.Context, identifier string, purpose entity.PasscodePurpose) error {
	rec, err := s.repoDB.GetPasscode(ctx, identifier, purpose)
	if errors.Is(err, goerror.ErrNotFound) {
		return nil
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get passcode", "identifier", identifier, "purpose", purpose.String(), "error", err)
		return goerror.NewServer(err)
	}

	now := s.clock.Now()
	if rec.IsConsumed() || rec.IsExpired(now) {
		return nil
	}

	pol := s.passcodePolicy()
	threshold := pol.TTL - pol.Cooldown
	remaining := rec.Remaining(now)
	if remaining <= threshold {
		return nil
	}

	wait := remaining - threshold
	retryAfter := int64(wait / time.Second)
	if wait%time.Second != 0 {
		retryAfter++
	}

	slog.WarnContext(ctx, "passcode requested within cooldown", "identifier", identifier, "purpose", purpose.String(), "retry_after_seconds", retryAfter)
	return errTooSoon(retryAfter)
}

// verifyPasscode checks a submitted code and consumes the record on match.
func (s *Usecase) verifyPasscode(ctx context.Context, identifier string, purpose entity.PasscodePurpose, code string) error {
	rec, err := s.repoDB.GetPasscode(ctx, identifier, purpose)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "passcode not found", "identifier", identifier, "purpose", purpose.String())
		return errPasscodeNotFound()
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get passcode", "identifier", identifier, "purpose", purpose.String(), "error", err)
		return goerror.NewServer(err)
	}

	pol := s.passcodePolicy()
	if err := s.checkPasscode(ctx, rec, pol); err != nil {
		return err
	}

	material := passcodeMaterial(identifier, purpose, code)
	if !s.hmac.Verify(rec.CodeHash, material) {
		if rec.PreviousCodeHash != "" && s.hmac.Verify(rec.PreviousCodeHash, material) {
			slog.WarnContext(ctx, "superseded passcode submitted", "passcode_id", rec.ID)
			return errPasscodeNotFound()
		}

		counted, err := s.repoDB.IncrementPasscodeAttempts(ctx, rec.ID, pol.MaxAttempts)
		if err != nil {
			slog.ErrorContext(ctx, "failed to repo increment passcode attempts", "passcode_id", rec.ID, "error", err)
			return goerror.NewServer(err)
		}
		if !counted {
			return s.recheckPasscode(ctx, rec.ID, identifier, purpose, pol)
		}

		slog.WarnContext(ctx, "passcode mismatch", "passcode_id", rec.ID, "attempts", rec.Attempts+1)
		return errPasscodeMismatch()
	}

	ok, err := s.repoDB.ConsumePasscode(ctx, entity.ConsumePasscode{
		ID:          rec.ID,
		CodeHash:    rec.CodeHash,
		MaxAttempts: pol.MaxAttempts,
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo consume passcode", "passcode_id", rec.ID, "error", err)
		return goerror.NewServer(err)
	}

	if !ok {
		slog.WarnContext(ctx, "passcode consumed or replaced concurrently", "passcode_id", rec.ID)
		return errPasscodeNotFound()
	}

	return nil
}

func (s *Usecase) checkPasscode(ctx context.Context, rec *entity.Passcode, pol passcodePolicy) error {
	if rec.IsConsumed() {
		slog.WarnContext(ctx, "passcode already consumed", "passcode_id", rec.ID)
		return errPasscodeNotFound()
	}

	if rec.IsExpired(s.clock.Now()) {
		slog.WarnContext(ctx, "passcode expired", "passcode_id", rec.ID)
		return errPasscodeExpired()
	}

	if rec.Attempts >= pol.MaxAttempts {
		slog.WarnContext(ctx, "passcode attempts exceeded", "passcode_id", rec.ID, "attempts", rec.Attempts)
		return errAttemptsExceeded()
	}

	return nil
}

// recheckPasscode explains a miss the store refused to count: a concurrent
// request consumed, replaced or exhausted the record in the meantime.
func (s *Usecase) recheckPasscode(ctx context.Context, id int64, identifier string, purpose entity.PasscodePurpose, pol passcodePolicy) error {
	rec, err := s.repoDB.GetPasscode(ctx, identifier, purpose)
	if errors.Is(err, goerror.ErrNotFound) {
		return errPasscodeNotFound()
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get passcode", "identifier", identifier, "purpose", purpose.String(), "error", err)
		return goerror.NewServer(err)
	}

	if rec.ID != id {
		slog.WarnContext(ctx, "passcode replaced concurrently", "passcode_id", id)
		return errPasscodeNotFound()
	}
	if err := s.checkPasscode(ctx, rec, pol); err != nil {
		return err
	}

	// Live by our clock but not by the store's.
	slog.WarnContext(ctx, "passcode miss not counted", "passcode_id", id)
	return errPasscodeExpired()
}

// SweepPasscodes deletes every expired or consumed passcode.
func (s *Usecase) SweepPasscodes(ctx context.Context) (int64, error) {
	ctx, span := s.startSpan(ctx, "SweepPasscodes")
	defer span.End()

	n, err := s.repoDB.DeleteExpiredPasscodes(ctx, s.clock.Now())
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo delete expired passcodes", "error", err)
		return 0, goerror.NewServer(err)
	}

	return n, nil
}
