package usecase

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shandysiswandi/fintrack/internal/identity/entity"
	"github.com/shandysiswandi/fintrack/internal/pkg/config"
	"github.com/shandysiswandi/fintrack/internal/pkg/goerror"
	"github.com/shandysiswandi/fintrack/internal/pkg/hash"
	"github.com/shandysiswandi/fintrack/internal/pkg/i18n"
	"github.com/shandysiswandi/fintrack/internal/pkg/instrument"
	"github.com/shandysiswandi/fintrack/internal/pkg/jwt"
	"github.com/shandysiswandi/fintrack/internal/pkg/otp"
	"github.com/shandysiswandi/fintrack/internal/pkg/uid"
	"github.com/shandysiswandi/fintrack/internal/pkg/validator"
	"github.com/shandysiswandi/fintrack/internal/shared/constant"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"
)

const testConfig = `
jwt:
  ttl_minutes: 10080
modules:
  identity:
    passcode:
      ttl_minutes: 10
      resend_cooldown_seconds: 60
      max_attempts: 3
      hourly_limit: 0
    reauth_limit: 3
    avatar_bucket: avatars
    avatar_base_url: https://cdn.local/avatars/
    avatar_max_size_bytes: 16
`

const testPassword = "correct-horse-battery"

type harness struct {
	uc       *Usecase
	db       *fakeDB
	notifier *fakeNotifier
	mq       *fakeMessaging
	storage  *fakeStorage
	roles    *fakeRoles
	clock    *fakeClock
	jwt      jwt.JWT
	password hash.Hash
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	cfg, err := config.NewViperFromBytes("yaml", []byte(testConfig))
	require.NoError(t, err)

	v, err := validator.NewV10Validator()
	require.NoError(t, err)

	clk := &fakeClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}

	tokens, err := jwt.NewHS512(jwt.Config{
		Secret:    []byte("0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef"),
		Issuer:    "fintrack",
		Audiences: []string{"fintrack-web"},
		TTL:       7 * 24 * time.Hour,
		Clock:     clk,
		UUID:      uid.NewUUID(),
	})
	require.NoError(t, err)

	h := &harness{
		db:       newFakeDB(),
		notifier: &fakeNotifier{},
		mq:       &fakeMessaging{},
		storage:  newFakeStorage(),
		roles:    &fakeRoles{},
		clock:    clk,
		jwt:      tokens,
		password: hash.NewBcrypt(4, ""),
	}
	h.db.now = clk.Now

	h.uc = New(Dependency{
		RepoDB:        h.db,
		RepoMessaging: h.mq,
		RepoNotifier:  h.notifier,
		Validator:     v,
		Config:        cfg,
		Limiter:       &fakeLimiter{},
		HMAC:          hash.NewHMACSHA256("passcode-secret"),
		Password:      h.password,
		Passcode:      otp.NewNumeric(6),
		UID:           &seqID{next: 100},
		UUID:          uid.NewUUID(),
		Clock:         clk,
		JWT:           tokens,
		Instrument:    instrument.NewNoop(),
		Roles:         h.roles,
		Storage:       h.storage,
	})

	return h
}

func (h *harness) seedUser(t *testing.T, id int64, email string, status entity.UserStatus) {
	t.Helper()

	hashed, err := h.password.Hash(testPassword)
	require.NoError(t, err)

	require.NoError(t, h.db.NewRegistration(context.Background(), entity.NewUser{
		ID:          id,
		Email:       email,
		FullName:    "Jane Doe",
		Status:      status,
		Preferences: entity.DefaultPreferences(),
	}, string(hashed)))
}

// startLogin runs the password step and returns the delivered login code.
func (h *harness) startLogin(t *testing.T, email string) string {
	t.Helper()

	out, err := h.uc.PasswordLogin(context.Background(), PasswordLoginInput{Email: email, Password: testPassword})
	require.NoError(t, err)
	require.True(t, out.RequiresOTP)

	return h.notifier.last().Code
}

func reasonOf(t *testing.T, err error) string {
	t.Helper()

	var gerr *goerror.Error
	require.ErrorAs(t, err, &gerr)
	return gerr.Fields()[keyOfReason]
}

func wrongCode(code string) string {
	if code == "000000" {
		return "111111"
	}
	return "000000"
}

func TestUsecase_PasswordLogin(t *testing.T) {
	t.Run("unknown email and wrong password look the same", func(t *testing.T) {
		// Arrange
		h := newHarness(t)
		h.seedUser(t, 1, "jane@example.com", entity.UserStatusActive)

		// Act
		_, errUnknown := h.uc.PasswordLogin(context.Background(), PasswordLoginInput{Email: "nobody@example.com", Password: testPassword})
		_, errWrong := h.uc.PasswordLogin(context.Background(), PasswordLoginInput{Email: "jane@example.com", Password: "not-the-password"})

		// Assert
		assert.Equal(t, ReasonInvalidCredentials, reasonOf(t, errUnknown))
		assert.Equal(t, ReasonInvalidCredentials, reasonOf(t, errWrong))
		assert.Equal(t, errUnknown.Error(), errWrong.Error())
		assert.Zero(t, h.notifier.count())
	})

	t.Run("valid credentials send a login code but no session", func(t *testing.T) {
		// Arrange
		h := newHarness(t)
		h.seedUser(t, 1, "jane@example.com", entity.UserStatusActive)

		// Act
		out, err := h.uc.PasswordLogin(context.Background(), PasswordLoginInput{Email: " Jane@Example.com ", Password: testPassword})

		// Assert
		require.NoError(t, err)
		assert.True(t, out.RequiresOTP)
		assert.Equal(t, 10*time.Minute, out.ExpiresIn)

		sent := h.notifier.last()
		assert.Equal(t, "jane@example.com", sent.Email)
		assert.Equal(t, PasscodeTemplateLogin, sent.Template)
		assert.Len(t, sent.Code, 6)
		assert.NotNil(t, h.db.passcode("jane@example.com", entity.PasscodePurposeLogin))
	})

	t.Run("unverified account gets a signup code and not verified", func(t *testing.T) {
		// Arrange
		h := newHarness(t)
		h.seedUser(t, 1, "jane@example.com", entity.UserStatusUnverified)

		// Act
		out, err := h.uc.PasswordLogin(context.Background(), PasswordLoginInput{Email: "jane@example.com", Password: testPassword})

		// Assert
		assert.Nil(t, out)
		assert.Equal(t, ReasonNotVerified, reasonOf(t, err))
		assert.Equal(t, PasscodeTemplateSignupVerify, h.notifier.last().Template)
		assert.NotNil(t, h.db.passcode("jane@example.com", entity.PasscodePurposeSignupVerify))
		assert.Nil(t, h.db.passcode("jane@example.com", entity.PasscodePurposeLogin))
	})

	t.Run("banned account is forbidden", func(t *testing.T) {
		// Arrange
		h := newHarness(t)
		h.seedUser(t, 1, "jane@example.com", entity.UserStatusBanned)

		// Act
		_, err := h.uc.PasswordLogin(context.Background(), PasswordLoginInput{Email: "jane@example.com", Password: testPassword})

		// Assert
		var gerr *goerror.Error
		require.ErrorAs(t, err, &gerr)
		assert.Equal(t, goerror.CodeForbidden, gerr.Code())
		assert.Zero(t, h.notifier.count())
	})

	t.Run("delivery failure removes the record", func(t *testing.T) {
		// Arrange
		h := newHarness(t)
		h.seedUser(t, 1, "jane@example.com", entity.UserStatusActive)
		h.notifier.fail = true

		// Act
		_, err := h.uc.PasswordLogin(context.Background(), PasswordLoginInput{Email: "jane@example.com", Password: testPassword})

		// Assert
		assert.Equal(t, ReasonDeliveryFailed, reasonOf(t, err))
		assert.Nil(t, h.db.passcode("jane@example.com", entity.PasscodePurposeLogin))
	})

	t.Run("codes follow the account language", func(t *testing.T) {
		// Arrange
		h := newHarness(t)
		h.seedUser(t, 1, "jane@example.com", entity.UserStatusActive)
		h.seedUser(t, 2, "new@example.com", entity.UserStatusUnverified)
		h.db.users[1].Preferences["language"] = "id"
		h.db.users[2].Preferences["language"] = "id"

		// Act
		_, errLogin := h.uc.PasswordLogin(context.Background(), PasswordLoginInput{Email: "jane@example.com", Password: testPassword})
		login := h.notifier.last()
		_, errPending := h.uc.PasswordLogin(context.Background(), PasswordLoginInput{Email: "new@example.com", Password: testPassword})
		pending := h.notifier.last()

		// Assert
		require.NoError(t, errLogin)
		assert.Equal(t, PasscodeTemplateLogin, login.Template)
		assert.Equal(t, "id", login.Language)
		assert.Equal(t, ReasonNotVerified, reasonOf(t, errPending))
		assert.Equal(t, PasscodeTemplateSignupVerify, pending.Template)
		assert.Equal(t, "id", pending.Language)
	})
}

func TestUsecase_VerifyOTP(t *testing.T) {
	t.Run("correct login code returns a session for the user", func(t *testing.T) {
		// Arrange
		h := newHarness(t)
		h.seedUser(t, 7, "jane@example.com", entity.UserStatusActive)
		code := h.startLogin(t, "jane@example.com")

		// Act
		out, err := h.uc.VerifyOTP(context.Background(), VerifyOTPInput{
			Email:   "jane@example.com",
			Purpose: entity.PasscodePurposeLogin,
			Code:    code,
		})

		// Assert
		require.NoError(t, err)
		assert.Equal(t, "Bearer", out.TokenType)
		assert.Equal(t, int64(7), out.User.ID)
		assert.Equal(t, h.clock.Now().Add(7*24*time.Hour), out.ExpiresAt)

		clm, err := h.jwt.Verify(out.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, int64(7), clm.UserID)
		assert.Equal(t, "jane@example.com", clm.UserEmail)

		user, err := h.db.GetUserByID(context.Background(), 7, false)
		require.NoError(t, err)
		require.NotNil(t, user.LastLoginAt)
		assert.Equal(t, h.clock.Now(), *user.LastLoginAt)
	})

	t.Run("replayed code is not found", func(t *testing.T) {
		// Arrange
		h := newHarness(t)
		h.seedUser(t, 7, "jane@example.com", entity.UserStatusActive)
		code := h.startLogin(t, "jane@example.com")
		in := VerifyOTPInput{Email: "jane@example.com", Purpose: entity.PasscodePurposeLogin, Code: code}
		_, err := h.uc.VerifyOTP(context.Background(), in)
		require.NoError(t, err)

		// Act
		out, err := h.uc.VerifyOTP(context.Background(), in)

		// Assert
		assert.Nil(t, out)
		assert.Equal(t, ReasonPasscodeNotFound, reasonOf(t, err))
	})

	t.Run("expired code", func(t *testing.T) {
		// Arrange
		h := newHarness(t)
		h.seedUser(t, 7, "jane@example.com", entity.UserStatusActive)
		code := h.startLogin(t, "jane@example.com")
		h.clock.Advance(10*time.Minute + time.Second)

		// Act
		_, err := h.uc.VerifyOTP(context.Background(), VerifyOTPInput{
			Email:   "jane@example.com",
			Purpose: entity.PasscodePurposeLogin,
			Code:    code,
		})

		// Assert
		assert.Equal(t, ReasonPasscodeExpired, reasonOf(t, err))
	})

	t.Run("three misses lock the code even for the right answer", func(t *testing.T) {
		// Arrange
		h := newHarness(t)
		h.seedUser(t, 7, "jane@example.com", entity.UserStatusActive)
		code := h.startLogin(t, "jane@example.com")
		bad := VerifyOTPInput{Email: "jane@example.com", Purpose: entity.PasscodePurposeLogin, Code: wrongCode(code)}

		for i := 0; i < 3; i++ {
			_, err := h.uc.VerifyOTP(context.Background(), bad)
			assert.Equal(t, ReasonPasscodeMismatch, reasonOf(t, err))
		}

		// Act
		_, err := h.uc.VerifyOTP(context.Background(), VerifyOTPInput{
			Email:   "jane@example.com",
			Purpose: entity.PasscodePurposeLogin,
			Code:    code,
		})

		// Assert
		assert.Equal(t, ReasonAttemptsExceeded, reasonOf(t, err))
		assert.Equal(t, int32(3), h.db.passcode("jane@example.com", entity.PasscodePurposeLogin).Attempts)
	})

	t.Run("reissue invalidates the previous code", func(t *testing.T) {
		// Arrange
		h := newHarness(t)
		h.seedUser(t, 7, "jane@example.com", entity.UserStatusActive)
		first := h.startLogin(t, "jane@example.com")
		second := h.startLogin(t, "jane@example.com")
		if first == second {
			t.Skip("generator produced the same code twice")
		}

		// Act
		_, errFirst := h.uc.VerifyOTP(context.Background(), VerifyOTPInput{
			Email:   "jane@example.com",
			Purpose: entity.PasscodePurposeLogin,
			Code:    first,
		})
		out, errSecond := h.uc.VerifyOTP(context.Background(), VerifyOTPInput{
			Email:   "jane@example.com",
			Purpose: entity.PasscodePurposeLogin,
			Code:    second,
		})

		// Assert
		assert.Equal(t, ReasonPasscodeNotFound, reasonOf(t, errFirst))
		require.NoError(t, errSecond)
		assert.NotEmpty(t, out.AccessToken)
	})

	t.Run("code for another purpose does not match", func(t *testing.T) {
		// Arrange
		h := newHarness(t)
		h.seedUser(t, 7, "jane@example.com", entity.UserStatusActive)
		code := h.startLogin(t, "jane@example.com")

		// Act
		_, err := h.uc.VerifyOTP(context.Background(), VerifyOTPInput{
			Email:   "jane@example.com",
			Purpose: entity.PasscodePurposeSignupVerify,
			Code:    code,
		})

		// Assert
		assert.Equal(t, ReasonPasscodeNotFound, reasonOf(t, err))
	})

	t.Run("concurrent verifies succeed exactly once", func(t *testing.T) {
		// Arrange
		h := newHarness(t)
		h.seedUser(t, 7, "jane@example.com", entity.UserStatusActive)
		code := h.startLogin(t, "jane@example.com")
		in := VerifyOTPInput{Email: "jane@example.com", Purpose: entity.PasscodePurposeLogin, Code: code}

		var (
			wg      sync.WaitGroup
			mu      sync.Mutex
			success int
		)

		// Act
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if _, err := h.uc.VerifyOTP(context.Background(), in); err == nil {
					mu.Lock()
					success++
					mu.Unlock()
				}
			}()
		}
		wg.Wait()

		// Assert
		assert.Equal(t, 1, success)
	})

	t.Run("signup code activates the account", func(t *testing.T) {
		// Arrange
		h := newHarness(t)
		h.seedUser(t, 9, "new@example.com", entity.UserStatusUnverified)
		_, err := h.uc.PasswordLogin(context.Background(), PasswordLoginInput{Email: "new@example.com", Password: testPassword})
		require.Equal(t, ReasonNotVerified, reasonOf(t, err))
		code := h.notifier.last().Code

		// Act
		out, err := h.uc.VerifyOTP(context.Background(), VerifyOTPInput{
			Email:   "new@example.com",
			Purpose: entity.PasscodePurposeSignupVerify,
			Code:    code,
		})

		// Assert
		require.NoError(t, err)
		assert.Equal(t, int64(9), out.User.ID)

		user, err := h.db.GetUserByID(context.Background(), 9, false)
		require.NoError(t, err)
		assert.Equal(t, entity.UserStatusActive, user.Status)
		assert.Equal(t, []string{constant.RoleMember}, h.roles.roles[strconv.FormatInt(9, 10)])
		require.Len(t, h.mq.verified, 1)
		assert.Equal(t, "new@example.com", h.mq.verified[0].Email)
	})

	t.Run("miss racing the last attempt never passes the cap", func(t *testing.T) {
		// Arrange
		h := newHarness(t)
		h.seedUser(t, 7, "jane@example.com", entity.UserStatusActive)
		code := h.startLogin(t, "jane@example.com")
		bad := VerifyOTPInput{Email: "jane@example.com", Purpose: entity.PasscodePurposeLogin, Code: wrongCode(code)}
		for i := 0; i < 2; i++ {
			_, err := h.uc.VerifyOTP(context.Background(), bad)
			require.Equal(t, ReasonPasscodeMismatch, reasonOf(t, err))
		}
		// another request spends the last attempt between our read and our write
		h.db.beforeMiss = func(p *entity.Passcode) { p.Attempts = 3 }

		// Act
		_, err := h.uc.VerifyOTP(context.Background(), bad)

		// Assert
		assert.Equal(t, ReasonAttemptsExceeded, reasonOf(t, err))
		assert.Equal(t, int32(3), h.db.passcode("jane@example.com", entity.PasscodePurposeLogin).Attempts)
	})

	t.Run("miss racing a successful verify is not found", func(t *testing.T) {
		// Arrange
		h := newHarness(t)
		h.seedUser(t, 7, "jane@example.com", entity.UserStatusActive)
		code := h.startLogin(t, "jane@example.com")
		h.db.beforeMiss = func(p *entity.Passcode) {
			now := h.clock.Now()
			p.ConsumedAt = &now
		}

		// Act
		_, err := h.uc.VerifyOTP(context.Background(), VerifyOTPInput{
			Email:   "jane@example.com",
			Purpose: entity.PasscodePurposeLogin,
			Code:    wrongCode(code),
		})

		// Assert
		assert.Equal(t, ReasonPasscodeNotFound, reasonOf(t, err))
		assert.Zero(t, h.db.passcode("jane@example.com", entity.PasscodePurposeLogin).Attempts)
	})

	t.Run("code length follows the generator", func(t *testing.T) {
		// Arrange
		h := newHarness(t)
		h.uc.passcode = otp.NewNumeric(8)
		h.seedUser(t, 7, "jane@example.com", entity.UserStatusActive)
		code := h.startLogin(t, "jane@example.com")
		require.Len(t, code, 8)

		// Act
		_, errShort := h.uc.VerifyOTP(context.Background(), VerifyOTPInput{
			Email:   "jane@example.com",
			Purpose: entity.PasscodePurposeLogin,
			Code:    code[:6],
		})
		out, err := h.uc.VerifyOTP(context.Background(), VerifyOTPInput{
			Email:   "jane@example.com",
			Purpose: entity.PasscodePurposeLogin,
			Code:    code,
		})

		// Assert
		var verr validator.V10ValidationError
		require.ErrorAs(t, errShort, &verr)
		assert.Equal(t, "code must be 8 digits", verr["code"])
		require.NoError(t, err)
		assert.Equal(t, int64(7), out.User.ID)
	})

	t.Run("invalid code format", func(t *testing.T) {
		// Arrange
		h := newHarness(t)

		// Act
		_, err := h.uc.VerifyOTP(context.Background(), VerifyOTPInput{
			Email:   "jane@example.com",
			Purpose: entity.PasscodePurposeLogin,
			Code:    "12ab56",
		})

		// Assert
		var gerr *goerror.Error
		require.ErrorAs(t, err, &gerr)
		assert.Equal(t, goerror.TypeValidation, gerr.Type())
	})
}

func TestUsecase_RequestOTP(t *testing.T) {
	t.Run("resend inside cooldown reports the wait", func(t *testing.T) {
		// Arrange
		h := newHarness(t)
		h.seedUser(t, 7, "jane@example.com", entity.UserStatusActive)
		h.startLogin(t, "jane@example.com")
		h.clock.Advance(30 * time.Second)

		// Act
		err := h.uc.RequestOTP(context.Background(), RequestOTPInput{Email: "jane@example.com", Purpose: entity.PasscodePurposeLogin})

		// Assert
		var gerr *goerror.Error
		require.ErrorAs(t, err, &gerr)
		assert.Equal(t, goerror.CodeTooManyRequest, gerr.Code())
		assert.Equal(t, ReasonTooSoon, gerr.Fields()[keyOfReason])
		assert.Equal(t, "30", gerr.Fields()["retry_after_seconds"])
	})

	t.Run("resend after cooldown replaces the code", func(t *testing.T) {
		// Arrange
		h := newHarness(t)
		h.seedUser(t, 7, "jane@example.com", entity.UserStatusActive)
		h.startLogin(t, "jane@example.com")
		h.clock.Advance(61 * time.Second)

		// Act
		err := h.uc.RequestOTP(context.Background(), RequestOTPInput{Email: "jane@example.com", Purpose: entity.PasscodePurposeResend})

		// Assert
		require.NoError(t, err)
		assert.Equal(t, 2, h.notifier.count())
		assert.Equal(t, PasscodeTemplateNewCode, h.notifier.last().Template)

		rec := h.db.passcode("jane@example.com", entity.PasscodePurposeLogin)
		require.NotNil(t, rec)
		assert.Equal(t, h.clock.Now().Add(10*time.Minute), rec.ExpiresAt)
	})

	t.Run("login code without the password step", func(t *testing.T) {
		// Arrange
		h := newHarness(t)
		h.seedUser(t, 7, "jane@example.com", entity.UserStatusActive)

		// Act
		err := h.uc.RequestOTP(context.Background(), RequestOTPInput{Email: "jane@example.com", Purpose: entity.PasscodePurposeLogin})

		// Assert
		assert.Equal(t, ReasonPasscodeNotFound, reasonOf(t, err))
		assert.Zero(t, h.notifier.count())
	})

	t.Run("resend for unverified account goes to the signup flow", func(t *testing.T) {
		// Arrange
		h := newHarness(t)
		h.seedUser(t, 9, "new@example.com", entity.UserStatusUnverified)

		// Act
		err := h.uc.RequestOTP(context.Background(), RequestOTPInput{Email: "new@example.com", Purpose: entity.PasscodePurposeResend})

		// Assert
		require.NoError(t, err)
		assert.NotNil(t, h.db.passcode("new@example.com", entity.PasscodePurposeSignupVerify))
		assert.Nil(t, h.db.passcode("new@example.com", entity.PasscodePurposeResend))
	})

	t.Run("unknown email is accepted silently for signup codes", func(t *testing.T) {
		// Arrange
		h := newHarness(t)

		// Act
		err := h.uc.RequestOTP(context.Background(), RequestOTPInput{Email: "ghost@example.com", Purpose: entity.PasscodePurposeSignupVerify})

		// Assert
		require.NoError(t, err)
		assert.Zero(t, h.notifier.count())
	})
}

func TestUsecase_Signup(t *testing.T) {
	t.Run("creates an unverified account and sends a code", func(t *testing.T) {
		// Arrange
		h := newHarness(t)

		// Act
		out, err := h.uc.Signup(context.Background(), SignupInput{
			Email:    "Jane@Example.com",
			Password: testPassword,
			FullName: "Jane Doe",
		})

		// Assert
		require.NoError(t, err)
		assert.Equal(t, "jane@example.com", out.Email)

		user, err := h.db.GetUserByID(context.Background(), out.UserID, false)
		require.NoError(t, err)
		assert.Equal(t, entity.UserStatusUnverified, user.Status)
		assert.Equal(t, "USD", user.Preferences["currency"])
		assert.Equal(t, PasscodeTemplateSignupVerify, h.notifier.last().Template)
	})

	t.Run("request language becomes the account language", func(t *testing.T) {
		// Arrange
		h := newHarness(t)
		ctx := i18n.WithLanguage(context.Background(), language.Indonesian)

		// Act
		out, err := h.uc.Signup(ctx, SignupInput{
			Email:    "budi@example.com",
			Password: testPassword,
			FullName: "Budi Santoso",
		})

		// Assert
		require.NoError(t, err)
		user, err := h.db.GetUserByID(context.Background(), out.UserID, false)
		require.NoError(t, err)
		assert.Equal(t, "id", user.Preferences.GetString("language"))
		assert.Equal(t, "id", h.notifier.last().Language)
	})

	t.Run("duplicate email conflicts", func(t *testing.T) {
		// Arrange
		h := newHarness(t)
		h.seedUser(t, 1, "jane@example.com", entity.UserStatusActive)

		// Act
		_, err := h.uc.Signup(context.Background(), SignupInput{
			Email:    "jane@example.com",
			Password: testPassword,
			FullName: "Jane Doe",
		})

		// Assert
		var gerr *goerror.Error
		require.ErrorAs(t, err, &gerr)
		assert.Equal(t, goerror.CodeConflict, gerr.Code())
	})
}

func TestUsecase_Refresh(t *testing.T) {
	t.Run("valid token is exchanged", func(t *testing.T) {
		// Arrange
		h := newHarness(t)
		h.seedUser(t, 7, "jane@example.com", entity.UserStatusActive)
		token, err := h.jwt.Generate(7, "jane@example.com")
		require.NoError(t, err)
		h.clock.Advance(time.Hour)

		// Act
		out, err := h.uc.Refresh(context.Background(), RefreshInput{Token: token})

		// Assert
		require.NoError(t, err)
		assert.NotEqual(t, token, out.AccessToken)
		assert.Equal(t, int64(7), out.User.ID)
	})

	t.Run("expired token is unauthorized", func(t *testing.T) {
		// Arrange
		h := newHarness(t)
		h.seedUser(t, 7, "jane@example.com", entity.UserStatusActive)
		token, err := h.jwt.Generate(7, "jane@example.com")
		require.NoError(t, err)
		h.clock.Advance(8 * 24 * time.Hour)

		// Act
		_, err = h.uc.Refresh(context.Background(), RefreshInput{Token: token})

		// Assert
		assert.Equal(t, ReasonUnauthorized, reasonOf(t, err))
	})

	t.Run("malformed or missing token is unauthorized", func(t *testing.T) {
		// Arrange
		h := newHarness(t)

		// Act
		_, errBad := h.uc.Refresh(context.Background(), RefreshInput{Token: "not-a-jwt"})
		_, errEmpty := h.uc.Refresh(context.Background(), RefreshInput{})

		// Assert
		assert.Equal(t, ReasonUnauthorized, reasonOf(t, errBad))
		assert.Equal(t, ReasonUnauthorized, reasonOf(t, errEmpty))
	})
}

func TestUsecase_SweepPasscodes(t *testing.T) {
	// Arrange
	h := newHarness(t)
	h.seedUser(t, 7, "jane@example.com", entity.UserStatusActive)
	h.seedUser(t, 8, "john@example.com", entity.UserStatusActive)
	h.startLogin(t, "jane@example.com")
	h.clock.Advance(9 * time.Minute)
	h.startLogin(t, "john@example.com")
	h.clock.Advance(2 * time.Minute)

	// Act
	n, err := h.uc.SweepPasscodes(context.Background())

	// Assert
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.Nil(t, h.db.passcode("jane@example.com", entity.PasscodePurposeLogin))
	assert.NotNil(t, h.db.passcode("john@example.com", entity.PasscodePurposeLogin))
}

func TestUsecase_ProfileAvatar(t *testing.T) {
	h := newHarness(t)
	h.seedUser(t, 7, "jane@example.com", entity.UserStatusActive)
	ctx := jwt.SetAuth(context.Background(), jwt.Claims{UserID: 7, UserEmail: "jane@example.com"})

	avatarURL := func() string {
		u, err := h.db.GetUserByID(ctx, 7, false)
		require.NoError(t, err)
		return u.AvatarURL
	}

	t.Run("rejects an unsupported type", func(t *testing.T) {
		// Act
		err := h.uc.ProfileUpdateAvatar(ctx, ProfileUpdateAvatarInput{File: strings.NewReader("GIF89a"), ContentType: "image/gif"})

		// Assert
		var gerr *goerror.Error
		require.ErrorAs(t, err, &gerr)
		assert.Equal(t, goerror.CodeInvalidInput, gerr.Code())
		assert.Empty(t, h.storage.keys())
	})

	t.Run("rejects a file over the limit", func(t *testing.T) {
		// Act
		err := h.uc.ProfileUpdateAvatar(ctx, ProfileUpdateAvatarInput{File: strings.NewReader(strings.Repeat("x", 17)), ContentType: "image/png"})

		// Assert
		var gerr *goerror.Error
		require.ErrorAs(t, err, &gerr)
		assert.Equal(t, "avatar exceeds max size", gerr.Fields()["avatar"])
		assert.Empty(t, h.storage.keys())
	})

	t.Run("replacing an upload removes the previous object", func(t *testing.T) {
		// Act
		require.NoError(t, h.uc.ProfileUpdateAvatar(ctx, ProfileUpdateAvatarInput{File: strings.NewReader("png-one"), ContentType: "image/png"}))
		first := avatarURL()
		require.NoError(t, h.uc.ProfileUpdateAvatar(ctx, ProfileUpdateAvatarInput{File: strings.NewReader(strings.Repeat("j", 16)), ContentType: "IMAGE/JPEG"}))
		second := avatarURL()

		// Assert
		assert.True(t, strings.HasPrefix(first, "https://cdn.local/avatars/avatars/7/"), first)
		assert.True(t, strings.HasSuffix(second, ".jpg"), second)
		keys := h.storage.keys()
		require.Len(t, keys, 1)
		assert.Equal(t, "avatars/"+strings.TrimPrefix(second, "https://cdn.local/avatars/"), keys[0])
		assert.Equal(t, "image/jpeg", h.storage.types[keys[0]])
	})

	t.Run("delete falls back to the generated avatar", func(t *testing.T) {
		// Act
		err := h.uc.ProfileDeleteAvatar(ctx)

		// Assert
		require.NoError(t, err)
		assert.Equal(t, defaultAvatarURL("Jane Doe"), avatarURL())
		assert.Empty(t, h.storage.keys())
	})
}

func TestUsecase_Reauthenticated(t *testing.T) {
	const newPassword = "brand-new-secret-42"
	ctx := jwt.SetAuth(context.Background(), jwt.Claims{UserID: 7, UserEmail: "jane@example.com"})

	codeOf := func(t *testing.T, err error) goerror.Code {
		t.Helper()
		var gerr *goerror.Error
		require.ErrorAs(t, err, &gerr)
		return gerr.Code()
	}

	t.Run("password change needs the current password", func(t *testing.T) {
		// Arrange
		h := newHarness(t)
		h.seedUser(t, 7, "jane@example.com", entity.UserStatusActive)

		// Act
		errWrong := h.uc.PasswordChange(ctx, PasswordChangeInput{CurrentPassword: "not-my-password", NewPassword: newPassword})
		errOK := h.uc.PasswordChange(ctx, PasswordChangeInput{CurrentPassword: testPassword, NewPassword: newPassword})

		// Assert
		assert.Equal(t, goerror.CodeUnauthorized, codeOf(t, errWrong))
		require.NoError(t, errOK)
		assert.True(t, h.password.Verify(h.db.passwords[7], newPassword))
	})

	t.Run("attempts are capped per account", func(t *testing.T) {
		// Arrange
		h := newHarness(t)
		h.seedUser(t, 7, "jane@example.com", entity.UserStatusActive)
		for range 3 {
			_ = h.uc.PasswordChange(ctx, PasswordChangeInput{CurrentPassword: "guess-guess-guess", NewPassword: newPassword})
		}

		// Act
		err := h.uc.PasswordChange(ctx, PasswordChangeInput{CurrentPassword: testPassword, NewPassword: newPassword})

		// Assert
		assert.Equal(t, goerror.CodeTooManyRequest, codeOf(t, err))
		assert.Equal(t, ReasonRateLimited, reasonOf(t, err))
	})

	t.Run("account delete publishes the event", func(t *testing.T) {
		// Arrange
		h := newHarness(t)
		h.seedUser(t, 7, "jane@example.com", entity.UserStatusActive)
		require.NoError(t, h.uc.ProfileUpdateAvatar(ctx, ProfileUpdateAvatarInput{File: strings.NewReader("png"), ContentType: "image/png"}))

		// Act
		err := h.uc.AccountDelete(ctx, AccountDeleteInput{Password: testPassword})

		// Assert
		require.NoError(t, err)
		_, getErr := h.db.GetUserByID(context.Background(), 7, false)
		assert.ErrorIs(t, getErr, goerror.ErrNotFound)
		require.Len(t, h.mq.deleted, 1)
		assert.Equal(t, AccountDeletedEvent{UserID: 7, Email: "jane@example.com"}, h.mq.deleted[0])
		assert.Empty(t, h.storage.keys())
	})
}

func TestUsecase_IssueSession(t *testing.T) {
	t.Run("active account gets a session", func(t *testing.T) {
		// Arrange
		h := newHarness(t)
		h.seedUser(t, 7, "jane@example.com", entity.UserStatusActive)

		// Act
		out, err := h.uc.IssueSession(context.Background(), IssueSessionInput{Email: " Jane@Example.com"})

		// Assert
		require.NoError(t, err)
		assert.Equal(t, "Bearer", out.TokenType)
		assert.Equal(t, int64(7), out.User.ID)
		clm, err := h.jwt.Verify(out.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, "jane@example.com", clm.UserEmail)
	})

	t.Run("unknown account is unauthorized", func(t *testing.T) {
		// Arrange
		h := newHarness(t)

		// Act
		out, err := h.uc.IssueSession(context.Background(), IssueSessionInput{Email: "nobody@example.com"})

		// Assert
		assert.Nil(t, out)
		assert.Equal(t, ReasonUnauthorized, reasonOf(t, err))
	})

	t.Run("banned account is forbidden", func(t *testing.T) {
		// Arrange
		h := newHarness(t)
		h.seedUser(t, 7, "jane@example.com", entity.UserStatusBanned)

		// Act
		_, err := h.uc.IssueSession(context.Background(), IssueSessionInput{Email: "jane@example.com"})

		// Assert
		var gerr *goerror.Error
		require.ErrorAs(t, err, &gerr)
		assert.Equal(t, goerror.CodeForbidden, gerr.Code())
	})

	t.Run("invalid email", func(t *testing.T) {
		// Arrange
		h := newHarness(t)

		// Act
		_, err := h.uc.IssueSession(context.Background(), IssueSessionInput{Email: "nope"})

		// Assert
		var gerr *goerror.Error
		require.ErrorAs(t, err, &gerr)
		assert.Equal(t, goerror.TypeValidation, gerr.Type())
	})
}
