package app

import (
	"context"
	"errors"
	"testing"

	libOTP "github.com/pquerna/otp"
	"github.com/shandysiswandi/fintrack/internal/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigPath(t *testing.T) {
	t.Run("explicit path wins", func(t *testing.T) {
		t.Setenv("CONFIG_PATH", "/etc/fintrack.yaml")
		t.Setenv("LOCAL", "true")

		assert.Equal(t, "/etc/fintrack.yaml", configPath())
	})

	t.Run("local checkout", func(t *testing.T) {
		t.Setenv("CONFIG_PATH", "")
		t.Setenv("LOCAL", "true")

		assert.Equal(t, "./config/config.yaml", configPath())
	})

	t.Run("container mount", func(t *testing.T) {
		t.Setenv("CONFIG_PATH", "")
		t.Setenv("LOCAL", "")

		assert.Equal(t, "/config/config.yaml", configPath())
	})
}

func TestPasscodeDigits(t *testing.T) {
	assert.Equal(t, libOTP.DigitsEight, passcodeDigits(8))
	assert.Equal(t, libOTP.DigitsSix, passcodeDigits(6))
	assert.Equal(t, libOTP.DigitsSix, passcodeDigits(0))
}

func TestApp_InitLibraries(t *testing.T) {
	// Arrange
	cfg, err := config.NewViperFromBytes("yaml", []byte(`
app:
  server:
    max_goroutine: 4
hash:
  hmac:
    secret: test-secret
  bcrypt:
    cost: 4
modules:
  identity:
    passcode:
      digits: 6
`))
	require.NoError(t, err)
	a := &App{config: cfg}

	// Act
	err = a.initLibraries()

	// Assert
	require.NoError(t, err)
	assert.NotNil(t, a.validator)
	assert.NotNil(t, a.translator)
	assert.Equal(t, 6, a.passcode.Length())

	type signup struct {
		FullName string `json:"full_name" validate:"required,personname"`
	}
	assert.NoError(t, a.validator.Validate(signup{FullName: "Siti Aminah"}))
	assert.Error(t, a.validator.Validate(signup{FullName: "R2-D2"}))
}

func TestApp_CloseAll(t *testing.T) {
	// Arrange
	var order []string
	a := &App{}
	for _, name := range []string{"config", "database", "messaging"} {
		a.onClose(name, func(context.Context) error {
			order = append(order, name)
			if name == "database" {
				return errors.New("boom")
			}
			return nil
		})
	}

	// Act
	a.closeAll(context.Background())
	a.closeAll(context.Background())

	// Assert
	assert.Equal(t, []string{"messaging", "database", "config"}, order)
	assert.Empty(t, a.closers)
}
