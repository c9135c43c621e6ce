package validator

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type signupInput struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required,password"`
	FullName string `validate:"required,personname"`
	Code     string `json:"otp_code" validate:"omitempty,numeric_code"`
}

func TestV10Validator(t *testing.T) {
	v, err := NewV10Validator()
	require.NoError(t, err)

	t.Run("valid", func(t *testing.T) {
		// Act
		err := v.Validate(signupInput{Email: "jane@example.com", Password: "correct horse", FullName: "Jane Doe", Code: "123456"})

		// Assert
		assert.NoError(t, err)
	})

	t.Run("violations are keyed by field name", func(t *testing.T) {
		// Act
		err := v.Validate(signupInput{Email: "nope", Password: "short", FullName: "J4ne", Code: "12a"})

		// Assert
		var verr V10ValidationError
		require.True(t, errors.As(err, &verr))
		assert.Equal(t, map[string]string{
			"email":     "email must be a valid email address",
			"password":  "password must be 8-72 characters",
			"full_name": "full_name can contain only letters and spaces",
			"otp_code":  "otp_code must contain only digits",
		}, verr.Values())
	})

	t.Run("names accept letters from any script", func(t *testing.T) {
		// Act
		err := v.Validate(signupInput{Email: "jose@example.com", Password: "correct horse", FullName: "José Núñez"})

		// Assert
		assert.NoError(t, err)
	})

	t.Run("non struct input", func(t *testing.T) {
		// Act
		err := v.Validate("not a struct")

		// Assert
		var verr V10ValidationError
		assert.Error(t, err)
		assert.False(t, errors.As(err, &verr))
	})
}
