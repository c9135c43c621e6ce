package otp

import (
	"testing"

	"github.com/pquerna/otp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNumeric_Generate(t *testing.T) {
	t.Run("six digits with leading zeros kept", func(t *testing.T) {
		// Arrange
		gen := NewNumeric(otp.DigitsSix)

		// Act & Assert
		for range 500 {
			code, err := gen.Generate()
			require.NoError(t, err)
			assert.Len(t, code, 6)
			for _, c := range code {
				assert.True(t, c >= '0' && c <= '9', "unexpected char %q", c)
			}
		}
	})

	t.Run("eight digits", func(t *testing.T) {
		gen := NewNumeric(otp.DigitsEight)

		code, err := gen.Generate()
		require.NoError(t, err)
		assert.Len(t, code, 8)
		assert.Equal(t, 8, gen.Length())
	})

	t.Run("unsupported digits falls back to six", func(t *testing.T) {
		gen := NewNumeric(otp.Digits(4))

		code, err := gen.Generate()
		require.NoError(t, err)
		assert.Len(t, code, 6)
		assert.Equal(t, 6, gen.Length())
	})
}
