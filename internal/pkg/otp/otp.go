package otp

import (
	"crypto/rand"
	"encoding/binary"
	"math"

	"github.com/pquerna/otp"
)

// Generator creates short numeric one-time passcodes.
type Generator interface {
	// Generate returns a new zero-padded numeric code.
	Generate() (string, error)
	// Length returns the number of digits produced by Generate.
	Length() int
}

// Numeric generates uniformly distributed numeric codes from crypto/rand.
type Numeric struct {
	digits otp.Digits
	max    uint32
}

// NewNumeric constructs a Numeric generator.
//
// If digits is not 6 or 8, it falls back to 6 digits.
func NewNumeric(digits otp.Digits) *Numeric {
	if digits != otp.DigitsSix && digits != otp.DigitsEight {
		digits = otp.DigitsSix
	}

	return &Numeric{
		digits: digits,
		max:    uint32(math.Pow10(digits.Length())),
	}
}

// Generate returns a code in [0, 10^digits) formatted with leading zeros.
func (n *Numeric) Generate() (string, error) {
	// rejection sampling keeps the distribution uniform
	limit := math.MaxUint32 - (math.MaxUint32 % n.max)

	var b [4]byte
	for {
		if _, err := rand.Read(b[:]); err != nil {
			return "", err
		}

		v := binary.BigEndian.Uint32(b[:])
		if v < limit {
			return n.digits.Format(int32(v % n.max)), nil
		}
	}
}

// Length returns the number of digits produced by Generate.
func (n *Numeric) Length() int {
	return n.digits.Length()
}
