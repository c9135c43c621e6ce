package jwt

import (
	"errors"
	"strconv"

	"github.com/golang-jwt/jwt/v5"
)

// HS512 signs with a shared secret. Verification pins the algorithm, issuer
// and audience and requires exp.
type HS512 struct {
	cfg    Config
	parser *jwt.Parser
}

func NewHS512(cfg Config) (*HS512, error) {
	if len(cfg.Secret) < 64 {
		return nil, ErrSigningKeyTooShort
	}

	return &HS512{
		cfg: cfg,
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS512.Alg()}),
			jwt.WithIssuer(cfg.Issuer),
			jwt.WithAudience(cfg.Audiences...),
			jwt.WithIssuedAt(),
			jwt.WithExpirationRequired(),
			jwt.WithTimeFunc(cfg.Clock.Now),
		),
	}, nil
}

func (h *HS512) Generate(uid int64, email string) (string, error) {
	now := h.cfg.Clock.Now()
	clm := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        h.cfg.UUID.Generate(),
			Subject:   strconv.FormatInt(uid, 10),
			Issuer:    h.cfg.Issuer,
			Audience:  h.cfg.Audiences,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(h.cfg.TTL)),
		},
		UserID:    uid,
		UserEmail: email,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS512, clm).SignedString(h.cfg.Secret)
}

func (h *HS512) Verify(token string) (Claims, error) {
	var clm Claims
	_, err := h.parser.ParseWithClaims(token, &clm, func(*jwt.Token) (any, error) {
		return h.cfg.Secret, nil
	})
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return Claims{}, ErrTokenExpired
	case err != nil:
		return Claims{}, errors.Join(ErrInvalidToken, err)
	}
	return clm, nil
}
