package auth

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var ErrInvalidToken = errors.New("invalid or expired token")

// Token is what sign-up and sign-in hand back to the client.
type Token struct {
	IDToken   string `json:"idToken"`
	LocalID   string `json:"localId"`
	ExpiresIn int64  `json:"expiresIn"`
}

type Claims struct {
	UserID    string
	ExpiresAt time.Time
}

type Issuer struct {
	cfg Config
}

func NewIssuer(cfg Config) *Issuer {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Issuer{cfg: cfg}
}

func (i *Issuer) Issue(userID string) (Token, error) {
	now := i.cfg.Now()
	claims := jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Issuer:    i.cfg.Issuer,
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(i.cfg.TokenTTL)),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.cfg.Secret)
	if err != nil {
		return Token{}, err
	}
	return Token{
		IDToken:   signed,
		LocalID:   userID,
		ExpiresIn: int64(i.cfg.TokenTTL / time.Second),
	}, nil
}

// Verify checks signature, issuer and expiry.
func (i *Issuer) Verify(token string) (Claims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return Claims{}, ErrMissingToken
	}

	var parsed jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(token, &parsed, func(t *jwt.Token) (any, error) {
		return i.cfg.Secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(i.cfg.Issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.cfg.Now),
	)
	if err != nil {
		return Claims{}, ErrInvalidToken
	}
	if parsed.Subject == "" {
		return Claims{}, ErrInvalidToken
	}
	return Claims{
		UserID:    parsed.Subject,
		ExpiresAt: parsed.ExpiresAt.Time,
	}, nil
}
