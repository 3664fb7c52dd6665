// Package auth issues and verifies the HS256 bearer tokens handed out on
// signup and login.
package auth

import (
	"errors"
	"strings"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/golang-jwt/jwt/v5"
)

// DefaultTTL is the lifetime of an issued token.
const DefaultTTL = time.Hour

const leeway = 30 * time.Second

var (
	// ErrNoBearer is returned when the Authorization header carries no bearer token.
	ErrNoBearer = errors.New("no bearer token")
	// ErrInvalidToken covers bad signature, wrong algorithm, expiry and malformed claims.
	ErrInvalidToken = errors.New("invalid token")
)

// Claims binds the user id and email into the token.
type Claims struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// Tokens signs and verifies access tokens with a shared HMAC key.
type Tokens struct {
	signKey []byte
	ttl     time.Duration
	now     func() time.Time
}

// NewTokens constructs a token issuer. ttl <= 0 falls back to DefaultTTL.
func NewTokens(signKey []byte, ttl time.Duration) *Tokens {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Tokens{signKey: signKey, ttl: ttl, now: time.Now}
}

// Issue creates a signed HS256 JWT for the given user.
func (t *Tokens) Issue(userID uuid.UUID, email string) (string, time.Time, error) {
	now := t.now()
	exp := now.Add(t.ttl)
	claims := Claims{
		UserID: userID.String(),
		Email:  email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString(t.signKey)
	return signed, exp, err
}

// Verify checks signature, algorithm and expiry and returns the embedded user id.
func (t *Tokens) Verify(token string) (uuid.UUID, *Claims, error) {
	var claims Claims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(tk *jwt.Token) (any, error) {
		if tk.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return t.signKey, nil
	},
		jwt.WithLeeway(leeway),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil || !parsed.Valid {
		return uuid.Nil, nil, ErrInvalidToken
	}

	id, err := uuid.FromString(claims.UserID)
	if err != nil || id == uuid.Nil {
		return uuid.Nil, nil, ErrInvalidToken
	}
	return id, &claims, nil
}

// BearerFromHeader extracts the token from an "Authorization: Bearer <JWT>" value.
func BearerFromHeader(v string) (string, error) {
	v = strings.TrimSpace(v)
	if len(v) >= 7 && strings.EqualFold(v[:7], "bearer ") {
		if t := strings.TrimSpace(v[7:]); t != "" {
			return t, nil
		}
	}
	return "", ErrNoBearer
}
