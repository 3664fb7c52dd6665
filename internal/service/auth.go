// Package service contains application services for authentication and contacts.
package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/gofrs/uuid/v5"

	"github.com/and161185/contacts-api/internal/auth"
	pkgcrypto "github.com/and161185/contacts-api/internal/crypto"
	"github.com/and161185/contacts-api/internal/errs"
	"github.com/and161185/contacts-api/internal/limiter"
	"github.com/and161185/contacts-api/internal/model"
	"github.com/and161185/contacts-api/internal/repository"
)

// MinPasswordLen is the shortest accepted password.
const MinPasswordLen = 6

// AuthService defines signup, login and token verification.
type AuthService interface {
	// Signup creates a new user and returns a session for it.
	Signup(ctx context.Context, name, email, password string) (model.Session, error)
	// Login checks credentials (rate-limited per email and client ip).
	Login(ctx context.Context, email, password, ip string) (model.Session, error)
	// Authenticate verifies an Authorization header value and returns the user id.
	Authenticate(authorization string) (uuid.UUID, error)
}

type AuthServiceImpl struct {
	users  repository.UserRepository
	tokens *auth.Tokens
	lim    limiter.Limiter
}

// NewAuthService constructs AuthService with required dependencies.
// A nil limiter disables lockout.
func NewAuthService(users repository.UserRepository, tokens *auth.Tokens, lim limiter.Limiter) *AuthServiceImpl {
	if lim == nil {
		lim = limiter.Noop{}
	}
	return &AuthServiceImpl{users: users, tokens: tokens, lim: lim}
}

// NormalizeEmail trims and lower-cases an address for storage and lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Signup validates input, rejects taken emails and stores a salted hash.
func (s *AuthServiceImpl) Signup(ctx context.Context, name, email, password string) (model.Session, error) {
	name = strings.TrimSpace(name)
	email = NormalizeEmail(email)
	if err := validateSignup(name, email, password); err != nil {
		return model.Session{}, err
	}

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return model.Session{}, errs.ErrAlreadyExists
	} else if !errors.Is(err, errs.ErrNotFound) {
		return model.Session{}, fmt.Errorf("lookup user: %w", err)
	}

	uid, err := uuid.NewV4()
	if err != nil {
		return model.Session{}, err
	}
	hash, salt, err := pkgcrypto.NewPasswordHash(password)
	if err != nil {
		return model.Session{}, fmt.Errorf("hash password: %w", err)
	}

	u := &model.User{
		ID:       uid,
		Name:     name,
		Email:    email,
		PwdHash:  hash,
		SaltAuth: salt,
	}
	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, errs.ErrAlreadyExists) {
			return model.Session{}, err
		}
		return model.Session{}, fmt.Errorf("create user: %w", err)
	}
	return s.session(u)
}

// Login authenticates with rate limiting by (email, ip). Unknown email and
// wrong password both yield errs.ErrUnauthorized.
func (s *AuthServiceImpl) Login(ctx context.Context, email, password, ip string) (model.Session, error) {
	email = NormalizeEmail(email)
	ipHash := limiter.HashIP(ip)

	allowed, _, err := s.lim.Allow(ctx, email, ipHash)
	if err != nil {
		return model.Session{}, fmt.Errorf("limiter: %w", err)
	}
	if !allowed {
		return model.Session{}, errs.ErrRateLimited
	}

	u, err := s.users.GetByEmail(ctx, email)
	if err != nil && !errors.Is(err, errs.ErrNotFound) {
		return model.Session{}, fmt.Errorf("lookup user: %w", err)
	}

	var ok bool
	if u != nil {
		ok = pkgcrypto.VerifyPassword([]byte(password), u.SaltAuth, u.PwdHash)
	} else {
		ok = pkgcrypto.BurnVerify(password)
	}
	if !ok {
		if blocked, _, ferr := s.lim.Failure(ctx, email, ipHash); ferr == nil && blocked {
			return model.Session{}, errs.ErrRateLimited
		}
		return model.Session{}, errs.ErrUnauthorized
	}

	// Success: reset counters (best-effort).
	_ = s.lim.Success(ctx, email, ipHash)

	return s.session(u)
}

// Authenticate extracts and verifies the bearer token.
func (s *AuthServiceImpl) Authenticate(authorization string) (uuid.UUID, error) {
	tok, err := auth.BearerFromHeader(authorization)
	if err != nil {
		return uuid.Nil, errs.ErrUnauthorized
	}
	id, _, err := s.tokens.Verify(tok)
	if err != nil {
		return uuid.Nil, errs.ErrUnauthorized
	}
	return id, nil
}

func (s *AuthServiceImpl) session(u *model.User) (model.Session, error) {
	tok, exp, err := s.tokens.Issue(u.ID, u.Email)
	if err != nil {
		return model.Session{}, fmt.Errorf("issue token: %w", err)
	}
	return model.Session{UserID: u.ID, Email: u.Email, Token: tok, ExpiresAt: exp}, nil
}

func validateSignup(name, email, password string) error {
	if name == "" {
		return fmt.Errorf("%w: empty name", errs.ErrValidation)
	}
	if a, err := mail.ParseAddress(email); err != nil || a.Address != email {
		return fmt.Errorf("%w: malformed email", errs.ErrValidation)
	}
	if len(password) < MinPasswordLen {
		return fmt.Errorf("%w: password shorter than %d", errs.ErrValidation, MinPasswordLen)
	}
	return nil
}
