// Package repository defines storage interfaces implemented by concrete backends.
package repository

import (
	"context"

	"github.com/and161185/contacts-api/internal/model"
)

// UserRepository is the credential store.
type UserRepository interface {
	// Create inserts a new user with an empty contacts collection.
	// A taken email yields errs.ErrAlreadyExists.
	Create(ctx context.Context, u *model.User) error
	// GetByEmail loads a user by (normalized) email.
	GetByEmail(ctx context.Context, email string) (*model.User, error)
}
