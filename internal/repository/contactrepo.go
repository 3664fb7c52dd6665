package repository

import (
	"context"

	"github.com/and161185/contacts-api/internal/model"
	"github.com/gofrs/uuid/v5"
)

// ContactRepository is the contact store. Create and Delete also maintain
// the owner's contacts collection in the same transaction.
type ContactRepository interface {
	// Create inserts c and appends its id to the creator's collection.
	// Returns errs.ErrNotFound when the creator does not exist.
	Create(ctx context.Context, c *model.Contact) error

	// Get returns a single contact by id.
	Get(ctx context.Context, id uuid.UUID) (*model.Contact, error)

	// ListByOwner returns the owner's contacts in collection order.
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]model.Contact, error)

	// SearchByOwner returns the owner's contacts whose name, number or email
	// contains term, case-insensitively.
	SearchByOwner(ctx context.Context, ownerID uuid.UUID, term string) ([]model.Contact, error)

	// Update applies a partial patch to a contact owned by ownerID.
	Update(ctx context.Context, ownerID, id uuid.UUID, p model.ContactPatch) (*model.Contact, error)

	// Delete removes a contact owned by ownerID and detaches it from the
	// owner's collection. Returns errs.ErrForbidden when another user owns it.
	Delete(ctx context.Context, ownerID, id uuid.UUID) error
}
