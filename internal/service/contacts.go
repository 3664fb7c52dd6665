package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/gofrs/uuid/v5"

	"github.com/and161185/contacts-api/internal/errs"
	"github.com/and161185/contacts-api/internal/model"
	"github.com/and161185/contacts-api/internal/repository"
)

// NumberLen is the exact length of a contact phone number.
const NumberLen = 8

// ContactService defines contact operations on behalf of an authenticated caller.
type ContactService interface {
	// List returns the caller's contacts (empty slice when none).
	List(ctx context.Context, callerID uuid.UUID) ([]model.Contact, error)
	// Get returns one of the caller's contacts.
	Get(ctx context.Context, callerID, id uuid.UUID) (*model.Contact, error)
	// Search matches term against the caller's contacts.
	Search(ctx context.Context, callerID uuid.UUID, term string) ([]model.Contact, error)
	// Create stores a contact and links it to its owner atomically.
	Create(ctx context.Context, callerID uuid.UUID, in model.NewContact) (*model.Contact, error)
	// Update applies a partial patch.
	Update(ctx context.Context, callerID, id uuid.UUID, p model.ContactPatch) (*model.Contact, error)
	// Delete removes a contact and unlinks it from its owner atomically.
	Delete(ctx context.Context, callerID, id uuid.UUID) error
}

type ContactServiceImpl struct {
	repo repository.ContactRepository
}

// NewContactService constructs ContactService.
func NewContactService(repo repository.ContactRepository) *ContactServiceImpl {
	return &ContactServiceImpl{repo: repo}
}

// List returns the caller's contacts in the order they were added.
func (s *ContactServiceImpl) List(ctx context.Context, callerID uuid.UUID) ([]model.Contact, error) {
	if callerID == uuid.Nil {
		return nil, errs.ErrUnauthorized
	}
	return s.repo.ListByOwner(ctx, callerID)
}

// Get loads a contact and checks that the caller owns it.
func (s *ContactServiceImpl) Get(ctx context.Context, callerID, id uuid.UUID) (*model.Contact, error) {
	if callerID == uuid.Nil {
		return nil, errs.ErrUnauthorized
	}
	c, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if c.Creator != callerID {
		return nil, errs.ErrForbidden
	}
	return c, nil
}

// Search rejects an empty term; no matches is an empty result, not an error.
func (s *ContactServiceImpl) Search(ctx context.Context, callerID uuid.UUID, term string) ([]model.Contact, error) {
	if callerID == uuid.Nil {
		return nil, errs.ErrUnauthorized
	}
	term = strings.TrimSpace(term)
	if term == "" {
		return nil, fmt.Errorf("%w: empty search term", errs.ErrBadRequest)
	}
	return s.repo.SearchByOwner(ctx, callerID, term)
}

// Create validates input and stores the contact. An empty creator means the
// caller; a creator other than the caller is rejected.
func (s *ContactServiceImpl) Create(ctx context.Context, callerID uuid.UUID, in model.NewContact) (*model.Contact, error) {
	if callerID == uuid.Nil {
		return nil, errs.ErrUnauthorized
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: empty name", errs.ErrValidation)
	}
	number := strings.TrimSpace(in.Number)
	if err := validateNumber(number); err != nil {
		return nil, err
	}

	creator := in.Creator
	if creator == uuid.Nil {
		creator = callerID
	}
	if creator != callerID {
		return nil, errs.ErrForbidden
	}

	id, err := uuid.NewV4()
	if err != nil {
		return nil, err
	}
	c := &model.Contact{
		ID:      id,
		Name:    name,
		Number:  number,
		Email:   strings.TrimSpace(in.Email),
		Creator: creator,
	}
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// Update patches a contact owned by the caller. Empty fields in p keep the
// stored value, so an empty patch is a no-op that returns the contact.
func (s *ContactServiceImpl) Update(ctx context.Context, callerID, id uuid.UUID, p model.ContactPatch) (*model.Contact, error) {
	p = model.ContactPatch{
		Name:   strings.TrimSpace(p.Name),
		Number: strings.TrimSpace(p.Number),
		Email:  strings.TrimSpace(p.Email),
	}
	cur, err := s.Get(ctx, callerID, id)
	if err != nil {
		return nil, err
	}
	if err := validateNumber(p.Number); err != nil {
		return nil, err
	}
	if p.IsEmpty() {
		return cur, nil
	}
	return s.repo.Update(ctx, callerID, id, p)
}

// Delete removes a contact owned by the caller.
func (s *ContactServiceImpl) Delete(ctx context.Context, callerID, id uuid.UUID) error {
	if callerID == uuid.Nil {
		return errs.ErrUnauthorized
	}
	return s.repo.Delete(ctx, callerID, id)
}

// validateNumber accepts an empty number or exactly NumberLen ASCII digits.
func validateNumber(n string) error {
	if n == "" {
		return nil
	}
	if len(n) != NumberLen {
		return fmt.Errorf("%w: number must have %d digits", errs.ErrValidation, NumberLen)
	}
	for i := 0; i < len(n); i++ {
		if n[i] < '0' || n[i] > '9' {
			return fmt.Errorf("%w: number must be numeric", errs.ErrValidation)
		}
	}
	return nil
}
