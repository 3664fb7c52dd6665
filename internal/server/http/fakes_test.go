package httpserver

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/uuid/v5"

	"github.com/and161185/contacts-api/internal/errs"
	"github.com/and161185/contacts-api/internal/model"
	"github.com/and161185/contacts-api/internal/repository"
)

// memStore backs both repositories in memory.
type memStore struct {
	mu       sync.Mutex
	users    map[string]*model.User
	owned    map[uuid.UUID][]uuid.UUID
	contacts map[uuid.UUID]model.Contact
	failAll  error
}

func newMemStore() *memStore {
	return &memStore{
		users:    map[string]*model.User{},
		owned:    map[uuid.UUID][]uuid.UUID{},
		contacts: map[uuid.UUID]model.Contact{},
	}
}

type memUsers struct{ *memStore }

var _ repository.UserRepository = memUsers{}

func (m memUsers) Create(_ context.Context, u *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[u.Email]; ok {
		return errs.ErrAlreadyExists
	}
	cpy := *u
	m.users[u.Email] = &cpy
	m.owned[u.ID] = []uuid.UUID{}
	return nil
}

func (m memUsers) GetByEmail(_ context.Context, email string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[email]
	if !ok {
		return nil, errs.ErrNotFound
	}
	cpy := *u
	return &cpy, nil
}

type memContacts struct{ *memStore }

var _ repository.ContactRepository = memContacts{}

func (m memContacts) Create(_ context.Context, c *model.Contact) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failAll != nil {
		return m.failAll
	}
	list, ok := m.owned[c.Creator]
	if !ok {
		return errs.ErrNotFound
	}
	m.contacts[c.ID] = *c
	m.owned[c.Creator] = append(list, c.ID)
	return nil
}

func (m memContacts) Get(_ context.Context, id uuid.UUID) (*model.Contact, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failAll != nil {
		return nil, m.failAll
	}
	c, ok := m.contacts[id]
	if !ok {
		return nil, errs.ErrNotFound
	}
	return &c, nil
}

func (m memContacts) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]model.Contact, error) {
	return m.SearchByOwner(ctx, ownerID, "")
}

func (m memContacts) SearchByOwner(_ context.Context, ownerID uuid.UUID, term string) ([]model.Contact, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failAll != nil {
		return nil, m.failAll
	}
	term = strings.ToLower(term)
	out := []model.Contact{}
	for _, id := range m.owned[ownerID] {
		c := m.contacts[id]
		if strings.Contains(strings.ToLower(c.Name+"\x00"+c.Number+"\x00"+c.Email), term) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m memContacts) Update(_ context.Context, ownerID, id uuid.UUID, p model.ContactPatch) (*model.Contact, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.contacts[id]
	if !ok || c.Creator != ownerID {
		return nil, errs.ErrNotFound
	}
	if p.Name != "" {
		c.Name = p.Name
	}
	if p.Number != "" {
		c.Number = p.Number
	}
	if p.Email != "" {
		c.Email = p.Email
	}
	m.contacts[id] = c
	return &c, nil
}

func (m memContacts) Delete(_ context.Context, ownerID, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.contacts[id]
	if !ok {
		return errs.ErrNotFound
	}
	if c.Creator != ownerID {
		return errs.ErrForbidden
	}
	delete(m.contacts, id)
	list := m.owned[ownerID]
	for i, cid := range list {
		if cid == id {
			m.owned[ownerID] = append(list[:i:i], list[i+1:]...)
			break
		}
	}
	return nil
}

// blockAll rejects every login attempt.
type blockAll struct{}

func (blockAll) Allow(context.Context, string, []byte) (bool, time.Duration, error) {
	return false, time.Minute, nil
}
func (blockAll) Success(context.Context, string, []byte) error { return nil }
func (blockAll) Failure(context.Context, string, []byte) (bool, time.Duration, error) {
	return true, time.Minute, nil
}

func mustUUID(t interface{ Fatalf(string, ...any) }, s string) uuid.UUID {
	id, err := uuid.FromString(s)
	if err != nil {
		t.Fatalf("bad uuid %q: %v", s, err)
	}
	return id
}
