package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/uuid/v5"

	"github.com/and161185/contacts-api/internal/errs"
	"github.com/and161185/contacts-api/internal/limiter"
	"github.com/and161185/contacts-api/internal/model"
	"github.com/and161185/contacts-api/internal/repository"
)

// fakeStore is an in-memory credential + contact store. Create and Delete
// touch both "tables" under one lock, mirroring the transactional repo.
type fakeStore struct {
	mu       sync.Mutex
	users    map[string]*model.User      // by email
	owned    map[uuid.UUID][]uuid.UUID   // user id -> contact ids
	contacts map[uuid.UUID]model.Contact // by id

	createErr  error
	getErr     error
	contactErr error
}

var _ repository.UserRepository = (*fakeStore)(nil)

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:    map[string]*model.User{},
		owned:    map[uuid.UUID][]uuid.UUID{},
		contacts: map[uuid.UUID]model.Contact{},
	}
}

func (f *fakeStore) Create(_ context.Context, u *model.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	if _, ok := f.users[u.Email]; ok {
		return errs.ErrAlreadyExists
	}
	cpy := *u
	f.users[u.Email] = &cpy
	f.owned[u.ID] = []uuid.UUID{}
	return nil
}

func (f *fakeStore) GetByEmail(_ context.Context, email string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	u, ok := f.users[email]
	if !ok {
		return nil, errs.ErrNotFound
	}
	c := *u
	return &c, nil
}

// addUser registers a bare user for contact tests.
func (f *fakeStore) addUser() uuid.UUID {
	id := uuid.Must(uuid.NewV4())
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users[id.String()+"@x.com"] = &model.User{ID: id, Email: id.String() + "@x.com"}
	f.owned[id] = []uuid.UUID{}
	return id
}

func (f *fakeStore) ownedIDs(user uuid.UUID) []uuid.UUID {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]uuid.UUID(nil), f.owned[user]...)
}

func (f *fakeStore) createContact(c *model.Contact) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.contactErr != nil {
		return f.contactErr
	}
	list, ok := f.owned[c.Creator]
	if !ok {
		return errs.ErrNotFound
	}
	f.contacts[c.ID] = *c
	f.owned[c.Creator] = append(list, c.ID)
	return nil
}

func (f *fakeStore) Get(_ context.Context, id uuid.UUID) (*model.Contact, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.contacts[id]
	if !ok {
		return nil, errs.ErrNotFound
	}
	return &c, nil
}

func (f *fakeStore) ListByOwner(_ context.Context, ownerID uuid.UUID) ([]model.Contact, error) {
	return f.match(ownerID, func(model.Contact) bool { return true })
}

func (f *fakeStore) SearchByOwner(_ context.Context, ownerID uuid.UUID, term string) ([]model.Contact, error) {
	term = strings.ToLower(term)
	return f.match(ownerID, func(c model.Contact) bool {
		return strings.Contains(strings.ToLower(c.Name), term) ||
			strings.Contains(strings.ToLower(c.Number), term) ||
			strings.Contains(strings.ToLower(c.Email), term)
	})
}

func (f *fakeStore) match(ownerID uuid.UUID, keep func(model.Contact) bool) ([]model.Contact, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.contactErr != nil {
		return nil, f.contactErr
	}
	out := []model.Contact{}
	for _, id := range f.owned[ownerID] {
		if c, ok := f.contacts[id]; ok && c.Creator == ownerID && keep(c) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeStore) Update(_ context.Context, ownerID, id uuid.UUID, p model.ContactPatch) (*model.Contact, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.contacts[id]
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
	f.contacts[id] = c
	return &c, nil
}

func (f *fakeStore) Delete(_ context.Context, ownerID, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.contactErr != nil {
		return f.contactErr
	}
	c, ok := f.contacts[id]
	if !ok {
		return errs.ErrNotFound
	}
	if c.Creator != ownerID {
		return errs.ErrForbidden
	}
	delete(f.contacts, id)
	list := f.owned[ownerID]
	for i, cid := range list {
		if cid == id {
			f.owned[ownerID] = append(list[:i:i], list[i+1:]...)
			break
		}
	}
	return nil
}

// contactRepo adapts fakeStore to ContactRepository; Create clashes with the
// user repository method of the same name.
type contactRepo struct{ *fakeStore }

func (r contactRepo) Create(_ context.Context, c *model.Contact) error { return r.createContact(c) }

var _ repository.ContactRepository = contactRepo{}

type fakeLimiter struct {
	allowOK  bool
	allowErr error

	failBlocked bool
	failErr     error

	allowCalls   int
	failureCalls int
	successCalls int
}

var _ limiter.Limiter = (*fakeLimiter)(nil)

func (l *fakeLimiter) Allow(context.Context, string, []byte) (bool, time.Duration, error) {
	l.allowCalls++
	return l.allowOK, 0, l.allowErr
}
func (l *fakeLimiter) Success(context.Context, string, []byte) error {
	l.successCalls++
	return nil
}
func (l *fakeLimiter) Failure(context.Context, string, []byte) (bool, time.Duration, error) {
	l.failureCalls++
	return l.failBlocked, 0, l.failErr
}
