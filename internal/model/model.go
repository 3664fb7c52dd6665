// Package model defines domain entities used by services and repositories.
package model

import (
	"time"

	"github.com/gofrs/uuid/v5"
)

// User is an account. The password is kept only as an Argon2id hash.
// Owned contact ids live in the users.contact_ids column and are
// maintained by the contact repository.
type User struct {
	ID        uuid.UUID // PK
	Name      string
	Email     string // unique, lower-cased
	PwdHash   []byte // Argon2id(password, SaltAuth)
	SaltAuth  []byte // per-user salt
	CreatedAt time.Time
}

// Contact is an address book entry owned by exactly one user.
type Contact struct {
	ID      uuid.UUID `json:"id"`
	Name    string    `json:"name"`
	Number  string    `json:"number,omitempty"`
	Email   string    `json:"email,omitempty"`
	Creator uuid.UUID `json:"creator"`
}

// NewContact is the input of contact creation. Creator may be uuid.Nil,
// in which case the caller becomes the owner.
type NewContact struct {
	Name    string
	Number  string
	Email   string
	Creator uuid.UUID
}

// ContactPatch is a partial update. Empty fields keep the stored value.
type ContactPatch struct {
	Name   string
	Number string
	Email  string
}

// IsEmpty reports whether the patch changes nothing.
func (p ContactPatch) IsEmpty() bool {
	return p.Name == "" && p.Number == "" && p.Email == ""
}

// Session is the result of a successful signup or login.
type Session struct {
	UserID    uuid.UUID
	Email     string
	Token     string
	ExpiresAt time.Time // token expiry (for diagnostics)
}
