package postgres

import (
	"context"
	"errors"
	"strings"

	"github.com/and161185/contacts-api/internal/errs"
	"github.com/and161185/contacts-api/internal/model"
	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"
)

// ContactRepo implements ContactRepository using PostgreSQL.
// users.contact_ids is the owner's ordered collection; it is only ever
// changed together with the contacts row, inside one transaction.
type ContactRepo struct{ db *DB }

// NewContactRepo constructs a contact repository.
func NewContactRepo(db *DB) *ContactRepo { return &ContactRepo{db: db} }

const contactCols = `c.id, c.name, c.number, c.email, c.creator`

const ownedContacts = `
SELECT ` + contactCols + `
FROM users u
CROSS JOIN LATERAL unnest(u.contact_ids) WITH ORDINALITY AS l(contact_id, pos)
JOIN contacts c ON c.id = l.contact_id AND c.creator = u.id
WHERE u.id=$1`

// Create inserts the contact and links it to its creator.
func (r *ContactRepo) Create(ctx context.Context, c *model.Contact) error {
	const lock = `SELECT id FROM users WHERE id=$1 FOR UPDATE`
	const ins = `INSERT INTO contacts (id, name, number, email, creator) VALUES ($1, $2, $3, $4, $5)`
	const link = `UPDATE users SET contact_ids = array_append(contact_ids, $2) WHERE id=$1`

	return r.db.inTx(ctx, func(tx pgx.Tx) error {
		var owner uuid.UUID
		if err := tx.QueryRow(ctx, lock, c.Creator).Scan(&owner); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return errs.ErrNotFound
			}
			return err
		}
		if _, err := tx.Exec(ctx, ins, c.ID, c.Name, c.Number, c.Email, c.Creator); err != nil {
			return err
		}
		_, err := tx.Exec(ctx, link, c.Creator, c.ID)
		return err
	})
}

// Get returns a single contact by id.
func (r *ContactRepo) Get(ctx context.Context, id uuid.UUID) (*model.Contact, error) {
	const q = `SELECT ` + contactCols + ` FROM contacts c WHERE c.id=$1`
	var c model.Contact
	if err := r.db.Pool.QueryRow(ctx, q, id).Scan(&c.ID, &c.Name, &c.Number, &c.Email, &c.Creator); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

// ListByOwner returns the owner's contacts in the order they were added.
func (r *ContactRepo) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]model.Contact, error) {
	rows, err := r.db.Pool.Query(ctx, ownedContacts+`
ORDER BY l.pos`, ownerID)
	if err != nil {
		return nil, err
	}
	return scanContacts(rows)
}

// SearchByOwner matches term as a case-insensitive substring of name,
// number or email within the owner's contacts.
func (r *ContactRepo) SearchByOwner(ctx context.Context, ownerID uuid.UUID, term string) ([]model.Contact, error) {
	rows, err := r.db.Pool.Query(ctx, ownedContacts+`
AND (c.name ILIKE $2 OR c.number ILIKE $2 OR c.email ILIKE $2)
ORDER BY l.pos`, ownerID, "%"+escapeLike(term)+"%")
	if err != nil {
		return nil, err
	}
	return scanContacts(rows)
}

// Update applies the patch in a single statement; empty fields keep the
// stored value.
func (r *ContactRepo) Update(ctx context.Context, ownerID, id uuid.UUID, p model.ContactPatch) (*model.Contact, error) {
	const q = `
UPDATE contacts c SET
  name   = COALESCE(NULLIF($3, ''), c.name),
  number = COALESCE(NULLIF($4, ''), c.number),
  email  = COALESCE(NULLIF($5, ''), c.email)
WHERE c.id=$1 AND c.creator=$2
RETURNING ` + contactCols
	var c model.Contact
	err := r.db.Pool.QueryRow(ctx, q, id, ownerID, p.Name, p.Number, p.Email).
		Scan(&c.ID, &c.Name, &c.Number, &c.Email, &c.Creator)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

// Delete removes the contact and unlinks it from its owner.
func (r *ContactRepo) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	const lock = `SELECT creator FROM contacts WHERE id=$1 FOR UPDATE`
	const del = `DELETE FROM contacts WHERE id=$1`
	const unlink = `UPDATE users SET contact_ids = array_remove(contact_ids, $2) WHERE id=$1`

	return r.db.inTx(ctx, func(tx pgx.Tx) error {
		var creator uuid.UUID
		if err := tx.QueryRow(ctx, lock, id).Scan(&creator); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return errs.ErrNotFound
			}
			return err
		}
		if creator != ownerID {
			return errs.ErrForbidden
		}
		if _, err := tx.Exec(ctx, del, id); err != nil {
			return err
		}
		_, err := tx.Exec(ctx, unlink, creator, id)
		return err
	})
}

func scanContacts(rows pgx.Rows) ([]model.Contact, error) {
	defer rows.Close()

	out := []model.Contact{}
	for rows.Next() {
		var c model.Contact
		if err := rows.Scan(&c.ID, &c.Name, &c.Number, &c.Email, &c.Creator); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike makes LIKE metacharacters in s match literally.
func escapeLike(s string) string { return likeEscaper.Replace(s) }
