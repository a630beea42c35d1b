package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/yndnr/contacts-go/internal/core/domain"
)

const contactColumns = `id, user_id, name, surname, email, phone, birthday, note, created_at, updated_at`

// ContactRepo is the SQL contact store. Every statement filters on user_id.
type ContactRepo struct {
	db *sqlx.DB
}

type contactRow struct {
	ID        int64          `db:"id"`
	UserID    int64          `db:"user_id"`
	Name      string         `db:"name"`
	Surname   string         `db:"surname"`
	Email     string         `db:"email"`
	Phone     string         `db:"phone"`
	Birthday  sql.NullString `db:"birthday"`
	Note      string         `db:"note"`
	CreatedAt int64          `db:"created_at"`
	UpdatedAt int64          `db:"updated_at"`
}

func (r contactRow) toDomain() (*domain.Contact, error) {
	c := &domain.Contact{
		ID:        r.ID,
		UserID:    r.UserID,
		Name:      r.Name,
		Surname:   r.Surname,
		Email:     r.Email,
		Phone:     r.Phone,
		Note:      r.Note,
		CreatedAt: fromMillis(r.CreatedAt),
		UpdatedAt: fromMillis(r.UpdatedAt),
	}
	if r.Birthday.Valid && r.Birthday.String != "" {
		d, err := domain.ParseDate(r.Birthday.String)
		if err != nil {
			return nil, fmt.Errorf("contact %d: %w", r.ID, err)
		}
		c.Birthday = d
	}
	return c, nil
}

func birthdayValue(d domain.Date) sql.NullString {
	if d.IsZero() {
		return sql.NullString{}
	}
	return sql.NullString{String: d.String(), Valid: true}
}

func rowsToDomain(rows []contactRow) ([]*domain.Contact, error) {
	out := make([]*domain.Contact, 0, len(rows))
	for _, row := range rows {
		c, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

// Create inserts c and assigns its ID and timestamps.
func (r *ContactRepo) Create(ctx context.Context, c *domain.Contact) error {
	now := time.Now().UTC().Truncate(time.Millisecond)
	query := r.db.Rebind(`INSERT INTO contacts (user_id, name, surname, email, phone, birthday, note, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?) RETURNING id`)

	var id int64
	err := r.db.QueryRowxContext(ctx, query,
		c.UserID, c.Name, c.Surname, c.Email, c.Phone, birthdayValue(c.Birthday), c.Note,
		toMillis(now), toMillis(now),
	).Scan(&id)
	if err != nil {
		return fmt.Errorf("insert contact: %w", err)
	}

	c.ID = id
	c.CreatedAt = now
	c.UpdatedAt = now
	return nil
}

// Get returns contact id if it belongs to userID.
func (r *ContactRepo) Get(ctx context.Context, userID, id int64) (*domain.Contact, error) {
	var row contactRow
	query := r.db.Rebind(`SELECT ` + contactColumns + ` FROM contacts WHERE id = ? AND user_id = ?`)
	if err := r.db.GetContext(ctx, &row, query, id, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrContactNotFound
		}
		return nil, fmt.Errorf("select contact: %w", err)
	}
	return row.toDomain()
}

// List returns a page of userID's contacts ordered by id, and the total count.
func (r *ContactRepo) List(ctx context.Context, userID int64, offset, limit int) ([]*domain.Contact, int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, r.db.Rebind(`SELECT COUNT(*) FROM contacts WHERE user_id = ?`), userID); err != nil {
		return nil, 0, fmt.Errorf("count contacts: %w", err)
	}

	var rows []contactRow
	query := r.db.Rebind(`SELECT ` + contactColumns + ` FROM contacts WHERE user_id = ? ORDER BY id LIMIT ? OFFSET ?`)
	if err := r.db.SelectContext(ctx, &rows, query, userID, limit, offset); err != nil {
		return nil, 0, fmt.Errorf("list contacts: %w", err)
	}

	items, err := rowsToDomain(rows)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// Search returns userID's contacts whose set filter fields match case-insensitively.
func (r *ContactRepo) Search(ctx context.Context, userID int64, filter domain.ContactFilter) ([]*domain.Contact, error) {
	clauses := []string{"user_id = ?"}
	args := []any{userID}
	for _, f := range []struct{ column, value string }{
		{"name", filter.Name},
		{"surname", filter.Surname},
		{"email", filter.Email},
	} {
		if f.value == "" {
			continue
		}
		clauses = append(clauses, "LOWER("+f.column+") = LOWER(?)")
		args = append(args, f.value)
	}

	var rows []contactRow
	query := r.db.Rebind(`SELECT ` + contactColumns + ` FROM contacts WHERE ` + strings.Join(clauses, " AND ") + ` ORDER BY id`)
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("search contacts: %w", err)
	}
	return rowsToDomain(rows)
}

// Update overwrites the writable fields of c, matched by c.ID and c.UserID.
func (r *ContactRepo) Update(ctx context.Context, c *domain.Contact) error {
	now := time.Now().UTC().Truncate(time.Millisecond)
	query := r.db.Rebind(`UPDATE contacts SET name = ?, surname = ?, email = ?, phone = ?, birthday = ?, note = ?, updated_at = ?
WHERE id = ? AND user_id = ? RETURNING created_at`)

	var createdAt int64
	err := r.db.QueryRowxContext(ctx, query,
		c.Name, c.Surname, c.Email, c.Phone, birthdayValue(c.Birthday), c.Note, toMillis(now),
		c.ID, c.UserID,
	).Scan(&createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrContactNotFound
		}
		return fmt.Errorf("update contact: %w", err)
	}

	c.CreatedAt = fromMillis(createdAt)
	c.UpdatedAt = now
	return nil
}

// Delete removes contact id of userID and returns the removed row.
func (r *ContactRepo) Delete(ctx context.Context, userID, id int64) (*domain.Contact, error) {
	var row contactRow
	query := r.db.Rebind(`DELETE FROM contacts WHERE id = ? AND user_id = ? RETURNING ` + contactColumns)
	if err := r.db.GetContext(ctx, &row, query, id, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrContactNotFound
		}
		return nil, fmt.Errorf("delete contact: %w", err)
	}
	return row.toDomain()
}

// ListWithBirthday returns userID's contacts that have a birthday set.
func (r *ContactRepo) ListWithBirthday(ctx context.Context, userID int64) ([]*domain.Contact, error) {
	var rows []contactRow
	query := r.db.Rebind(`SELECT ` + contactColumns + ` FROM contacts WHERE user_id = ? AND birthday IS NOT NULL AND birthday <> '' ORDER BY id`)
	if err := r.db.SelectContext(ctx, &rows, query, userID); err != nil {
		return nil, fmt.Errorf("list birthdays: %w", err)
	}
	return rowsToDomain(rows)
}
