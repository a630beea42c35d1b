package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/yndnr/contacts-go/internal/core/domain"
)

const userColumns = `id, username, email, password_hash, refresh_token_hash, confirmed, avatar, created_at, updated_at`

// UserRepo is the SQL user directory.
type UserRepo struct {
	db *sqlx.DB
}

type userRow struct {
	ID               int64  `db:"id"`
	Username         string `db:"username"`
	Email            string `db:"email"`
	PasswordHash     string `db:"password_hash"`
	RefreshTokenHash string `db:"refresh_token_hash"`
	Confirmed        bool   `db:"confirmed"`
	Avatar           string `db:"avatar"`
	CreatedAt        int64  `db:"created_at"`
	UpdatedAt        int64  `db:"updated_at"`
}

func (r userRow) toDomain() *domain.User {
	return &domain.User{
		ID:               r.ID,
		Username:         r.Username,
		Email:            r.Email,
		PasswordHash:     r.PasswordHash,
		RefreshTokenHash: r.RefreshTokenHash,
		Confirmed:        r.Confirmed,
		Avatar:           r.Avatar,
		CreatedAt:        fromMillis(r.CreatedAt),
		UpdatedAt:        fromMillis(r.UpdatedAt),
	}
}

// Create inserts user and assigns its ID and timestamps.
func (r *UserRepo) Create(ctx context.Context, user *domain.User) error {
	now := time.Now().UTC().Truncate(time.Millisecond)
	query := r.db.Rebind(`INSERT INTO users (username, email, password_hash, refresh_token_hash, confirmed, avatar, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?) RETURNING id`)

	var id int64
	err := r.db.QueryRowxContext(ctx, query,
		user.Username, user.Email, user.PasswordHash, user.RefreshTokenHash,
		user.Confirmed, user.Avatar, toMillis(now), toMillis(now),
	).Scan(&id)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrUserExists.WithCause(err)
		}
		return fmt.Errorf("insert user: %w", err)
	}

	user.ID = id
	user.CreatedAt = now
	user.UpdatedAt = now
	return nil
}

// GetByEmail returns the user registered with email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	var row userRow
	err := r.db.GetContext(ctx, &row, r.db.Rebind(`SELECT `+userColumns+` FROM users WHERE email = ?`), email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select user: %w", err)
	}
	return row.toDomain(), nil
}

// UpdateRefreshToken stores the refresh token hash; an empty hash clears it.
func (r *UserRepo) UpdateRefreshToken(ctx context.Context, userID int64, tokenHash string) error {
	query := r.db.Rebind(`UPDATE users SET refresh_token_hash = ?, updated_at = ? WHERE id = ?`)
	return r.execOne(ctx, query, tokenHash, toMillis(time.Now()), userID)
}

// Confirm marks the email as confirmed.
func (r *UserRepo) Confirm(ctx context.Context, email string) error {
	query := r.db.Rebind(`UPDATE users SET confirmed = ?, updated_at = ? WHERE email = ?`)
	return r.execOne(ctx, query, true, toMillis(time.Now()), email)
}

// UpdateAvatar sets the avatar URL and returns the updated user.
func (r *UserRepo) UpdateAvatar(ctx context.Context, email, url string) (*domain.User, error) {
	var row userRow
	query := r.db.Rebind(`UPDATE users SET avatar = ?, updated_at = ? WHERE email = ? RETURNING ` + userColumns)
	err := r.db.GetContext(ctx, &row, query, url, toMillis(time.Now()), email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update avatar: %w", err)
	}
	return row.toDomain(), nil
}

func (r *UserRepo) execOne(ctx context.Context, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	if n == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}
