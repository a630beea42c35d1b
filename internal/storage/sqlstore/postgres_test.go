package sqlstore

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/yndnr/contacts-go/internal/core/domain"
	"github.com/yndnr/contacts-go/internal/storage/sqlstore/migrations"
)

func newPostgresMock(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return New(sqlx.NewDb(db, DriverPostgres), nil), mock
}

func TestPostgres_CreateUserRebindsPlaceholders(t *testing.T) {
	s, mock := newPostgresMock(t)

	mock.ExpectQuery(regexp.QuoteMeta("VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id")).
		WithArgs("ann", "ann@example.com", "hash", "", false, "", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(42)))

	u := &domain.User{Username: "ann", Email: "ann@example.com", PasswordHash: "hash"}
	if err := s.Users().Create(context.Background(), u); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if u.ID != 42 {
		t.Errorf("ID = %d, want 42", u.ID)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestPostgres_UniqueViolationMapsToUserExists(t *testing.T) {
	s, mock := newPostgresMock(t)

	mock.ExpectQuery("INSERT INTO users").
		WillReturnError(&pq.Error{Code: "23505", Message: "duplicate key value violates unique constraint"})

	err := s.Users().Create(context.Background(), &domain.User{Username: "ann", Email: "ann@example.com"})
	if !errors.Is(err, domain.ErrUserExists) {
		t.Errorf("Create() error = %v, want ErrUserExists", err)
	}
}

func TestPostgres_OtherErrorsAreNotConflicts(t *testing.T) {
	s, mock := newPostgresMock(t)

	mock.ExpectQuery("INSERT INTO users").
		WillReturnError(&pq.Error{Code: "57P01", Message: "terminating connection"})

	err := s.Users().Create(context.Background(), &domain.User{Username: "ann", Email: "ann@example.com"})
	if err == nil || errors.Is(err, domain.ErrUserExists) {
		t.Errorf("Create() error = %v, want a plain storage error", err)
	}
}

func TestPostgres_UpdateContactScopedByOwner(t *testing.T) {
	s, mock := newPostgresMock(t)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE id = $8 AND user_id = $9 RETURNING created_at")).
		WithArgs("Ann", "", "", "", sqlmock.AnyArg(), "", sqlmock.AnyArg(), int64(7), int64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}))

	err := s.Contacts().Update(context.Background(), &domain.Contact{ID: 7, UserID: 3, Name: "Ann"})
	if !errors.Is(err, domain.ErrContactNotFound) {
		t.Errorf("Update() error = %v, want ErrContactNotFound", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestPostgres_Migrations(t *testing.T) {
	s, mock := newPostgresMock(t)

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS schema_migrations").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM schema_migrations WHERE name = $1")).
		WithArgs("0001_init.sql").
		WillReturnRows(sqlmock.NewRows([]string{"1"}))
	mock.ExpectBegin()
	mock.ExpectExec("BIGSERIAL").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO schema_migrations (name, applied_at) VALUES ($1, $2)")).
		WithArgs("0001_init.sql", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	n, err := ApplyMigrations(context.Background(), s.db, migrations.FS, DriverPostgres)
	if err != nil || n != 1 {
		t.Fatalf("ApplyMigrations() = %d, %v", n, err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestIsUniqueViolation(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"pq unique", &pq.Error{Code: "23505"}, true},
		{"pq other", &pq.Error{Code: "23503"}, false},
		{"sqlite message", errors.New("UNIQUE constraint failed: users.email"), true},
		{"plain", errors.New("boom"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isUniqueViolation(tt.err); got != tt.want {
				t.Errorf("isUniqueViolation() = %v, want %v", got, tt.want)
			}
		})
	}
}
