package repository_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/kovacsgabor0730/Kovacs-Gabor-Szakdolgozat/app/entity"
	"github.com/kovacsgabor0730/Kovacs-Gabor-Szakdolgozat/app/repository"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
)

const (
	insertUserQuery           = `(?s)INSERT INTO users \(first_name, last_name, country, city, postal_code, street, house_number,\s+email, canonical_email, password_hash, created_at, updated_at\)\s+VALUES \(\?, \?, \?, \?, \?, \?, \?, \?, \?, \?, \?, \?\)`
	updateUserQuery           = `(?s)UPDATE users SET\s+first_name = \?,\s+last_name = \?,\s+country = \?,\s+city = \?,\s+postal_code = \?,\s+street = \?,\s+house_number = \?,\s+email = \?,\s+canonical_email = \?,\s+password_hash = \?,\s+reset_token = \?,\s+reset_token_expires_at = \?,\s+updated_at = \?\s+WHERE id = \?`
	findByCanonicalEmailQuery = `(?s)SELECT id, first_name, last_name, .+\s+FROM users WHERE canonical_email = \?`
	findByIDQuery             = `(?s)SELECT id, first_name, last_name, .+\s+FROM users WHERE id = \?`
	updatePushTokenQuery      = `UPDATE users SET push_token = \?, push_token_updated_at = \?, updated_at = \? WHERE id = \?`
	updateBiometricKeyQuery   = `UPDATE users SET biometric_key_hash = \?, updated_at = \? WHERE id = \?`
)

var userColumns = []string{
	"id",
	"first_name",
	"last_name",
	"country",
	"city",
	"postal_code",
	"street",
	"house_number",
	"email",
	"canonical_email",
	"password_hash",
	"reset_token",
	"reset_token_expires_at",
	"push_token",
	"push_token_updated_at",
	"biometric_key_hash",
	"created_at",
	"updated_at",
}

var duplicateEntryError = &mysql.MySQLError{Number: 1062, Message: "Duplicate entry"}

func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock, func()) {
	t.Helper()

	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	return db, mock, func() { _ = db.Close() }
}

func newUser() *entity.User {
	now := time.Now()
	return &entity.User{
		FirstName:      "Anna",
		LastName:       "Kiss",
		Country:        "Hungary",
		City:           "Budapest",
		PostalCode:     "1011",
		Street:         "Fő utca",
		Number:         "1",
		Email:          "Anna@Example.com",
		CanonicalEmail: "anna@example.com",
		PasswordHash:   "hash",
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

func TestUserCreateSetsID(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()

	user := newUser()
	mock.ExpectExec(insertUserQuery).
		WithArgs(
			user.FirstName,
			user.LastName,
			user.Country,
			user.City,
			user.PostalCode,
			user.Street,
			user.Number,
			user.Email,
			user.CanonicalEmail,
			user.PasswordHash,
			sqlmock.AnyArg(),
			sqlmock.AnyArg(),
		).
		WillReturnResult(sqlmock.NewResult(42, 1))

	repo := repository.NewUserRepository(db)
	if err := repo.Create(context.Background(), user); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if user.ID != 42 {
		t.Fatalf("expected user ID 42, got %d", user.ID)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestUserCreateDuplicate(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()

	mock.ExpectExec(insertUserQuery).WillReturnError(duplicateEntryError)

	repo := repository.NewUserRepository(db)
	err := repo.Create(context.Background(), newUser())
	if !errors.Is(err, repository.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
}

func TestUserFindByCanonicalEmailNotFound(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()

	mock.ExpectQuery(findByCanonicalEmailQuery).
		WithArgs("missing@example.com").
		WillReturnRows(sqlmock.NewRows(userColumns))

	repo := repository.NewUserRepository(db)
	user, err := repo.FindByCanonicalEmail(context.Background(), "missing@example.com")
	if err != nil {
		t.Fatalf("FindByCanonicalEmail() error = %v", err)
	}
	if user != nil {
		t.Fatalf("expected nil user, got %+v", user)
	}
}

func TestUserFindByIDScansNullableColumns(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()

	now := time.Now()
	mock.ExpectQuery(findByIDQuery).
		WithArgs(uint64(7)).
		WillReturnRows(sqlmock.NewRows(userColumns).AddRow(
			uint64(7), "Anna", "Kiss", "Hungary", "Budapest", "1011", "Fő utca", "1",
			"anna@example.com", "anna@example.com", "hash",
			nil, nil,
			"device-token", now, nil,
			now, now,
		))

	repo := repository.NewUserRepository(db)
	user, err := repo.FindByID(context.Background(), 7)
	if err != nil {
		t.Fatalf("FindByID() error = %v", err)
	}
	if user == nil || user.Number != "1" {
		t.Fatalf("unexpected user: %+v", user)
	}
	if user.ResetToken.Valid {
		t.Fatal("expected reset token to be NULL")
	}
	if !user.HasPushToken() || user.PushToken.String != "device-token" {
		t.Fatalf("expected push token, got %+v", user.PushToken)
	}
	if user.BiometricKeyHash.Valid {
		t.Fatal("expected biometric key to be NULL")
	}
}

func TestUserUpdateRefreshesUpdatedAt(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()

	user := newUser()
	user.ID = 7
	user.UpdatedAt = time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	before := user.UpdatedAt

	mock.ExpectExec(updateUserQuery).
		WithArgs(
			user.FirstName,
			user.LastName,
			user.Country,
			user.City,
			user.PostalCode,
			user.Street,
			user.Number,
			user.Email,
			user.CanonicalEmail,
			user.PasswordHash,
			user.ResetToken,
			user.ResetTokenExpiresAt,
			sqlmock.AnyArg(),
			user.ID,
		).
		WillReturnResult(sqlmock.NewResult(0, 1))

	repo := repository.NewUserRepository(db)
	if err := repo.Update(context.Background(), user); err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if !user.UpdatedAt.After(before) {
		t.Fatalf("expected UpdatedAt to move forward, got %v", user.UpdatedAt)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestUserUpdatePushToken(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()

	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	mock.ExpectExec(updatePushTokenQuery).
		WithArgs("device-token", at, at, uint64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	repo := repository.NewUserRepository(db)
	if err := repo.UpdatePushToken(context.Background(), 7, "device-token", at); err != nil {
		t.Fatalf("UpdatePushToken() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestUserUpdateBiometricKeyClears(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()

	mock.ExpectExec(updateBiometricKeyQuery).
		WithArgs(sql.NullString{}, sqlmock.AnyArg(), uint64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	repo := repository.NewUserRepository(db)
	if err := repo.UpdateBiometricKey(context.Background(), 7, sql.NullString{}); err != nil {
		t.Fatalf("UpdateBiometricKey() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
