package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kovacsgabor0730/Kovacs-Gabor-Szakdolgozat/app/repository"
	"github.com/kovacsgabor0730/Kovacs-Gabor-Szakdolgozat/app/service"
	"github.com/kovacsgabor0730/Kovacs-Gabor-Szakdolgozat/app/types"
	"github.com/kovacsgabor0730/Kovacs-Gabor-Szakdolgozat/config"

	"github.com/DATA-DOG/go-sqlmock"
	"golang.org/x/crypto/bcrypt"
)

func newUserServiceWithMock(t *testing.T, policy config.PasswordPolicy, now time.Time) (service.UserService, sqlmock.Sqlmock, func()) {
	t.Helper()

	db, mock, cleanup := newMockDB(t)
	svc := service.NewUserService(repository.NewUserRepository(db), testConfig(policy), service.WithClock(func() time.Time { return now }))
	return svc, mock, cleanup
}

func TestUserService_GetProfile_NotFound(t *testing.T) {
	svc, mock, cleanup := newUserServiceWithMock(t, lenientPolicy(), time.Now())
	defer cleanup()

	mock.ExpectQuery(findByIDQuery).
		WithArgs(uint64(99)).
		WillReturnRows(sqlmock.NewRows(userColumns))

	if _, err := svc.GetProfile(context.Background(), 99); !errors.Is(err, service.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestUserService_UpdateProfile_PartialUpdate(t *testing.T) {
	svc, mock, cleanup := newUserServiceWithMock(t, lenientPolicy(), time.Now())
	defer cleanup()

	user := sampleUser(t, "password")
	mock.ExpectQuery(findByIDQuery).
		WithArgs(user.ID).
		WillReturnRows(userRows(user))
	mock.ExpectExec(updateUserQuery).
		WithArgs(
			"Anna", "Nagy", "Hungary", "Szeged", "6720", "Kárász utca", "5",
			user.Email, user.CanonicalEmail, user.PasswordHash, nil, nil, sqlmock.AnyArg(), user.ID,
		).
		WillReturnResult(sqlmock.NewResult(0, 1))

	updated, err := svc.UpdateProfile(context.Background(), user.ID, &types.UpdateProfileRequest{
		Name: &types.Name{FirstName: "Anna", LastName: " Nagy "},
		Address: &types.Address{
			Country:    "Hungary",
			City:       "Szeged",
			PostalCode: "6720",
			Street:     "Kárász utca",
			Number:     "5",
		},
	})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if updated.LastName != "Nagy" || updated.City != "Szeged" {
		t.Fatalf("unexpected updated user: %+v", updated)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestUserService_UpdateProfile_EmailTaken(t *testing.T) {
	svc, mock, cleanup := newUserServiceWithMock(t, lenientPolicy(), time.Now())
	defer cleanup()

	user := sampleUser(t, "password")
	other := sampleUser(t, "password")
	other.ID = 8
	other.Email = "taken@example.com"
	other.CanonicalEmail = "taken@example.com"

	mock.ExpectQuery(findByIDQuery).
		WithArgs(user.ID).
		WillReturnRows(userRows(user))
	mock.ExpectQuery(findByCanonicalEmailQuery).
		WithArgs("taken@example.com").
		WillReturnRows(userRows(other))

	email := "Taken@example.com"
	_, err := svc.UpdateProfile(context.Background(), user.ID, &types.UpdateProfileRequest{Email: &email})
	if !errors.Is(err, service.ErrUserExists) {
		t.Fatalf("expected ErrUserExists, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestUserService_UpdateProfile_Password(t *testing.T) {
	svc, mock, cleanup := newUserServiceWithMock(t, config.PasswordPolicy{MinLength: 8, RequireNumber: true}, time.Now())
	defer cleanup()

	user := sampleUser(t, "password")
	mock.ExpectQuery(findByIDQuery).
		WithArgs(user.ID).
		WillReturnRows(userRows(user))

	weak := "weak"
	if _, err := svc.UpdateProfile(context.Background(), user.ID, &types.UpdateProfileRequest{Password: &weak}); !errors.Is(err, service.ErrWeakPassword) {
		t.Fatalf("expected ErrWeakPassword, got %v", err)
	}

	mock.ExpectQuery(findByIDQuery).
		WithArgs(user.ID).
		WillReturnRows(userRows(user))
	mock.ExpectExec(updateUserQuery).
		WillReturnResult(sqlmock.NewResult(0, 1))

	strong := "longer-password-1"
	updated, err := svc.UpdateProfile(context.Background(), user.ID, &types.UpdateProfileRequest{Password: &strong})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(updated.PasswordHash), []byte(strong)) != nil {
		t.Fatalf("expected new password hash")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestUserService_SavePushToken(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	svc, mock, cleanup := newUserServiceWithMock(t, lenientPolicy(), now)
	defer cleanup()

	user := sampleUser(t, "password")
	mock.ExpectQuery(findByIDQuery).
		WithArgs(user.ID).
		WillReturnRows(userRows(user))
	mock.ExpectExec(updatePushTokenQuery).
		WithArgs("device-token", now, now, user.ID).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := svc.SavePushToken(context.Background(), user.ID, &types.PushTokenRequest{PushToken: " device-token "}); err != nil {
		t.Fatalf("save push token failed: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
