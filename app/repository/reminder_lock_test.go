package repository_test

import (
	"context"
	"errors"
	"testing"

	"github.com/kovacsgabor0730/Kovacs-Gabor-Szakdolgozat/app/repository"

	"github.com/DATA-DOG/go-sqlmock"
)

const (
	getLockQuery     = `SELECT GET_LOCK\(\?, \?\)`
	releaseLockQuery = `SELECT RELEASE_LOCK\(\?\)`
)

func TestReminderLockerAcquiresAndReleases(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()

	mock.ExpectQuery(getLockQuery).
		WithArgs("idcard_reminder_7", 10).
		WillReturnRows(sqlmock.NewRows([]string{"lock"}).AddRow(1))
	mock.ExpectQuery(releaseLockQuery).
		WithArgs("idcard_reminder_7").
		WillReturnRows(sqlmock.NewRows([]string{"released"}).AddRow(1))

	unlock, err := repository.NewReminderLocker(db).Lock(context.Background(), 7)
	if err != nil {
		t.Fatalf("Lock() error = %v", err)
	}
	unlock()

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestReminderLockerTimeout(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()

	mock.ExpectQuery(getLockQuery).
		WithArgs("idcard_reminder_7", 10).
		WillReturnRows(sqlmock.NewRows([]string{"lock"}).AddRow(0))

	_, err := repository.NewReminderLocker(db).Lock(context.Background(), 7)
	if !errors.Is(err, repository.ErrLockTimeout) {
		t.Fatalf("expected ErrLockTimeout, got %v", err)
	}
}
