package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

const defaultLockWait = 10 * time.Second

var ErrLockTimeout = errors.New("timed out waiting for lock")

// ReminderLocker takes a MySQL named lock per user, so reconciles are
// serialized across every process sharing the database.
type ReminderLocker struct {
	db   *sql.DB
	wait time.Duration
}

func NewReminderLocker(db *sql.DB) *ReminderLocker {
	return &ReminderLocker{db: db, wait: defaultLockWait}
}

func reminderLockName(userID uint64) string {
	return fmt.Sprintf("idcard_reminder_%d", userID)
}

// Lock holds a dedicated connection until unlock, since named locks belong
// to the session that took them.
func (l *ReminderLocker) Lock(ctx context.Context, userID uint64) (func(), error) {
	conn, err := l.db.Conn(ctx)
	if err != nil {
		return nil, err
	}

	name := reminderLockName(userID)
	var acquired sql.NullInt64
	err = conn.QueryRowContext(ctx, `SELECT GET_LOCK(?, ?)`, name, int(l.wait/time.Second)).Scan(&acquired)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	if !acquired.Valid || acquired.Int64 != 1 {
		_ = conn.Close()
		return nil, ErrLockTimeout
	}

	return func() {
		var released sql.NullInt64
		if err := conn.QueryRowContext(context.Background(), `SELECT RELEASE_LOCK(?)`, name).Scan(&released); err != nil {
			logrus.WithError(err).WithField("lock", name).Warn("Failed to release reminder lock")
		}
		_ = conn.Close()
	}, nil
}
