package repository

import (
	"context"
	"time"

	"github.com/kovacsgabor0730/Kovacs-Gabor-Szakdolgozat/app/entity"
)

const notificationColumns = `id, user_id, identifier, title, body, fire_at, status, sent_at, last_error, created_at, updated_at`

type NotificationRepository struct {
	db DBTX
}

func NewNotificationRepository(db DBTX) *NotificationRepository {
	return &NotificationRepository{db: db}
}

// Upsert replaces the notification stored under (user_id, identifier).
func (r *NotificationRepository) Upsert(ctx context.Context, n *entity.ScheduledNotification) error {
	query := `
		INSERT INTO scheduled_notifications (user_id, identifier, title, body, fire_at, status, sent_at, last_error, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE
			title = VALUES(title),
			body = VALUES(body),
			fire_at = VALUES(fire_at),
			status = VALUES(status),
			sent_at = VALUES(sent_at),
			last_error = VALUES(last_error),
			updated_at = VALUES(updated_at)
	`
	_, err := r.db.ExecContext(ctx, query,
		n.UserID,
		n.Identifier,
		n.Title,
		n.Body,
		n.FireAt,
		n.Status,
		n.SentAt,
		n.LastError,
		n.CreatedAt,
		n.UpdatedAt,
	)
	return err
}

func (r *NotificationRepository) Delete(ctx context.Context, userID uint64, identifier string) error {
	query := `DELETE FROM scheduled_notifications WHERE user_id = ? AND identifier = ?`
	_, err := r.db.ExecContext(ctx, query, userID, identifier)
	return err
}

func (r *NotificationRepository) FindDue(ctx context.Context, now time.Time, limit int) ([]*entity.ScheduledNotification, error) {
	query := `
		SELECT ` + notificationColumns + `
		FROM scheduled_notifications
		WHERE status = ? AND fire_at <= ?
		ORDER BY fire_at
		LIMIT ?
	`
	rows, err := r.db.QueryContext(ctx, query, entity.NotificationStatusPending, now, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var due []*entity.ScheduledNotification
	for rows.Next() {
		n := &entity.ScheduledNotification{}
		if err := scanNotification(rows, n); err != nil {
			return nil, err
		}
		due = append(due, n)
	}
	return due, rows.Err()
}

// Claim moves a due row from pending to sending. It reports false when the
// row was claimed elsewhere or rescheduled since it was read.
func (r *NotificationRepository) Claim(ctx context.Context, id uint64, fireAt, at time.Time) (bool, error) {
	query := `UPDATE scheduled_notifications SET status = ?, updated_at = ? WHERE id = ? AND status = ? AND fire_at = ?`
	result, err := r.db.ExecContext(ctx, query,
		entity.NotificationStatusSending,
		at,
		id,
		entity.NotificationStatusPending,
		fireAt,
	)
	if err != nil {
		return false, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected == 1, nil
}

// MarkSent and MarkFailed only touch claimed rows, so a row rescheduled
// while it was being sent stays pending.
func (r *NotificationRepository) MarkSent(ctx context.Context, id uint64, sentAt time.Time) error {
	query := `UPDATE scheduled_notifications SET status = ?, sent_at = ?, last_error = NULL, updated_at = ? WHERE id = ? AND status = ?`
	_, err := r.db.ExecContext(ctx, query, entity.NotificationStatusSent, sentAt, sentAt, id, entity.NotificationStatusSending)
	return err
}

func (r *NotificationRepository) MarkFailed(ctx context.Context, id uint64, reason string, at time.Time) error {
	query := `UPDATE scheduled_notifications SET status = ?, last_error = ?, updated_at = ? WHERE id = ? AND status = ?`
	_, err := r.db.ExecContext(ctx, query, entity.NotificationStatusFailed, reason, at, id, entity.NotificationStatusSending)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanNotification(row rowScanner, n *entity.ScheduledNotification) error {
	return row.Scan(
		&n.ID,
		&n.UserID,
		&n.Identifier,
		&n.Title,
		&n.Body,
		&n.FireAt,
		&n.Status,
		&n.SentAt,
		&n.LastError,
		&n.CreatedAt,
		&n.UpdatedAt,
	)
}
