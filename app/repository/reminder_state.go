package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/kovacsgabor0730/Kovacs-Gabor-Szakdolgozat/app/entity"
)

type ReminderStateRepository struct {
	db DBTX
}

func NewReminderStateRepository(db DBTX) *ReminderStateRepository {
	return &ReminderStateRepository{db: db}
}

func (r *ReminderStateRepository) FindByUserID(ctx context.Context, userID uint64) (*entity.ReminderState, error) {
	query := `SELECT user_id, expiry_date, scheduled_at, updated_at FROM reminder_states WHERE user_id = ?`
	state := &entity.ReminderState{}
	err := r.db.QueryRowContext(ctx, query, userID).Scan(
		&state.UserID,
		&state.ExpiryDate,
		&state.ScheduledAt,
		&state.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return state, nil
}

func (r *ReminderStateRepository) Save(ctx context.Context, state *entity.ReminderState) error {
	query := `
		INSERT INTO reminder_states (user_id, expiry_date, scheduled_at, updated_at)
		VALUES (?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE
			expiry_date = VALUES(expiry_date),
			scheduled_at = VALUES(scheduled_at),
			updated_at = VALUES(updated_at)
	`
	_, err := r.db.ExecContext(ctx, query,
		state.UserID,
		dateValue(state.ExpiryDate),
		state.ScheduledAt,
		state.UpdatedAt,
	)
	return err
}

func (r *ReminderStateRepository) Delete(ctx context.Context, userID uint64) error {
	query := `DELETE FROM reminder_states WHERE user_id = ?`
	_, err := r.db.ExecContext(ctx, query, userID)
	return err
}
