package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/kovacsgabor0730/Kovacs-Gabor-Szakdolgozat/app/entity"
)

const userColumns = `id, first_name, last_name, country, city, postal_code, street, house_number,
		       email, canonical_email, password_hash, reset_token, reset_token_expires_at,
		       push_token, push_token_updated_at, biometric_key_hash, created_at, updated_at`

type UserRepository struct {
	db DBTX
}

func NewUserRepository(db DBTX) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, user *entity.User) error {
	query := `
		INSERT INTO users (first_name, last_name, country, city, postal_code, street, house_number,
		                   email, canonical_email, password_hash, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	result, err := r.db.ExecContext(ctx, query,
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
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		return mapWriteError(err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	user.ID = uint64(id)
	return nil
}

func (r *UserRepository) FindByCanonicalEmail(ctx context.Context, canonicalEmail string) (*entity.User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users WHERE canonical_email = ?
	`
	return r.findOne(ctx, query, canonicalEmail)
}

func (r *UserRepository) FindByID(ctx context.Context, id uint64) (*entity.User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users WHERE id = ?
	`
	return r.findOne(ctx, query, id)
}

func (r *UserRepository) FindByResetToken(ctx context.Context, token string) (*entity.User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users WHERE reset_token = ?
	`
	return r.findOne(ctx, query, token)
}

func (r *UserRepository) Update(ctx context.Context, user *entity.User) error {
	query := `
		UPDATE users SET
			first_name = ?,
			last_name = ?,
			country = ?,
			city = ?,
			postal_code = ?,
			street = ?,
			house_number = ?,
			email = ?,
			canonical_email = ?,
			password_hash = ?,
			reset_token = ?,
			reset_token_expires_at = ?,
			updated_at = ?
		WHERE id = ?
	`
	user.UpdatedAt = time.Now()
	_, err := r.db.ExecContext(ctx, query,
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
		user.UpdatedAt,
		user.ID,
	)
	return mapWriteError(err)
}

func (r *UserRepository) UpdatePushToken(ctx context.Context, userID uint64, token string, updatedAt time.Time) error {
	query := `UPDATE users SET push_token = ?, push_token_updated_at = ?, updated_at = ? WHERE id = ?`
	_, err := r.db.ExecContext(ctx, query, token, updatedAt, updatedAt, userID)
	return err
}

func (r *UserRepository) UpdateBiometricKey(ctx context.Context, userID uint64, keyHash sql.NullString) error {
	query := `UPDATE users SET biometric_key_hash = ?, updated_at = ? WHERE id = ?`
	_, err := r.db.ExecContext(ctx, query, keyHash, time.Now(), userID)
	return err
}

func (r *UserRepository) findOne(ctx context.Context, query string, arg any) (*entity.User, error) {
	user := &entity.User{}
	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&user.ID,
		&user.FirstName,
		&user.LastName,
		&user.Country,
		&user.City,
		&user.PostalCode,
		&user.Street,
		&user.Number,
		&user.Email,
		&user.CanonicalEmail,
		&user.PasswordHash,
		&user.ResetToken,
		&user.ResetTokenExpiresAt,
		&user.PushToken,
		&user.PushTokenUpdatedAt,
		&user.BiometricKeyHash,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}
