package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/kovacsgabor0730/Kovacs-Gabor-Szakdolgozat/app/entity"
)

const idCardColumns = `id, user_id, id_number, first_name, last_name, sex, can_number, place_of_birth,
		       mothers_maiden_name, date_of_birth, date_of_expiry, created_at, modified_at`

type IDCardRepository struct {
	db DBTX
}

func NewIDCardRepository(db DBTX) *IDCardRepository {
	return &IDCardRepository{db: db}
}

func (r *IDCardRepository) WithTx(tx DBTX) *IDCardRepository {
	return &IDCardRepository{db: tx}
}

func (r *IDCardRepository) FindByUserID(ctx context.Context, userID uint64) (*entity.IDCard, error) {
	query := `
		SELECT ` + idCardColumns + `
		FROM id_cards WHERE user_id = ?
	`
	return scanIDCard(r.db.QueryRowContext(ctx, query, userID))
}

func (r *IDCardRepository) FindByIDNumber(ctx context.Context, idNumber string) (*entity.IDCard, error) {
	query := `
		SELECT ` + idCardColumns + `
		FROM id_cards WHERE id_number = ?
	`
	return scanIDCard(r.db.QueryRowContext(ctx, query, idNumber))
}

func (r *IDCardRepository) Create(ctx context.Context, card *entity.IDCard) error {
	query := `
		INSERT INTO id_cards (user_id, id_number, first_name, last_name, sex, can_number, place_of_birth,
		                      mothers_maiden_name, date_of_birth, date_of_expiry, created_at, modified_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	result, err := r.db.ExecContext(ctx, query,
		card.UserID,
		card.IDNumber,
		card.FirstName,
		card.LastName,
		card.Sex,
		card.CANNumber,
		card.PlaceOfBirth,
		card.MothersMaidenName,
		dateValue(card.DateOfBirth),
		dateValue(card.DateOfExpiry),
		card.CreatedAt,
		card.ModifiedAt,
	)
	if err != nil {
		return mapWriteError(err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	card.ID = uint64(id)
	return nil
}

func (r *IDCardRepository) Update(ctx context.Context, card *entity.IDCard) error {
	query := `
		UPDATE id_cards SET
			id_number = ?,
			first_name = ?,
			last_name = ?,
			sex = ?,
			can_number = ?,
			place_of_birth = ?,
			mothers_maiden_name = ?,
			date_of_birth = ?,
			date_of_expiry = ?,
			modified_at = ?
		WHERE user_id = ?
	`
	_, err := r.db.ExecContext(ctx, query,
		card.IDNumber,
		card.FirstName,
		card.LastName,
		card.Sex,
		card.CANNumber,
		card.PlaceOfBirth,
		card.MothersMaidenName,
		dateValue(card.DateOfBirth),
		dateValue(card.DateOfExpiry),
		card.ModifiedAt,
		card.UserID,
	)
	return mapWriteError(err)
}

// ListExpiries returns the user id and expiry date of every stored card.
func (r *IDCardRepository) ListExpiries(ctx context.Context) ([]*entity.IDCard, error) {
	query := `SELECT user_id, date_of_expiry FROM id_cards ORDER BY user_id`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cards []*entity.IDCard
	for rows.Next() {
		card := &entity.IDCard{}
		if err := rows.Scan(&card.UserID, &card.DateOfExpiry); err != nil {
			return nil, err
		}
		cards = append(cards, card)
	}
	return cards, rows.Err()
}

func scanIDCard(row *sql.Row) (*entity.IDCard, error) {
	card := &entity.IDCard{}
	err := row.Scan(
		&card.ID,
		&card.UserID,
		&card.IDNumber,
		&card.FirstName,
		&card.LastName,
		&card.Sex,
		&card.CANNumber,
		&card.PlaceOfBirth,
		&card.MothersMaidenName,
		&card.DateOfBirth,
		&card.DateOfExpiry,
		&card.CreatedAt,
		&card.ModifiedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return card, nil
}
