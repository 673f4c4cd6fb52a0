package types

import (
	"errors"
	"time"

	"github.com/kovacsgabor0730/Kovacs-Gabor-Szakdolgozat/app/entity"

	"github.com/labstack/echo/v4"
)

const DateLayout = "2006-01-02"

var ErrAllFieldsRequired = errors.New("All fields are required")

type IDCardRequest struct {
	IDNumber          string `json:"id_number" validate:"required"`
	FirstName         string `json:"first_name" validate:"required"`
	LastName          string `json:"last_name" validate:"required"`
	Sex               string `json:"sex" validate:"required"`
	DateOfExpiry      string `json:"date_of_expiry" validate:"required"`
	PlaceOfBirth      string `json:"place_of_birth" validate:"required"`
	MothersMaidenName string `json:"mothers_maiden_name" validate:"required"`
	CANNumber         string `json:"can_number" validate:"required"`
	DateOfBirth       string `json:"date_of_birth" validate:"required"`
}

func NewIDCardRequestFromContext(ctx echo.Context) (*IDCardRequest, error) {
	var body IDCardRequest
	if err := ctx.Bind(&body); err != nil {
		return nil, err
	}

	return &body, nil
}

// Validate only checks presence; the format and date rules run in order in
// the ID card service.
func (r *IDCardRequest) Validate() error {
	if err := validate.Struct(r); err != nil {
		return ErrAllFieldsRequired
	}

	return nil
}

type IDCardResponse struct {
	ID                uint64    `json:"id"`
	UserID            uint64    `json:"user_id"`
	IDNumber          string    `json:"id_number"`
	FirstName         string    `json:"first_name"`
	LastName          string    `json:"last_name"`
	Sex               string    `json:"sex"`
	DateOfExpiry      string    `json:"date_of_expiry"`
	PlaceOfBirth      string    `json:"place_of_birth"`
	MothersMaidenName string    `json:"mothers_maiden_name"`
	CANNumber         string    `json:"can_number"`
	DateOfBirth       string    `json:"date_of_birth"`
	ModifiedAt        time.Time `json:"modified_at"`
}

func NewIDCardResponse(card *entity.IDCard) *IDCardResponse {
	return &IDCardResponse{
		ID:                card.ID,
		UserID:            card.UserID,
		IDNumber:          card.IDNumber,
		FirstName:         card.FirstName,
		LastName:          card.LastName,
		Sex:               card.Sex,
		DateOfExpiry:      card.DateOfExpiry.Format(DateLayout),
		PlaceOfBirth:      card.PlaceOfBirth,
		MothersMaidenName: card.MothersMaidenName,
		CANNumber:         card.CANNumber,
		DateOfBirth:       card.DateOfBirth.Format(DateLayout),
		ModifiedAt:        card.ModifiedAt,
	}
}

type IDCardStoredResponse struct {
	Message string          `json:"message"`
	Data    *IDCardResponse `json:"data"`
}
