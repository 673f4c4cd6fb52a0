package types

import (
	"errors"
	"strings"
	"time"

	"github.com/kovacsgabor0730/Kovacs-Gabor-Szakdolgozat/app/entity"

	"github.com/labstack/echo/v4"
)

type Name struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

type Address struct {
	Country    string `json:"country" validate:"required"`
	City       string `json:"city" validate:"required"`
	PostalCode string `json:"postal_code" validate:"required"`
	Street     string `json:"street" validate:"required"`
	Number     string `json:"number" validate:"required"`
}

type UserProfileResponse struct {
	ID                 uint64     `json:"id"`
	Name               Name       `json:"name"`
	Address            Address    `json:"address"`
	Email              string     `json:"email"`
	PushTokenUpdatedAt *time.Time `json:"tokenUpdatedAt,omitempty"`
	BiometricEnabled   bool       `json:"biometricEnabled"`
	CreatedAt          time.Time  `json:"createdAt"`
}

func NewUserProfileResponse(user *entity.User) *UserProfileResponse {
	res := &UserProfileResponse{
		ID: user.ID,
		Name: Name{
			FirstName: user.FirstName,
			LastName:  user.LastName,
		},
		Address: Address{
			Country:    user.Country,
			City:       user.City,
			PostalCode: user.PostalCode,
			Street:     user.Street,
			Number:     user.Number,
		},
		Email:            user.Email,
		BiometricEnabled: user.BiometricKeyHash.Valid,
		CreatedAt:        user.CreatedAt,
	}
	if user.PushTokenUpdatedAt.Valid {
		updatedAt := user.PushTokenUpdatedAt.Time
		res.PushTokenUpdatedAt = &updatedAt
	}
	return res
}

// UpdateProfileRequest carries optional parts; nil parts are left unchanged.
type UpdateProfileRequest struct {
	Name     *Name    `json:"name"`
	Email    *string  `json:"email"`
	Address  *Address `json:"address"`
	Password *string  `json:"password"`
}

func NewUpdateProfileRequestFromContext(ctx echo.Context) (*UpdateProfileRequest, error) {
	var body UpdateProfileRequest
	if err := ctx.Bind(&body); err != nil {
		return nil, err
	}

	return &body, nil
}

func (r *UpdateProfileRequest) Validate() error {
	if r.Name == nil && r.Email == nil && r.Address == nil && r.Password == nil {
		return errors.New("Nothing to update")
	}
	if r.Name != nil && (strings.TrimSpace(r.Name.FirstName) == "" || strings.TrimSpace(r.Name.LastName) == "") {
		return errors.New("First and last name are required")
	}
	if r.Email != nil {
		if err := validate.Var(strings.TrimSpace(*r.Email), "required,email"); err != nil {
			return ErrInvalidEmail
		}
	}
	if r.Address != nil {
		if err := validate.Struct(r.Address); err != nil {
			return errors.New("All address fields are required")
		}
	}

	return nil
}

type PushTokenRequest struct {
	PushToken string `json:"pushToken"`
}

func NewPushTokenRequestFromContext(ctx echo.Context) (*PushTokenRequest, error) {
	var body PushTokenRequest
	if err := ctx.Bind(&body); err != nil {
		return nil, err
	}

	return &body, nil
}

func (r *PushTokenRequest) Validate() error {
	if strings.TrimSpace(r.PushToken) == "" {
		return errors.New("Push token is required")
	}

	return nil
}
