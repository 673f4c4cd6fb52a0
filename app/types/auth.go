package types

import (
	"errors"
	"strings"

	"github.com/labstack/echo/v4"
)

var (
	ErrPasswordsDoNotMatch = errors.New("Passwords do not match")
	ErrInvalidEmail        = errors.New("Invalid email format")
)

type RegisterRequest struct {
	FirstName       string `json:"firstName" validate:"required"`
	LastName        string `json:"lastName" validate:"required"`
	Country         string `json:"country" validate:"required"`
	City            string `json:"city" validate:"required"`
	PostalCode      string `json:"postalCode" validate:"required"`
	Street          string `json:"street" validate:"required"`
	Number          string `json:"number" validate:"required"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required"`
	ConfirmPassword string `json:"confirmPassword" validate:"required"`
}

func NewRegisterRequestFromContext(ctx echo.Context) (*RegisterRequest, error) {
	var body RegisterRequest
	if err := ctx.Bind(&body); err != nil {
		return nil, err
	}

	body.Email = strings.TrimSpace(body.Email)
	return &body, nil
}

func (r *RegisterRequest) Validate() error {
	if err := validate.Struct(r); err != nil {
		if firstFailedTag(err) == "email" {
			return ErrInvalidEmail
		}
		return errors.New("All fields are required")
	}
	if r.Password != r.ConfirmPassword {
		return ErrPasswordsDoNotMatch
	}

	return nil
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

func NewLoginRequestFromContext(ctx echo.Context) (*LoginRequest, error) {
	var body LoginRequest
	if err := ctx.Bind(&body); err != nil {
		return nil, err
	}

	return &body, nil
}

func (r *LoginRequest) Validate() error {
	if strings.TrimSpace(r.Email) == "" || r.Password == "" {
		return errors.New("Email and password are required")
	}

	return nil
}

type BiometricLoginRequest struct {
	Email     string `json:"email"`
	DeviceKey string `json:"deviceKey"`
}

func NewBiometricLoginRequestFromContext(ctx echo.Context) (*BiometricLoginRequest, error) {
	var body BiometricLoginRequest
	if err := ctx.Bind(&body); err != nil {
		return nil, err
	}

	return &body, nil
}

func (r *BiometricLoginRequest) Validate() error {
	if strings.TrimSpace(r.Email) == "" {
		return errors.New("Email is required")
	}

	return nil
}

type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

func NewForgotPasswordRequestFromContext(ctx echo.Context) (*ForgotPasswordRequest, error) {
	var body ForgotPasswordRequest
	if err := ctx.Bind(&body); err != nil {
		return nil, err
	}

	return &body, nil
}

func (r *ForgotPasswordRequest) Validate() error {
	if strings.TrimSpace(r.Email) == "" {
		return errors.New("Email is required")
	}

	return nil
}

type ResetPasswordRequest struct {
	Token           string `param:"token" json:"-"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

func NewResetPasswordRequestFromContext(ctx echo.Context) (*ResetPasswordRequest, error) {
	var body ResetPasswordRequest
	if err := ctx.Bind(&body); err != nil {
		return nil, err
	}
	body.Token = ctx.Param("token")

	return &body, nil
}

func (r *ResetPasswordRequest) Validate() error {
	if strings.TrimSpace(r.Token) == "" {
		return errors.New("Token is required")
	}
	if r.Password == "" || r.ConfirmPassword == "" {
		return errors.New("Password and confirmPassword are required")
	}
	if r.Password != r.ConfirmPassword {
		return ErrPasswordsDoNotMatch
	}

	return nil
}

type MessageResponse struct {
	Message string `json:"message"`
}

type LoginResponse struct {
	Message string `json:"message"`
	Token   string `json:"token"`
}

type BiometricEnrollResponse struct {
	Message   string `json:"message"`
	DeviceKey string `json:"deviceKey"`
}
