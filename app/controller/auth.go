package controller

import (
	"bytes"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/kovacsgabor0730/Kovacs-Gabor-Szakdolgozat/app/dto"
	"github.com/kovacsgabor0730/Kovacs-Gabor-Szakdolgozat/app/service"
	"github.com/kovacsgabor0730/Kovacs-Gabor-Szakdolgozat/app/templates"
	"github.com/kovacsgabor0730/Kovacs-Gabor-Szakdolgozat/app/types"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

const resetPasswordPath = "/api/auth/reset-password/"

type AuthController struct {
	authService service.AuthService
	appName     string
}

func NewAuthController(authService service.AuthService, appName string) *AuthController {
	return &AuthController{authService: authService, appName: appName}
}

func (c *AuthController) Register(ctx echo.Context) error {
	req, err := types.NewRegisterRequestFromContext(ctx)
	if err != nil {
		logrus.WithError(err).Debug("Failed to bind register request")
		return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid request body"})
	}

	if err = req.Validate(); err != nil {
		logrus.WithField("email", req.Email).Debug("Register validation failed")
		return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: err.Error()})
	}

	logrus.WithField("email", req.Email).Info("Register request received")
	user, err := c.authService.Register(ctx.Request().Context(), req)
	if err != nil {
		if errors.Is(err, service.ErrWeakPassword) {
			logrus.WithField("email", req.Email).Warn("Register failed: weak password")
			return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: weakPasswordMessage(err)})
		}
		if errors.Is(err, service.ErrUserExists) {
			logrus.WithField("email", req.Email).Warn("Register failed: user already exists")
			return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Email already exists"})
		}
		logrus.WithError(err).WithField("email", req.Email).Error("Register failed")
		return ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Message: "Server error"})
	}

	logrus.WithFields(logrus.Fields{
		"user_id": user.ID,
		"email":   user.Email,
	}).Info("User registered")

	return ctx.JSON(http.StatusCreated, types.MessageResponse{Message: "User registered successfully"})
}

func (c *AuthController) Login(ctx echo.Context) error {
	req, err := types.NewLoginRequestFromContext(ctx)
	if err != nil {
		logrus.WithError(err).Debug("Failed to bind login request")
		return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid request body"})
	}

	if err = req.Validate(); err != nil {
		logrus.WithField("email", req.Email).Debug("Login validation failed")
		return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: err.Error()})
	}

	token, err := c.authService.Login(ctx.Request().Context(), req)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			logrus.WithField("email", req.Email).Warn("Login failed: invalid credentials")
			return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid email or password"})
		}
		logrus.WithError(err).WithField("email", req.Email).Error("Login failed")
		return ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Message: "Server error"})
	}

	logrus.WithField("email", req.Email).Info("Login successful")
	return ctx.JSON(http.StatusOK, types.LoginResponse{Message: "Login successful", Token: token})
}

func (c *AuthController) BiometricLogin(ctx echo.Context) error {
	req, err := types.NewBiometricLoginRequestFromContext(ctx)
	if err != nil {
		logrus.WithError(err).Debug("Failed to bind biometric login request")
		return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid request body"})
	}

	if err = req.Validate(); err != nil {
		return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: err.Error()})
	}

	token, err := c.authService.BiometricLogin(ctx.Request().Context(), req)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			logrus.WithField("email", req.Email).Warn("Biometric login failed")
			return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid email or biometric credentials"})
		}
		logrus.WithError(err).WithField("email", req.Email).Error("Biometric login failed")
		return ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Message: "Server error"})
	}

	logrus.WithField("email", req.Email).Info("Biometric login successful")
	return ctx.JSON(http.StatusOK, types.LoginResponse{Message: "Login successful", Token: token})
}

func (c *AuthController) EnrollBiometric(ctx echo.Context) error {
	userID, ok := userIDFromContext(ctx)
	if !ok {
		return unauthorized(ctx)
	}

	deviceKey, err := c.authService.EnrollBiometric(ctx.Request().Context(), userID)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			return ctx.JSON(http.StatusNotFound, dto.ErrorResponse{Message: "User not found"})
		}
		logrus.WithError(err).WithField("user_id", userID).Error("Biometric enrollment failed")
		return ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Message: "Server error"})
	}

	logrus.WithField("user_id", userID).Info("Biometric login enabled")
	return ctx.JSON(http.StatusOK, types.BiometricEnrollResponse{
		Message:   "Biometric login enabled",
		DeviceKey: deviceKey,
	})
}

func (c *AuthController) RevokeBiometric(ctx echo.Context) error {
	userID, ok := userIDFromContext(ctx)
	if !ok {
		return unauthorized(ctx)
	}

	if err := c.authService.RevokeBiometric(ctx.Request().Context(), userID); err != nil {
		logrus.WithError(err).WithField("user_id", userID).Error("Biometric revoke failed")
		return ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Message: "Server error"})
	}

	logrus.WithField("user_id", userID).Info("Biometric login disabled")
	return ctx.JSON(http.StatusOK, types.MessageResponse{Message: "Biometric login disabled"})
}

func (c *AuthController) ForgotPassword(ctx echo.Context) error {
	req, err := types.NewForgotPasswordRequestFromContext(ctx)
	if err != nil {
		logrus.WithError(err).Debug("Failed to bind forgot password request")
		return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid request body"})
	}

	if err = req.Validate(); err != nil {
		return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: err.Error()})
	}

	err = c.authService.ForgotPassword(ctx.Request().Context(), req)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			logrus.WithField("email", req.Email).Debug("Forgot password: user not found")
			return ctx.JSON(http.StatusNotFound, dto.ErrorResponse{Message: "User not found"})
		}
		if errors.Is(err, service.ErrMailDelivery) {
			return ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{
				Message: "Error sending password reset email",
				Error:   err.Error(),
			})
		}
		logrus.WithError(err).WithField("email", req.Email).Error("Forgot password failed")
		return ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Message: "Server error"})
	}

	logrus.WithField("email", req.Email).Info("Password reset email sent")
	return ctx.JSON(http.StatusOK, types.MessageResponse{Message: "Password reset email sent"})
}

// ResetPasswordForm serves the HTML page linked from the reset email.
func (c *AuthController) ResetPasswordForm(ctx echo.Context) error {
	token := ctx.Param("token")

	err := c.authService.CheckResetToken(ctx.Request().Context(), token)
	if err != nil {
		if !errors.Is(err, service.ErrInvalidToken) {
			logrus.WithError(err).Error("Reset token lookup failed")
			return ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Message: "Server error"})
		}
		return c.renderPage(ctx, http.StatusBadRequest, templates.InvalidResetLink, templates.InvalidLinkData{AppName: c.appName})
	}

	return c.renderPage(ctx, http.StatusOK, templates.ResetPasswordForm, templates.ResetFormData{
		AppName:   c.appName,
		ActionURL: resetPasswordPath + url.PathEscape(token),
	})
}

func (c *AuthController) ResetPassword(ctx echo.Context) error {
	req, err := types.NewResetPasswordRequestFromContext(ctx)
	if err != nil {
		logrus.WithError(err).Debug("Failed to bind reset password request")
		return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid request body"})
	}

	if err = req.Validate(); err != nil {
		return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: err.Error()})
	}

	err = c.authService.ResetPassword(ctx.Request().Context(), req)
	if err != nil {
		if errors.Is(err, service.ErrInvalidToken) {
			logrus.Debug("Reset password failed: invalid token")
			return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Password reset token is invalid or has expired"})
		}
		if errors.Is(err, service.ErrWeakPassword) {
			return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: weakPasswordMessage(err)})
		}
		logrus.WithError(err).Error("Reset password failed")
		return ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Message: "Server error"})
	}

	logrus.Info("Password reset successful")
	return ctx.JSON(http.StatusOK, types.MessageResponse{Message: "Password has been reset successfully"})
}

func (c *AuthController) renderPage(ctx echo.Context, status int, name string, data any) error {
	var buf bytes.Buffer
	if err := templates.Render(&buf, name, data); err != nil {
		logrus.WithError(err).WithField("template", name).Error("Failed to render page")
		return ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Message: "Server error"})
	}
	return ctx.HTMLBlob(status, buf.Bytes())
}

// weakPasswordMessage turns a policy failure into the client message,
// keeping the rule that failed.
func weakPasswordMessage(err error) string {
	detail := strings.TrimPrefix(err.Error(), service.ErrWeakPassword.Error())
	detail = strings.TrimPrefix(detail, ": ")
	if detail == "" {
		return "Password is not strong enough"
	}
	return "Password is not strong enough: " + detail
}
