package controller

import (
	"errors"
	"net/http"

	"github.com/kovacsgabor0730/Kovacs-Gabor-Szakdolgozat/app/dto"
	"github.com/kovacsgabor0730/Kovacs-Gabor-Szakdolgozat/app/service"
	"github.com/kovacsgabor0730/Kovacs-Gabor-Szakdolgozat/app/types"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

type UserController struct {
	userService service.UserService
}

func NewUserController(userService service.UserService) *UserController {
	return &UserController{userService: userService}
}

func (c *UserController) GetProfile(ctx echo.Context) error {
	userID, ok := userIDFromContext(ctx)
	if !ok {
		return unauthorized(ctx)
	}

	user, err := c.userService.GetProfile(ctx.Request().Context(), userID)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			return ctx.JSON(http.StatusNotFound, dto.ErrorResponse{Message: "User not found"})
		}
		logrus.WithError(err).WithField("user_id", userID).Error("Get profile failed")
		return ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Message: "Server error"})
	}

	return ctx.JSON(http.StatusOK, types.NewUserProfileResponse(user))
}

func (c *UserController) UpdateProfile(ctx echo.Context) error {
	userID, ok := userIDFromContext(ctx)
	if !ok {
		return unauthorized(ctx)
	}

	req, err := types.NewUpdateProfileRequestFromContext(ctx)
	if err != nil {
		logrus.WithError(err).Debug("Failed to bind update profile request")
		return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid request body"})
	}

	if err = req.Validate(); err != nil {
		logrus.WithField("user_id", userID).Debug("Update profile validation failed")
		return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: err.Error()})
	}

	if _, err = c.userService.UpdateProfile(ctx.Request().Context(), userID, req); err != nil {
		switch {
		case errors.Is(err, service.ErrUserNotFound):
			return ctx.JSON(http.StatusNotFound, dto.ErrorResponse{Message: "User not found"})
		case errors.Is(err, service.ErrUserExists):
			return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Email already exists"})
		case errors.Is(err, service.ErrWeakPassword):
			return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: weakPasswordMessage(err)})
		}
		logrus.WithError(err).WithField("user_id", userID).Error("Update profile failed")
		return ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Message: "Server error"})
	}

	logrus.WithField("user_id", userID).Info("Profile updated")
	return ctx.JSON(http.StatusOK, types.MessageResponse{Message: "Profile updated successfully"})
}

func (c *UserController) SavePushToken(ctx echo.Context) error {
	userID, ok := userIDFromContext(ctx)
	if !ok {
		return unauthorized(ctx)
	}

	req, err := types.NewPushTokenRequestFromContext(ctx)
	if err != nil {
		logrus.WithError(err).Debug("Failed to bind push token request")
		return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid request body"})
	}

	if err = req.Validate(); err != nil {
		return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: err.Error()})
	}

	if err = c.userService.SavePushToken(ctx.Request().Context(), userID, req); err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			return ctx.JSON(http.StatusNotFound, dto.ErrorResponse{Message: "User not found"})
		}
		logrus.WithError(err).WithField("user_id", userID).Error("Save push token failed")
		return ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Message: "Server error"})
	}

	logrus.WithField("user_id", userID).Info("Push token saved")
	return ctx.JSON(http.StatusOK, types.MessageResponse{Message: "Push token saved successfully"})
}
