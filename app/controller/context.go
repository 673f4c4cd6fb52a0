package controller

import (
	"net/http"

	"github.com/kovacsgabor0730/Kovacs-Gabor-Szakdolgozat/app/dto"
	"github.com/kovacsgabor0730/Kovacs-Gabor-Szakdolgozat/app/middleware"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

func userIDFromContext(ctx echo.Context) (uint64, bool) {
	userID, ok := ctx.Get(middleware.ContextUserID).(uint64)
	return userID, ok
}

func unauthorized(ctx echo.Context) error {
	logrus.WithField("path", ctx.Path()).Warn("Missing user_id in context")
	return ctx.JSON(http.StatusUnauthorized, dto.ErrorResponse{Message: "Unauthorized"})
}
