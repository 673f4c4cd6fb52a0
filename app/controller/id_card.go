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

const noIDCardMessage = "Nincs még feltöltött személyi igazolvány adat"

type IDCardController struct {
	idCardService service.IDCardService
}

func NewIDCardController(idCardService service.IDCardService) *IDCardController {
	return &IDCardController{idCardService: idCardService}
}

func (c *IDCardController) Upload(ctx echo.Context) error {
	userID, ok := userIDFromContext(ctx)
	if !ok {
		return unauthorized(ctx)
	}

	req, err := types.NewIDCardRequestFromContext(ctx)
	if err != nil {
		logrus.WithError(err).Debug("Failed to bind id card request")
		return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid request body"})
	}

	card, err := c.idCardService.Submit(ctx.Request().Context(), userID, req)
	if err != nil {
		var verr *service.ValidationError
		switch {
		case errors.As(err, &verr):
			logrus.WithField("user_id", userID).Debugf("ID card rejected: %s", verr.Message)
			return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: verr.Message})
		case errors.Is(err, service.ErrIDNumberTaken):
			logrus.WithField("user_id", userID).Warn("ID card rejected: id number already registered")
			return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "You already have an account!"})
		case errors.Is(err, service.ErrUserNotFound):
			return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "User not found"})
		case errors.Is(err, service.ErrNameMismatch):
			logrus.WithField("user_id", userID).Warn("ID card rejected: name mismatch")
			return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Name on the ID card does not match the logged-in user"})
		}
		logrus.WithError(err).WithField("user_id", userID).Error("ID card upload failed")
		return ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{
			Message: "Error uploading ID card data",
			Error:   err.Error(),
		})
	}

	logrus.WithField("user_id", userID).Info("ID card stored")
	return ctx.JSON(http.StatusOK, types.IDCardStoredResponse{
		Message: "ID card data stored successfully",
		Data:    types.NewIDCardResponse(card),
	})
}

func (c *IDCardController) Details(ctx echo.Context) error {
	userID, ok := userIDFromContext(ctx)
	if !ok {
		return unauthorized(ctx)
	}

	card, err := c.idCardService.GetDetails(ctx.Request().Context(), userID)
	if err != nil {
		if errors.Is(err, service.ErrIDCardNotFound) {
			return ctx.JSON(http.StatusNotFound, dto.ErrorResponse{Message: noIDCardMessage})
		}
		logrus.WithError(err).WithField("user_id", userID).Error("ID card lookup failed")
		return ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Message: "Server error"})
	}

	return ctx.JSON(http.StatusOK, types.NewIDCardResponse(card))
}
