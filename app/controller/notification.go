package controller

import (
	"errors"
	"net/http"

	"github.com/kovacsgabor0730/Kovacs-Gabor-Szakdolgozat/app/dto"
	"github.com/kovacsgabor0730/Kovacs-Gabor-Szakdolgozat/app/reminder"
	"github.com/kovacsgabor0730/Kovacs-Gabor-Szakdolgozat/app/service"
	"github.com/kovacsgabor0730/Kovacs-Gabor-Szakdolgozat/app/types"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

type NotificationController struct {
	idCardService service.IDCardService
}

func NewNotificationController(idCardService service.IDCardService) *NotificationController {
	return &NotificationController{idCardService: idCardService}
}

// Sync re-derives the expiry reminder, as the mobile app does when it comes
// to the foreground.
func (c *NotificationController) Sync(ctx echo.Context) error {
	userID, ok := userIDFromContext(ctx)
	if !ok {
		return unauthorized(ctx)
	}

	req, err := types.NewSyncReminderRequestFromContext(ctx)
	if err != nil {
		logrus.WithError(err).Debug("Failed to bind sync request")
		return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid request body"})
	}
	if err = req.Validate(); err != nil {
		return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: err.Error()})
	}

	decision, err := c.idCardService.SyncReminder(ctx.Request().Context(), userID, req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrIDCardNotFound):
			return ctx.JSON(http.StatusNotFound, dto.ErrorResponse{Message: noIDCardMessage})
		case errors.Is(err, reminder.ErrInvalidExpiryDate):
			return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid expiry date"})
		}
		logrus.WithError(err).WithField("user_id", userID).Error("Reminder sync failed")
		return ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{
			Message: "Error syncing expiry reminder",
			Error:   err.Error(),
		})
	}

	res := types.SyncReminderResponse{Action: decision.Action.String()}
	if !decision.NotifyAt.IsZero() {
		notifyAt := decision.NotifyAt
		res.NotifyAt = &notifyAt
	}
	if !decision.ScheduledAt.IsZero() {
		scheduledAt := decision.ScheduledAt
		res.ScheduledAt = &scheduledAt
	}

	logrus.WithFields(logrus.Fields{
		"user_id": userID,
		"action":  res.Action,
	}).Info("Reminder synced")
	return ctx.JSON(http.StatusOK, res)
}
