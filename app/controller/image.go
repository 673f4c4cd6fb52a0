package controller

import (
	"errors"
	"io"
	"net/http"

	"github.com/kovacsgabor0730/Kovacs-Gabor-Szakdolgozat/app/dto"
	"github.com/kovacsgabor0730/Kovacs-Gabor-Szakdolgozat/app/service"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

const imageField = "image"

type ImageController struct {
	imageService service.ImageService
	maxSize      int64
}

func NewImageController(imageService service.ImageService, maxSize int64) *ImageController {
	return &ImageController{imageService: imageService, maxSize: maxSize}
}

// Upload relays one ID-card photo to OCR and returns the OCR answer as is.
func (c *ImageController) Upload(ctx echo.Context) error {
	userID, ok := userIDFromContext(ctx)
	if !ok {
		return unauthorized(ctx)
	}

	header, err := ctx.FormFile(imageField)
	if err != nil {
		logrus.WithError(err).Debug("Image upload without image field")
		return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "An image file is required"})
	}
	if c.maxSize > 0 && header.Size > c.maxSize {
		return ctx.JSON(http.StatusRequestEntityTooLarge, dto.ErrorResponse{Message: "Image is too large"})
	}

	file, err := header.Open()
	if err != nil {
		logrus.WithError(err).Error("Failed to open uploaded image")
		return ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Message: "Error processing image", Error: err.Error()})
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		logrus.WithError(err).Error("Failed to read uploaded image")
		return ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Message: "Error processing image", Error: err.Error()})
	}

	result, err := c.imageService.Process(ctx.Request().Context(), &service.ImageUpload{
		Filename:    header.Filename,
		ContentType: header.Header.Get(echo.HeaderContentType),
		Data:        data,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUnsupportedImageType):
			return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Only JPEG and PNG images are allowed"})
		case errors.Is(err, service.ErrImageTooLarge):
			return ctx.JSON(http.StatusRequestEntityTooLarge, dto.ErrorResponse{Message: "Image is too large"})
		}
		logrus.WithError(err).WithField("user_id", userID).Error("Image processing failed")
		return ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Message: "Error processing image", Error: err.Error()})
	}

	contentType := result.ContentType
	if contentType == "" {
		contentType = echo.MIMEApplicationJSON
	}
	logrus.WithFields(logrus.Fields{
		"user_id":  userID,
		"filename": header.Filename,
	}).Info("Image processed")
	return ctx.Blob(http.StatusOK, contentType, result.Body)
}
