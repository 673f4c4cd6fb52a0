package service

import (
	"context"
	"errors"
	"fmt"
	"mime"

	"github.com/kovacsgabor0730/Kovacs-Gabor-Szakdolgozat/app/ocr"

	"github.com/gabriel-vasile/mimetype"
	"github.com/sirupsen/logrus"
)

var (
	ErrUnsupportedImageType = errors.New("only JPEG and PNG images are accepted")
	ErrImageTooLarge        = errors.New("image exceeds the upload size limit")
	ErrOCRFailed            = errors.New("ocr processing failed")
)

var acceptedImageTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
}

type ImageUpload struct {
	Filename    string
	ContentType string
	Data        []byte
}

type ocrRecognizer interface {
	Recognize(ctx context.Context, filename, contentType string, data []byte) (*ocr.Result, error)
}

type imageArchive interface {
	Store(ctx context.Context, contentType, extension string, data []byte) (string, error)
}

type ImageService interface {
	Process(ctx context.Context, upload *ImageUpload) (*ocr.Result, error)
}

type imageService struct {
	ocr     ocrRecognizer
	archive imageArchive
	maxSize int64
}

// NewImageService builds the relay. archive may be nil when no bucket is
// configured.
func NewImageService(recognizer ocrRecognizer, archive imageArchive, maxSize int64) ImageService {
	return &imageService{
		ocr:     recognizer,
		archive: archive,
		maxSize: maxSize,
	}
}

func (s *imageService) Process(ctx context.Context, upload *ImageUpload) (*ocr.Result, error) {
	if s.maxSize > 0 && int64(len(upload.Data)) > s.maxSize {
		return nil, ErrImageTooLarge
	}

	declared, _, _ := mime.ParseMediaType(upload.ContentType)
	extension, ok := acceptedImageTypes[declared]
	if !ok {
		return nil, ErrUnsupportedImageType
	}

	detected := mimetype.Detect(upload.Data)
	if !detected.Is(declared) {
		logrus.WithFields(logrus.Fields{
			"declared": declared,
			"detected": detected.String(),
		}).Debug("Image content does not match declared type")
		return nil, ErrUnsupportedImageType
	}

	if s.archive != nil {
		key, err := s.archive.Store(ctx, declared, extension, upload.Data)
		if err != nil {
			logrus.WithError(err).Warn("Failed to archive uploaded image")
		} else {
			logrus.WithField("key", key).Debug("Uploaded image archived")
		}
	}

	result, err := s.ocr.Recognize(ctx, upload.Filename, declared, upload.Data)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrOCRFailed, err.Error())
	}

	return result, nil
}
