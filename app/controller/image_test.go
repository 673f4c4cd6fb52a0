package controller_test

import (
	"bytes"
	"context"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"github.com/kovacsgabor0730/Kovacs-Gabor-Szakdolgozat/app/controller"
	"github.com/kovacsgabor0730/Kovacs-Gabor-Szakdolgozat/app/middleware"
	"github.com/kovacsgabor0730/Kovacs-Gabor-Szakdolgozat/app/ocr"
	"github.com/kovacsgabor0730/Kovacs-Gabor-Szakdolgozat/app/service"

	"github.com/labstack/echo/v4"
)

type fakeImageService struct {
	result *ocr.Result
	err    error
	got    *service.ImageUpload
}

func (f *fakeImageService) Process(_ context.Context, upload *service.ImageUpload) (*ocr.Result, error) {
	f.got = upload
	return f.result, f.err
}

func newMultipartContext(t *testing.T, field, filename, contentType string, data []byte) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", `form-data; name="`+field+`"; filename="`+filename+`"`)
	header.Set("Content-Type", contentType)
	part, err := writer.CreatePart(header)
	if err != nil {
		t.Fatalf("create part failed: %v", err)
	}
	if _, err = part.Write(data); err != nil {
		t.Fatalf("write part failed: %v", err)
	}
	if err = writer.Close(); err != nil {
		t.Fatalf("close writer failed: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/image/upload", &buf)
	req.Header.Set(echo.HeaderContentType, writer.FormDataContentType())
	rec := httptest.NewRecorder()
	ctx := echo.New().NewContext(req, rec)
	ctx.Set(middleware.ContextUserID, uint64(7))
	return ctx, rec
}

func TestImageUploadRequiresUser(t *testing.T) {
	fake := &fakeImageService{}
	ctrl := controller.NewImageController(fake, 1024)

	ctx, rec := newMultipartContext(t, "image", "card.png", "image/png", []byte("fake-png"))
	ctx.Set(middleware.ContextUserID, nil)
	if err := ctrl.Upload(ctx); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if fake.got != nil {
		t.Fatal("image must not reach the OCR relay without a user")
	}
}

func TestImageUploadRelaysOCRBody(t *testing.T) {
	fake := &fakeImageService{result: &ocr.Result{
		StatusCode:  http.StatusOK,
		ContentType: "application/json",
		Body:        []byte(`{"id_number":"123456AB"}`),
	}}
	ctrl := controller.NewImageController(fake, 1024)

	ctx, rec := newMultipartContext(t, "image", "card.png", "image/png", []byte("fake-png"))
	if err := ctrl.Upload(ctx); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if rec.Body.String() != `{"id_number":"123456AB"}` {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
	if fake.got == nil || fake.got.Filename != "card.png" || fake.got.ContentType != "image/png" {
		t.Fatalf("unexpected upload passed to service: %+v", fake.got)
	}
}

func TestImageUploadMissingField(t *testing.T) {
	fake := &fakeImageService{}
	ctrl := controller.NewImageController(fake, 1024)

	ctx, rec := newMultipartContext(t, "photo", "card.png", "image/png", []byte("fake-png"))
	if err := ctrl.Upload(ctx); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if fake.got != nil {
		t.Fatal("service should not be called without an image")
	}
}

func TestImageUploadTooLarge(t *testing.T) {
	fake := &fakeImageService{}
	ctrl := controller.NewImageController(fake, 4)

	ctx, rec := newMultipartContext(t, "image", "card.png", "image/png", []byte("more than four bytes"))
	if err := ctrl.Upload(ctx); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}

	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413, got %d", rec.Code)
	}
}

func TestImageUploadErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{name: "unsupported", err: service.ErrUnsupportedImageType, status: http.StatusBadRequest},
		{name: "ocr down", err: errors.Join(service.ErrOCRFailed, errors.New("dial tcp: refused")), status: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := controller.NewImageController(&fakeImageService{err: tt.err}, 1024)

			ctx, rec := newMultipartContext(t, "image", "card.gif", "image/gif", []byte("GIF89a"))
			if err := ctrl.Upload(ctx); err != nil {
				t.Fatalf("handler returned error: %v", err)
			}

			if rec.Code != tt.status {
				t.Fatalf("expected %d, got %d", tt.status, rec.Code)
			}
		})
	}
}
