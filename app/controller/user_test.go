package controller_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/kovacsgabor0730/Kovacs-Gabor-Szakdolgozat/app/controller"
	"github.com/kovacsgabor0730/Kovacs-Gabor-Szakdolgozat/app/entity"
	"github.com/kovacsgabor0730/Kovacs-Gabor-Szakdolgozat/app/middleware"
	"github.com/kovacsgabor0730/Kovacs-Gabor-Szakdolgozat/app/service"
	"github.com/kovacsgabor0730/Kovacs-Gabor-Szakdolgozat/app/types"
)

type fakeUserService struct {
	user      *entity.User
	err       error
	gotUpdate *types.UpdateProfileRequest
	gotPush   *types.PushTokenRequest
}

func (f *fakeUserService) GetProfile(_ context.Context, _ uint64) (*entity.User, error) {
	return f.user, f.err
}

func (f *fakeUserService) UpdateProfile(_ context.Context, _ uint64, req *types.UpdateProfileRequest) (*entity.User, error) {
	f.gotUpdate = req
	return f.user, f.err
}

func (f *fakeUserService) SavePushToken(_ context.Context, _ uint64, req *types.PushTokenRequest) error {
	f.gotPush = req
	return f.err
}

func TestGetProfile(t *testing.T) {
	ctrl := controller.NewUserController(&fakeUserService{user: &entity.User{
		ID:        7,
		FirstName: "Anna",
		LastName:  "Kiss",
		Email:     "anna@example.com",
		City:      "Budapest",
	}})

	ctx, rec := newJSONContext(http.MethodGet, "/api/user/profile", "")
	ctx.Set(middleware.ContextUserID, uint64(7))
	if err := ctrl.GetProfile(ctx); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["email"] != "anna@example.com" {
		t.Fatalf("unexpected body: %v", body)
	}
	if _, ok := body["password"]; ok {
		t.Fatal("profile must not expose the password")
	}
}

func TestGetProfileNotFound(t *testing.T) {
	ctrl := controller.NewUserController(&fakeUserService{err: service.ErrUserNotFound})

	ctx, rec := newJSONContext(http.MethodGet, "/api/user/profile", "")
	ctx.Set(middleware.ContextUserID, uint64(7))
	if err := ctrl.GetProfile(ctx); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestUpdateProfileEmailTaken(t *testing.T) {
	fake := &fakeUserService{err: service.ErrUserExists}
	ctrl := controller.NewUserController(fake)

	ctx, rec := newJSONContext(http.MethodPut, "/api/user/profile", `{"email":"taken@example.com"}`)
	ctx.Set(middleware.ContextUserID, uint64(7))
	if err := ctrl.UpdateProfile(ctx); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if fake.gotUpdate == nil || fake.gotUpdate.Email == nil || *fake.gotUpdate.Email != "taken@example.com" {
		t.Fatalf("email not passed to service: %+v", fake.gotUpdate)
	}
}

func TestUpdateProfileEmptyBody(t *testing.T) {
	fake := &fakeUserService{}
	ctrl := controller.NewUserController(fake)

	ctx, rec := newJSONContext(http.MethodPut, "/api/user/profile", `{}`)
	ctx.Set(middleware.ContextUserID, uint64(7))
	if err := ctrl.UpdateProfile(ctx); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if fake.gotUpdate != nil {
		t.Fatal("service should not be called for an empty update")
	}
}

func TestSavePushToken(t *testing.T) {
	fake := &fakeUserService{}
	ctrl := controller.NewUserController(fake)

	ctx, rec := newJSONContext(http.MethodPost, "/api/user/push-token", `{"pushToken":"ExponentPushToken[abc]"}`)
	ctx.Set(middleware.ContextUserID, uint64(7))
	if err := ctrl.SavePushToken(ctx); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if msg := decodeBody(t, rec)["message"]; msg != "Push token saved successfully" {
		t.Fatalf("unexpected message: %v", msg)
	}
	if fake.gotPush == nil || fake.gotPush.PushToken != "ExponentPushToken[abc]" {
		t.Fatalf("unexpected push request: %+v", fake.gotPush)
	}
}

func TestSavePushTokenMissing(t *testing.T) {
	ctrl := controller.NewUserController(&fakeUserService{})

	ctx, rec := newJSONContext(http.MethodPost, "/api/user/push-token", `{"pushToken":"  "}`)
	ctx.Set(middleware.ContextUserID, uint64(7))
	if err := ctrl.SavePushToken(ctx); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if msg := decodeBody(t, rec)["message"]; msg != "Push token is required" {
		t.Fatalf("unexpected message: %v", msg)
	}
}
