package middleware_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/kovacsgabor0730/Kovacs-Gabor-Szakdolgozat/app/dto"
	"github.com/kovacsgabor0730/Kovacs-Gabor-Szakdolgozat/app/middleware"
	"github.com/kovacsgabor0730/Kovacs-Gabor-Szakdolgozat/app/repository"
	"github.com/kovacsgabor0730/Kovacs-Gabor-Szakdolgozat/app/service"
	"github.com/kovacsgabor0730/Kovacs-Gabor-Szakdolgozat/config"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

func newMiddleware(t *testing.T) (*middleware.AuthMiddleware, func()) {
	t.Helper()

	db, _, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}

	cfg := &config.Config{
		JWT: config.JWTConfig{
			Secret:         "test-secret",
			AccessTokenTTL: 15 * time.Minute,
		},
		Password: config.PasswordConfig{
			Policy: config.PasswordPolicy{MinLength: 1},
		},
	}

	authService := service.NewAuthService(repository.NewUserRepository(db), nil, cfg)

	return middleware.NewAuthMiddleware(authService), func() { _ = db.Close() }
}

func runRequireAuth(t *testing.T, authorization string, next echo.HandlerFunc) *httptest.ResponseRecorder {
	t.Helper()

	authMiddleware, cleanup := newMiddleware(t)
	defer cleanup()

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	rec := httptest.NewRecorder()
	ctx := e.NewContext(req, rec)

	if err := authMiddleware.RequireAuth(next)(ctx); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	return rec
}

func okHandler(c echo.Context) error {
	return c.NoContent(http.StatusOK)
}

func decodeMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()

	var body dto.ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	return body.Message
}

func TestRequireAuth_MissingHeader(t *testing.T) {
	rec := runRequireAuth(t, "", okHandler)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", rec.Code)
	}
	if msg := decodeMessage(t, rec); msg != "Unauthorized" {
		t.Fatalf("unexpected message: %q", msg)
	}
}

func TestRequireAuth_InvalidHeaderFormat(t *testing.T) {
	rec := runRequireAuth(t, "Token abc", okHandler)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", rec.Code)
	}
	if msg := decodeMessage(t, rec); msg != "Unauthorized" {
		t.Fatalf("unexpected message: %q", msg)
	}
}

func TestRequireAuth_InvalidToken(t *testing.T) {
	rec := runRequireAuth(t, "Bearer invalid-token", okHandler)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", rec.Code)
	}
	if msg := decodeMessage(t, rec); msg != "Invalid token" {
		t.Fatalf("unexpected message: %q", msg)
	}
}

func TestRequireAuth_SetsContextOnValidToken(t *testing.T) {
	claims := &service.Claims{
		UserID: 1,
		Email:  "user@example.com",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}

	rec := runRequireAuth(t, "bearer "+tokenString, func(c echo.Context) error {
		userID, ok := c.Get(middleware.ContextUserID).(uint64)
		if !ok || userID != 1 {
			t.Fatalf("expected user_id 1, got %v", c.Get(middleware.ContextUserID))
		}
		email, ok := c.Get(middleware.ContextUserEmail).(string)
		if !ok || email != "user@example.com" {
			t.Fatalf("expected user_email user@example.com, got %v", c.Get(middleware.ContextUserEmail))
		}
		return c.NoContent(http.StatusOK)
	})

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
}
