package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/kovacsgabor0730/Kovacs-Gabor-Szakdolgozat/app/entity"
	"github.com/kovacsgabor0730/Kovacs-Gabor-Szakdolgozat/app/mailer"
	"github.com/kovacsgabor0730/Kovacs-Gabor-Szakdolgozat/app/repository"
	"github.com/kovacsgabor0730/Kovacs-Gabor-Szakdolgozat/app/types"
	"github.com/kovacsgabor0730/Kovacs-Gabor-Szakdolgozat/config"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrUserExists         = errors.New("user already exists")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrWeakPassword       = errors.New("password does not meet policy requirements")
	ErrMailDelivery       = errors.New("failed to send email")
)

const resetFormPath = "/api/auth/reset-password-form/"

// dummyPasswordHash keeps login timing the same whether or not the account exists.
var dummyPasswordHash = sync.OnceValue(func() []byte {
	hash, err := bcrypt.GenerateFromPassword([]byte("not-a-real-password"), bcrypt.DefaultCost)
	if err != nil {
		panic(err)
	}
	return hash
})

type Claims struct {
	UserID uint64 `json:"user_id"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

type userRepository interface {
	Create(ctx context.Context, user *entity.User) error
	FindByCanonicalEmail(ctx context.Context, canonicalEmail string) (*entity.User, error)
	FindByID(ctx context.Context, id uint64) (*entity.User, error)
	FindByResetToken(ctx context.Context, token string) (*entity.User, error)
	Update(ctx context.Context, user *entity.User) error
	UpdatePushToken(ctx context.Context, userID uint64, token string, updatedAt time.Time) error
	UpdateBiometricKey(ctx context.Context, userID uint64, keyHash sql.NullString) error
}

type passwordResetMailer interface {
	SendPasswordReset(ctx context.Context, email mailer.PasswordResetEmail) error
}

type AuthService interface {
	Register(ctx context.Context, req *types.RegisterRequest) (*entity.User, error)
	Login(ctx context.Context, req *types.LoginRequest) (string, error)
	BiometricLogin(ctx context.Context, req *types.BiometricLoginRequest) (string, error)
	EnrollBiometric(ctx context.Context, userID uint64) (string, error)
	RevokeBiometric(ctx context.Context, userID uint64) error
	ForgotPassword(ctx context.Context, req *types.ForgotPasswordRequest) error
	CheckResetToken(ctx context.Context, token string) error
	ResetPassword(ctx context.Context, req *types.ResetPasswordRequest) error
	ValidateAccessToken(tokenString string) (*Claims, error)
}

type Option func(*serviceOptions)

type serviceOptions struct {
	now func() time.Time
}

func WithClock(now func() time.Time) Option {
	return func(o *serviceOptions) {
		if now != nil {
			o.now = now
		}
	}
}

func applyOptions(opts []Option) serviceOptions {
	o := serviceOptions{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

type authService struct {
	userRepo userRepository
	mailer   passwordResetMailer
	cfg      *config.Config
	now      func() time.Time
}

func NewAuthService(userRepo userRepository, mailer passwordResetMailer, cfg *config.Config, opts ...Option) AuthService {
	o := applyOptions(opts)
	return &authService{
		userRepo: userRepo,
		mailer:   mailer,
		cfg:      cfg,
		now:      o.now,
	}
}

func (s *authService) Register(ctx context.Context, req *types.RegisterRequest) (*entity.User, error) {
	if err := s.cfg.Password.Policy.Validate(req.Password); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrWeakPassword, err.Error())
	}

	canonicalEmail := CanonicalizeEmail(req.Email)
	existing, err := s.userRepo.FindByCanonicalEmail(ctx, canonicalEmail)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrUserExists
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	now := s.now()
	user := &entity.User{
		FirstName:      req.FirstName,
		LastName:       req.LastName,
		Country:        req.Country,
		City:           req.City,
		PostalCode:     req.PostalCode,
		Street:         req.Street,
		Number:         req.Number,
		Email:          req.Email,
		CanonicalEmail: canonicalEmail,
		PasswordHash:   string(hashedPassword),
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err = s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrUserExists
		}
		return nil, err
	}

	return user, nil
}

func (s *authService) Login(ctx context.Context, req *types.LoginRequest) (string, error) {
	user, err := s.userRepo.FindByCanonicalEmail(ctx, CanonicalizeEmail(req.Email))
	if err != nil {
		return "", err
	}

	hash := dummyPasswordHash()
	if user != nil {
		hash = []byte(user.PasswordHash)
	}
	if err = bcrypt.CompareHashAndPassword(hash, []byte(req.Password)); err != nil || user == nil {
		return "", ErrInvalidCredentials
	}

	return s.generateAccessToken(user)
}

func (s *authService) BiometricLogin(ctx context.Context, req *types.BiometricLoginRequest) (string, error) {
	user, err := s.userRepo.FindByCanonicalEmail(ctx, CanonicalizeEmail(req.Email))
	if err != nil {
		return "", err
	}
	if user == nil {
		return "", ErrInvalidCredentials
	}

	if s.cfg.Biometric.RequireDeviceKey {
		if req.DeviceKey == "" || !user.BiometricKeyHash.Valid {
			return "", ErrInvalidCredentials
		}
		given := hashDeviceKey(req.DeviceKey)
		if subtle.ConstantTimeCompare([]byte(given), []byte(user.BiometricKeyHash.String)) != 1 {
			return "", ErrInvalidCredentials
		}
	}

	return s.generateAccessToken(user)
}

// EnrollBiometric issues a new device key. Only its hash is stored, so the
// key is returned exactly once.
func (s *authService) EnrollBiometric(ctx context.Context, userID uint64) (string, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return "", err
	}
	if user == nil {
		return "", ErrUserNotFound
	}

	raw := make([]byte, 32)
	if _, err = rand.Read(raw); err != nil {
		return "", err
	}
	deviceKey := hex.EncodeToString(raw)

	keyHash := sql.NullString{String: hashDeviceKey(deviceKey), Valid: true}
	if err = s.userRepo.UpdateBiometricKey(ctx, userID, keyHash); err != nil {
		return "", err
	}

	return deviceKey, nil
}

func (s *authService) RevokeBiometric(ctx context.Context, userID uint64) error {
	return s.userRepo.UpdateBiometricKey(ctx, userID, sql.NullString{})
}

func (s *authService) ForgotPassword(ctx context.Context, req *types.ForgotPasswordRequest) error {
	user, err := s.userRepo.FindByCanonicalEmail(ctx, CanonicalizeEmail(req.Email))
	if err != nil {
		return err
	}
	if user == nil {
		return ErrUserNotFound
	}

	resetToken := uuid.New().String()
	user.ResetToken = sql.NullString{String: resetToken, Valid: true}
	user.ResetTokenExpiresAt = sql.NullTime{
		Time:  s.now().Add(s.cfg.Tokens.ResetTTL),
		Valid: true,
	}

	if err = s.userRepo.Update(ctx, user); err != nil {
		return err
	}

	err = s.mailer.SendPasswordReset(ctx, mailer.PasswordResetEmail{
		To:           user.Email,
		Name:         user.FirstName,
		Link:         s.cfg.App.PublicBaseURL + resetFormPath + resetToken,
		ValidMinutes: int(s.cfg.Tokens.ResetTTL.Minutes()),
	})
	if err != nil {
		logrus.WithError(err).WithField("user_id", user.ID).Error("Password reset email failed")
		return fmt.Errorf("%w: %s", ErrMailDelivery, err.Error())
	}

	return nil
}

func (s *authService) CheckResetToken(ctx context.Context, token string) error {
	_, err := s.findValidResetUser(ctx, token)
	return err
}

func (s *authService) ResetPassword(ctx context.Context, req *types.ResetPasswordRequest) error {
	user, err := s.findValidResetUser(ctx, req.Token)
	if err != nil {
		return err
	}

	if err = s.cfg.Password.Policy.Validate(req.Password); err != nil {
		return fmt.Errorf("%w: %s", ErrWeakPassword, err.Error())
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	user.PasswordHash = string(hashedPassword)
	user.ResetToken = sql.NullString{Valid: false}
	user.ResetTokenExpiresAt = sql.NullTime{Valid: false}

	return s.userRepo.Update(ctx, user)
}

func (s *authService) ValidateAccessToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.cfg.JWT.Secret), nil
	})
	if err != nil {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

func (s *authService) findValidResetUser(ctx context.Context, token string) (*entity.User, error) {
	if token == "" {
		return nil, ErrInvalidToken
	}
	user, err := s.userRepo.FindByResetToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if user == nil || !user.ResetTokenExpiresAt.Valid || !user.ResetTokenExpiresAt.Time.After(s.now()) {
		return nil, ErrInvalidToken
	}
	return user, nil
}

func (s *authService) generateAccessToken(user *entity.User) (string, error) {
	now := s.now()
	claims := &Claims{
		UserID: user.ID,
		Email:  user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.JWT.AccessTokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			Subject:   user.Email,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.cfg.JWT.Secret))
}

func hashDeviceKey(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}
