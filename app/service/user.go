package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kovacsgabor0730/Kovacs-Gabor-Szakdolgozat/app/entity"
	"github.com/kovacsgabor0730/Kovacs-Gabor-Szakdolgozat/app/repository"
	"github.com/kovacsgabor0730/Kovacs-Gabor-Szakdolgozat/app/types"
	"github.com/kovacsgabor0730/Kovacs-Gabor-Szakdolgozat/config"

	"golang.org/x/crypto/bcrypt"
)

type UserService interface {
	GetProfile(ctx context.Context, userID uint64) (*entity.User, error)
	UpdateProfile(ctx context.Context, userID uint64, req *types.UpdateProfileRequest) (*entity.User, error)
	SavePushToken(ctx context.Context, userID uint64, req *types.PushTokenRequest) error
}

type userService struct {
	userRepo userRepository
	cfg      *config.Config
	now      func() time.Time
}

func NewUserService(userRepo userRepository, cfg *config.Config, opts ...Option) UserService {
	o := applyOptions(opts)
	return &userService{
		userRepo: userRepo,
		cfg:      cfg,
		now:      o.now,
	}
}

func (s *userService) GetProfile(ctx context.Context, userID uint64) (*entity.User, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

// UpdateProfile applies only the parts present in req.
func (s *userService) UpdateProfile(ctx context.Context, userID uint64, req *types.UpdateProfileRequest) (*entity.User, error) {
	user, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		user.FirstName = strings.TrimSpace(req.Name.FirstName)
		user.LastName = strings.TrimSpace(req.Name.LastName)
	}

	if req.Address != nil {
		user.Country = req.Address.Country
		user.City = req.Address.City
		user.PostalCode = req.Address.PostalCode
		user.Street = req.Address.Street
		user.Number = req.Address.Number
	}

	if req.Email != nil {
		email := strings.TrimSpace(*req.Email)
		canonical := CanonicalizeEmail(email)
		if canonical != user.CanonicalEmail {
			existing, err := s.userRepo.FindByCanonicalEmail(ctx, canonical)
			if err != nil {
				return nil, err
			}
			if existing != nil && existing.ID != user.ID {
				return nil, ErrUserExists
			}
		}
		user.Email = email
		user.CanonicalEmail = canonical
	}

	if req.Password != nil {
		if err = s.cfg.Password.Policy.Validate(*req.Password); err != nil {
			return nil, fmt.Errorf("%w: %s", ErrWeakPassword, err.Error())
		}
		hashedPassword, err := bcrypt.GenerateFromPassword([]byte(*req.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, err
		}
		user.PasswordHash = string(hashedPassword)
	}

	if err = s.userRepo.Update(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrUserExists
		}
		return nil, err
	}

	return user, nil
}

func (s *userService) SavePushToken(ctx context.Context, userID uint64, req *types.PushTokenRequest) error {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrUserNotFound
	}

	return s.userRepo.UpdatePushToken(ctx, userID, strings.TrimSpace(req.PushToken), s.now())
}
