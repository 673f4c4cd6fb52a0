package service

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"time"

	"github.com/kovacsgabor0730/Kovacs-Gabor-Szakdolgozat/app/entity"
	"github.com/kovacsgabor0730/Kovacs-Gabor-Szakdolgozat/app/reminder"
	"github.com/kovacsgabor0730/Kovacs-Gabor-Szakdolgozat/app/repository"
	"github.com/kovacsgabor0730/Kovacs-Gabor-Szakdolgozat/app/types"

	"github.com/sirupsen/logrus"
)

const minimumAge = 14

var (
	idNumberPattern  = regexp.MustCompile(`^[0-9]{6}[A-Z]{2}$`)
	canNumberPattern = regexp.MustCompile(`^[0-9]{6}$`)
)

var (
	ErrIDCardNotFound = errors.New("id card not found")
	ErrIDNumberTaken  = errors.New("id number already registered")
	ErrNameMismatch   = errors.New("id card name does not match user")
)

// ValidationError is a rejected field rule; Message is returned to the client.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func invalid(message string) error {
	return &ValidationError{Message: message}
}

type idCardRepository interface {
	FindByUserID(ctx context.Context, userID uint64) (*entity.IDCard, error)
	FindByIDNumber(ctx context.Context, idNumber string) (*entity.IDCard, error)
	WithTx(tx repository.DBTX) *repository.IDCardRepository
}

type reminderReconciler interface {
	Reconcile(ctx context.Context, userID uint64, expiry time.Time) (reminder.Decision, error)
	ReconcileRaw(ctx context.Context, userID uint64, raw string) (reminder.Decision, error)
}

type IDCardService interface {
	Submit(ctx context.Context, userID uint64, req *types.IDCardRequest) (*entity.IDCard, error)
	GetDetails(ctx context.Context, userID uint64) (*entity.IDCard, error)
	SyncReminder(ctx context.Context, userID uint64, req *types.SyncReminderRequest) (reminder.Decision, error)
}

type idCardService struct {
	db         *sql.DB
	idCardRepo idCardRepository
	userRepo   userRepository
	reconciler reminderReconciler
	location   *time.Location
	now        func() time.Time
}

func NewIDCardService(db *sql.DB, idCardRepo idCardRepository, userRepo userRepository, reconciler reminderReconciler, location *time.Location, opts ...Option) IDCardService {
	o := applyOptions(opts)
	if location == nil {
		location = time.Local
	}
	return &idCardService{
		db:         db,
		idCardRepo: idCardRepo,
		userRepo:   userRepo,
		reconciler: reconciler,
		location:   location,
		now:        o.now,
	}
}

// Submit validates the card fields in a fixed order and stores the record,
// replacing the user's previous one. The expiry reminder is reconciled
// afterwards; a reminder failure does not fail the submission.
func (s *idCardService) Submit(ctx context.Context, userID uint64, req *types.IDCardRequest) (*entity.IDCard, error) {
	card, err := s.parse(req)
	if err != nil {
		return nil, err
	}

	existing, err := s.idCardRepo.FindByIDNumber(ctx, card.IDNumber)
	if err != nil {
		return nil, err
	}
	if existing != nil && existing.UserID != userID {
		return nil, ErrIDNumberTaken
	}

	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	if card.FirstName+" "+card.LastName != user.FirstName+" "+user.LastName {
		return nil, ErrNameMismatch
	}

	card.UserID = userID
	if err = s.save(ctx, card); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrIDNumberTaken
		}
		return nil, err
	}

	decision, err := s.reconciler.Reconcile(ctx, userID, card.DateOfExpiry)
	if err != nil {
		logrus.WithError(err).WithField("user_id", userID).Error("Failed to reconcile expiry reminder after upload")
	} else {
		logrus.WithFields(logrus.Fields{
			"user_id": userID,
			"action":  decision.Action.String(),
		}).Debug("Expiry reminder reconciled")
	}

	return card, nil
}

func (s *idCardService) GetDetails(ctx context.Context, userID uint64) (*entity.IDCard, error) {
	card, err := s.idCardRepo.FindByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if card == nil {
		return nil, ErrIDCardNotFound
	}
	return card, nil
}

// SyncReminder reconciles against req.DateOfExpiry when given, otherwise
// against the stored card.
func (s *idCardService) SyncReminder(ctx context.Context, userID uint64, req *types.SyncReminderRequest) (reminder.Decision, error) {
	if req.DateOfExpiry != "" {
		return s.reconciler.ReconcileRaw(ctx, userID, req.DateOfExpiry)
	}

	card, err := s.GetDetails(ctx, userID)
	if err != nil {
		return reminder.Decision{}, err
	}
	return s.reconciler.Reconcile(ctx, userID, card.DateOfExpiry)
}

func (s *idCardService) parse(req *types.IDCardRequest) (*entity.IDCard, error) {
	if err := req.Validate(); err != nil {
		return nil, invalid(err.Error())
	}

	today := s.today()

	if !idNumberPattern.MatchString(req.IDNumber) {
		return nil, invalid("ID number must be in the format 000000XY")
	}

	if req.Sex != entity.SexMale && req.Sex != entity.SexFemale {
		return nil, invalid(`Sex must be either "férfi" or "nő"`)
	}

	expiry, err := s.parseDate(req.DateOfExpiry)
	if err != nil || !expiry.After(today) {
		return nil, invalid("Date of expiry cannot be lower than or equal to today's date")
	}

	if !canNumberPattern.MatchString(req.CANNumber) {
		return nil, invalid("CAN number must be in the format 000000")
	}

	birth, err := s.parseDate(req.DateOfBirth)
	if err != nil || !birth.Before(today.AddDate(-minimumAge, 0, 0)) {
		return nil, invalid("Date of birth must be at least 14 years earlier than today's date")
	}

	return &entity.IDCard{
		IDNumber:          req.IDNumber,
		FirstName:         req.FirstName,
		LastName:          req.LastName,
		Sex:               req.Sex,
		CANNumber:         req.CANNumber,
		PlaceOfBirth:      req.PlaceOfBirth,
		MothersMaidenName: req.MothersMaidenName,
		DateOfBirth:       birth,
		DateOfExpiry:      expiry,
	}, nil
}

func (s *idCardService) save(ctx context.Context, card *entity.IDCard) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	txRepo := s.idCardRepo.WithTx(tx)
	current, err := txRepo.FindByUserID(ctx, card.UserID)
	if err != nil {
		return err
	}

	now := s.now()
	card.ModifiedAt = now
	if current == nil {
		card.CreatedAt = now
		err = txRepo.Create(ctx, card)
	} else {
		card.ID = current.ID
		card.CreatedAt = current.CreatedAt
		err = txRepo.Update(ctx, card)
	}
	if err != nil {
		return err
	}

	return tx.Commit()
}

func (s *idCardService) today() time.Time {
	now := s.now().In(s.location)
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.location)
}

// parseDate accepts a calendar date or an RFC 3339 timestamp and returns the
// calendar day it falls on.
func (s *idCardService) parseDate(raw string) (time.Time, error) {
	t, err := reminder.ParseExpiry(raw, s.location)
	if err != nil {
		return time.Time{}, err
	}
	t = t.In(s.location)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, s.location), nil
}
