// Package notification stores reminder notifications per user and delivers
// them through a push Sender.
package notification

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/kovacsgabor0730/Kovacs-Gabor-Szakdolgozat/app/entity"
	"github.com/kovacsgabor0730/Kovacs-Gabor-Szakdolgozat/app/reminder"

	"github.com/sirupsen/logrus"
)

const reasonNoPushToken = "no push token"

var ErrUserNotFound = errors.New("notification recipient not found")

type Message struct {
	Title string
	Body  string
	Data  map[string]string
}

type Sender interface {
	Send(ctx context.Context, pushToken string, msg Message) error
}

type Store interface {
	Upsert(ctx context.Context, n *entity.ScheduledNotification) error
	Delete(ctx context.Context, userID uint64, identifier string) error
	FindDue(ctx context.Context, now time.Time, limit int) ([]*entity.ScheduledNotification, error)
	Claim(ctx context.Context, id uint64, fireAt, at time.Time) (bool, error)
	MarkSent(ctx context.Context, id uint64, sentAt time.Time) error
	MarkFailed(ctx context.Context, id uint64, reason string, at time.Time) error
}

type UserLookup interface {
	FindByID(ctx context.Context, id uint64) (*entity.User, error)
}

type Option func(*Platform)

// Platform keeps at most one notification per (user, identifier).
type Platform struct {
	store  Store
	users  UserLookup
	sender Sender
	now    func() time.Time
}

func NewPlatform(store Store, users UserLookup, sender Sender, opts ...Option) *Platform {
	p := &Platform{
		store:  store,
		users:  users,
		sender: sender,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func WithClock(now func() time.Time) Option {
	return func(p *Platform) {
		if now != nil {
			p.now = now
		}
	}
}

func (p *Platform) Schedule(ctx context.Context, userID uint64, identifier string, at time.Time, content reminder.Content) error {
	now := p.now()
	return p.store.Upsert(ctx, &entity.ScheduledNotification{
		UserID:     userID,
		Identifier: identifier,
		Title:      content.Title,
		Body:       content.Body,
		FireAt:     at,
		Status:     entity.NotificationStatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	})
}

// Present delivers immediately and records the outcome under identifier.
func (p *Platform) Present(ctx context.Context, userID uint64, identifier string, content reminder.Content) error {
	user, err := p.users.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrUserNotFound
	}

	now := p.now()
	n := &entity.ScheduledNotification{
		UserID:     userID,
		Identifier: identifier,
		Title:      content.Title,
		Body:       content.Body,
		FireAt:     now,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if !user.HasPushToken() {
		logrus.WithField("user_id", userID).Warn("Reminder not delivered: user has no push token")
		n.Status = entity.NotificationStatusFailed
		n.LastError = sql.NullString{String: reasonNoPushToken, Valid: true}
		return p.store.Upsert(ctx, n)
	}

	if err := p.sender.Send(ctx, user.PushToken.String, messageFor(n)); err != nil {
		n.Status = entity.NotificationStatusFailed
		n.LastError = sql.NullString{String: err.Error(), Valid: true}
		if storeErr := p.store.Upsert(ctx, n); storeErr != nil {
			logrus.WithError(storeErr).WithField("user_id", userID).Error("Failed to record undelivered notification")
		}
		return err
	}

	n.Status = entity.NotificationStatusSent
	n.SentAt = sql.NullTime{Time: now, Valid: true}
	return p.store.Upsert(ctx, n)
}

func (p *Platform) Cancel(ctx context.Context, userID uint64, identifier string) error {
	return p.store.Delete(ctx, userID, identifier)
}

func messageFor(n *entity.ScheduledNotification) Message {
	return Message{
		Title: n.Title,
		Body:  n.Body,
		Data:  map[string]string{"identifier": n.Identifier},
	}
}
