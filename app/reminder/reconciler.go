package reminder

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/kovacsgabor0730/Kovacs-Gabor-Szakdolgozat/app/entity"

	"github.com/sirupsen/logrus"
)

const dateLayout = "2006-01-02"

var ErrInvalidExpiryDate = errors.New("invalid expiry date")

var (
	upcomingContent = Content{
		Title: "Személyi igazolvány lejár!",
		Body:  "A személyi igazolványod egy hónap múlva lejár. Kérjük, gondoskodj az időben történő megújításról!",
	}
	imminentContent = Content{
		Title: "Személyi igazolvány lejár!",
		Body:  "A személyi igazolványod egy hónapon belül lejár. Kérjük, gondoskodj az időben történő megújításról!",
	}
)

type Content struct {
	Title string
	Body  string
}

type StateStore interface {
	FindByUserID(ctx context.Context, userID uint64) (*entity.ReminderState, error)
	Save(ctx context.Context, state *entity.ReminderState) error
	Delete(ctx context.Context, userID uint64) error
}

type Platform interface {
	Schedule(ctx context.Context, userID uint64, identifier string, at time.Time, content Content) error
	Present(ctx context.Context, userID uint64, identifier string, content Content) error
	Cancel(ctx context.Context, userID uint64, identifier string) error
}

type ExpiryLister interface {
	ListExpiries(ctx context.Context) ([]*entity.IDCard, error)
}

type Summary struct {
	Processed int
	Failed    int
}

type ReconcilerOption func(*Reconciler)

type Reconciler struct {
	store    StateStore
	platform Platform
	cards    ExpiryLister
	locker   Locker
	location *time.Location
	now      func() time.Time
}

func NewReconciler(store StateStore, platform Platform, cards ExpiryLister, opts ...ReconcilerOption) *Reconciler {
	r := &Reconciler{
		store:    store,
		platform: platform,
		cards:    cards,
		locker:   newLocalLocker(),
		location: time.Local,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func WithClock(now func() time.Time) ReconcilerOption {
	return func(r *Reconciler) {
		if now != nil {
			r.now = now
		}
	}
}

// WithLocker replaces the in-process per-user lock, e.g. with one shared
// between processes.
func WithLocker(l Locker) ReconcilerOption {
	return func(r *Reconciler) {
		if l != nil {
			r.locker = l
		}
	}
}

func WithLocation(loc *time.Location) ReconcilerOption {
	return func(r *Reconciler) {
		if loc != nil {
			r.location = loc
		}
	}
}

// ParseExpiry accepts a calendar date (YYYY-MM-DD) or an RFC 3339 timestamp.
// Calendar dates are interpreted at midnight in loc.
func ParseExpiry(raw string, loc *time.Location) (time.Time, error) {
	if t, err := time.ParseInLocation(dateLayout, raw, loc); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidExpiryDate, raw)
}

// ReconcileRaw parses the stored expiry string before reconciling. An
// unparseable value leaves all state untouched.
func (r *Reconciler) ReconcileRaw(ctx context.Context, userID uint64, raw string) (Decision, error) {
	expiry, err := ParseExpiry(raw, r.location)
	if err != nil {
		logrus.WithError(err).WithField("user_id", userID).Warn("Reminder reconcile skipped: invalid expiry date")
		return Decision{}, err
	}
	return r.Reconcile(ctx, userID, expiry)
}

// Reconcile re-derives the reminder for one user from the current instant
// and the expiry date. Calls for the same user run one at a time. Platform
// failures are returned without touching the persisted state.
func (r *Reconciler) Reconcile(ctx context.Context, userID uint64, expiry time.Time) (Decision, error) {
	expiry = r.normalize(expiry)

	unlock, err := r.locker.Lock(ctx, userID)
	if err != nil {
		return Decision{}, fmt.Errorf("lock reminder state: %w", err)
	}
	defer unlock()

	state, err := r.store.FindByUserID(ctx, userID)
	if err != nil {
		return Decision{}, err
	}

	var prior *time.Time
	if state != nil && state.ScheduledAt.Valid {
		scheduledAt := state.ScheduledAt.Time
		prior = &scheduledAt
	}

	now := r.now()
	decision := Plan(now, expiry, prior)
	entry := logrus.WithFields(logrus.Fields{
		"user_id":   userID,
		"expiry":    expiry.Format(dateLayout),
		"notify_at": decision.NotifyAt.Format(time.RFC3339),
		"action":    decision.Action.String(),
	})

	switch decision.Action {
	case ActionClear:
		if state != nil {
			if err := r.platform.Cancel(ctx, userID, Identifier); err != nil {
				return decision, fmt.Errorf("cancel reminder: %w", err)
			}
			if err := r.store.Delete(ctx, userID); err != nil {
				return decision, err
			}
		}
	case ActionKeep:
		if state != nil && !sameDate(state.ExpiryDate, expiry) {
			state.ExpiryDate = expiry
			state.UpdatedAt = now
			if err := r.store.Save(ctx, state); err != nil {
				return decision, err
			}
		}
	case ActionFireNow, ActionSchedule:
		if decision.Replace {
			if err := r.platform.Cancel(ctx, userID, Identifier); err != nil {
				return decision, fmt.Errorf("cancel reminder: %w", err)
			}
		}
		if decision.Action == ActionFireNow {
			err = r.platform.Present(ctx, userID, Identifier, imminentContent)
		} else {
			err = r.platform.Schedule(ctx, userID, Identifier, decision.NotifyAt, upcomingContent)
		}
		if err != nil {
			return decision, fmt.Errorf("%s reminder: %w", decision.Action, err)
		}

		if err := r.store.Save(ctx, &entity.ReminderState{
			UserID:      userID,
			ExpiryDate:  expiry,
			ScheduledAt: sql.NullTime{Time: decision.ScheduledAt, Valid: true},
			UpdatedAt:   now,
		}); err != nil {
			return decision, err
		}
	}

	entry.Debug("Reminder reconciled")
	return decision, nil
}

// ReconcileAll runs one pass over every stored ID card. Individual failures
// are logged and counted; the pass continues.
func (r *Reconciler) ReconcileAll(ctx context.Context) (Summary, error) {
	cards, err := r.cards.ListExpiries(ctx)
	if err != nil {
		return Summary{}, err
	}

	var summary Summary
	for _, card := range cards {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		summary.Processed++
		if _, err := r.Reconcile(ctx, card.UserID, card.DateOfExpiry); err != nil {
			summary.Failed++
			logrus.WithError(err).WithField("user_id", card.UserID).Error("Reminder reconcile failed")
		}
	}

	logrus.WithFields(logrus.Fields{
		"processed": summary.Processed,
		"failed":    summary.Failed,
	}).Info("Reminder reconcile pass finished")
	return summary, nil
}

// normalize pins a date-only value to midnight in the reminder location.
func (r *Reconciler) normalize(expiry time.Time) time.Time {
	y, m, d := expiry.Date()
	if expiry.Hour() == 0 && expiry.Minute() == 0 && expiry.Second() == 0 && expiry.Nanosecond() == 0 {
		return time.Date(y, m, d, 0, 0, 0, 0, r.location)
	}
	return expiry
}

func sameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
