package notification

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

const defaultBatchSize = 100

type Dispatcher struct {
	store     Store
	users     UserLookup
	sender    Sender
	batchSize int
}

func NewDispatcher(store Store, users UserLookup, sender Sender) *Dispatcher {
	return &Dispatcher{
		store:     store,
		users:     users,
		sender:    sender,
		batchSize: defaultBatchSize,
	}
}

// DispatchDue delivers pending notifications whose fire time has passed.
// A row is sent only by the dispatcher that claims it. Each claimed row ends
// up sent or failed; nothing is retried.
func (d *Dispatcher) DispatchDue(ctx context.Context, now time.Time) (int, error) {
	due, err := d.store.FindDue(ctx, now, d.batchSize)
	if err != nil {
		return 0, err
	}

	sent := 0
	for _, n := range due {
		entry := logrus.WithFields(logrus.Fields{
			"notification_id": n.ID,
			"user_id":         n.UserID,
			"identifier":      n.Identifier,
		})

		claimed, err := d.store.Claim(ctx, n.ID, n.FireAt, now)
		if err != nil {
			return sent, err
		}
		if !claimed {
			entry.Debug("Notification claimed elsewhere or rescheduled, skipping")
			continue
		}

		user, err := d.users.FindByID(ctx, n.UserID)
		if err != nil {
			return sent, err
		}

		var reason string
		switch {
		case user == nil:
			reason = ErrUserNotFound.Error()
		case !user.HasPushToken():
			reason = reasonNoPushToken
		default:
			if sendErr := d.sender.Send(ctx, user.PushToken.String, messageFor(n)); sendErr != nil {
				reason = sendErr.Error()
			}
		}

		if reason != "" {
			entry.WithField("reason", reason).Warn("Notification delivery failed")
			if err := d.store.MarkFailed(ctx, n.ID, reason, now); err != nil {
				return sent, err
			}
			continue
		}

		if err := d.store.MarkSent(ctx, n.ID, now); err != nil {
			return sent, err
		}
		sent++
		entry.Info("Notification delivered")
	}
	return sent, nil
}
