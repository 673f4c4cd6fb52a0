// Package reminder decides when the ID-card expiry reminder fires and keeps
// the persisted schedule in step with the stored expiry date.
package reminder

import "time"

// Identifier is the fixed key every expiry reminder is stored under, so a
// user never has more than one pending reminder.
const Identifier = "id-card-expiry"

// cycleTolerance absorbs day-boundary drift between a persisted schedule and
// a freshly computed notify date.
const cycleTolerance = 24 * time.Hour

type Action int

const (
	ActionKeep Action = iota
	ActionFireNow
	ActionSchedule
	ActionClear
)

func (a Action) String() string {
	switch a {
	case ActionKeep:
		return "keep"
	case ActionFireNow:
		return "fire_now"
	case ActionSchedule:
		return "schedule"
	case ActionClear:
		return "clear"
	default:
		return "unknown"
	}
}

type Decision struct {
	Action   Action
	NotifyAt time.Time
	// ScheduledAt is the instant to persist for FireNow and Schedule.
	ScheduledAt time.Time
	// Replace is set when an existing platform notification must be
	// cancelled before the new one is registered.
	Replace bool
}

// NotifyAt returns the reminder instant: one calendar month before expiry,
// with Go's usual day overflow normalisation (Mar 31 becomes Mar 3).
func NotifyAt(expiry time.Time) time.Time {
	return expiry.AddDate(0, -1, 0)
}

// Plan is a pure function of the current instant, the document expiry and
// the previously persisted schedule (nil when none exists).
func Plan(now, expiry time.Time, prior *time.Time) Decision {
	notifyAt := NotifyAt(expiry)
	d := Decision{NotifyAt: notifyAt}

	if !now.Before(expiry) {
		d.Action = ActionClear
		return d
	}

	if !now.Before(notifyAt) {
		if prior != nil && !prior.Before(notifyAt.Add(-cycleTolerance)) && prior.Before(expiry) {
			d.Action = ActionKeep
			return d
		}
		d.Action = ActionFireNow
		d.ScheduledAt = now
		d.Replace = prior != nil
		return d
	}

	if prior != nil && absDuration(prior.Sub(notifyAt)) <= cycleTolerance {
		d.Action = ActionKeep
		return d
	}
	d.Action = ActionSchedule
	d.ScheduledAt = notifyAt
	d.Replace = prior != nil
	return d
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
