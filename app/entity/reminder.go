package entity

import (
	"database/sql"
	"time"
)

const (
	NotificationStatusPending = "pending"
	NotificationStatusSending = "sending"
	NotificationStatusSent    = "sent"
	NotificationStatusFailed  = "failed"
)

// ReminderState is the last expiry date seen for a user and the instant the
// reminder for it was scheduled or presented.
type ReminderState struct {
	UserID      uint64
	ExpiryDate  time.Time
	ScheduledAt sql.NullTime
	UpdatedAt   time.Time
}

type ScheduledNotification struct {
	ID         uint64
	UserID     uint64
	Identifier string
	Title      string
	Body       string
	FireAt     time.Time
	Status     string
	SentAt     sql.NullTime
	LastError  sql.NullString
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
