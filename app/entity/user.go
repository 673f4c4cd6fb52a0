package entity

import (
	"database/sql"
	"time"
)

type User struct {
	ID                  uint64
	FirstName           string
	LastName            string
	Country             string
	City                string
	PostalCode          string
	Street              string
	Number              string
	Email               string
	CanonicalEmail      string
	PasswordHash        string
	ResetToken          sql.NullString
	ResetTokenExpiresAt sql.NullTime
	PushToken           sql.NullString
	PushTokenUpdatedAt  sql.NullTime
	BiometricKeyHash    sql.NullString
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

func (u *User) HasPushToken() bool {
	return u.PushToken.Valid && u.PushToken.String != ""
}
