package types

import (
	"errors"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
)

var ErrInvalidExpiryDate = errors.New("Invalid expiry date")

// SyncReminderRequest optionally overrides the stored expiry date.
type SyncReminderRequest struct {
	DateOfExpiry string `json:"date_of_expiry"`
}

func NewSyncReminderRequestFromContext(ctx echo.Context) (*SyncReminderRequest, error) {
	var body SyncReminderRequest
	if ctx.Request().ContentLength == 0 {
		return &body, nil
	}
	if err := ctx.Bind(&body); err != nil {
		return nil, err
	}

	return &body, nil
}

// Validate accepts an empty date or one in YYYY-MM-DD or RFC 3339 form.
func (r *SyncReminderRequest) Validate() error {
	r.DateOfExpiry = strings.TrimSpace(r.DateOfExpiry)
	if r.DateOfExpiry == "" {
		return nil
	}
	if validate.Var(r.DateOfExpiry, "datetime=2006-01-02") == nil ||
		validate.Var(r.DateOfExpiry, "datetime="+time.RFC3339) == nil {
		return nil
	}
	return ErrInvalidExpiryDate
}

type SyncReminderResponse struct {
	Action      string     `json:"action"`
	NotifyAt    *time.Time `json:"notify_at,omitempty"`
	ScheduledAt *time.Time `json:"scheduled_at,omitempty"`
}
