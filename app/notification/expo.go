package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/kovacsgabor0730/Kovacs-Gabor-Szakdolgozat/config"
)

const maxExpoResponseSize = 64 << 10

var ErrExpoRejected = errors.New("expo push rejected")

// IsExpoPushToken reports whether token was issued by the Expo push service
// rather than by FCM or APNs directly.
func IsExpoPushToken(token string) bool {
	return (strings.HasPrefix(token, "ExponentPushToken[") || strings.HasPrefix(token, "ExpoPushToken[")) &&
		strings.HasSuffix(token, "]")
}

type expoMessage struct {
	To    string            `json:"to"`
	Title string            `json:"title"`
	Body  string            `json:"body"`
	Data  map[string]string `json:"data,omitempty"`
	Sound string            `json:"sound"`
}

type expoTicket struct {
	Status  string `json:"status"`
	ID      string `json:"id"`
	Message string `json:"message"`
	Details struct {
		Error string `json:"error"`
	} `json:"details"`
}

type expoResponse struct {
	Data   []expoTicket `json:"data"`
	Errors []struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"errors"`
}

// ExpoSender posts to the Expo push API, which relays to FCM and APNs.
type ExpoSender struct {
	url         string
	accessToken string
	httpClient  *http.Client
}

func NewExpoSender(cfg config.PushConfig) *ExpoSender {
	return &ExpoSender{
		url:         cfg.ExpoURL,
		accessToken: cfg.ExpoAccessToken,
		httpClient:  &http.Client{Timeout: cfg.ExpoTimeout},
	}
}

func (s *ExpoSender) Send(ctx context.Context, pushToken string, msg Message) error {
	payload, err := json.Marshal([]expoMessage{{
		To:    pushToken,
		Title: msg.Title,
		Body:  msg.Body,
		Data:  msg.Data,
		Sound: "default",
	}})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if s.accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+s.accessToken)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxExpoResponseSize))
	if err != nil {
		return err
	}

	var parsed expoResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return fmt.Errorf("expo push: status %d: unreadable response: %w", resp.StatusCode, err)
	}
	if len(parsed.Errors) > 0 {
		return fmt.Errorf("%w: %s: %s", ErrExpoRejected, parsed.Errors[0].Code, parsed.Errors[0].Message)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("expo push: status %d", resp.StatusCode)
	}
	if len(parsed.Data) == 0 {
		return fmt.Errorf("%w: empty ticket list", ErrExpoRejected)
	}
	if ticket := parsed.Data[0]; ticket.Status != "ok" {
		return fmt.Errorf("%w: %s: %s", ErrExpoRejected, ticket.Details.Error, ticket.Message)
	}
	return nil
}

// RoutingSender sends Expo tokens through Expo and everything else through
// the native sender.
type RoutingSender struct {
	Expo   Sender
	Native Sender
}

func (r RoutingSender) Send(ctx context.Context, pushToken string, msg Message) error {
	if IsExpoPushToken(pushToken) {
		return r.Expo.Send(ctx, pushToken, msg)
	}
	return r.Native.Send(ctx, pushToken, msg)
}
