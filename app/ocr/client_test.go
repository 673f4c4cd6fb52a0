package ocr

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/kovacsgabor0730/Kovacs-Gabor-Szakdolgozat/config"
)

func TestRecognizeForwardsImage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-API-KEY") != "secret" {
			t.Errorf("missing api key header")
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			t.Errorf("missing file field: %v", err)
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		defer file.Close()
		data, _ := io.ReadAll(file)
		if string(data) != "jpeg-bytes" || header.Filename != "card.jpg" {
			t.Errorf("unexpected upload %q %q", header.Filename, data)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id_number":"123456AB"}`))
	}))
	defer server.Close()

	client := NewClient(config.OCRConfig{URL: server.URL, APIKey: "secret", Timeout: 5 * time.Second})
	res, err := client.Recognize(context.Background(), "card.jpg", "image/jpeg", []byte("jpeg-bytes"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(res.Body) != `{"id_number":"123456AB"}` || res.ContentType != "application/json" {
		t.Fatalf("unexpected result: %s %s", res.ContentType, res.Body)
	}
}

func TestRecognizeNon2xx(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte("bad key"))
	}))
	defer server.Close()

	client := NewClient(config.OCRConfig{URL: server.URL, Timeout: 5 * time.Second})
	_, err := client.Recognize(context.Background(), "card.png", "image/png", []byte("x"))

	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("expected StatusError, got %v", err)
	}
	if statusErr.StatusCode != http.StatusUnauthorized || statusErr.Body != "bad key" {
		t.Fatalf("unexpected status error: %+v", statusErr)
	}
}

func TestRecognizeTransportError(t *testing.T) {
	client := NewClient(config.OCRConfig{URL: "http://127.0.0.1:1/upload", Timeout: time.Second})
	if _, err := client.Recognize(context.Background(), "card.png", "image/png", []byte("x")); err == nil {
		t.Fatalf("expected transport error")
	}
}

func TestRecognizeOversizedResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(strings.Repeat("a", maxResponseSize+1)))
	}))
	defer server.Close()

	client := NewClient(config.OCRConfig{URL: server.URL, Timeout: 5 * time.Second})
	result, err := client.Recognize(context.Background(), "card.png", "image/png", []byte("x"))
	if !errors.Is(err, ErrResponseTooLarge) {
		t.Fatalf("expected ErrResponseTooLarge, got %v", err)
	}
	if result != nil {
		t.Fatalf("expected no result, got %d bytes", len(result.Body))
	}
}

func TestRecognizeResponseAtLimit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(strings.Repeat("a", maxResponseSize)))
	}))
	defer server.Close()

	client := NewClient(config.OCRConfig{URL: server.URL, Timeout: 5 * time.Second})
	result, err := client.Recognize(context.Background(), "card.png", "image/png", []byte("x"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Body) != maxResponseSize {
		t.Fatalf("expected %d bytes, got %d", maxResponseSize, len(result.Body))
	}
}
