// Package ocr relays ID-card images to the external text-recognition service.
package ocr

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"

	"github.com/kovacsgabor0730/Kovacs-Gabor-Szakdolgozat/config"
)

const maxResponseSize = 1 << 20

var ErrResponseTooLarge = errors.New("ocr response too large")

// Result is the OCR service response, passed through unmodified.
type Result struct {
	StatusCode  int
	ContentType string
	Body        []byte
}

// StatusError reports a non-2xx answer from the OCR service.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("ocr service responded with status %d: %s", e.StatusCode, e.Body)
}

type Client struct {
	url        string
	apiKey     string
	httpClient *http.Client
}

func NewClient(cfg config.OCRConfig) *Client {
	return &Client{
		url:        cfg.URL,
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

// Recognize forwards the image as multipart field "file". There are no
// retries.
func (c *Client) Recognize(ctx context.Context, filename, contentType string, data []byte) (*Result, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, filename))
	header.Set("Content-Type", contentType)
	part, err := writer.CreatePart(header)
	if err != nil {
		return nil, err
	}
	if _, err = part.Write(data); err != nil {
		return nil, err
	}
	if err = writer.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("X-API-KEY", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize+1))
	if err != nil {
		return nil, err
	}
	tooLarge := len(respBody) > maxResponseSize
	if tooLarge {
		respBody = respBody[:maxResponseSize]
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}
	if tooLarge {
		return nil, fmt.Errorf("%w: over %d bytes", ErrResponseTooLarge, maxResponseSize)
	}

	contentType = resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/json"
	}
	return &Result{
		StatusCode:  resp.StatusCode,
		ContentType: contentType,
		Body:        respBody,
	}, nil
}
