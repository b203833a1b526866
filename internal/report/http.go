package report

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/jsvensson/valuetrainer/internal/exercise"
)

// DefaultTimeout bounds one HTTP submission when no client is given.
const DefaultTimeout = 5 * time.Second

// StatusError is returned when the server answers with a non-2xx status.
type StatusError struct {
	URL    string
	Status string
	Code   int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("posting summary to %s: %s", e.URL, e.Status)
}

// HTTP posts each summary as a JSON document to an exercise log endpoint.
type HTTP struct {
	url    string
	client *http.Client
}

// NewHTTP returns a sink posting to url. A nil client gets a default one with
// DefaultTimeout.
func NewHTTP(url string, client *http.Client) *HTTP {
	if client == nil {
		client = &http.Client{Timeout: DefaultTimeout}
	}
	return &HTTP{url: url, client: client}
}

func (h *HTTP) Submit(ctx context.Context, s exercise.Summary) error {
	body, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encoding summary: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.client.Do(req)
	if err != nil {
		return fmt.Errorf("posting summary: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{URL: h.url, Status: resp.Status, Code: resp.StatusCode}
	}
	log.Debugf("posted summary to %s", h.url)
	return nil
}
