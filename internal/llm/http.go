package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
)

const (
	defaultTimeout = 45 * time.Second

	// Gap-fill calls are idempotent, so transient failures get retried.
	maxAttempts    = 3
	retryBaseDelay = 250 * time.Millisecond
)

// NewHTTPClient builds the client providers share. Provider configs carry
// their own timeout; zero falls back to the default.
func NewHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &http.Client{Timeout: timeout}
}

// SendJSON posts a JSON body to a full URL with optional headers and returns
// the raw response body. Rate limits, 5xx responses, and network errors are
// retried with doubling backoff; other failures return immediately. Callers
// decide the URL and headers.
func SendJSON(ctx context.Context, client *http.Client, url string, body any, headers map[string]string, logger *slog.Logger) ([]byte, int, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if client == nil {
		client = NewHTTPClient(0)
	}

	reqID := uuid.New().String()
	start := time.Now()

	bs, err := json.Marshal(body)
	if err != nil {
		logger.Error("llm.http.encode_error", "req_id", reqID, "error", err)
		return nil, 0, fmt.Errorf("encode json: %w", err)
	}

	var (
		raw    []byte
		status int
	)
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		raw, status, err = postOnce(ctx, client, url, bs, headers, logger, reqID, attempt)
		if err == nil {
			return raw, status, nil
		}
		if !retryable(status) || attempt == maxAttempts || ctx.Err() != nil {
			break
		}

		delay := retryBaseDelay << (attempt - 1)
		logger.Warn("llm.http.retry",
			"req_id", reqID,
			"attempt", attempt,
			"status", status,
			"delay_ms", delay.Milliseconds(),
			"error", err,
		)
		select {
		case <-ctx.Done():
			return nil, 0, ctx.Err()
		case <-time.After(delay):
		}
	}

	logger.Error("llm.http.failed",
		"req_id", reqID,
		"status", status,
		"elapsed_ms", time.Since(start).Milliseconds(),
		"error", err,
	)
	return raw, status, err
}

func postOnce(ctx context.Context, client *http.Client, url string, body []byte, headers map[string]string, logger *slog.Logger, reqID string, attempt int) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, 0, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	start := time.Now()
	logger.Info("llm.http.request",
		"req_id", reqID,
		"url", url,
		"attempt", attempt,
		"content_length", len(body),
	)

	resp, err := client.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			logger.Warn("llm.http.response_body_close_error", "req_id", reqID, "error", cerr)
		}
	}()

	raw, _ := io.ReadAll(resp.Body)

	logger.Info("llm.http.response",
		"req_id", reqID,
		"status", resp.StatusCode,
		"bytes", len(raw),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)

	if resp.StatusCode/100 != 2 {
		return raw, resp.StatusCode, fmt.Errorf("non-2xx status: %d", resp.StatusCode)
	}
	return raw, resp.StatusCode, nil
}

// retryable: a zero status means the request never completed (network
// error); 429 and 5xx are the provider telling us to come back later.
func retryable(status int) bool {
	return status == 0 || status == http.StatusTooManyRequests || status >= 500
}
