package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/chrisdamba/foodlens/internal/models"
)

// FeedSource pulls the live transaction feed over HTTP. Network errors and
// 5xx responses are retried with exponential backoff; other statuses fail
// immediately.
type FeedSource struct {
	url          string
	httpClient   *http.Client
	maxAttempts  int
	initialDelay time.Duration
	logger       *zap.Logger
}

func NewFeedSource(cfg models.FeedConfig, logger *zap.Logger) *FeedSource {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	attempts := cfg.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FeedSource{
		url:          cfg.URL,
		httpClient:   &http.Client{Timeout: timeout},
		maxAttempts:  attempts,
		initialDelay: cfg.InitialDelay,
		logger:       logger,
	}
}

func (s *FeedSource) Name() string { return KindFeed }

type statusError struct {
	code int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("feed responded with status %d", e.code)
}

func (e *statusError) retryable() bool {
	return e.code >= http.StatusInternalServerError || e.code == http.StatusTooManyRequests
}

func (s *FeedSource) Fetch(ctx context.Context) ([]any, error) {
	delay := s.initialDelay
	var lastErr error

	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		records, err := s.fetchOnce(ctx)
		if err == nil {
			return records, nil
		}
		lastErr = err

		var se *statusError
		if errors.As(err, &se) && !se.retryable() {
			break
		}
		if ctx.Err() != nil || attempt == s.maxAttempts {
			break
		}

		s.logger.Warn("feed request failed, retrying",
			zap.String("url", s.url),
			zap.Int("attempt", attempt),
			zap.Duration("backoff", delay),
			zap.Error(err),
		)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}

	return nil, fmt.Errorf("fetch %s: %w", s.url, lastErr)
}

func (s *FeedSource) fetchOnce(ctx context.Context) ([]any, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, &statusError{code: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read feed body: %w", err)
	}
	return decodeRecords(body)
}
