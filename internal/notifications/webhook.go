package notifications

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/kjannette/market-rates-backend/internal/httputil"
)

const (
	defaultName = "MarketRates"
	queueSize   = 16
	postTimeout = 30 * time.Second
)

// Sender posts short operator messages to a Slack or Discord webhook.
// With no webhook configured, messages are only logged.
//
// Posting happens on a background worker, so Send never blocks the caller
// on the webhook. Close drains whatever is still queued.
type Sender struct {
	webhookURL string
	name       string
	httpClient *http.Client
	retry      httputil.RetryConfig
	logger     *logrus.Logger

	queue  chan string
	done   chan struct{}
	base   context.Context
	cancel context.CancelFunc

	mu     sync.Mutex
	closed bool
}

func NewSender(webhookURL, name string, logger *logrus.Logger) *Sender {
	if name == "" {
		name = defaultName
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	s := &Sender{
		webhookURL: webhookURL,
		name:       name,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		retry: httputil.RetryConfig{
			MaxAttempts: 3,
			BaseDelay:   1 * time.Second,
			MaxDelay:    5 * time.Second,
			Logger:      logger.WithField("component", "notifications"),
		},
		logger: logger,
	}
	if webhookURL != "" {
		s.queue = make(chan string, queueSize)
		s.done = make(chan struct{})
		s.base, s.cancel = context.WithCancel(context.Background())
		go s.worker()
	}
	return s
}

// Send logs msg and queues it for the webhook. A full queue drops the
// message with a warning rather than waiting.
func (s *Sender) Send(msg string) {
	formatted := fmt.Sprintf("[%s] %s", s.name, msg)
	log := s.logger.WithField("component", "notifications")
	log.Info(formatted)

	if s.webhookURL == "" {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		log.Warn("Notification sender closed, message not posted")
		return
	}
	select {
	case s.queue <- formatted:
	default:
		log.WithField("queued", queueSize).Warn("Notification queue full, message dropped")
	}
}

// Close stops accepting messages and waits for queued ones to be posted.
// If ctx ends first, the in-flight post is cancelled and ctx.Err() returned.
func (s *Sender) Close(ctx context.Context) error {
	if s.webhookURL == "" {
		return nil
	}
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	close(s.queue)
	s.mu.Unlock()

	select {
	case <-s.done:
		s.cancel()
		return nil
	case <-ctx.Done():
		s.cancel()
		return ctx.Err()
	}
}

func (s *Sender) worker() {
	defer close(s.done)
	for msg := range s.queue {
		s.post(msg)
	}
}

func (s *Sender) post(formatted string) {
	body, err := json.Marshal(s.formatPayload(formatted))
	if err != nil {
		s.logger.WithError(err).Error("Notification marshal failed")
		return
	}

	ctx, cancel := context.WithTimeout(s.base, postTimeout)
	defer cancel()

	resp, err := httputil.Do(ctx, s.httpClient, s.retry, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.webhookURL, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		return req, nil
	})
	if err != nil {
		s.logger.WithError(err).Error("Failed to send notification after retries")
		return
	}
	resp.Body.Close()
}

// RunFailed reports an ingestion run that ended in error.
func (s *Sender) RunFailed(err error) {
	s.Send(fmt.Sprintf("ingestion run failed: %v", err))
}

// RowsDropped reports malformed source rows that were skipped.
func (s *Sender) RowsDropped(source string, dropped, total int) {
	s.Send(fmt.Sprintf("%s: dropped %d of %d rows as malformed", source, dropped, total))
}

func (s *Sender) formatPayload(msg string) map[string]string {
	if strings.Contains(s.webhookURL, "discord") {
		return map[string]string{
			"content":  msg,
			"username": s.name,
		}
	}
	return map[string]string{
		"text":     fmt.Sprintf("`%s`", msg),
		"username": s.name,
	}
}

func (s *Sender) Enabled() bool {
	return s.webhookURL != ""
}
