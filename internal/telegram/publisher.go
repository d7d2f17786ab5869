// Package telegram delivers rendered messages through the Bot API
// sendMessage call.
package telegram

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"site2tg/internal/domain"
)

const defaultAPIBase = "https://api.telegram.org"

// Publisher posts messages to a single chat, retrying transient
// failures with increasing backoff. Send blocks until the API
// acknowledges the message or the retry budget is spent.
type Publisher struct {
	apiBase        string
	botToken       string
	chatID         string
	disablePreview bool
	client         *http.Client
	attempts       int
	backoff        time.Duration
	logger         *slog.Logger
}

// New wires a publisher with the default retry budget.
func New(botToken, chatID string, disablePreview bool, logger *slog.Logger) *Publisher {
	return &Publisher{
		apiBase:        defaultAPIBase,
		botToken:       botToken,
		chatID:         chatID,
		disablePreview: disablePreview,
		client:         &http.Client{Timeout: 20 * time.Second},
		attempts:       3,
		backoff:        2 * time.Second,
		logger:         logger,
	}
}

// apiError is the slice of the Bot API error response the retry logic
// needs: the human-readable description and the rate-limit wait.
type apiError struct {
	Description string `json:"description"`
	Parameters  *struct {
		RetryAfter int `json:"retry_after"`
	} `json:"parameters"`
}

// Send delivers one message. Rate limits wait exactly as long as the
// API asks before the next attempt; authorization and addressing
// failures are terminal and surface immediately.
func (p *Publisher) Send(ctx context.Context, text string) error {
	var lastErr error

	for attempt := 1; attempt <= p.attempts; attempt++ {
		terminal, retryAfter, err := p.post(ctx, text)
		if err == nil {
			return nil
		}
		if terminal {
			return &domain.PublishError{Err: err}
		}
		lastErr = err

		if attempt == p.attempts {
			break
		}

		wait := p.backoff * time.Duration(attempt)
		if retryAfter > 0 {
			wait = retryAfter
		}
		p.warn("send failed, retrying", "attempt", attempt, "wait", wait, "error", err)
		if err := sleep(ctx, wait); err != nil {
			return &domain.PublishError{Err: err}
		}
	}

	return &domain.PublishError{Err: fmt.Errorf("retries exhausted: %w", lastErr)}
}

// post performs one sendMessage attempt. terminal means retrying
// cannot help; retryAfter carries the wait a 429 response demanded.
func (p *Publisher) post(ctx context.Context, text string) (terminal bool, retryAfter time.Duration, err error) {
	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", p.apiBase, p.botToken)

	form := url.Values{}
	form.Set("chat_id", p.chatID)
	form.Set("text", text)
	form.Set("parse_mode", "HTML")
	form.Set("disable_web_page_preview", strconv.FormatBool(p.disablePreview))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return true, 0, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.client.Do(req)
	if err != nil {
		return false, 0, fmt.Errorf("send message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusOK {
		return false, 0, nil
	}

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
	var details apiError
	_ = json.Unmarshal(body, &details)

	reason := strings.TrimSpace(details.Description)
	if reason == "" {
		reason = strings.TrimSpace(string(body))
	}
	err = fmt.Errorf("telegram %s: %s", resp.Status, reason)

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		var wait time.Duration
		if details.Parameters != nil {
			wait = time.Duration(details.Parameters.RetryAfter) * time.Second
		}
		return false, wait, err
	case resp.StatusCode >= http.StatusInternalServerError:
		return false, 0, err
	default:
		// Remaining 4xx: bad token, unknown chat, malformed markup.
		return true, 0, err
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (p *Publisher) warn(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Warn(msg, args...)
	}
}
