package webhook

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// EventCompleted is sent when a scrape run has persisted its dataset.
const EventCompleted = "proposals.completed"

// SignatureHeader carries the HMAC-SHA256 of the body when a secret is set.
const SignatureHeader = "X-Tbmm-Signature"

// Event is the payload sent to webhook endpoints.
type Event struct {
	Type      string `json:"type"`
	Timestamp int64  `json:"timestamp"`
	Data      any    `json:"data"`
}

// CompletedData is the Data of a proposals.completed event.
type CompletedData struct {
	Output   string `json:"output"`
	Records  int    `json:"records"`
	Pages    int    `json:"pages"`
	Enriched int    `json:"enriched"`
	Summary  any    `json:"summary"`
}

// retryDelays are the waits before the second and third attempts.
var retryDelays = []time.Duration{1 * time.Second, 5 * time.Second}

// Notifier delivers events to one endpoint.
type Notifier struct {
	URL    string
	Secret string
	Client *http.Client

	// sleep waits between attempts; replaced in tests.
	sleep func(ctx context.Context, d time.Duration) error
}

// New creates a Notifier. It returns nil when url is empty, and a nil
// Notifier ignores events.
func New(url, secret string) *Notifier {
	if url == "" {
		return nil
	}
	return &Notifier{
		URL:    url,
		Secret: secret,
		Client: &http.Client{Timeout: 10 * time.Second},
		sleep:  sleepCtx,
	}
}

// Notify delivers event, retrying twice (after 1s and 5s). The run is
// already complete when this is called, so failures are logged and
// returned for the caller to report, never retried further.
func (n *Notifier) Notify(ctx context.Context, event *Event) error {
	if n == nil {
		return nil
	}

	var err error
	for attempt := 0; attempt <= len(retryDelays); attempt++ {
		if attempt > 0 {
			if serr := n.sleep(ctx, retryDelays[attempt-1]); serr != nil {
				return serr
			}
		}
		err = n.Deliver(ctx, event)
		if err == nil {
			slog.InfoContext(ctx, "webhook delivered",
				"url", n.URL,
				"event", event.Type,
				"attempt", attempt+1,
			)
			return nil
		}
		slog.WarnContext(ctx, "webhook delivery failed",
			"url", n.URL,
			"event", event.Type,
			"attempt", attempt+1,
			"error", err,
		)
	}
	slog.ErrorContext(ctx, "webhook delivery exhausted all retries",
		"url", n.URL,
		"event", event.Type,
	)
	return err
}

// Deliver sends a webhook event once.
// The request body is signed with HMAC-SHA256 if a secret is set.
// Header: X-Tbmm-Signature: sha256=<hex>
func (n *Notifier) Deliver(ctx context.Context, event *Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("webhook: marshal event: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("webhook: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "TBMM-Scraper-Webhook/1.0")

	if n.Secret != "" {
		req.Header.Set(SignatureHeader, "sha256="+Sign(n.Secret, body))
	}

	resp, err := n.Client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook: deliver: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("webhook: endpoint returned status %d", resp.StatusCode)
	}
	return nil
}

// Sign returns the hex HMAC-SHA256 of body under secret.
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
