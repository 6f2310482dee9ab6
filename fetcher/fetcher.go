// Package fetcher retrieves a single page with bounded retries.
//
// Every list and detail page goes through Fetch. A load is retried up to
// MaxRetries times with a doubling backoff between attempts. A load that
// succeeds but looks like a bot challenge (see engine.IsSoftFailure) gets one
// extra wait and a re-read of the already loaded page before it is accepted.
package fetcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/use-agent/tbmm-scraper/config"
	"github.com/use-agent/tbmm-scraper/engine"
	"github.com/use-agent/tbmm-scraper/models"
)

// Loader retrieves the content of a URL. The rod session, the HTTP engine
// and the engine dispatcher all satisfy it.
type Loader interface {
	Load(ctx context.Context, url string) (string, error)
}

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Fetcher wraps a Loader with retries and the soft-failure check.
// It holds no state between calls.
type Fetcher struct {
	loader     Loader
	maxRetries int
	baseDelay  time.Duration
	softWait   time.Duration
	sleep      SleepFunc
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithSleep replaces the wait used for backoff and soft-failure pauses.
func WithSleep(fn SleepFunc) Option {
	return func(f *Fetcher) { f.sleep = fn }
}

// New creates a Fetcher over loader. If loader also implements
// engine.Rereader, suspected challenge pages are re-read once.
func New(loader Loader, cfg config.FetchConfig, opts ...Option) *Fetcher {
	f := &Fetcher{
		loader:     loader,
		maxRetries: cfg.MaxRetries,
		baseDelay:  cfg.BaseDelay,
		softWait:   cfg.SoftFailureWait,
		sleep:      Sleep,
	}
	if f.maxRetries < 1 {
		f.maxRetries = 1
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch loads url and returns its content. After MaxRetries failed attempts
// it returns a NETWORK_ERROR ScrapeError; the caller decides whether to skip
// the page.
func (f *Fetcher) Fetch(ctx context.Context, url string) (string, error) {
	var lastErr error
	for attempt := 1; attempt <= f.maxRetries; attempt++ {
		if attempt > 1 {
			delay := f.Backoff(attempt - 1)
			slog.WarnContext(ctx, "retrying page load",
				"url", url,
				"attempt", attempt,
				"delay", delay,
				"error", lastErr,
			)
			if err := f.sleep(ctx, delay); err != nil {
				return "", canceled(url, err)
			}
		}

		content, err := f.loader.Load(ctx, url)
		if err == nil {
			return f.settle(ctx, url, content), nil
		}
		if ctx.Err() != nil {
			return "", canceled(url, ctx.Err())
		}
		lastErr = err
		if !models.IsRetryable(err) {
			break
		}
	}

	return "", models.NewScrapeError(models.ErrCodeNetwork,
		fmt.Sprintf("page unavailable after %d attempts: %s", f.maxRetries, url), lastErr)
}

// Backoff returns the wait before retry n (1-based): BaseDelay doubled n-1
// times.
func (f *Fetcher) Backoff(n int) time.Duration {
	if n < 1 {
		n = 1
	}
	return f.baseDelay << (n - 1)
}

// settle applies the soft-failure heuristic to freshly loaded content.
// Re-read problems are logged and the original content is kept.
func (f *Fetcher) settle(ctx context.Context, url, content string) string {
	if !engine.IsSoftFailure(content) {
		return content
	}
	rr, ok := f.loader.(engine.Rereader)
	if !ok {
		return content
	}

	slog.InfoContext(ctx, "possible challenge page, waiting before re-read",
		"url", url,
		"bytes", len(content),
		"wait", f.softWait,
	)
	if err := f.sleep(ctx, f.softWait); err != nil {
		return content
	}
	again, err := rr.Reread(ctx)
	if err != nil {
		slog.WarnContext(ctx, "re-read failed", "url", url, "error", err)
		return content
	}
	return again
}

func canceled(url string, err error) error {
	code := models.ErrCodeCanceled
	if errors.Is(err, context.DeadlineExceeded) {
		code = models.ErrCodeTimeout
	}
	return models.NewScrapeError(code, "fetch interrupted: "+url, err)
}

// Sleep blocks for d or until ctx is done.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
