package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Browser   BrowserConfig
	Scraper   ScraperConfig
	Fetch     FetchConfig
	Crawl     CrawlConfig
	Search    SearchConfig
	Engine    EngineConfig
	Output    OutputConfig
	Server    ServerConfig
	RateLimit RateLimitConfig
	Webhook   WebhookConfig
	Log       LogConfig
}

// BrowserConfig controls the Rod browser instance.
type BrowserConfig struct {
	// Headless controls whether the browser runs headless.
	// default: true on CI (CI=true or GITHUB_ACTIONS=true), false locally.
	Headless bool

	// NoSandbox disables Chrome's sandbox (needed in Docker).
	NoSandbox bool // default: true

	// BrowserBin overrides the Chromium binary path.
	BrowserBin string

	// Proxy is routed to the browser's --proxy-server flag.
	Proxy string
}

// ScraperConfig controls page loading in the browser session.
type ScraperConfig struct {
	// NavigationTimeout bounds a single navigation + render.
	NavigationTimeout time.Duration // default: 30s

	// SettleDelay is the extra wait after the first list page load so a
	// bot-protection interstitial can clear.
	SettleDelay time.Duration // default: 5s

	// BlockedResourceTypes lists resource types to block.
	// default: ["Image", "Font", "Media"]
	BlockedResourceTypes []string
}

// FetchConfig controls the retrying fetcher.
type FetchConfig struct {
	MaxRetries int // default: 3

	// BaseDelay is the first retry backoff; it doubles on every attempt.
	BaseDelay time.Duration // default: 4s

	// SoftFailureWait is the pause before re-reading a suspected
	// challenge page.
	SoftFailureWait time.Duration // default: 5s
}

// CrawlConfig controls list traversal and detail enrichment.
type CrawlConfig struct {
	BaseURL string // default: https://www.tbmm.gov.tr
	ListURL string // default: <BaseURL>/Yasama/KanunTeklifi

	// PageDelay paces list pages (not a retry backoff).
	PageDelay time.Duration // default: 2s

	// MaxPages is the hard ceiling on list pages per run.
	MaxPages int // default: 50

	// MaxDetails is the number of detail pages fetched per run.
	MaxDetails int // default: 20 (MAX_PROPOSALS)

	// DetailDelay paces detail page requests.
	DetailDelay time.Duration // default: 2s

	// DebugDir receives debug_page.html when a list page yields nothing.
	DebugDir string
}

// SearchConfig controls the optional search form submission.
type SearchConfig struct {
	Enabled bool   // default: false
	Keyword string // default: ""
	Term    string // default: "Son Dönem"
	Status  string // default: ""
}

// EngineConfig controls how detail pages are fetched.
type EngineConfig struct {
	// Mode is "browser" (rod only), "http" (no browser at all) or "auto"
	// (HTTP first, rod on failure). default: "auto"
	Mode string

	// HTTPTimeout is the deadline for the pure HTTP engine.
	HTTPTimeout time.Duration // default: 15s

	// MemoryTTL is how long a winning engine is remembered per host.
	MemoryTTL time.Duration // default: 1h
}

// OutputConfig controls persistence.
type OutputConfig struct {
	Path string // default: data/proposals.json

	// ReuseMaxAge lets enriched records from the previous output be reused
	// instead of re-fetching their detail page. 0 disables reuse.
	ReuseMaxAge time.Duration // default: 0
}

// ServerConfig controls the dataset API server.
type ServerConfig struct {
	Host string // default: "0.0.0.0"
	Port int    // default: 8080
	Mode string // "debug", "release", "test"; default: "release"
}

// RateLimitConfig controls per-client rate limiting of the API.
type RateLimitConfig struct {
	RequestsPerSecond float64 // default: 5
	Burst             int     // default: 10
}

// WebhookConfig controls the run completion notification.
type WebhookConfig struct {
	URL    string
	Secret string
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string // default: "info"
	Format string // "json" or "text"; default: "text"
}

// Load reads configuration from environment variables with sane defaults.
func Load() *Config {
	baseURL := strings.TrimRight(envOr("TBMM_BASE_URL", "https://www.tbmm.gov.tr"), "/")
	return &Config{
		Browser: BrowserConfig{
			Headless:   envBoolOr("TBMM_HEADLESS", isCI()),
			NoSandbox:  envBoolOr("TBMM_NO_SANDBOX", true),
			BrowserBin: os.Getenv("TBMM_BROWSER_BIN"),
			Proxy:      os.Getenv("TBMM_PROXY"),
		},
		Scraper: ScraperConfig{
			NavigationTimeout: envDurationOr("TBMM_NAV_TIMEOUT", 30*time.Second),
			SettleDelay:       envDurationOr("TBMM_SETTLE_DELAY", 5*time.Second),
			BlockedResourceTypes: envSliceOr("TBMM_BLOCKED_RESOURCES", []string{
				"Image", "Font", "Media",
			}),
		},
		Fetch: FetchConfig{
			MaxRetries:      envIntOr("TBMM_MAX_RETRIES", 3),
			BaseDelay:       envDurationOr("TBMM_RETRY_DELAY", 4*time.Second),
			SoftFailureWait: envDurationOr("TBMM_SOFT_FAILURE_WAIT", 5*time.Second),
		},
		Crawl: CrawlConfig{
			BaseURL:     baseURL,
			ListURL:     envOr("TBMM_LIST_URL", baseURL+"/Yasama/KanunTeklifi"),
			PageDelay:   envDurationOr("TBMM_PAGE_DELAY", 2*time.Second),
			MaxPages:    envIntOr("TBMM_MAX_PAGES", 50),
			MaxDetails:  envIntOr("MAX_PROPOSALS", 20),
			DetailDelay: envDurationOr("TBMM_DETAIL_DELAY", 2*time.Second),
			DebugDir:    os.Getenv("TBMM_DEBUG_DIR"),
		},
		Search: SearchConfig{
			Enabled: envBoolOr("TBMM_SEARCH", false),
			Keyword: os.Getenv("TBMM_SEARCH_KEYWORD"),
			Term:    envOr("TBMM_SEARCH_TERM", "Son Dönem"),
			Status:  os.Getenv("TBMM_SEARCH_STATUS"),
		},
		Engine: EngineConfig{
			Mode:        envOr("TBMM_FETCH_MODE", "auto"),
			HTTPTimeout: envDurationOr("TBMM_HTTP_TIMEOUT", 15*time.Second),
			MemoryTTL:   envDurationOr("TBMM_ENGINE_MEMORY_TTL", time.Hour),
		},
		Output: OutputConfig{
			Path:        envOr("TBMM_OUTPUT", "data/proposals.json"),
			ReuseMaxAge: envDurationOr("TBMM_REUSE_MAX_AGE", 0),
		},
		Server: ServerConfig{
			Host: envOr("TBMM_HOST", "0.0.0.0"),
			Port: envIntOr("TBMM_PORT", 8080),
			Mode: envOr("TBMM_MODE", "release"),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: envFloatOr("TBMM_RATE_RPS", 5.0),
			Burst:             envIntOr("TBMM_RATE_BURST", 10),
		},
		Webhook: WebhookConfig{
			URL:    os.Getenv("TBMM_WEBHOOK_URL"),
			Secret: os.Getenv("TBMM_WEBHOOK_SECRET"),
		},
		Log: LogConfig{
			Level:  envOr("TBMM_LOG_LEVEL", "info"),
			Format: envOr("TBMM_LOG_FORMAT", "text"),
		},
	}
}

// isCI reports whether we run under a CI system, where a visible browser
// is not an option.
func isCI() bool {
	return os.Getenv("CI") == "true" || os.Getenv("GITHUB_ACTIONS") == "true"
}

// --- helper functions ---

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envBoolOr(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envFloatOr(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envSliceOr(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		return result
	}
	return fallback
}
