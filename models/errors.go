package models

import (
	"errors"
	"fmt"
)

// Error codes used across the scraper and the dataset API.
const (
	// ErrCodeNetwork is returned once a page could not be retrieved after all
	// retries. Callers skip the page or record and keep going.
	ErrCodeNetwork = "NETWORK_ERROR"

	// ErrCodeExtractionMiss marks a page on which no selector candidate matched.
	// It is logged, never returned from extraction.
	ErrCodeExtractionMiss = "EXTRACTION_MISS"

	// ErrCodeMalformedField marks a text fragment that matched no pattern.
	// It always resolves to the UNKNOWN sentinel.
	ErrCodeMalformedField = "MALFORMED_FIELD"

	ErrCodeBrowserCrash = "BROWSER_CRASH"
	ErrCodeNavigation   = "NAVIGATION_FAILED"
	ErrCodeTimeout      = "SCRAPE_TIMEOUT"
	ErrCodeCanceled     = "CANCELED"
	ErrCodeInvalidInput = "INVALID_INPUT"
	ErrCodeRateLimited  = "RATE_LIMITED"
	ErrCodeInternal     = "INTERNAL_ERROR"
)

// ErrorDetail is the structured error in API responses.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ScrapeError is the internal error type carrying an error code.
// It implements the error interface and supports error wrapping via Unwrap.
type ScrapeError struct {
	Code    string
	Message string
	Err     error // wrapped original error
}

func (e *ScrapeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *ScrapeError) Unwrap() error {
	return e.Err
}

// NewScrapeError creates a new ScrapeError.
func NewScrapeError(code, message string, err error) *ScrapeError {
	return &ScrapeError{Code: code, Message: message, Err: err}
}

// ToDetail converts an internal error to an API-facing ErrorDetail.
func (e *ScrapeError) ToDetail() *ErrorDetail {
	return &ErrorDetail{Code: e.Code, Message: e.Message}
}

// ErrorCode returns the code of the first ScrapeError in err's chain, or ""
// when there is none.
func ErrorCode(err error) string {
	var se *ScrapeError
	if errors.As(err, &se) {
		return se.Code
	}
	return ""
}

// IsRetryable reports whether the failure is worth another attempt.
// Cancellation and invalid input never are.
func IsRetryable(err error) bool {
	switch ErrorCode(err) {
	case ErrCodeCanceled, ErrCodeInvalidInput, ErrCodeBrowserCrash:
		return false
	default:
		return true
	}
}
