package crawler

import (
	"errors"
	"fmt"
)

// Common crawl errors
var (
	ErrInitialLoad   = errors.New("initial page load failed")
	ErrInvalidConfig = errors.New("invalid crawl configuration")
	ErrNavigation    = errors.New("page load failed")
	ErrExtraction    = errors.New("extraction failed")
	ErrOutput        = errors.New("writing output failed")
)

// ErrorCode represents a specific error condition
type ErrorCode string

const (
	ErrCodeInitialLoad   ErrorCode = "INITIAL_LOAD"
	ErrCodeInvalidConfig ErrorCode = "INVALID_CONFIG"
	ErrCodeNavigation    ErrorCode = "NAVIGATION"
	ErrCodeExtraction    ErrorCode = "EXTRACTION"
	ErrCodeOutput        ErrorCode = "OUTPUT"
)

var codeSentinels = map[ErrorCode]error{
	ErrCodeInitialLoad:   ErrInitialLoad,
	ErrCodeInvalidConfig: ErrInvalidConfig,
	ErrCodeNavigation:    ErrNavigation,
	ErrCodeExtraction:    ErrExtraction,
	ErrCodeOutput:        ErrOutput,
}

// CrawlError wraps errors with the code and URL they belong to
type CrawlError struct {
	Code       ErrorCode
	Message    string
	URL        string
	Underlying error
}

// Error implements the error interface
func (e *CrawlError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.URL != "" {
		msg += " (" + e.URL + ")"
	}
	if e.Underlying != nil {
		msg += ": " + e.Underlying.Error()
	}
	return msg
}

// Unwrap returns the underlying error
func (e *CrawlError) Unwrap() error {
	return e.Underlying
}

// Is matches another CrawlError with the same code or the code's sentinel
func (e *CrawlError) Is(target error) bool {
	if t, ok := target.(*CrawlError); ok {
		return e.Code == t.Code
	}
	return codeSentinels[e.Code] == target
}

// NewCrawlError creates a new CrawlError
func NewCrawlError(code ErrorCode, message, url string, err error) *CrawlError {
	return &CrawlError{
		Code:       code,
		Message:    message,
		URL:        url,
		Underlying: err,
	}
}
