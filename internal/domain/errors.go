package domain

import (
	"errors"
	"fmt"
)

// Validation failures surfaced before any network call.
var (
	ErrNoModelSelected = errors.New("no valid model selected: make sure Ollama or LM Studio is running")
	ErrEmptyInput      = errors.New("input text is empty")
	ErrInvalidOption   = errors.New("invalid option")
	ErrHistoryNotFound = errors.New("history entry not found")
	ErrHistoryEmpty    = errors.New("no history found")
	ErrPullUnsupported = errors.New("model pull is only supported by Ollama")
)

// DiscoveryError wraps a failed model listing. It is logged, never surfaced.
type DiscoveryError struct {
	Err     error
	Service Service
	URL     string
}

func (e *DiscoveryError) Error() string {
	return fmt.Sprintf("discovery failed for %s at %s: %v", e.Service.Label(), e.URL, e.Err)
}

func (e *DiscoveryError) Unwrap() error {
	return e.Err
}

// LLMUnavailableError indicates the backend could not be reached (refused, timeout).
type LLMUnavailableError struct {
	Err     error
	Service Service
	URL     string
}

func (e *LLMUnavailableError) Error() string {
	return fmt.Sprintf("cannot connect to %s at %s, make sure it is running: %v", e.Service.Label(), e.URL, e.Err)
}

func (e *LLMUnavailableError) Unwrap() error {
	return e.Err
}

// LLMProtocolError indicates an unexpected status or response shape.
type LLMProtocolError struct {
	Err        error
	Service    Service
	URL        string
	StatusCode int
	Body       string
}

func (e *LLMProtocolError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s API error at %s (status %d): %v\nResponse: %s", e.Service.Label(), e.URL, e.StatusCode, e.Err, e.Body)
	}
	return fmt.Sprintf("%s API error at %s: %v\nResponse: %s", e.Service.Label(), e.URL, e.Err, e.Body)
}

func (e *LLMProtocolError) Unwrap() error {
	return e.Err
}

// HistoryIOError wraps a failed history read or write.
type HistoryIOError struct {
	Err  error
	Op   string
	Path string
}

func (e *HistoryIOError) Error() string {
	return fmt.Sprintf("history %s failed for %s: %v", e.Op, e.Path, e.Err)
}

func (e *HistoryIOError) Unwrap() error {
	return e.Err
}

// IsLLMError reports whether err came from the backend boundary.
func IsLLMError(err error) bool {
	var unavailable *LLMUnavailableError
	var protocol *LLMProtocolError
	return errors.As(err, &unavailable) || errors.As(err, &protocol)
}

// IsValidationError reports whether err is a caller input failure.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrNoModelSelected) ||
		errors.Is(err, ErrEmptyInput) ||
		errors.Is(err, ErrInvalidOption) ||
		errors.Is(err, ErrPullUnsupported)
}
