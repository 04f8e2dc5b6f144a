package client

import (
	"errors"
	"fmt"
)

// Common errors returned by the client.
var (
	// ErrMissingCredential is returned when no GitHub token is configured.
	// Callers match it to present setup instructions.
	ErrMissingCredential = errors.New("GITHUB_TOKEN environment variable is not set")

	// ErrRateLimited is returned when the rate limit budget is exhausted
	// and the request was not sent.
	ErrRateLimited = errors.New("rate limit exhausted")
)

// ConfigurationError reports a missing or invalid client setting.
type ConfigurationError struct {
	Setting string
	Err     error
}

// Error implements the error interface.
func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error (%s): %v", e.Setting, e.Err)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// RemoteError represents a non-success response from the GitHub API.
type RemoteError struct {
	Operation  string
	StatusCode int
	Status     string
	Err        error
}

// Error implements the error interface.
func (e *RemoteError) Error() string {
	return fmt.Sprintf("GitHub API error: %d %s", e.StatusCode, e.Status)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *RemoteError) Unwrap() error {
	return e.Err
}

// ParseError reports a response that could not be decoded.
type ParseError struct {
	Operation string
	Path      string
	Err       error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("parse %s response for %s: %v", e.Operation, e.Path, e.Err)
	}
	return fmt.Sprintf("parse %s response: %v", e.Operation, e.Err)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *ParseError) Unwrap() error {
	return e.Err
}

// IsConfigurationError reports whether err is, or wraps, a ConfigurationError.
func IsConfigurationError(err error) bool {
	var cfgErr *ConfigurationError
	return errors.As(err, &cfgErr)
}
