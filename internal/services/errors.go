package services

import "fmt"

type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string { return "Validation error" }

type ConflictError struct{ Message string }

func (e *ConflictError) Error() string { return e.Message }

type NotFoundError struct{ Message string }

func (e *NotFoundError) Error() string { return e.Message }

type RateLimitError struct{ Message string }

func (e *RateLimitError) Error() string { return e.Message }

// ConfigError means a required setting (API key, assistant id, webhook) is
// missing. It is always raised before any network call.
type ConfigError struct{ Message string }

func (e *ConfigError) Error() string { return e.Message }

// TransportError wraps any failure talking to the assistant service.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("assistant %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// NoReplyError means the run finished but produced no assistant text.
type NoReplyError struct{ Status string }

func (e *NoReplyError) Error() string {
	if e.Status != "" {
		return fmt.Sprintf("assistant returned no reply (run status %s)", e.Status)
	}
	return "assistant returned no reply"
}

// RelayError reports a failed webhook delivery.
type RelayError struct {
	StatusCode int
	Message    string
}

func (e *RelayError) Error() string { return e.Message }
