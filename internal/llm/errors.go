package llm

import (
	"fmt"
	"strings"
)

// ConfigError reports a configuration problem detected before any network call
type ConfigError struct {
	Field string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("llm not configured: %s is empty", e.Field)
}

// TransportError reports a failed request: either the request never got a
// response (Err set, StatusCode 0) or the endpoint answered with a non-2xx
// status.
type TransportError struct {
	StatusCode int
	Status     string
	Body       string
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("llm request failed: %v", e.Err)
	}
	msg := fmt.Sprintf("llm endpoint returned %d", e.StatusCode)
	if e.Status != "" {
		msg = fmt.Sprintf("llm endpoint returned %s", e.Status)
	}
	if body := strings.TrimSpace(e.Body); body != "" {
		msg += ": " + body
	}
	return msg
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// EmptyResponseError reports a successful response without message content
type EmptyResponseError struct {
	Body string
}

func (e *EmptyResponseError) Error() string {
	return "llm returned no message content"
}
