package llm

import (
	"fmt"
	"strings"
)

// ConfigError means the active provider has no API key. It is raised before
// any network call and should be shown to the user as a setup instruction.
type ConfigError struct {
	Provider Provider
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("provider %s not configured: missing API key", e.Provider)
}

// HTTPError represents a non-2xx status from a provider. Body holds at most
// the first 500 characters of the response so logs stay readable.
type HTTPError struct {
	Provider   Provider
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d from %s: %s", e.StatusCode, e.Provider, e.Body)
}

// ResponseError represents a 2xx response whose body does not match the
// expected envelope. The full serialized response is attached for diagnosis.
type ResponseError struct {
	Provider Provider
	Body     string
}

func (e *ResponseError) Error() string {
	return fmt.Sprintf("unexpected response from %s: %s", e.Provider, e.Body)
}

const httpErrorBodyLimit = 500

func truncateBody(s string) string {
	if len(s) > httpErrorBodyLimit {
		return s[:httpErrorBodyLimit]
	}
	return s
}

// IsImageUnsupportedError reports whether err looks like a model rejecting
// image input. Vendors phrase this inconsistently, so the check is a
// case-insensitive substring match on "image" - the single place to harden
// if specific vendor error codes are added later. Rejections phrased without
// the word "image" (e.g. "unsupported content type") do not match; that is a
// known limitation kept for compatibility.
func IsImageUnsupportedError(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(strings.ToLower(err.Error()), "image")
}
