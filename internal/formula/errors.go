package formula

import (
	"fmt"
	"strings"

	"github.com/cloudmanic/skyclerk-install/internal/platform"
)

// UnsupportedPlatformError reports that the artifact table has no entry for
// a platform key.
type UnsupportedPlatformError struct {
	Key       platform.Key
	Supported []platform.Key
}

func (e *UnsupportedPlatformError) Error() string {
	if len(e.Supported) == 0 {
		return fmt.Sprintf("unsupported platform %s", e.Key)
	}
	return fmt.Sprintf("unsupported platform %s (available: %s)", e.Key, joinKeys(e.Supported))
}

// MalformedURLError reports an artifact URL without a usable file name segment.
type MalformedURLError struct {
	URL    string
	Reason string
}

func (e *MalformedURLError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("malformed artifact URL %q", e.URL)
	}
	return fmt.Sprintf("malformed artifact URL %q: %s", e.URL, e.Reason)
}

// ValidationError represents a formula validation error.
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return "formula validation failed for " + e.Field + ": " + e.Message
	}
	return "formula validation failed: " + e.Message
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// ParseError represents a formula parsing error with friendly message.
type ParseError struct {
	Message string // User-friendly message
	Detail  string // Technical details (raw Lua or YAML error)
	Err     error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: %s", e.Message, e.Detail)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

func joinKeys(keys []platform.Key) string {
	names := make([]string, len(keys))
	for i, k := range keys {
		names[i] = k.String()
	}
	return strings.Join(names, ", ")
}
