package types

import "fmt"

// ConfigError means the run was misconfigured (bad platform code, malformed
// override file). Always raised before any network activity.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string {
	return "config: " + e.Reason
}

// NewConfigError builds a ConfigError with a formatted reason.
func NewConfigError(format string, args ...any) *ConfigError {
	return &ConfigError{Reason: fmt.Sprintf(format, args...)}
}

// AuthError means the platform rejected our credentials. Never retried.
type AuthError struct {
	Status int
	URL    string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("auth rejected by %s (status %d)", e.URL, e.Status)
}

// TransportError is a network or server failure that survived the retry
// budget. Fatal for the run; partial results are never written.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport: %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// NormalizationError marks one raw record as unusable. Non-fatal: the
// orchestrator skips the record, counts it, and keeps going.
type NormalizationError struct {
	AssetID string
	Field   string
	Reason  string
}

func (e *NormalizationError) Error() string {
	if e.AssetID != "" {
		return fmt.Sprintf("normalize asset %s: field %s: %s", e.AssetID, e.Field, e.Reason)
	}
	return fmt.Sprintf("normalize: field %s: %s", e.Field, e.Reason)
}
