package config

import (
	"errors"
	"fmt"
)

// ConfigurationError reports an unusable configuration. It is always
// returned before any document is processed.
type ConfigurationError struct {
	// Field is the dotted config key at fault
	Field string
	// Reason describes what is wrong with it
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %s: %s", e.Field, e.Reason)
}

func newConfigurationError(field, reason string) error {
	return &ConfigurationError{Field: field, Reason: reason}
}

// IsConfigurationError returns true if err is or wraps a *ConfigurationError.
func IsConfigurationError(err error) bool {
	var cfgErr *ConfigurationError
	return errors.As(err, &cfgErr)
}
