package domain

import (
	"errors"
	"fmt"
)

// ConfigurationError is the fatal error class: the plan cannot be simulated
// at all. It is reported before any year is processed and no partial
// ProjectionResult accompanies it.
type ConfigurationError struct {
	Msg string
}

func (e *ConfigurationError) Error() string {
	return e.Msg
}

// ConfigErrorf builds a ConfigurationError from a format string.
func ConfigErrorf(format string, args ...any) error {
	return &ConfigurationError{Msg: fmt.Sprintf(format, args...)}
}

// IsConfigurationError reports whether err is, or wraps, a ConfigurationError.
func IsConfigurationError(err error) bool {
	var ce *ConfigurationError
	return errors.As(err, &ce)
}
