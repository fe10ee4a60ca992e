package toolexec

import "fmt"

// ArgumentError is returned by a tool handler to reject input that passed
// shape validation but is unacceptable to the tool itself. The dispatcher
// reports it as KindInvalidArguments instead of KindExecutionError.
type ArgumentError struct {
	Reason string
}

func (e *ArgumentError) Error() string {
	return e.Reason
}

// Argumentf builds an ArgumentError.
func Argumentf(format string, args ...interface{}) *ArgumentError {
	return &ArgumentError{Reason: fmt.Sprintf(format, args...)}
}

// ConfigError is returned by a tool handler when a tool-local prerequisite
// is absent at call time, e.g. a missing API key. The dispatcher reports it
// as KindMissingConfiguration.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string {
	return e.Reason
}

// Configf builds a ConfigError.
func Configf(format string, args ...interface{}) *ConfigError {
	return &ConfigError{Reason: fmt.Sprintf(format, args...)}
}
