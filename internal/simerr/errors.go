// Package simerr classifies the failures of generating MCERD input files and
// running the MCERD binary.
package simerr

import (
	"errors"
	"fmt"
)

// Error kinds. Every typed error in this package matches exactly one of
// these through errors.Is.
var (
	// ErrConfiguration indicates missing or invalid physics fields or paths.
	ErrConfiguration = errors.New("simerr: invalid configuration")

	// ErrUnsupportedPlatform indicates no command can be built for the OS.
	ErrUnsupportedPlatform = errors.New("simerr: unsupported platform")

	// ErrSpawn indicates the external binary could not be started.
	ErrSpawn = errors.New("simerr: cannot spawn process")

	// ErrRunFailure indicates the process exited with a non-zero code.
	ErrRunFailure = errors.New("simerr: run failed")

	// ErrCancelled indicates the run was terminated on request.
	ErrCancelled = errors.New("simerr: run cancelled")
)

// ConfigError names the offending field of a configuration.
type ConfigError struct {
	Field  string
	Reason string
}

func Config(field, format string, args ...any) *ConfigError {
	return &ConfigError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

func (e *ConfigError) Error() string {
	if e.Field == "" {
		return "configuration: " + e.Reason
	}
	return fmt.Sprintf("configuration: %s: %s", e.Field, e.Reason)
}

func (e *ConfigError) Unwrap() error { return ErrConfiguration }

type UnsupportedPlatformError struct {
	Tag string
}

func (e *UnsupportedPlatformError) Error() string {
	return fmt.Sprintf("unsupported platform %q", e.Tag)
}

func (e *UnsupportedPlatformError) Unwrap() error { return ErrUnsupportedPlatform }

// SpawnError wraps the reason a process never started.
type SpawnError struct {
	Path string
	Err  error
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("spawn %s: %v", e.Path, e.Err)
}

func (e *SpawnError) Unwrap() []error { return []error{ErrSpawn, e.Err} }

// RunFailure carries the exit code and the tail of stderr of a failed run.
type RunFailure struct {
	ExitCode int
	Stderr   string
}

func (e *RunFailure) Error() string {
	if e.Stderr == "" {
		return fmt.Sprintf("process exited with code %d", e.ExitCode)
	}
	return fmt.Sprintf("process exited with code %d: %s", e.ExitCode, e.Stderr)
}

func (e *RunFailure) Unwrap() error { return ErrRunFailure }
