// Package gen generates change-tracking proxies for entity contracts.
package gen

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidOption is matched by every *OptionError.
	ErrInvalidOption = errors.New("crudgen: invalid option")
	// ErrWriteFailed is matched by every *WriteError.
	ErrWriteFailed = errors.New("crudgen: write failed")
)

// OptionError reports a configuration value rejected by an Option, either
// passed directly or read from a config file.
type OptionError struct {
	// File is the config file the value was read from, empty for values
	// given as options or flags.
	File string
	// Key is the config file key of the option.
	Key    string
	Value  any
	Reason string
}

func (e *OptionError) Error() string {
	msg := "crudgen: " + e.Key
	if e.File != "" {
		msg = fmt.Sprintf("crudgen: %s: %s", e.File, e.Key)
	}
	if e.Value != nil {
		msg += fmt.Sprintf(" %#v", e.Value)
	}
	return msg + ": " + e.Reason
}

func (e *OptionError) Is(target error) bool {
	return target == ErrInvalidOption
}

func invalidOption(key string, value any, reason string) error {
	return &OptionError{Key: key, Value: value, Reason: reason}
}

// IsOptionError reports whether err is or wraps an *OptionError.
func IsOptionError(err error) bool {
	var e *OptionError
	return errors.As(err, &e)
}

// WriteError reports a proxy file that could not be written.
type WriteError struct {
	Package string
	Path    string
	Err     error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("crudgen: write proxies of %s to %s: %v", e.Package, e.Path, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

func (e *WriteError) Is(target error) bool {
	return target == ErrWriteFailed
}

// IsWriteError reports whether err is or wraps a *WriteError.
func IsWriteError(err error) bool {
	var e *WriteError
	return errors.As(err, &e)
}
