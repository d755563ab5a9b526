package meta

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/syssam/crud/proxy"
)

// ErrConfig matches every configuration error reported by the registry.
//
//	if errors.Is(err, meta.ErrConfig) { ... }
var ErrConfig = errors.New("meta: configuration error")

// Configuration error causes, wrapped by ConfigError.
var (
	// ErrMultipleTokens is reported when a type declares more than one
	// concurrency token.
	ErrMultipleTokens = errors.New("more than one concurrency token")
	// ErrNoKey is reported when an operation needs at least one key.
	ErrNoKey = errors.New("at least one key required")
	// ErrKeyCount is reported when an operation needs exactly one key.
	ErrKeyCount = errors.New("exactly one key required")
	// ErrUnknownField is reported when a declared field does not exist on
	// the entity.
	ErrUnknownField = errors.New("unknown field")
	// ErrDuplicateField is reported when a field is declared twice.
	ErrDuplicateField = errors.New("duplicate field")
	// ErrNoColumns is reported when an update has nothing to set.
	ErrNoColumns = errors.New("no updatable columns")
	// ErrNoSchema is reported for struct types that declare no role table.
	ErrNoSchema = errors.New("type does not implement schema.Schema")
	// ErrNotRegistered is reported for contracts without a proxy.
	ErrNotRegistered = proxy.ErrNotRegistered
)

// ConfigError reports an entity type whose declaration cannot serve an
// operation. Configuration errors are deterministic: retrying yields the
// same error.
type ConfigError struct {
	Type reflect.Type // Entity type
	Op   string       // Operation (e.g., "classify", "update")
	Err  error        // Cause
}

// Error returns the error string.
func (e *ConfigError) Error() string {
	return fmt.Sprintf("meta: %s %s: %v", e.Op, e.Type, e.Err)
}

// Unwrap returns the cause.
func (e *ConfigError) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrConfig.
func (e *ConfigError) Is(target error) bool {
	return target == ErrConfig
}

// IsConfigError returns true if the error is a ConfigError.
func IsConfigError(err error) bool {
	if err == nil {
		return false
	}
	var e *ConfigError
	return errors.As(err, &e)
}

func configError(t reflect.Type, op string, err error) error {
	return &ConfigError{Type: t, Op: op, Err: err}
}
