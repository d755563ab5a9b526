package crud

import (
	"errors"
	"fmt"

	"github.com/syssam/crud/dialect/sql"
	"github.com/syssam/crud/meta"
)

// ErrNilEntity is returned when a nil entity is passed to an operation.
var ErrNilEntity = errors.New("crud: nil entity")

var errNoDriver = errors.New("crud: connection does not support transactions")

// ArgumentError reports an invalid argument of an operation.
type ArgumentError struct {
	Op    string // Operation (e.g., "insert", "update")
	Name  string // Argument name
	Index int    // Position in a list argument, -1 for single arguments
}

// Error returns the error string.
func (e *ArgumentError) Error() string {
	if e.Index >= 0 {
		return fmt.Sprintf("crud: %s: %s[%d] is nil", e.Op, e.Name, e.Index)
	}
	return fmt.Sprintf("crud: %s: %s is nil", e.Op, e.Name)
}

// Is reports whether target is ErrNilEntity.
func (e *ArgumentError) Is(target error) bool {
	return target == ErrNilEntity
}

// IsArgumentError returns true if the error is an ArgumentError.
func IsArgumentError(err error) bool {
	if err == nil {
		return false
	}
	var e *ArgumentError
	return errors.As(err, &e)
}

// ConfigError reports an entity type whose declaration cannot serve an
// operation, such as a type without keys passed to Delete.
type ConfigError = meta.ConfigError

// Configuration errors. Match them with errors.Is.
var (
	ErrConfig         = meta.ErrConfig
	ErrMultipleTokens = meta.ErrMultipleTokens
	ErrNoKey          = meta.ErrNoKey
	ErrKeyCount       = meta.ErrKeyCount
	ErrUnknownField   = meta.ErrUnknownField
	ErrNoSchema       = meta.ErrNoSchema
	ErrNotRegistered  = meta.ErrNotRegistered
)

// IsConfigError returns true if the error is a ConfigError.
func IsConfigError(err error) bool {
	return meta.IsConfigError(err)
}

// IsConstraintError returns true if the store rejected a statement because
// of a constraint violation. Store errors are returned unchanged by every
// operation, so driver errors are classified directly.
func IsConstraintError(err error) bool {
	return sql.IsConstraintError(err)
}

// IsUniqueConstraintError reports a uniqueness violation.
func IsUniqueConstraintError(err error) bool {
	return sql.IsUniqueConstraintError(err)
}
