package load

import (
	"errors"
	"go/token"
	"strings"
)

// ErrInvalidContract indicates a contract declaration the generator cannot
// turn into a change-tracking proxy.
var ErrInvalidContract = errors.New("load: invalid contract")

// Error describes an invalid contract declaration at a source position.
type Error struct {
	Pos      token.Position
	Contract string
	Method   string
	Message  string
}

// Error implements the error interface.
func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString("load: ")
	if e.Pos.IsValid() {
		b.WriteString(e.Pos.String())
		b.WriteString(": ")
	}
	b.WriteString(e.Contract)
	if e.Method != "" {
		b.WriteString(".")
		b.WriteString(e.Method)
	}
	b.WriteString(": ")
	b.WriteString(e.Message)
	return b.String()
}

// Is reports whether the target matches ErrInvalidContract.
func (e *Error) Is(target error) bool {
	return target == ErrInvalidContract
}

// IsError reports whether the error is a contract Error.
func IsError(err error) bool {
	var lerr *Error
	return errors.As(err, &lerr)
}
