package thermal

import (
	"errors"
	"fmt"
)

type Kind int

const (
	InvalidGeometry Kind = iota + 1
	NumericalDegeneracy
	InvalidInput
)

func (k Kind) String() string {
	switch k {
	case InvalidGeometry:
		return "invalid_geometry"
	case NumericalDegeneracy:
		return "numerical_degeneracy"
	case InvalidInput:
		return "invalid_input"
	}
	return "unknown"
}

// Sentinels for errors.Is, one per Kind.
var (
	ErrInvalidGeometry     = errors.New("thermal: invalid geometry")
	ErrNumericalDegeneracy = errors.New("thermal: numerical degeneracy")
	ErrInvalidInput        = errors.New("thermal: invalid input")
)

// Error is returned by every failing computation in this package. No partial
// result accompanies it.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	switch target {
	case ErrInvalidGeometry:
		return e.Kind == InvalidGeometry
	case ErrNumericalDegeneracy:
		return e.Kind == NumericalDegeneracy
	case ErrInvalidInput:
		return e.Kind == InvalidInput
	}
	return false
}

// KindOf reports the Kind carried by err, or 0 when err is not a thermal error.
func KindOf(err error) Kind {
	var te *Error
	if errors.As(err, &te) {
		return te.Kind
	}
	return 0
}

func geometryError(op, format string, args ...interface{}) error {
	return &Error{Kind: InvalidGeometry, Op: op, Err: fmt.Errorf(format, args...)}
}

func degenerateError(op, format string, args ...interface{}) error {
	return &Error{Kind: NumericalDegeneracy, Op: op, Err: fmt.Errorf(format, args...)}
}

func inputError(op, format string, args ...interface{}) error {
	return &Error{Kind: InvalidInput, Op: op, Err: fmt.Errorf(format, args...)}
}
