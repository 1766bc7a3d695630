package witnesscalc

import (
	"errors"
	"fmt"

	"github.com/iden3/circom-witnesscalc-go/internal/bindings"
)

var (
	// ErrNotBuilt reports that the native calculator was not linked into the
	// current binary (cgo disabled or Windows).
	ErrNotBuilt = errors.New("witnesscalc: native bindings not built")

	ErrCalculatorClosed = errors.New("witnesscalc: calculator closed")
	ErrUnknownBackend   = errors.New("witnesscalc: unknown backend")

	// ErrCalculation matches every failure reported by the calculator itself.
	ErrCalculation = errors.New("witnesscalc: witness calculation failed")
)

// Error is a failure reported with StatusError.
type Error struct {
	Code    int
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("witness calculation failed (code %d)", e.Code)
	}
	return "witness calculation failed: " + e.Message
}

func (e *Error) Unwrap() error { return ErrCalculation }

// UnknownStatusError is a failure reported with a code the wrapper does not
// know.
type UnknownStatusError struct {
	Code    int
	Message string
}

func (e *UnknownStatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("unknown status during witness calculation - %d", e.Code)
	}
	return fmt.Sprintf("unknown status during witness calculation - %d: %s", e.Code, e.Message)
}

func (e *UnknownStatusError) Unwrap() error { return ErrCalculation }

// remapError converts bindings layer errors to public API errors.
func remapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, bindings.ErrNotBuilt) {
		return ErrNotBuilt
	}
	return err
}
