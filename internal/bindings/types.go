package bindings

import "errors"

var (
	// ErrNotBuilt reports that the native library was not linked into the
	// current binary.
	ErrNotBuilt = errors.New("witnesscalc/internal/bindings: native bindings not built")

	errForeignView = errors.New("witnesscalc/internal/bindings: view was not created by this library")
)

// Version returns the version of the linked native library. The C API does
// not report one, so it is empty.
func Version() string { return "" }
