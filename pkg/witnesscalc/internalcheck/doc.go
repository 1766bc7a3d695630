// Package internalcheck holds repository policy tests.
//
// The tests load the module's packages and fail when the rules guarding
// witness data are broken: cgo and unsafe stay inside internal/bindings, and
// no format string renders buffers as hex. The package has no API and must
// not be imported.
package internalcheck
