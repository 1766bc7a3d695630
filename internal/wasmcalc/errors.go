package wasmcalc

import (
	"errors"
	"fmt"
)

// ErrClosed is returned by views requested after Close.
var ErrClosed = errors.New("wasmcalc: runtime closed")

// CompileError occurs when the guest module fails to compile or instantiate.
type CompileError struct {
	Err error
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("failed to load witness calculator module: %v", e.Err)
}

func (e *CompileError) Unwrap() error {
	return e.Err
}

// ExportNotFoundError occurs when the guest lacks a required export.
type ExportNotFoundError struct {
	Name string
}

func (e *ExportNotFoundError) Error() string {
	return fmt.Sprintf("export '%s' not found in witness calculator module", e.Name)
}

// MemoryAccessError occurs when a guest memory operation fails.
type MemoryAccessError struct {
	Operation string
	Address   uint32
	Length    uint32
	Err       error
}

func (e *MemoryAccessError) Error() string {
	return fmt.Sprintf("memory access failed (op=%s, addr=%d, len=%d): %v",
		e.Operation, e.Address, e.Length, e.Err)
}

func (e *MemoryAccessError) Unwrap() error {
	return e.Err
}

var errOutOfRange = errors.New("out of range")
