// Package bridge implements the call handler that moves a witness request
// across the native boundary and the result back.
//
// # Ownership
//
// A call deals with three kinds of memory:
//
//  1. Borrowed views (View) of caller memory: the inputs text and the graph
//     buffer. They are valid for one call and released on every exit path.
//  2. Routine-owned results (Buffer, Status). The handler reads them, copies
//     what it needs into Go memory and hands them back to the routine's
//     deallocation contract before returning.
//  3. The witness copy installed in the caller's output slot. Its ownership
//     moves to the caller; the handler never touches it again.
//
// Nothing in this package imports "C". Concrete Native implementations live
// in internal/bindings (cgo) and internal/wasmcalc (wazero).
package bridge
