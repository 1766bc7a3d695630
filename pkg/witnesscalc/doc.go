// Package witnesscalc computes circom witnesses through a native witness
// calculator.
//
// Two backends implement the same call contract: the cgo binding to
// libcircom_witnesscalc (BackendNative) and a WebAssembly build of the
// calculator run with wazero (BackendWasm). Builds without cgo still compile;
// opening the native backend then reports ErrNotBuilt.
//
// CalculateWitness is the convenient entry point. Invoke exposes the raw
// bridge contract: output slots for the witness and its size, and a fixed
// error buffer that receives truncated, NUL-terminated diagnostic text.
//
// Calls are synchronous and cannot be cancelled once the calculator runs;
// bound them from the caller's side if needed.
package witnesscalc
