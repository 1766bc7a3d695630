// Package bindings is the only place that talks to libcircom_witnesscalc
// through cgo.
//
// # Memory
//
// The inputs text is copied into a C string for the call and zeroed before it
// is freed, since circuit inputs usually carry private signals. The graph
// buffer is pinned with runtime.Pinner and passed as-is. Witness buffers are
// allocated by the library with malloc; they are zeroed and freed once the
// caller has copied them. Status records are released with gw_free_status.
//
// Builds without cgo, and Windows builds, compile the stub in
// bindings_stub.go, where Open reports ErrNotBuilt.
package bindings
