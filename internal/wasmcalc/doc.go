// Package wasmcalc runs a WebAssembly build of the witness calculator with
// wazero and exposes it as a bridge.Native.
//
// The guest (wasm32) must export:
//
//	memory
//	malloc(size i32) i32
//	free(ptr i32)
//	gw_calc_witness(inputs, graph, graph_len, wtns_out, wtns_len_out, status i32) i32
//	gw_free_status(status i32)
//
// gw_status_t occupies 8 bytes in guest memory: the code as a little-endian
// int32 at offset 0 and the message pointer at offset 4. WASI preview1 is
// available to the guest.
//
// Views copy caller memory into guest allocations, because the guest cannot
// address Go memory. They are zeroed and freed on Release.
package wasmcalc
