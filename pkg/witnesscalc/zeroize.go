package witnesscalc

import "runtime"

// ZeroizeBytes wipes buf in place.
//
// Witnesses and circuit inputs hold every private signal of the proof.
// Copies the garbage collector made earlier are out of reach, so this only
// clears the slice it is given.
func ZeroizeBytes(buf []byte) {
	clear(buf)
	// Keeps the stores from being eliminated (golang/go#33325).
	runtime.KeepAlive(buf)
}
