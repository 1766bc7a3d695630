//go:build !cgo || windows

package bindings

import "github.com/iden3/circom-witnesscalc-go/internal/bridge"

// Open reports ErrNotBuilt: this binary was compiled without the native
// library.
func Open() (bridge.Native, error) {
	return nil, ErrNotBuilt
}
