package witnesscalc

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/iden3/circom-witnesscalc-go/pkg/witnesscalc/logging"
)

// Backend selects the witness calculator implementation.
type Backend string

const (
	BackendNative Backend = "native"
	BackendWasm   Backend = "wasm"
)

// DefaultErrorBufferSize is the capacity of the diagnostic buffer used by
// CalculateWitness.
const DefaultErrorBufferSize = 256

// Config expresses the knobs required to open a Calculator.
type Config struct {
	// Backend defaults to BackendNative.
	Backend Backend

	// WasmModule holds the calculator compiled to WebAssembly. When empty,
	// the module is read from WasmModulePath. Only used by BackendWasm.
	WasmModule     []byte
	WasmModulePath string

	// WasmMemoryPages limits guest memory, in 64KiB pages. Zero selects the
	// wasm backend's default.
	WasmMemoryPages uint32

	// ErrorBufferSize bounds the diagnostic text CalculateWitness can
	// return. Values below one select DefaultErrorBufferSize.
	ErrorBufferSize int
}

func (c Config) withDefaults() Config {
	if c.Backend == "" {
		c.Backend = BackendNative
	}
	if c.ErrorBufferSize < 1 {
		c.ErrorBufferSize = DefaultErrorBufferSize
	}
	return c
}

type options struct {
	logger     logging.Logger
	registerer prometheus.Registerer
}

// Option customizes a Calculator.
type Option func(*options)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l logging.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithRegisterer registers the calculator's metrics on reg.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(o *options) { o.registerer = reg }
}

func buildOptions(opts []Option) options {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = logging.Nop()
	}
	return o
}
