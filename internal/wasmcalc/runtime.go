package wasmcalc

import (
	"context"
	"sync"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"

	"github.com/iden3/circom-witnesscalc-go/pkg/witnesscalc/logging"
)

// Config holds runtime configuration.
type Config struct {
	// Memory limit for the guest, in 64KiB pages. Zero keeps wazero's
	// default (4GiB). Graph data and witnesses both live in guest memory, so
	// large circuits need a generous limit.
	MemoryPages uint32

	// Name the guest is instantiated under.
	ModuleName string

	// HostModules instantiates extra host modules the guest imports, beyond
	// WASI preview1 (for instance the "env" module of Emscripten builds).
	HostModules func(ctx context.Context, rt wazero.Runtime) error
}

// DefaultConfig returns the defaults: a 1GiB memory limit.
func DefaultConfig() *Config {
	return &Config{
		MemoryPages: 16384,
		ModuleName:  "witnesscalc",
	}
}

// Runtime is a loaded witness calculator guest. Guest calls are serialized;
// a single instance is not re-entrant.
type Runtime struct {
	runtime wazero.Runtime
	module  api.Module
	memory  api.Memory

	malloc     api.Function
	free       api.Function
	calc       api.Function
	freeStatus api.Function

	logger logging.Logger

	mu     sync.Mutex
	closed bool
}

// New compiles and instantiates the guest module.
func New(ctx context.Context, wasm []byte, logger logging.Logger, cfg *Config) (*Runtime, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if logger == nil {
		logger = logging.Nop()
	}
	logger = logger.With("component", "wasmcalc")

	rc := wazero.NewRuntimeConfig()
	if cfg.MemoryPages > 0 {
		rc = rc.WithMemoryLimitPages(cfg.MemoryPages)
	}
	rt := wazero.NewRuntimeWithConfig(ctx, rc)

	fail := func(err error) (*Runtime, error) {
		_ = rt.Close(ctx)
		return nil, err
	}

	if _, err := wasi_snapshot_preview1.Instantiate(ctx, rt); err != nil {
		return fail(&CompileError{Err: err})
	}
	if cfg.HostModules != nil {
		if err := cfg.HostModules(ctx, rt); err != nil {
			return fail(&CompileError{Err: err})
		}
	}

	compiled, err := rt.CompileModule(ctx, wasm)
	if err != nil {
		return fail(&CompileError{Err: err})
	}

	modCfg := wazero.NewModuleConfig().
		WithName(cfg.ModuleName).
		WithStartFunctions("_initialize")
	mod, err := rt.InstantiateModule(ctx, compiled, modCfg)
	if err != nil {
		return fail(&CompileError{Err: err})
	}

	r := &Runtime{
		runtime: rt,
		module:  mod,
		logger:  logger,
	}
	if err := r.bindExports(); err != nil {
		return fail(err)
	}

	logger.Info(ctx, "witness calculator module loaded",
		"module_bytes", len(wasm),
		"memory_pages", cfg.MemoryPages,
	)
	return r, nil
}

func (r *Runtime) bindExports() error {
	// Module.Memory returns a typed nil when the guest has none.
	r.memory = r.module.ExportedMemory("memory")
	if r.memory == nil {
		return &ExportNotFoundError{Name: "memory"}
	}
	for _, fn := range []struct {
		name string
		dst  *api.Function
	}{
		{"malloc", &r.malloc},
		{"free", &r.free},
		{"gw_calc_witness", &r.calc},
		{"gw_free_status", &r.freeStatus},
	} {
		f := r.module.ExportedFunction(fn.name)
		if f == nil {
			return &ExportNotFoundError{Name: fn.name}
		}
		*fn.dst = f
	}
	return nil
}

// Close releases the guest and the wazero runtime. Views, buffers and
// status records still outstanding become no-ops. Safe to call multiple
// times.
func (r *Runtime) Close(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil
	}
	r.closed = true
	r.logger.Info(ctx, "witness calculator module closed")
	return r.runtime.Close(ctx)
}
