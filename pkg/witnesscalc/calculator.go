package witnesscalc

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/iden3/circom-witnesscalc-go/internal/bindings"
	"github.com/iden3/circom-witnesscalc-go/internal/bridge"
	"github.com/iden3/circom-witnesscalc-go/internal/wasmcalc"
	"github.com/iden3/circom-witnesscalc-go/pkg/witnesscalc/logging"
)

// Status codes returned by Invoke.
const (
	StatusOK    = bridge.StatusOK
	StatusError = bridge.StatusError
)

// Calculator runs witness calculations on one backend. It is safe for
// concurrent use to the extent the backend is; the wasm backend serializes
// guest calls, the native backend adds no locking.
type Calculator struct {
	backend    Backend
	handler    *bridge.Handler
	logger     logging.Logger
	metrics    *metrics
	errBufSize int
	closer     func(context.Context) error

	mu     sync.RWMutex
	closed bool
}

// Open prepares the backend selected by cfg.
func Open(ctx context.Context, cfg Config, opts ...Option) (*Calculator, error) {
	cfg = cfg.withDefaults()
	o := buildOptions(opts)

	var (
		native bridge.Native
		closer func(context.Context) error
	)
	switch cfg.Backend {
	case BackendNative:
		n, err := bindings.Open()
		if err != nil {
			return nil, remapError(err)
		}
		native = n
	case BackendWasm:
		module := cfg.WasmModule
		if len(module) == 0 {
			if cfg.WasmModulePath == "" {
				return nil, fmt.Errorf("witnesscalc: wasm backend needs a module or module path")
			}
			b, err := os.ReadFile(cfg.WasmModulePath)
			if err != nil {
				return nil, fmt.Errorf("witnesscalc: read wasm module: %w", err)
			}
			module = b
		}
		wcfg := wasmcalc.DefaultConfig()
		if cfg.WasmMemoryPages > 0 {
			wcfg.MemoryPages = cfg.WasmMemoryPages
		}
		rt, err := wasmcalc.New(ctx, module, o.logger, wcfg)
		if err != nil {
			return nil, fmt.Errorf("witnesscalc: %w", err)
		}
		native = rt
		closer = rt.Close
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, cfg.Backend)
	}

	c, err := newCalculator(native, cfg, o)
	if err != nil {
		if closer != nil {
			_ = closer(ctx)
		}
		return nil, err
	}
	c.closer = closer
	c.logger.Info(ctx, "witness calculator opened")
	return c, nil
}

func newCalculator(native bridge.Native, cfg Config, o options) (*Calculator, error) {
	h, err := bridge.NewHandler(native)
	if err != nil {
		return nil, err
	}
	logger := o.logger.With("backend", string(cfg.Backend))
	return &Calculator{
		backend:    cfg.Backend,
		handler:    h,
		logger:     logger,
		metrics:    newMetrics(o.registerer, logger),
		errBufSize: cfg.ErrorBufferSize,
	}, nil
}

// Close releases the backend. It waits for in-flight calls and returns
// ErrCalculatorClosed when called twice.
func (c *Calculator) Close(ctx context.Context) error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrCalculatorClosed
	}
	c.closed = true
	if c.closer != nil {
		if err := c.closer(ctx); err != nil {
			return fmt.Errorf("witnesscalc: close backend: %w", err)
		}
	}
	c.logger.Info(ctx, "witness calculator closed")
	return nil
}

// Invoke performs one raw bridge call.
//
// A fresh witness (never nil, possibly empty) is installed in *witness and
// its length in *witnessSize on every call. On a non-OK status the
// calculator's diagnostic is copied into errMsg, at most errMsgMaxSize bytes,
// followed by a NUL when room is left. On success errMsg is not touched. The
// returned code is the calculator's, unmodified.
func (c *Calculator) Invoke(
	inputs string,
	graph []byte, graphSize int64,
	witness *[]byte, witnessSize *uint64,
	errMsg []byte, errMsgMaxSize int64,
) int {
	code, _ := c.invoke(inputs, graph, graphSize, witness, witnessSize, errMsg, errMsgMaxSize)
	return code
}

// invoke is Invoke that also reports whether the calculator was open for
// the call. The closed check and the call share one read lock.
func (c *Calculator) invoke(
	inputs string,
	graph []byte, graphSize int64,
	witness *[]byte, witnessSize *uint64,
	errMsg []byte, errMsgMaxSize int64,
) (int, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return closedCall(witness, witnessSize, errMsg, errMsgMaxSize), false
	}

	start := time.Now()
	code := c.handler.Invoke(inputs, graph, graphSize, witness, witnessSize, errMsg, errMsgMaxSize)
	var size uint64
	if witnessSize != nil {
		size = *witnessSize
	}
	c.metrics.observe(code, time.Since(start), size)
	return code, true
}

// CalculateWitness computes the witness for inputs (circuit inputs as JSON)
// over graph (the compiled circuit graph). ctx only carries logging values;
// the calculation itself cannot be interrupted.
//
// A StatusError result is returned as *Error, any other non-OK code as
// *UnknownStatusError. Both match ErrCalculation.
func (c *Calculator) CalculateWitness(ctx context.Context, inputs string, graph []byte) ([]byte, error) {
	c.logger.Debug(ctx, "calculating witness",
		logging.Redacted("inputs"),
		"graph_bytes", len(graph),
	)

	var (
		witness []byte
		size    uint64
	)
	errBuf := make([]byte, c.errBufSize)
	code, open := c.invoke(inputs, graph, int64(len(graph)), &witness, &size, errBuf, int64(len(errBuf)))
	if !open {
		return nil, ErrCalculatorClosed
	}

	switch code {
	case StatusOK:
		c.logger.Debug(ctx, "witness calculated", "witness_bytes", size)
		return witness, nil
	case StatusError:
		ZeroizeBytes(witness)
		err := &Error{Code: code, Message: decodeMessage(errBuf)}
		c.logger.Warn(ctx, "witness calculation failed", "code", code, "error", err)
		return nil, err
	default:
		ZeroizeBytes(witness)
		err := &UnknownStatusError{Code: code, Message: decodeMessage(errBuf)}
		c.logger.Warn(ctx, "witness calculation returned unknown status", "code", code, "error", err)
		return nil, err
	}
}

// closedCall fills the output slots the way a failed conversion does.
func closedCall(witness *[]byte, witnessSize *uint64, errMsg []byte, errMsgMaxSize int64) int {
	if witness != nil {
		*witness = make([]byte, 0)
	}
	if witnessSize != nil {
		*witnessSize = 0
	}
	bridge.CopyTerminated(errMsg, errMsgMaxSize, []byte(ErrCalculatorClosed.Error()))
	return StatusError
}

// decodeMessage reads the text up to the first NUL and trims surrounding
// spaces.
func decodeMessage(buf []byte) string {
	if i := bytes.IndexByte(buf, 0); i >= 0 {
		buf = buf[:i]
	}
	return strings.Trim(string(buf), " ")
}
