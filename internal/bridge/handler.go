package bridge

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

var (
	ErrNilNative     = errors.New("bridge: native routine must not be nil")
	ErrNilSlot       = errors.New("bridge: witness and size output slots must not be nil")
	ErrInvalidInputs = errors.New("bridge: inputs are not a valid C string")
	ErrInvalidGraph  = errors.New("bridge: graph size out of range")
)

// Handler runs bridge calls against a Native routine. It holds no per-call
// state and adds no locking of its own.
type Handler struct {
	native Native
}

// NewHandler returns a handler bound to n.
func NewHandler(n Native) (*Handler, error) {
	if n == nil {
		return nil, ErrNilNative
	}
	return &Handler{native: n}, nil
}

// Invoke performs one bridge call.
//
// A witness copy (possibly empty, never nil) is installed in *witness and its
// length in *witnessSize on every call. errMsg is written only when the
// routine reports a non-OK status, and never beyond errMsgMaxSize bytes. The
// routine's result code is returned unmodified.
//
// When a native view of the arguments cannot be made the routine is not
// called; the handler reports StatusError with the reason in errMsg.
func (h *Handler) Invoke(
	inputs string,
	graph []byte, graphSize int64,
	witness *[]byte, witnessSize *uint64,
	errMsg []byte, errMsgMaxSize int64,
) int {
	if witness == nil || witnessSize == nil {
		if witness != nil {
			*witness = make([]byte, 0)
		}
		if witnessSize != nil {
			*witnessSize = 0
		}
		CopyTerminated(errMsg, errMsgMaxSize, []byte(ErrNilSlot.Error()))
		return StatusError
	}

	in, err := h.viewInputs(inputs)
	if err != nil {
		return failConversion(err, witness, witnessSize, errMsg, errMsgMaxSize)
	}
	defer in.release()

	gv, err := h.viewGraph(graph, graphSize)
	if err != nil {
		return failConversion(err, witness, witnessSize, errMsg, errMsgMaxSize)
	}
	defer gv.release()

	code, buf, st := h.native.CalcWitness(in.view, gv.view, graphSize)
	status := &statusGuard{st: st}
	defer status.release()

	n := installWitness(buf, witness)
	*witnessSize = uint64(n)

	if status.code() != StatusOK {
		if msg := status.message(); msg != nil {
			CopyTerminated(errMsg, errMsgMaxSize, msg)
		}
	}
	status.release()

	return code
}

func (h *Handler) viewInputs(inputs string) (*borrowed, error) {
	if !utf8.ValidString(inputs) {
		return nil, fmt.Errorf("%w: invalid UTF-8", ErrInvalidInputs)
	}
	if i := strings.IndexByte(inputs, 0); i >= 0 {
		return nil, fmt.Errorf("%w: NUL byte at offset %d", ErrInvalidInputs, i)
	}
	v, err := h.native.ViewString(inputs)
	if err != nil {
		return nil, fmt.Errorf("view inputs: %w", err)
	}
	return &borrowed{view: v}, nil
}

func (h *Handler) viewGraph(graph []byte, graphSize int64) (*borrowed, error) {
	if graphSize < 0 || graphSize > int64(len(graph)) {
		return nil, fmt.Errorf("%w: %d of %d bytes", ErrInvalidGraph, graphSize, len(graph))
	}
	v, err := h.native.ViewBytes(graph, graphSize)
	if err != nil {
		return nil, fmt.Errorf("view graph: %w", err)
	}
	return &borrowed{view: v}, nil
}

// installWitness copies the routine's buffer into a fresh slice, installs it
// in the slot and frees the routine's buffer.
func installWitness(buf Buffer, witness *[]byte) int {
	if buf == nil {
		*witness = make([]byte, 0)
		return 0
	}
	src := buf.Bytes()
	out := make([]byte, len(src))
	copy(out, src)
	buf.Free()
	*witness = out
	return len(out)
}

func failConversion(err error, witness *[]byte, witnessSize *uint64, errMsg []byte, errMsgMaxSize int64) int {
	*witness = make([]byte, 0)
	*witnessSize = 0
	CopyTerminated(errMsg, errMsgMaxSize, []byte(err.Error()))
	return StatusError
}
