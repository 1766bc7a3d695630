package bridge

// Status codes reported by the witness routine.
const (
	StatusOK    = 0
	StatusError = 1
)

// View is a native-addressable view of caller-owned memory. It stays valid
// until Release.
type View interface {
	Release()
}

// Buffer is a result buffer allocated by the routine.
type Buffer interface {
	// Bytes returns a view of the routine's memory. It must not be retained
	// after Free.
	Bytes() []byte
	Free()
}

// Status is the routine's status record.
type Status interface {
	Code() int
	// Message returns the diagnostic text, or nil when the routine left the
	// message pointer null. The slice is only valid until Free.
	Message() []byte
	Free()
}

// Native is the call contract of the external witness routine.
type Native interface {
	// ViewString makes s addressable as a NUL-terminated byte sequence.
	ViewString(s string) (View, error)
	// ViewBytes makes the first n bytes of b addressable.
	ViewBytes(b []byte, n int64) (View, error)
	// CalcWitness runs the computation. The returned Buffer may be nil for an
	// empty result.
	CalcWitness(inputs, graph View, graphSize int64) (int, Buffer, Status)
}

// goStatus is a status record living in Go memory, for failures detected on
// the Go side of a Native implementation.
type goStatus struct {
	code int
	msg  []byte
}

// NewStatus returns a Status held in Go memory. Free is a no-op.
func NewStatus(code int, msg string) Status {
	return &goStatus{code: code, msg: []byte(msg)}
}

func (s *goStatus) Code() int       { return s.code }
func (s *goStatus) Message() []byte { return s.msg }
func (s *goStatus) Free()           {}
