// Package bridgetest provides a scriptable bridge.Native that records every
// acquisition and release, for tests of the handler and of code built on it.
package bridgetest

import (
	"errors"
	"sync"

	"github.com/iden3/circom-witnesscalc-go/internal/bridge"
)

// Result scripts the next CalcWitness call.
type Result struct {
	Code int
	// Witness is returned as the routine's buffer. A nil Witness with
	// NilBuffer set makes the routine return no buffer at all.
	Witness   []byte
	NilBuffer bool
	// StatusCode defaults to Code.
	StatusCode *int
	// Message is the status message. NilMessage models a null pointer.
	Message    []byte
	NilMessage bool
	NilStatus  bool
}

// Call captures the arguments the routine saw.
type Call struct {
	Inputs    string
	Graph     []byte
	GraphSize int64
}

// Native is a fake witness routine. The zero value is not usable; use New.
type Native struct {
	mu sync.Mutex

	// Result is returned by CalcWitness.
	Result Result
	// Compute, when set, derives the result from the call instead.
	Compute func(Call) Result

	// ViewStringErr and ViewBytesErr make view acquisition fail.
	ViewStringErr error
	ViewBytesErr  error

	Calls []Call

	views    []*view
	buffers  []*buffer
	statuses []*status
}

// New returns a fake routine that reports r.
func New(r Result) *Native {
	return &Native{Result: r}
}

// ErrViewFailed is a convenience error for view failure scripts.
var ErrViewFailed = errors.New("bridgetest: view failed")

type view struct {
	data     []byte
	text     string
	releases int
}

func (v *view) Release() { v.releases++ }

type buffer struct {
	data  []byte
	frees int
}

func (b *buffer) Bytes() []byte { return b.data }

func (b *buffer) Free() {
	b.frees++
	for i := range b.data {
		b.data[i] = 0xAA
	}
}

type status struct {
	code  int
	msg   []byte
	frees int
}

func (s *status) Code() int       { return s.code }
func (s *status) Message() []byte { return s.msg }
func (s *status) Free()           { s.frees++ }

func (n *Native) ViewString(s string) (bridge.View, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.ViewStringErr != nil {
		return nil, n.ViewStringErr
	}
	v := &view{text: s}
	n.views = append(n.views, v)
	return v, nil
}

func (n *Native) ViewBytes(b []byte, size int64) (bridge.View, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.ViewBytesErr != nil {
		return nil, n.ViewBytesErr
	}
	v := &view{data: b[:size]}
	n.views = append(n.views, v)
	return v, nil
}

func (n *Native) CalcWitness(inputs, graph bridge.View, graphSize int64) (int, bridge.Buffer, bridge.Status) {
	n.mu.Lock()
	defer n.mu.Unlock()

	call := Call{GraphSize: graphSize}
	if v, ok := inputs.(*view); ok {
		call.Inputs = v.text
	}
	if v, ok := graph.(*view); ok {
		call.Graph = v.data
	}
	n.Calls = append(n.Calls, call)

	r := n.Result
	if n.Compute != nil {
		r = n.Compute(call)
	}

	var buf bridge.Buffer
	if !r.NilBuffer {
		b := &buffer{data: append([]byte(nil), r.Witness...)}
		n.buffers = append(n.buffers, b)
		buf = b
	}

	if r.NilStatus {
		return r.Code, buf, nil
	}
	st := &status{code: r.Code}
	if r.StatusCode != nil {
		st.code = *r.StatusCode
	}
	if !r.NilMessage {
		st.msg = r.Message
		if st.msg == nil {
			st.msg = []byte{}
		}
	}
	n.statuses = append(n.statuses, st)
	return r.Code, buf, st
}

// Views reports how many views were acquired and the release count of each.
func (n *Native) Views() []int {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]int, len(n.views))
	for i, v := range n.views {
		out[i] = v.releases
	}
	return out
}

// BufferFrees reports the free count of every buffer handed out.
func (n *Native) BufferFrees() []int {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]int, len(n.buffers))
	for i, b := range n.buffers {
		out[i] = b.frees
	}
	return out
}

// StatusFrees reports the free count of every status record handed out.
func (n *Native) StatusFrees() []int {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]int, len(n.statuses))
	for i, s := range n.statuses {
		out[i] = s.frees
	}
	return out
}

// Balanced reports whether every view, buffer and status record was released
// exactly once.
func (n *Native) Balanced() bool {
	for _, counts := range [][]int{n.Views(), n.BufferFrees(), n.StatusFrees()} {
		for _, c := range counts {
			if c != 1 {
				return false
			}
		}
	}
	return true
}

// IntPtr is a helper for Result.StatusCode.
func IntPtr(v int) *int { return &v }
