package wasmcalc

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/tetratelabs/wazero/api"

	"github.com/iden3/circom-witnesscalc-go/internal/bridge"
)

// statusSize is sizeof(gw_status_t) on wasm32.
const statusSize = 8

var (
	errForeignView = errors.New("wasmcalc: view was not created by this runtime")
	errTooLarge    = errors.New("wasmcalc: buffer exceeds the 4GiB guest address space")
)

var _ bridge.Native = (*Runtime)(nil)

// guestView is a copy of caller memory inside the guest.
type guestView struct {
	r    *Runtime
	ptr  uint32
	size uint32
}

func (v *guestView) Release() {
	v.r.mu.Lock()
	defer v.r.mu.Unlock()
	if v.ptr == 0 || v.r.closed {
		v.ptr = 0
		return
	}
	v.r.wipe(context.Background(), v.ptr, v.size)
	v.ptr = 0
}

// guestBuffer is a witness allocated by the guest.
type guestBuffer struct {
	r    *Runtime
	ptr  uint32
	size uint32
}

func (b *guestBuffer) Bytes() []byte {
	b.r.mu.Lock()
	defer b.r.mu.Unlock()
	if b.ptr == 0 || b.r.closed {
		return nil
	}
	data, err := b.r.read(b.ptr, b.size)
	if err != nil {
		b.r.logger.Error(context.Background(), "witness buffer unreadable", "error", err)
		return nil
	}
	return data
}

func (b *guestBuffer) Free() {
	b.r.mu.Lock()
	defer b.r.mu.Unlock()
	if b.ptr == 0 || b.r.closed {
		b.ptr = 0
		return
	}
	b.r.wipe(context.Background(), b.ptr, b.size)
	b.ptr = 0
}

// guestStatus is a gw_status_t living in guest memory.
type guestStatus struct {
	r   *Runtime
	ptr uint32
}

func (s *guestStatus) Code() int {
	s.r.mu.Lock()
	defer s.r.mu.Unlock()
	if s.ptr == 0 || s.r.closed {
		return bridge.StatusError
	}
	v, err := s.r.readUint32(s.ptr)
	if err != nil {
		return bridge.StatusError
	}
	return int(int32(v))
}

func (s *guestStatus) Message() []byte {
	s.r.mu.Lock()
	defer s.r.mu.Unlock()
	if s.ptr == 0 || s.r.closed {
		return nil
	}
	msgPtr, err := s.r.readUint32(s.ptr + 4)
	if err != nil || msgPtr == 0 {
		return nil
	}
	msg, err := s.r.readCString(msgPtr)
	if err != nil {
		return []byte(err.Error())
	}
	return msg
}

func (s *guestStatus) Free() {
	s.r.mu.Lock()
	defer s.r.mu.Unlock()
	if s.ptr == 0 || s.r.closed {
		s.ptr = 0
		return
	}
	ctx := context.Background()
	if _, err := s.r.freeStatus.Call(ctx, api.EncodeU32(s.ptr)); err != nil {
		s.r.logger.Warn(ctx, "gw_free_status failed", "error", err)
	}
	s.r.release(ctx, s.ptr)
	s.ptr = 0
}

// ViewString copies s into the guest as a NUL-terminated string.
func (r *Runtime) ViewString(s string) (bridge.View, error) {
	if uint64(len(s))+1 > math.MaxUint32 {
		return nil, errTooLarge
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil, ErrClosed
	}

	ctx := context.Background()
	size := uint32(len(s)) + 1
	ptr, err := r.alloc(ctx, size)
	if err != nil {
		return nil, err
	}
	if !r.memory.WriteString(ptr, s) || !r.memory.WriteByte(ptr+uint32(len(s)), 0) {
		r.release(ctx, ptr)
		return nil, &MemoryAccessError{Operation: "write", Address: ptr, Length: size, Err: errOutOfRange}
	}
	return &guestView{r: r, ptr: ptr, size: size}, nil
}

// ViewBytes copies b[:n] into the guest. An empty view has a null pointer.
func (r *Runtime) ViewBytes(b []byte, n int64) (bridge.View, error) {
	if n > math.MaxUint32 {
		return nil, errTooLarge
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil, ErrClosed
	}
	if n <= 0 {
		return &guestView{r: r}, nil
	}

	ctx := context.Background()
	ptr, err := r.alloc(ctx, uint32(n))
	if err != nil {
		return nil, err
	}
	if err := r.write(ptr, b[:n]); err != nil {
		r.release(ctx, ptr)
		return nil, err
	}
	return &guestView{r: r, ptr: ptr, size: uint32(n)}, nil
}

// CalcWitness calls gw_calc_witness in the guest. Failures on the host side,
// including guest traps, are reported as a StatusError status record.
func (r *Runtime) CalcWitness(inputs, graph bridge.View, graphSize int64) (int, bridge.Buffer, bridge.Status) {
	in, ok := inputs.(*guestView)
	if !ok || in.r != r {
		return failed(errForeignView)
	}
	g, ok := graph.(*guestView)
	if !ok || g.r != r {
		return failed(errForeignView)
	}
	if graphSize < 0 || graphSize > math.MaxUint32 {
		return failed(errTooLarge)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return failed(ErrClosed)
	}

	ctx := context.Background()

	// wtns_data and wtns_len out-parameters.
	outs, err := r.alloc(ctx, 8)
	if err != nil {
		return failed(err)
	}
	defer r.release(ctx, outs)

	st, err := r.alloc(ctx, statusSize)
	if err != nil {
		return failed(err)
	}
	if err := r.write(outs, make([]byte, 8)); err != nil {
		r.release(ctx, st)
		return failed(err)
	}
	if err := r.write(st, make([]byte, statusSize)); err != nil {
		r.release(ctx, st)
		return failed(err)
	}

	res, err := r.calc.Call(ctx,
		api.EncodeU32(in.ptr),
		api.EncodeU32(g.ptr), api.EncodeU32(uint32(graphSize)),
		api.EncodeU32(outs), api.EncodeU32(outs+4),
		api.EncodeU32(st),
	)
	if err != nil {
		r.release(ctx, st)
		return failed(fmt.Errorf("gw_calc_witness: %w", err))
	}
	code := int(api.DecodeI32(res[0]))

	wtnsPtr, err := r.readUint32(outs)
	if err != nil {
		return code, nil, &guestStatus{r: r, ptr: st}
	}
	wtnsLen, err := r.readUint32(outs + 4)
	if err != nil {
		return code, nil, &guestStatus{r: r, ptr: st}
	}

	var buf bridge.Buffer
	if wtnsPtr != 0 {
		buf = &guestBuffer{r: r, ptr: wtnsPtr, size: wtnsLen}
	}
	return code, buf, &guestStatus{r: r, ptr: st}
}

func failed(err error) (int, bridge.Buffer, bridge.Status) {
	return bridge.StatusError, nil, bridge.NewStatus(bridge.StatusError, "wasm: "+err.Error())
}
