//go:build cgo && !windows

package bindings

/*
#cgo CFLAGS: -I${SRCDIR}/../../build/include
#cgo LDFLAGS: -L${SRCDIR}/../../build/lib -lcircom_witnesscalc -lm -ldl -lpthread
#include <stdlib.h>
#include <string.h>

typedef struct gw_status_t {
	int code;
	char *error_msg;
} gw_status_t;

int gw_calc_witness(const char *inputs,
	const void *graph_data, size_t graph_data_len,
	void **wtns_data, size_t *wtns_len,
	gw_status_t *status);

void gw_free_status(gw_status_t *status);
*/
import "C"

import (
	"runtime"
	"unsafe"

	"github.com/iden3/circom-witnesscalc-go/internal/bridge"
)

type library struct{}

// Open returns the cgo-backed witness routine.
func Open() (bridge.Native, error) {
	return library{}, nil
}

// cString is a NUL-terminated C copy of the inputs text.
type cString struct {
	p *C.char
	n C.size_t
}

func (s *cString) Release() {
	if s.p == nil {
		return
	}
	C.memset(unsafe.Pointer(s.p), 0, s.n+1)
	C.free(unsafe.Pointer(s.p))
	s.p = nil
	s.n = 0
}

// pinnedBytes borrows Go memory for the duration of a call.
type pinnedBytes struct {
	pinner runtime.Pinner
	p      unsafe.Pointer
}

func (b *pinnedBytes) Release() {
	b.pinner.Unpin()
	b.p = nil
}

// cBuffer is a witness buffer malloc'ed by the library.
type cBuffer struct {
	p unsafe.Pointer
	n C.size_t
}

func (b *cBuffer) Bytes() []byte {
	if b.p == nil || b.n == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(b.p), int(b.n))
}

func (b *cBuffer) Free() {
	if b.p == nil {
		return
	}
	C.memset(b.p, 0, b.n)
	C.free(b.p)
	b.p = nil
	b.n = 0
}

type cStatus struct {
	s     C.gw_status_t
	freed bool
}

func (s *cStatus) Code() int {
	return int(s.s.code)
}

func (s *cStatus) Message() []byte {
	if s.freed || s.s.error_msg == nil {
		return nil
	}
	n := C.strlen(s.s.error_msg)
	return unsafe.Slice((*byte)(unsafe.Pointer(s.s.error_msg)), int(n))
}

func (s *cStatus) Free() {
	if s.freed {
		return
	}
	C.gw_free_status(&s.s)
	s.freed = true
}

func (library) ViewString(s string) (bridge.View, error) {
	return &cString{p: C.CString(s), n: C.size_t(len(s))}, nil
}

func (library) ViewBytes(b []byte, n int64) (bridge.View, error) {
	v := &pinnedBytes{}
	if n > 0 {
		v.pinner.Pin(&b[0])
		v.p = unsafe.Pointer(&b[0])
	}
	return v, nil
}

func (library) CalcWitness(inputs, graph bridge.View, graphSize int64) (int, bridge.Buffer, bridge.Status) {
	in, ok := inputs.(*cString)
	if !ok || in.p == nil {
		return bridge.StatusError, nil, bridge.NewStatus(bridge.StatusError, errForeignView.Error())
	}
	g, ok := graph.(*pinnedBytes)
	if !ok {
		return bridge.StatusError, nil, bridge.NewStatus(bridge.StatusError, errForeignView.Error())
	}

	var (
		wtns    unsafe.Pointer
		wtnsLen C.size_t
	)
	st := &cStatus{}
	rc := C.gw_calc_witness(in.p, g.p, C.size_t(graphSize), &wtns, &wtnsLen, &st.s)

	return int(rc), &cBuffer{p: wtns, n: wtnsLen}, st
}
