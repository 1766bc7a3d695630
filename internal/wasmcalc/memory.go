package wasmcalc

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/tetratelabs/wazero/api"
)

var errOutOfMemory = errors.New("guest malloc returned null")

// The helpers below assume r.mu is held.

func (r *Runtime) alloc(ctx context.Context, size uint32) (uint32, error) {
	res, err := r.malloc.Call(ctx, api.EncodeU32(size))
	if err != nil {
		return 0, fmt.Errorf("malloc(%d): %w", size, err)
	}
	ptr := api.DecodeU32(res[0])
	if ptr == 0 {
		return 0, &MemoryAccessError{Operation: "malloc", Length: size, Err: errOutOfMemory}
	}
	return ptr, nil
}

func (r *Runtime) release(ctx context.Context, ptr uint32) {
	if ptr == 0 {
		return
	}
	if _, err := r.free.Call(ctx, api.EncodeU32(ptr)); err != nil {
		r.logger.Warn(ctx, "guest free failed", "ptr", ptr, "error", err)
	}
}

func (r *Runtime) write(ptr uint32, data []byte) error {
	if !r.memory.Write(ptr, data) {
		return &MemoryAccessError{Operation: "write", Address: ptr, Length: uint32(len(data)), Err: errOutOfRange}
	}
	return nil
}

// wipe zeroes n bytes at ptr and frees the allocation.
func (r *Runtime) wipe(ctx context.Context, ptr, n uint32) {
	if ptr == 0 {
		return
	}
	if n > 0 {
		_ = r.write(ptr, make([]byte, n))
	}
	r.release(ctx, ptr)
}

func (r *Runtime) readUint32(ptr uint32) (uint32, error) {
	v, ok := r.memory.ReadUint32Le(ptr)
	if !ok {
		return 0, &MemoryAccessError{Operation: "read", Address: ptr, Length: 4, Err: errOutOfRange}
	}
	return v, nil
}

func (r *Runtime) read(ptr, n uint32) ([]byte, error) {
	if n == 0 {
		return nil, nil
	}
	b, ok := r.memory.Read(ptr, n)
	if !ok {
		return nil, &MemoryAccessError{Operation: "read", Address: ptr, Length: n, Err: errOutOfRange}
	}
	return b, nil
}

// readCString returns the bytes at ptr up to, not including, the first NUL.
func (r *Runtime) readCString(ptr uint32) ([]byte, error) {
	size := r.memory.Size()
	if ptr >= size {
		return nil, &MemoryAccessError{Operation: "read", Address: ptr, Err: errOutOfRange}
	}
	b, err := r.read(ptr, size-ptr)
	if err != nil {
		return nil, err
	}
	end := bytes.IndexByte(b, 0)
	if end < 0 {
		return nil, &MemoryAccessError{Operation: "read", Address: ptr, Length: size - ptr, Err: errors.New("unterminated string")}
	}
	return b[:end], nil
}
