// Package wasmtest assembles small wasm32 guests for tests of the wasm
// backend.
package wasmtest

import "bytes"

// Header is the wasm magic number and version 1.
var Header = []byte{0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00}

const i32 = 0x7f

// Instructions used by the guests below.
const (
	opEnd       = 0x0b
	opCall      = 0x10
	opLocalGet  = 0x20
	opLocalSet  = 0x21
	opGlobalGet = 0x23
	opGlobalSet = 0x24
	opI32Store  = 0x36
	opI32Const  = 0x41
	opI32Add    = 0x6a
	opI32And    = 0x71
	opPrefixFC  = 0xfc
	opMemCopy   = 0x0a
)

// Section ids.
const (
	secType     = 1
	secImport   = 2
	secFunction = 3
	secMemory   = 5
	secGlobal   = 6
	secExport   = 7
	secCode     = 10
)

func ULEB(v uint32) []byte {
	var out []byte
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v != 0 {
			out = append(out, b|0x80)
			continue
		}
		return append(out, b)
	}
}

func Section(id byte, content ...[]byte) []byte {
	body := bytes.Join(content, nil)
	out := append([]byte{id}, ULEB(uint32(len(body)))...)
	return append(out, body...)
}

func Name(s string) []byte {
	return append(ULEB(uint32(len(s))), s...)
}

func Vec(items ...[]byte) []byte {
	return append(ULEB(uint32(len(items))), bytes.Join(items, nil)...)
}

// FuncType encodes a function type over i32 values only.
func FuncType(params, results int) []byte {
	out := []byte{0x60}
	out = append(out, ULEB(uint32(params))...)
	out = append(out, bytes.Repeat([]byte{i32}, params)...)
	out = append(out, ULEB(uint32(results))...)
	return append(out, bytes.Repeat([]byte{i32}, results)...)
}

// code encodes a function body with extraLocals i32 locals.
func code(extraLocals byte, instrs ...byte) []byte {
	body := []byte{0x00}
	if extraLocals > 0 {
		body = []byte{0x01, extraLocals, i32}
	}
	body = append(body, instrs...)
	body = append(body, opEnd)
	return append(ULEB(uint32(len(body))), body...)
}

// forward calls function fn with the first params locals as arguments.
func forward(params int, fn byte) []byte {
	var instrs []byte
	for i := 0; i < params; i++ {
		instrs = append(instrs, opLocalGet, byte(i))
	}
	return code(0, append(instrs, opCall, fn)...)
}

func exportFunc(name string, idx byte) []byte {
	return append(Name(name), 0x00, idx)
}

func exportMemory() []byte {
	return append(Name("memory"), 0x02, 0x00)
}

// abiTypes are the types of malloc, free and gw_calc_witness; gw_free_status
// shares free's type.
func abiTypes() []byte {
	return Section(secType, Vec(FuncType(1, 1), FuncType(1, 0), FuncType(6, 1)))
}

// MemoryOnly exports a one page memory and nothing else.
func MemoryOnly() []byte {
	return bytes.Join([][]byte{
		Header,
		Section(secMemory, Vec([]byte{0x00, 0x01})),
		Section(secExport, Vec(exportMemory())),
	}, nil)
}

// Forwarding imports the witness ABI from the "env" host module and exports
// guest functions that call straight through to it. withMemory adds the one
// page memory export the host functions operate on.
func Forwarding(withMemory bool) []byte {
	importFunc := func(field string, typeIdx byte) []byte {
		return bytes.Join([][]byte{Name("env"), Name(field), {0x00, typeIdx}}, nil)
	}
	exports := [][]byte{
		exportFunc("malloc", 4),
		exportFunc("free", 5),
		exportFunc("gw_calc_witness", 6),
		exportFunc("gw_free_status", 7),
	}
	sections := [][]byte{
		Header,
		abiTypes(),
		Section(secImport, Vec(
			importFunc("malloc", 0),
			importFunc("free", 1),
			importFunc("gw_calc_witness", 2),
			importFunc("gw_free_status", 1),
		)),
		Section(secFunction, Vec([]byte{0}, []byte{1}, []byte{2}, []byte{1})),
	}
	if withMemory {
		sections = append(sections, Section(secMemory, Vec([]byte{0x00, 0x01})))
		exports = append([][]byte{exportMemory()}, exports...)
	}
	sections = append(sections,
		Section(secExport, Vec(exports...)),
		Section(secCode, Vec(
			forward(1, 0),
			forward(1, 1),
			forward(6, 2),
			forward(1, 3),
		)),
	)
	return bytes.Join(sections, nil)
}

// Echo is a self-contained calculator: the witness is a copy of the graph
// and the status is always OK. malloc is a bump allocator starting at 1024
// over four pages; free and gw_free_status do nothing.
func Echo() []byte {
	malloc := code(0,
		opGlobalGet, 0,
		opGlobalGet, 0,
		opLocalGet, 0,
		opI32Const, 7,
		opI32Add,
		opI32Const, 0x78, // -8
		opI32And,
		opI32Add,
		opGlobalSet, 0,
	)
	nop := code(0)
	// Params: inputs, graph, graph_len, wtns_out, wtns_len_out, status.
	// Local 6 holds the witness pointer.
	calc := code(1,
		opLocalGet, 2, opCall, 0, opLocalSet, 6,
		opLocalGet, 6, opLocalGet, 1, opLocalGet, 2, opPrefixFC, opMemCopy, 0x00, 0x00,
		opLocalGet, 3, opLocalGet, 6, opI32Store, 0x02, 0x00,
		opLocalGet, 4, opLocalGet, 2, opI32Store, 0x02, 0x00,
		opLocalGet, 5, opI32Const, 0, opI32Store, 0x02, 0x00,
		opLocalGet, 5, opI32Const, 0, opI32Store, 0x02, 0x04,
		opI32Const, 0,
	)
	heapStart := []byte{i32, 0x01, opI32Const, 0x80, 0x08, opEnd} // mut i32 = 1024

	return bytes.Join([][]byte{
		Header,
		abiTypes(),
		Section(secFunction, Vec([]byte{0}, []byte{1}, []byte{2}, []byte{1})),
		Section(secMemory, Vec([]byte{0x00, 0x04})),
		Section(secGlobal, Vec(heapStart)),
		Section(secExport, Vec(
			exportMemory(),
			exportFunc("malloc", 0),
			exportFunc("free", 1),
			exportFunc("gw_calc_witness", 2),
			exportFunc("gw_free_status", 3),
		)),
		Section(secCode, Vec(malloc, nop, calc, nop)),
	}, nil)
}
