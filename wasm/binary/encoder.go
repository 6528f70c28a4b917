package binary

import (
	"sort"

	"github.com/herkos-dev/herkos/wasm"
	"github.com/herkos-dev/herkos/wasm/leb128"
)

// EncodeModule returns m in the WebAssembly 1.0 (MVP) Binary Format.
//
// The encoding is canonical for the supported subset: sections are written in
// the mandated order and exports are written name-sorted, so encoding the
// same Module twice yields identical bytes. This is what lets tests assemble
// fixture modules and round-trip them through DecodeModule.
func EncodeModule(m *wasm.Module) (bytes []byte) {
	bytes = append(magic, version...)
	if len(m.TypeSection) > 0 {
		bytes = append(bytes, encodeTypeSection(m.TypeSection)...)
	}
	if len(m.FunctionSection) > 0 {
		bytes = append(bytes, encodeFunctionSection(m.FunctionSection)...)
	}
	if m.MemorySection != nil {
		bytes = append(bytes, encodeMemorySection(m.MemorySection)...)
	}
	if len(m.ExportSection) > 0 {
		bytes = append(bytes, encodeExportSection(m.ExportSection)...)
	}
	if len(m.CodeSection) > 0 {
		bytes = append(bytes, encodeCodeSection(m.CodeSection)...)
	}
	if len(m.DataSection) > 0 {
		bytes = append(bytes, encodeDataSection(m.DataSection)...)
	}
	return
}

// encodeSection encodes the sectionID, the size of its contents in bytes,
// followed by the contents.
// See https://www.w3.org/TR/wasm-core-1/#sections%E2%91%A0
func encodeSection(sectionID SectionID, contents []byte) []byte {
	ret := append([]byte{sectionID}, leb128.EncodeUint32(uint32(len(contents)))...)
	return append(ret, contents...)
}

func encodeTypeSection(types []*wasm.FunctionType) []byte {
	contents := leb128.EncodeUint32(uint32(len(types)))
	for _, t := range types {
		contents = append(contents, encodeFunctionType(t)...)
	}
	return encodeSection(SectionIDType, contents)
}

// encodeFunctionType encodes the byte 0x60 followed by the respective vectors
// of parameter and result types.
// See https://www.w3.org/TR/wasm-core-1/#function-types%E2%91%A4
func encodeFunctionType(t *wasm.FunctionType) []byte {
	data := append([]byte{0x60}, encodeValTypes(t.Params)...)
	return append(data, encodeValTypes(t.Results)...)
}

func encodeValTypes(vt []wasm.ValueType) []byte {
	return append(leb128.EncodeUint32(uint32(len(vt))), vt...)
}

func encodeFunctionSection(typeIndices []wasm.Index) []byte {
	contents := leb128.EncodeUint32(uint32(len(typeIndices)))
	for _, index := range typeIndices {
		contents = append(contents, leb128.EncodeUint32(index)...)
	}
	return encodeSection(SectionIDFunction, contents)
}

func encodeMemorySection(memory *wasm.MemoryType) []byte {
	contents := append(leb128.EncodeUint32(1), encodeLimits(memory)...)
	return encodeSection(SectionIDMemory, contents)
}

func encodeLimits(l *wasm.MemoryType) []byte {
	if l.Max == nil {
		return append([]byte{0x00}, leb128.EncodeUint32(l.Min)...)
	}
	ret := append([]byte{0x01}, leb128.EncodeUint32(l.Min)...)
	return append(ret, leb128.EncodeUint32(*l.Max)...)
}

func encodeExportSection(exports map[string]*wasm.Export) []byte {
	names := make([]string, 0, len(exports))
	for name := range exports {
		names = append(names, name)
	}
	sort.Strings(names)

	contents := leb128.EncodeUint32(uint32(len(exports)))
	for _, name := range names {
		e := exports[name]
		contents = append(contents, encodeUTF8(e.Name)...)
		contents = append(contents, exportKindFunc)
		contents = append(contents, leb128.EncodeUint32(e.Index)...)
	}
	return encodeSection(SectionIDExport, contents)
}

func encodeCodeSection(code []*wasm.Code) []byte {
	contents := leb128.EncodeUint32(uint32(len(code)))
	for _, c := range code {
		contents = append(contents, encodeCode(c)...)
	}
	return encodeSection(SectionIDCode, contents)
}

// encodeCode writes a size-prefixed function body with run-length encoded
// locals.
// See https://www.w3.org/TR/wasm-core-1/#binary-code
func encodeCode(c *wasm.Code) []byte {
	// Run-length encode consecutive locals of the same type.
	var runs [][2]uint32 // count, type
	for _, t := range c.LocalTypes {
		if n := len(runs); n > 0 && runs[n-1][1] == uint32(t) {
			runs[n-1][0]++
		} else {
			runs = append(runs, [2]uint32{1, uint32(t)})
		}
	}

	data := leb128.EncodeUint32(uint32(len(runs)))
	for _, run := range runs {
		data = append(data, leb128.EncodeUint32(run[0])...)
		data = append(data, byte(run[1]))
	}
	data = append(data, c.Body...)

	return append(leb128.EncodeUint32(uint32(len(data))), data...)
}

func encodeDataSection(segments []*wasm.DataSegment) []byte {
	contents := leb128.EncodeUint32(uint32(len(segments)))
	for _, s := range segments {
		contents = append(contents, leb128.EncodeUint32(0)...) // memory index
		contents = append(contents, wasm.OpcodeI32Const)
		contents = append(contents, leb128.EncodeInt32(int32(s.Offset))...)
		contents = append(contents, wasm.OpcodeEnd)
		contents = append(contents, leb128.EncodeUint32(uint32(len(s.Init)))...)
		contents = append(contents, s.Init...)
	}
	return encodeSection(SectionIDData, contents)
}

func encodeUTF8(name string) []byte {
	return append(leb128.EncodeUint32(uint32(len(name))), name...)
}
