// Package binary decodes and encodes modules in the WebAssembly 1.0 (MVP)
// Binary Format, restricted to the integer/control/memory subset this
// transpiler supports.
//
// See https://www.w3.org/TR/wasm-core-1/#binary-format%E2%91%A0
package binary

import (
	"bytes"
	"fmt"
	"io"

	"github.com/herkos-dev/herkos/wasm"
	"github.com/herkos-dev/herkos/wasm/leb128"
)

type reader struct {
	read   int
	buffer *bytes.Buffer
}

func (r *reader) Read(p []byte) (n int, err error) {
	n, err = r.buffer.Read(p)
	r.read += n
	return
}

// DecodeModule parses a module byte stream into a typed wasm.Module.
//
// The header is validated first, then sections are parsed in the fixed order
// mandated by the format. Any failure is returned as a *DecodeError carrying
// the section name and byte offset; sections and opcodes outside the
// supported subset wrap wasm.ErrUnsupportedFeature rather than being
// mis-decoded.
func DecodeModule(binary []byte) (*wasm.Module, error) {
	r := &reader{buffer: bytes.NewBuffer(binary)}

	// Magic number.
	buf := make([]byte, 4)
	if _, err := io.ReadFull(r, buf); err != nil || !bytes.Equal(buf, magic) {
		return nil, &DecodeError{Section: "header", Offset: 0, Err: wasm.ErrInvalidMagicNumber}
	}

	// Version.
	if _, err := io.ReadFull(r, buf); err != nil || !bytes.Equal(buf, version) {
		return nil, &DecodeError{Section: "header", Offset: 4, Err: wasm.ErrInvalidVersion}
	}

	m := &wasm.Module{}
	// Non-custom sections must appear at most once, in increasing ID order.
	lastSectionID := SectionID(0)
	for {
		sectionID := make([]byte, 1)
		if _, err := io.ReadFull(r, sectionID); err == io.EOF {
			break
		} else if err != nil {
			return nil, &DecodeError{Section: "unknown", Offset: r.read, Err: fmt.Errorf("read section id: %w", err)}
		}

		id := sectionID[0]
		sectionName := SectionIDName(id)
		sectionStart := r.read - 1

		sectionSize, _, err := leb128.DecodeUint32(r)
		if err != nil {
			return nil, &DecodeError{Section: sectionName, Offset: sectionStart, Err: fmt.Errorf("get size of section: %w", err)}
		}

		if id != SectionIDCustom {
			if id <= lastSectionID {
				return nil, &DecodeError{Section: sectionName, Offset: sectionStart,
					Err: fmt.Errorf("section out of order or duplicated")}
			}
			lastSectionID = id
		}

		sectionContentStart := r.read
		switch id {
		case SectionIDCustom:
			// Custom sections (e.g. "name") carry no executable semantics.
			_, err = io.CopyN(io.Discard, r, int64(sectionSize))
		case SectionIDType:
			m.TypeSection, err = decodeTypeSection(r)
		case SectionIDFunction:
			m.FunctionSection, err = decodeFunctionSection(r)
		case SectionIDMemory:
			m.MemorySection, err = decodeMemorySection(r)
		case SectionIDExport:
			m.ExportSection, err = decodeExportSection(r)
		case SectionIDCode:
			m.CodeSection, err = decodeCodeSection(r)
		case SectionIDData:
			m.DataSection, err = decodeDataSection(r)
		case SectionIDImport, SectionIDTable, SectionIDGlobal, SectionIDStart, SectionIDElement:
			err = fmt.Errorf("%w: %s section", wasm.ErrUnsupportedFeature, sectionName)
		default:
			err = fmt.Errorf("invalid section id: %d", id)
		}

		if err == nil && sectionContentStart+int(sectionSize) != r.read {
			err = fmt.Errorf("invalid section length: expected to be %d but got %d", sectionSize, r.read-sectionContentStart)
		}

		if err != nil {
			return nil, &DecodeError{Section: sectionName, Offset: sectionStart, Err: err}
		}
	}

	if len(m.FunctionSection) != len(m.CodeSection) {
		return nil, &DecodeError{Section: "code", Offset: r.read,
			Err: fmt.Errorf("function and code section have inconsistent lengths: %d != %d",
				len(m.FunctionSection), len(m.CodeSection))}
	}
	for i, typeIndex := range m.FunctionSection {
		if int(typeIndex) >= len(m.TypeSection) {
			return nil, &DecodeError{Section: "function", Offset: r.read,
				Err: fmt.Errorf("function %d: type index out of range: %d", i, typeIndex)}
		}
	}
	for name, e := range m.ExportSection {
		if int(e.Index) >= len(m.FunctionSection) {
			return nil, &DecodeError{Section: "export", Offset: r.read,
				Err: fmt.Errorf("export %q: function index out of range: %d", name, e.Index)}
		}
	}
	if m.DataSection != nil && m.MemorySection == nil {
		return nil, &DecodeError{Section: "data", Offset: r.read,
			Err: fmt.Errorf("data section requires a memory section")}
	}
	return m, nil
}
