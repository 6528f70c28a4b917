package binary

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/herkos-dev/herkos/wasm"
)

// minimal is the smallest valid module: just the header.
var minimal = []byte{0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00}

func TestDecodeModule_Header(t *testing.T) {
	t.Run("empty module", func(t *testing.T) {
		m, err := DecodeModule(minimal)
		require.NoError(t, err)
		require.Equal(t, &wasm.Module{}, m)
	})

	t.Run("bad magic", func(t *testing.T) {
		_, err := DecodeModule([]byte{0x00, 0x61, 0x73, 0x00, 0x01, 0x00, 0x00, 0x00})
		require.ErrorIs(t, err, wasm.ErrInvalidMagicNumber)

		var de *DecodeError
		require.True(t, errors.As(err, &de))
		require.Equal(t, "header", de.Section)
		require.Equal(t, 0, de.Offset)
	})

	t.Run("truncated", func(t *testing.T) {
		_, err := DecodeModule([]byte{0x00, 0x61})
		require.ErrorIs(t, err, wasm.ErrInvalidMagicNumber)
	})

	t.Run("bad version", func(t *testing.T) {
		_, err := DecodeModule([]byte{0x00, 0x61, 0x73, 0x6d, 0x02, 0x00, 0x00, 0x00})
		require.ErrorIs(t, err, wasm.ErrInvalidVersion)

		var de *DecodeError
		require.True(t, errors.As(err, &de))
		require.Equal(t, 4, de.Offset)
	})
}

func TestDecodeModule_Sections(t *testing.T) {
	t.Run("unsupported section", func(t *testing.T) {
		// An import section (ID 2) declaring zero imports.
		bin := append(append([]byte{}, minimal...), SectionIDImport, 1, 0)
		_, err := DecodeModule(bin)
		require.ErrorIs(t, err, wasm.ErrUnsupportedFeature)

		var de *DecodeError
		require.True(t, errors.As(err, &de))
		require.Equal(t, "import", de.Section)
	})

	t.Run("invalid section id", func(t *testing.T) {
		bin := append(append([]byte{}, minimal...), 13, 1, 0)
		_, err := DecodeModule(bin)
		require.Error(t, err)
	})

	t.Run("duplicated section", func(t *testing.T) {
		// Two empty-vector type sections.
		bin := append(append([]byte{}, minimal...), SectionIDType, 1, 0, SectionIDType, 1, 0)
		_, err := DecodeModule(bin)
		require.ErrorContains(t, err, "out of order or duplicated")
	})

	t.Run("out of order", func(t *testing.T) {
		// A function section cannot precede the type section.
		bin := append(append([]byte{}, minimal...), SectionIDFunction, 1, 0, SectionIDType, 1, 0)
		_, err := DecodeModule(bin)
		require.ErrorContains(t, err, "out of order or duplicated")
	})

	t.Run("custom sections are skipped", func(t *testing.T) {
		// Custom section: name "a", one payload byte.
		bin := append(append([]byte{}, minimal...), SectionIDCustom, 3, 1, 'a', 0xff)
		m, err := DecodeModule(bin)
		require.NoError(t, err)
		require.Equal(t, &wasm.Module{}, m)
	})

	t.Run("wrong section length", func(t *testing.T) {
		bin := append(append([]byte{}, minimal...), SectionIDType, 2, 0)
		_, err := DecodeModule(bin)
		require.ErrorContains(t, err, "invalid section length")
	})
}

func TestDecodeModule_TypeSection(t *testing.T) {
	t.Run("rejects float params", func(t *testing.T) {
		// (func (param f32))
		bin := append(append([]byte{}, minimal...),
			SectionIDType, 5, 1, 0x60, 1, 0x7d, 0)
		_, err := DecodeModule(bin)
		require.ErrorIs(t, err, wasm.ErrUnsupportedFeature)
	})

	t.Run("rejects multiple results", func(t *testing.T) {
		bin := append(append([]byte{}, minimal...),
			SectionIDType, 6, 1, 0x60, 0, 2, 0x7f, 0x7f)
		_, err := DecodeModule(bin)
		require.ErrorIs(t, err, wasm.ErrUnsupportedFeature)
	})

	t.Run("rejects unknown value type", func(t *testing.T) {
		bin := append(append([]byte{}, minimal...),
			SectionIDType, 5, 1, 0x60, 1, 0x55, 0)
		_, err := DecodeModule(bin)
		require.ErrorContains(t, err, "invalid value type")
	})

	t.Run("empty vectors decode as nil", func(t *testing.T) {
		// (func) with no params and no results. Nil rather than empty slices
		// keeps decoded modules comparable to hand-built ones.
		bin := append(append([]byte{}, minimal...), SectionIDType, 4, 1, 0x60, 0, 0)
		m, err := DecodeModule(bin)
		require.NoError(t, err)
		require.Nil(t, m.TypeSection[0].Params)
		require.Nil(t, m.TypeSection[0].Results)
	})
}

func TestDecodeModule_MemorySection(t *testing.T) {
	t.Run("min only", func(t *testing.T) {
		bin := append(append([]byte{}, minimal...), SectionIDMemory, 3, 1, 0x00, 2)
		m, err := DecodeModule(bin)
		require.NoError(t, err)
		require.Equal(t, uint32(2), m.MemorySection.Min)
		require.Nil(t, m.MemorySection.Max)
	})

	t.Run("min and max", func(t *testing.T) {
		bin := append(append([]byte{}, minimal...), SectionIDMemory, 4, 1, 0x01, 1, 4)
		m, err := DecodeModule(bin)
		require.NoError(t, err)
		require.Equal(t, uint32(1), m.MemorySection.Min)
		require.Equal(t, uint32(4), *m.MemorySection.Max)
	})

	t.Run("max below min", func(t *testing.T) {
		bin := append(append([]byte{}, minimal...), SectionIDMemory, 4, 1, 0x01, 4, 1)
		_, err := DecodeModule(bin)
		require.Error(t, err)
	})

	t.Run("multiple memories", func(t *testing.T) {
		bin := append(append([]byte{}, minimal...), SectionIDMemory, 5, 2, 0x00, 1, 0x00, 1)
		_, err := DecodeModule(bin)
		require.ErrorIs(t, err, wasm.ErrUnsupportedFeature)
	})
}

// TestDecodeModule_CodeConsistency covers the cross-section checks that run
// after all sections are read.
func TestDecodeModule_CodeConsistency(t *testing.T) {
	t.Run("function without code", func(t *testing.T) {
		bin := append(append([]byte{}, minimal...),
			SectionIDType, 4, 1, 0x60, 0, 0,
			SectionIDFunction, 2, 1, 0)
		_, err := DecodeModule(bin)
		require.ErrorContains(t, err, "inconsistent lengths")
	})

	t.Run("type index out of range", func(t *testing.T) {
		bin := append(append([]byte{}, minimal...),
			SectionIDType, 4, 1, 0x60, 0, 0,
			SectionIDFunction, 2, 1, 7,
			SectionIDCode, 4, 1, 2, 0, wasm.OpcodeEnd)
		_, err := DecodeModule(bin)
		require.ErrorContains(t, err, "type index out of range")
	})

	t.Run("export index out of range", func(t *testing.T) {
		bin := append(append([]byte{}, minimal...),
			SectionIDExport, 5, 1, 1, 'f', 0x00, 3)
		_, err := DecodeModule(bin)
		require.ErrorContains(t, err, "function index out of range")
	})

	t.Run("data without memory", func(t *testing.T) {
		// One data segment at offset 0, but no memory section to put it in.
		bin := append(append([]byte{}, minimal...),
			SectionIDData, 7, 1, 0, wasm.OpcodeI32Const, 0, wasm.OpcodeEnd, 1, 0x2a)
		_, err := DecodeModule(bin)
		require.ErrorContains(t, err, "data section requires a memory section")
	})
}

func TestDecodeModule_ExportSection(t *testing.T) {
	t.Run("duplicate names", func(t *testing.T) {
		bin := append(append([]byte{}, minimal...),
			SectionIDExport, 9, 2, 1, 'f', 0x00, 0, 1, 'f', 0x00, 0)
		_, err := DecodeModule(bin)
		require.ErrorContains(t, err, "multiple exports with the same name")
	})

	t.Run("non-function exports are skipped", func(t *testing.T) {
		// A memory export alongside the memory section.
		bin := append(append([]byte{}, minimal...),
			SectionIDMemory, 3, 1, 0x00, 1,
			SectionIDExport, 5, 1, 1, 'm', 0x02, 0)
		m, err := DecodeModule(bin)
		require.NoError(t, err)
		require.Empty(t, m.ExportSection)
	})
}

func TestDecodeCode_MissingEnd(t *testing.T) {
	bin := append(append([]byte{}, minimal...),
		SectionIDType, 4, 1, 0x60, 0, 0,
		SectionIDFunction, 2, 1, 0,
		SectionIDCode, 4, 1, 2, 0, wasm.OpcodeNop)
	_, err := DecodeModule(bin)
	require.ErrorContains(t, err, "end")
}
