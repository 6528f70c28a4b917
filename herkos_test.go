package herkos

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/herkos-dev/herkos/fixture"
	"github.com/herkos-dev/herkos/wasm"
	"github.com/herkos-dev/herkos/wasm/binary"
)

// TestTranspile_Fixtures runs the whole pipeline end to end on every fixture
// binary and spot-checks the generated source.
func TestTranspile_Fixtures(t *testing.T) {
	for _, f := range fixture.All() {
		f := f
		t.Run(f.Name, func(t *testing.T) {
			bin := binary.EncodeModule(f.Module)

			src, err := Transpile(bin, WithLogger(zaptest.NewLogger(t)))
			require.NoError(t, err)
			require.Contains(t, string(src), "package wasmout\n")

			// Deterministic output: a second run is byte-identical.
			again, err := Transpile(bin)
			require.NoError(t, err)
			require.Equal(t, string(src), string(again))

			// Every export surfaces as some function wrapper.
			for name := range f.Module.ExportSection {
				require.Contains(t, string(src), "exported function \""+name+"\"")
			}
		})
	}
}

func TestTranspile_Options(t *testing.T) {
	bin := binary.EncodeModule(fixture.Memory().Module)

	src, err := Transpile(bin, WithPackageName("memdemo"), WithMaxPages(2))
	require.NoError(t, err)
	require.Contains(t, string(src), "package memdemo\n")
	require.Contains(t, string(src), "runtime.NewMemory(1, 2)")
}

func TestTranspile_DecodeError(t *testing.T) {
	_, err := Transpile([]byte{0x00, 0x61, 0x73, 0x00})
	require.ErrorContains(t, err, "decode module")
	require.ErrorIs(t, err, wasm.ErrInvalidMagicNumber)
}

func TestTranspile_FunctionError(t *testing.T) {
	// Two bodies that underflow the operand stack fail in the ir stage; both
	// failures are reported, not just the first.
	m := &wasm.Module{
		TypeSection:     []*wasm.FunctionType{{}},
		FunctionSection: []wasm.Index{0, 0},
		CodeSection: []*wasm.Code{
			{Body: []byte{wasm.OpcodeI32Add, wasm.OpcodeEnd}},
			{Body: []byte{wasm.OpcodeDrop, wasm.OpcodeEnd}},
		},
		ExportSection: map[string]*wasm.Export{"bad": {Name: "bad", Index: 0}},
	}
	_, err := Transpile(binary.EncodeModule(m))

	var fe *FunctionError
	require.ErrorAs(t, err, &fe)
	require.Equal(t, wasm.Index(0), fe.Index)
	require.Equal(t, "bad", fe.Name)
	require.ErrorContains(t, err, `function[0] "bad"`)
	require.ErrorContains(t, err, "function[1]")
}
