package interp_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/herkos-dev/herkos/fixture"
	"github.com/herkos-dev/herkos/interp"
	"github.com/herkos-dev/herkos/ir"
	"github.com/herkos-dev/herkos/verify"
	"github.com/herkos-dev/herkos/wasm"
)

// TestFixtures runs every golden vector against the interpreter. Each fixture
// gets a fresh instance; its cases run in order so the memory vectors can
// observe earlier writes.
func TestFixtures(t *testing.T) {
	for _, f := range fixture.All() {
		f := f
		t.Run(f.Name, func(t *testing.T) {
			fns, err := ir.BuildModule(f.Module)
			require.NoError(t, err)

			machine, err := interp.New(f.Module, fns, 0)
			require.NoError(t, err)

			// The vectors run against one shared instance; Run reports every
			// failing case at once.
			require.NoError(t, verify.Run(machine, f.Cases))
		})
	}
}

func TestInvoke_Errors(t *testing.T) {
	f := fixture.Arith()
	fns, err := ir.BuildModule(f.Module)
	require.NoError(t, err)
	machine, err := interp.New(f.Module, fns, 0)
	require.NoError(t, err)

	_, err = machine.Invoke("no_such_export")
	require.ErrorContains(t, err, "not an exported function")

	_, err = machine.Invoke("add", 1)
	require.ErrorContains(t, err, "expects 2 arguments, got 1")
}

func TestInvoke_CallStackExhausted(t *testing.T) {
	// A function that calls itself unconditionally.
	m := &wasm.Module{
		TypeSection:     []*wasm.FunctionType{{}},
		FunctionSection: []wasm.Index{0},
		CodeSection:     []*wasm.Code{{Body: []byte{wasm.OpcodeCall, 0, wasm.OpcodeEnd}}},
		ExportSection:   map[string]*wasm.Export{"spin": {Name: "spin", Index: 0}},
	}
	fns, err := ir.BuildModule(m)
	require.NoError(t, err)
	machine, err := interp.New(m, fns, 0)
	require.NoError(t, err)

	_, err = machine.Invoke("spin")
	require.ErrorIs(t, err, interp.ErrCallStackExhausted)
}

func TestMemoryAccessor(t *testing.T) {
	arith := fixture.Arith()
	fns, err := ir.BuildModule(arith.Module)
	require.NoError(t, err)
	machine, err := interp.New(arith.Module, fns, 0)
	require.NoError(t, err)
	require.Nil(t, machine.Memory())

	mem := fixture.Memory()
	fns, err = ir.BuildModule(mem.Module)
	require.NoError(t, err)
	machine, err = interp.New(mem.Module, fns, 0)
	require.NoError(t, err)
	require.NotNil(t, machine.Memory())
	require.Equal(t, mem.Module.MemorySection.Min, machine.Memory().Pages())
}
