//go:build amd64 && cgo && !windows

// Wasmtime can only be used in amd64 with CGO.
package vs

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/bytecodealliance/wasmtime-go"
	"github.com/stretchr/testify/require"

	"github.com/herkos-dev/herkos/fixture"
	"github.com/herkos-dev/herkos/interp"
	"github.com/herkos-dev/herkos/ir"
	"github.com/herkos-dev/herkos/runtime"
	"github.com/herkos-dev/herkos/verify"
	"github.com/herkos-dev/herkos/wasm"
	"github.com/herkos-dev/herkos/wasm/binary"
)

// wasmtimeExecutor adapts a wasmtime instance to the verify.Executor seam, so
// the golden vectors that check the in-repo interpreter also run against an
// independent engine. Passing both ways pins the vectors to the specified
// semantics rather than to one implementation's quirks.
type wasmtimeExecutor struct {
	m        *wasm.Module
	store    *wasmtime.Store
	instance *wasmtime.Instance
}

func newWasmtimeExecutor(m *wasm.Module) (*wasmtimeExecutor, error) {
	store := wasmtime.NewStore(wasmtime.NewEngine())
	module, err := wasmtime.NewModule(store.Engine, binary.EncodeModule(m))
	if err != nil {
		return nil, err
	}
	instance, err := wasmtime.NewInstance(store, module, nil)
	if err != nil {
		return nil, err
	}
	return &wasmtimeExecutor{m: m, store: store, instance: instance}, nil
}

func (e *wasmtimeExecutor) Invoke(name string, args ...uint64) ([]uint64, error) {
	export, ok := e.m.ExportedFunction(name)
	if !ok {
		return nil, fmt.Errorf("%q is not an exported function", name)
	}
	sig, err := e.m.TypeOfFunction(export.Index)
	if err != nil {
		return nil, err
	}

	fn := e.instance.GetFunc(e.store, name)
	if fn == nil {
		return nil, fmt.Errorf("%q is not a function in the wasmtime instance", name)
	}

	typed := make([]interface{}, len(args))
	for i, a := range args {
		if sig.Params[i] == wasm.ValueTypeI64 {
			typed[i] = int64(a)
		} else {
			typed[i] = int32(uint32(a))
		}
	}

	res, err := fn.Call(e.store, typed...)
	if err != nil {
		return nil, translateTrap(err)
	}
	if len(sig.Results) == 0 {
		return nil, nil
	}
	switch v := res.(type) {
	case int32:
		return []uint64{uint64(uint32(v))}, nil
	case int64:
		return []uint64{uint64(v)}, nil
	default:
		return nil, fmt.Errorf("unexpected result type %T", res)
	}
}

// translateTrap maps a wasmtime trap onto the runtime trap type the vectors
// expect. Non-trap errors pass through unchanged.
func translateTrap(err error) error {
	var trap *wasmtime.Trap
	if !errors.As(err, &trap) {
		return err
	}
	msg := trap.Message()
	switch {
	case strings.Contains(msg, "divide by zero"):
		return &runtime.Trap{Code: runtime.TrapCodeIntegerDivideByZero}
	case strings.Contains(msg, "integer overflow"):
		return &runtime.Trap{Code: runtime.TrapCodeIntegerOverflow}
	case strings.Contains(msg, "out of bounds"):
		return &runtime.Trap{Code: runtime.TrapCodeMemoryOutOfBounds}
	case strings.Contains(msg, "unreachable"):
		return &runtime.Trap{Code: runtime.TrapCodeUnreachable}
	}
	return err
}

// TestWasmtime_GoldenVectors runs every fixture's vectors against wasmtime.
// Each fixture gets one instance; the vectors run in order so the memory
// cases observe earlier writes, same as against the interpreter.
func TestWasmtime_GoldenVectors(t *testing.T) {
	for _, f := range fixture.All() {
		f := f
		t.Run(f.Name, func(t *testing.T) {
			exec, err := newWasmtimeExecutor(f.Module)
			require.NoError(t, err)
			require.NoError(t, verify.Run(exec, f.Cases))
		})
	}
}

// BenchmarkFactorial_Invoke compares per-call cost of the interpreter and
// wasmtime on the same module.
func BenchmarkFactorial_Invoke(b *testing.B) {
	f := fixture.Loops()

	b.Run("interp", func(b *testing.B) {
		fns, err := ir.BuildModule(f.Module)
		if err != nil {
			b.Fatal(err)
		}
		machine, err := interp.New(f.Module, fns, 0)
		if err != nil {
			b.Fatal(err)
		}
		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			if _, err := machine.Invoke("factorial", 10); err != nil {
				b.Fatal(err)
			}
		}
	})

	b.Run("wasmtime", func(b *testing.B) {
		exec, err := newWasmtimeExecutor(f.Module)
		if err != nil {
			b.Fatal(err)
		}
		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			if _, err := exec.Invoke("factorial", 10); err != nil {
				b.Fatal(err)
			}
		}
	})
}
