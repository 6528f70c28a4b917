package verify

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/herkos-dev/herkos/runtime"
)

// scriptedExec returns canned results per export name.
type scriptedExec struct {
	results map[string][]uint64
	errs    map[string]error
}

func (s *scriptedExec) Invoke(name string, args ...uint64) ([]uint64, error) {
	if err, ok := s.errs[name]; ok {
		return nil, err
	}
	return s.results[name], nil
}

func TestCheck(t *testing.T) {
	exec := &scriptedExec{
		results: map[string][]uint64{
			"ok":   {5},
			"none": nil,
		},
		errs: map[string]error{
			"traps": &runtime.Trap{Code: runtime.TrapCodeIntegerDivideByZero},
			"fails": errors.New("host failure"),
		},
	}

	t.Run("match", func(t *testing.T) {
		require.NoError(t, Check(exec, Case{Export: "ok", Want: []uint64{5}}))
	})

	t.Run("no results", func(t *testing.T) {
		require.NoError(t, Check(exec, Case{Export: "none"}))
	})

	t.Run("mismatch", func(t *testing.T) {
		err := Check(exec, Case{Export: "ok", Args: []uint64{1, 2}, Want: []uint64{6}})
		require.ErrorContains(t, err, "result mismatch")
		// The derived name identifies the failing invocation.
		require.ErrorContains(t, err, "ok(1,2)")
	})

	t.Run("named case", func(t *testing.T) {
		err := Check(exec, Case{Name: "golden five", Export: "ok", Want: []uint64{6}})
		require.ErrorContains(t, err, "golden five")
	})

	t.Run("expected trap", func(t *testing.T) {
		require.NoError(t, Check(exec, Case{Export: "traps", Trap: Traps(runtime.TrapCodeIntegerDivideByZero)}))
	})

	t.Run("wrong trap code", func(t *testing.T) {
		err := Check(exec, Case{Export: "traps", Trap: Traps(runtime.TrapCodeIntegerOverflow)})
		require.ErrorContains(t, err, "integer overflow")
		require.ErrorContains(t, err, "integer divide by zero")
	})

	t.Run("trap expected but none raised", func(t *testing.T) {
		err := Check(exec, Case{Export: "ok", Trap: Traps(runtime.TrapCodeUnreachable)})
		require.ErrorContains(t, err, "expected trap")
	})

	t.Run("unexpected failure", func(t *testing.T) {
		err := Check(exec, Case{Export: "fails"})
		require.ErrorContains(t, err, "host failure")
	})
}

func TestRun_CollectsAllFailures(t *testing.T) {
	exec := &scriptedExec{results: map[string][]uint64{"ok": {5}}}

	err := Run(exec, []Case{
		{Export: "ok", Want: []uint64{5}},
		{Name: "first failure", Export: "ok", Want: []uint64{1}},
		{Name: "second failure", Export: "ok", Want: []uint64{2}},
	})
	require.ErrorContains(t, err, "first failure")
	require.ErrorContains(t, err, "second failure")

	require.NoError(t, Run(exec, []Case{{Export: "ok", Want: []uint64{5}}}))
}

func TestPacking(t *testing.T) {
	require.Equal(t, uint64(0xffffffff), I32(-1))
	require.Equal(t, uint64(7), I32(7))
	require.Equal(t, uint64(0xffffffffffffffff), I64(-1))
}
