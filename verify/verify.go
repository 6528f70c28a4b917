// Package verify checks an executable rendition of a module against golden
// vectors: expected results for chosen inputs, including expected traps.
//
// The Executor seam keeps the checker independent of how the module runs.
// The in-repo interpreter satisfies it directly; a harness that compiles and
// loads generated code can satisfy it with the compiled functions and run the
// same vectors.
package verify

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/multierr"

	"github.com/herkos-dev/herkos/runtime"
)

// Executor runs exported functions of one module instance. Values are raw
// bits per value: an i32 occupies the low 32 bits zero-extended.
//
// An Executor is stateful: linear memory persists across Invoke calls, and a
// vector sequence may rely on that (e.g. store, sort, then read back).
type Executor interface {
	Invoke(name string, args ...uint64) ([]uint64, error)
}

// Case is one golden vector. When Trap is nil the invocation must succeed
// with exactly Want; otherwise it must fail with a runtime trap of that code.
type Case struct {
	// Name labels the case in failure messages; empty derives one from the
	// export and arguments.
	Name   string
	Export string
	Args   []uint64
	Want   []uint64
	Trap   *runtime.TrapCode
}

func (c *Case) name() string {
	if c.Name != "" {
		return c.Name
	}
	args := make([]string, len(c.Args))
	for i, a := range c.Args {
		args[i] = fmt.Sprintf("%d", a)
	}
	return fmt.Sprintf("%s(%s)", c.Export, strings.Join(args, ","))
}

// Traps marks a case as expecting the given trap.
func Traps(code runtime.TrapCode) *runtime.TrapCode { return &code }

// I32 packs a signed 32-bit value into its raw-bits form.
func I32(v int32) uint64 { return uint64(uint32(v)) }

// I64 packs a signed 64-bit value into its raw-bits form.
func I64(v int64) uint64 { return uint64(v) }

// Check runs one case against exec.
func Check(exec Executor, c Case) error {
	got, err := exec.Invoke(c.Export, c.Args...)

	if c.Trap != nil {
		var trap *runtime.Trap
		if !errors.As(err, &trap) {
			return fmt.Errorf("%s: expected trap %q, got result %v, error %v", c.name(), c.Trap.String(), got, err)
		}
		if trap.Code != *c.Trap {
			return fmt.Errorf("%s: expected trap %q, got %q", c.name(), c.Trap.String(), trap.Code.String())
		}
		return nil
	}

	if err != nil {
		return fmt.Errorf("%s: %w", c.name(), err)
	}
	want := c.Want
	if want == nil {
		want = []uint64{}
	}
	if got == nil {
		got = []uint64{}
	}
	if diff := cmp.Diff(want, got); diff != "" {
		return fmt.Errorf("%s: result mismatch (-want +got):\n%s", c.name(), diff)
	}
	return nil
}

// Run checks every case in order against one executor instance, collecting
// all failures rather than stopping at the first.
func Run(exec Executor, cases []Case) error {
	var err error
	for _, c := range cases {
		err = multierr.Append(err, Check(exec, c))
	}
	return err
}
