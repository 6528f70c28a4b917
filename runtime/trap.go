// Package runtime contains the support types that transpiled code links
// against: the bounds-checked linear memory and the trap error type.
//
// Nothing here is specific to one module; a Memory is created per execution
// and is exclusively owned by it.
package runtime

// TrapCode enumerates the runtime trap conditions the generated code can
// raise. Traps are part of the semantics being preserved: they abort the
// offending call with an explicit error, never with a wrong result or
// undefined state.
type TrapCode uint32

const (
	// TrapCodeUnreachable is raised when an `unreachable` instruction
	// executes.
	TrapCodeUnreachable TrapCode = iota
	// TrapCodeIntegerDivideByZero is raised by div/rem with a zero divisor.
	TrapCodeIntegerDivideByZero
	// TrapCodeIntegerOverflow is raised by signed division of the
	// most-negative value by -1.
	TrapCodeIntegerOverflow
	// TrapCodeMemoryOutOfBounds is raised by a load or store whose access
	// range extends past the current memory size.
	TrapCodeMemoryOutOfBounds
)

func (c TrapCode) String() string {
	switch c {
	case TrapCodeUnreachable:
		return "unreachable"
	case TrapCodeIntegerDivideByZero:
		return "integer divide by zero"
	case TrapCodeIntegerOverflow:
		return "integer overflow"
	case TrapCodeMemoryOutOfBounds:
		return "out of bounds memory access"
	}
	return "unknown trap"
}

// Trap is the error returned by generated functions when execution hits a
// trap condition. Callers distinguish it from ordinary errors with
// errors.As, and from a successful result by the error being non-nil.
type Trap struct {
	Code TrapCode
}

func (t *Trap) Error() string {
	return "wasm trap: " + t.Code.String()
}

var (
	trapUnreachable   = &Trap{Code: TrapCodeUnreachable}
	trapDivideByZero  = &Trap{Code: TrapCodeIntegerDivideByZero}
	trapOverflow      = &Trap{Code: TrapCodeIntegerOverflow}
	trapMemOutOfRange = &Trap{Code: TrapCodeMemoryOutOfBounds}
)

// TrapUnreachable returns the trap raised by the `unreachable` instruction.
func TrapUnreachable() error { return trapUnreachable }

// DivS returns x/y with WebAssembly i32.div_s semantics: a zero divisor and
// MinInt32/-1 both trap instead of wrapping or panicking.
func DivS(x, y int32) (int32, error) {
	if y == 0 {
		return 0, trapDivideByZero
	}
	if x == -1<<31 && y == -1 {
		return 0, trapOverflow
	}
	return x / y, nil
}

// DivU returns x/y on the unsigned reinterpretation of the operands.
func DivU(x, y uint32) (uint32, error) {
	if y == 0 {
		return 0, trapDivideByZero
	}
	return x / y, nil
}

// RemS returns x%y with i32.rem_s semantics. MinInt32 % -1 is 0, not a trap.
func RemS(x, y int32) (int32, error) {
	if y == 0 {
		return 0, trapDivideByZero
	}
	if x == -1<<31 && y == -1 {
		return 0, nil
	}
	return x % y, nil
}

// RemU returns x%y on the unsigned reinterpretation of the operands.
func RemU(x, y uint32) (uint32, error) {
	if y == 0 {
		return 0, trapDivideByZero
	}
	return x % y, nil
}

// DivS64 is DivS at 64-bit width.
func DivS64(x, y int64) (int64, error) {
	if y == 0 {
		return 0, trapDivideByZero
	}
	if x == -1<<63 && y == -1 {
		return 0, trapOverflow
	}
	return x / y, nil
}

// DivU64 is DivU at 64-bit width.
func DivU64(x, y uint64) (uint64, error) {
	if y == 0 {
		return 0, trapDivideByZero
	}
	return x / y, nil
}

// RemS64 is RemS at 64-bit width.
func RemS64(x, y int64) (int64, error) {
	if y == 0 {
		return 0, trapDivideByZero
	}
	if x == -1<<63 && y == -1 {
		return 0, nil
	}
	return x % y, nil
}

// RemU64 is RemU at 64-bit width.
func RemU64(x, y uint64) (uint64, error) {
	if y == 0 {
		return 0, trapDivideByZero
	}
	return x % y, nil
}
