// Package interp executes the structured form of a module directly. It is
// the reference for the translation: the generated Go code and this
// interpreter must agree on every result and every trap, which is what the
// verifier checks.
package interp

import (
	"fmt"
	"math/bits"

	"github.com/herkos-dev/herkos/ir"
	"github.com/herkos-dev/herkos/runtime"
	"github.com/herkos-dev/herkos/wasm"
)

// callStackCeiling bounds recursion so a runaway module returns an error
// instead of exhausting the goroutine stack.
const callStackCeiling = 2048

// ErrCallStackExhausted is returned when a module recurses past
// callStackCeiling.
var ErrCallStackExhausted = fmt.Errorf("call stack exhausted")

// Machine is one instantiation of a module: its structured functions plus a
// linear memory initialized from the data segments. Values cross the API as
// raw bits in uint64: an i32 occupies the low 32 bits zero-extended.
type Machine struct {
	m   *wasm.Module
	fns []*ir.Function
	mem *runtime.Memory

	callDepth int
}

// New instantiates m. maxPages caps memory growth the same way the generated
// code's NewMemory does; zero means the module's own maximum, or 256 pages
// when it declares none.
func New(m *wasm.Module, fns []*ir.Function, maxPages uint32) (*Machine, error) {
	if len(fns) != len(m.CodeSection) {
		return nil, fmt.Errorf("have %d structured functions for %d code entries", len(fns), len(m.CodeSection))
	}
	if maxPages == 0 {
		maxPages = 256
	}

	machine := &Machine{m: m, fns: fns}
	if mt := m.MemorySection; mt != nil {
		if mt.Max != nil && *mt.Max < maxPages {
			maxPages = *mt.Max
		}
		machine.mem = runtime.NewMemory(mt.Min, maxPages)
		for _, seg := range m.DataSection {
			if err := machine.mem.Initialize(seg.Offset, seg.Init); err != nil {
				return nil, fmt.Errorf("data segment at offset %d: %w", seg.Offset, err)
			}
		}
	}
	return machine, nil
}

// Memory exposes the instance's linear memory, nil when the module declares
// none.
func (machine *Machine) Memory() *runtime.Memory { return machine.mem }

// Invoke calls the export by name. Args and results are raw bits per value.
func (machine *Machine) Invoke(name string, args ...uint64) ([]uint64, error) {
	e, ok := machine.m.ExportedFunction(name)
	if !ok {
		return nil, fmt.Errorf("%q is not an exported function", name)
	}
	sig, err := machine.m.TypeOfFunction(e.Index)
	if err != nil {
		return nil, err
	}
	if len(args) != len(sig.Params) {
		return nil, fmt.Errorf("%q expects %d arguments, got %d", name, len(sig.Params), len(args))
	}
	return machine.invoke(e.Index, args)
}

func (machine *Machine) invoke(index wasm.Index, args []uint64) ([]uint64, error) {
	if machine.callDepth >= callStackCeiling {
		return nil, ErrCallStackExhausted
	}
	machine.callDepth++
	defer func() { machine.callDepth-- }()

	fn := machine.fns[index]
	f := &frame{
		fn:        fn,
		locals:    make([]uint64, len(fn.LocalTypes)),
		vars:      make([]uint64, len(fn.VarTypes)),
		labelVars: make(map[ir.LabelID][]ir.VarID),
	}
	copy(f.locals, args)

	c, err := machine.exec(f, fn.Body)
	if err != nil {
		return nil, err
	}
	if c.kind != ctrlReturn {
		return nil, fmt.Errorf("function %d finished without returning", index)
	}
	return f.results, nil
}

// frame is the state of one function activation.
type frame struct {
	fn        *ir.Function
	locals    []uint64
	vars      []uint64
	labelVars map[ir.LabelID][]ir.VarID
	results   []uint64
}

type ctrlKind byte

const (
	// ctrlNext falls through to the following statement.
	ctrlNext ctrlKind = iota
	// ctrlBr unwinds to the structure carrying the label.
	ctrlBr
	// ctrlReturn unwinds the whole frame; results are already set.
	ctrlReturn
)

type ctrl struct {
	kind   ctrlKind
	label  ir.LabelID
	isLoop bool
}

var next = ctrl{kind: ctrlNext}

// exec runs a statement list until it falls through, branches outward or
// returns.
func (machine *Machine) exec(f *frame, list []ir.Stmt) (ctrl, error) {
	for _, s := range list {
		c, err := machine.step(f, s)
		if err != nil {
			return next, err
		}
		if c.kind != ctrlNext {
			return c, nil
		}
	}
	return next, nil
}

func (machine *Machine) step(f *frame, s ir.Stmt) (ctrl, error) {
	switch s := s.(type) {
	case *ir.Const:
		f.vars[s.Dest] = s.Bits
	case *ir.LocalGet:
		f.vars[s.Dest] = f.locals[s.Local]
	case *ir.LocalSet:
		f.locals[s.Local] = f.vars[s.Src]
	case *ir.Assign:
		f.vars[s.Dest] = f.vars[s.Src]
	case *ir.Binary:
		if err := machine.binary(f, s); err != nil {
			return next, err
		}
	case *ir.Compare:
		f.vars[s.Dest] = compare(s, f.vars[s.LHS], f.vars[s.RHS])
	case *ir.Unary:
		f.vars[s.Dest] = unary(s, f.vars[s.Operand])
	case *ir.Select:
		if uint32(f.vars[s.Cond]) != 0 {
			f.vars[s.Dest] = f.vars[s.Then]
		} else {
			f.vars[s.Dest] = f.vars[s.Else]
		}
	case *ir.Call:
		args := make([]uint64, len(s.Args))
		for i, a := range s.Args {
			args[i] = f.vars[a]
		}
		results, err := machine.invoke(s.Func, args)
		if err != nil {
			return next, err
		}
		for i, d := range s.Dests {
			f.vars[d] = results[i]
		}
	case *ir.MemoryLoad:
		v, err := machine.load(s, uint32(f.vars[s.Base]))
		if err != nil {
			return next, err
		}
		f.vars[s.Dest] = v
	case *ir.MemoryStore:
		if err := machine.store(s, uint32(f.vars[s.Base]), f.vars[s.Src]); err != nil {
			return next, err
		}
	case *ir.MemorySize:
		f.vars[s.Dest] = uint64(machine.mem.Pages())
	case *ir.MemoryGrow:
		f.vars[s.Dest] = uint64(uint32(machine.mem.Grow(uint32(f.vars[s.Delta]))))
	case *ir.Block:
		f.labelVars[s.Label] = s.ResultVars
		c, err := machine.exec(f, s.Body)
		if err != nil {
			return next, err
		}
		if c.kind == ctrlBr && c.label == s.Label {
			return next, nil
		}
		return c, nil
	case *ir.Loop:
		f.labelVars[s.Label] = s.ParamVars
		for {
			c, err := machine.exec(f, s.Body)
			if err != nil {
				return next, err
			}
			if c.kind == ctrlBr && c.label == s.Label && c.isLoop {
				continue
			}
			if c.kind == ctrlBr && c.label == s.Label {
				return next, nil
			}
			return c, nil
		}
	case *ir.If:
		f.labelVars[s.Label] = s.ResultVars
		arm := s.Then
		if uint32(f.vars[s.Cond]) == 0 {
			arm = s.Else
		}
		c, err := machine.exec(f, arm)
		if err != nil {
			return next, err
		}
		if c.kind == ctrlBr && c.label == s.Label {
			return next, nil
		}
		return c, nil
	case *ir.Branch:
		if s.Cond != ir.NoVar && uint32(f.vars[s.Cond]) == 0 {
			return next, nil
		}
		return machine.takeBranch(f, s.Target, s.Values), nil
	case *ir.BranchTable:
		target := s.Default
		if i := uint32(f.vars[s.Index]); i < uint32(len(s.Targets)) {
			target = s.Targets[i]
		}
		return machine.takeBranch(f, target, s.Values), nil
	case *ir.Return:
		f.results = make([]uint64, len(s.Values))
		for i, v := range s.Values {
			f.results[i] = f.vars[v]
		}
		return ctrl{kind: ctrlReturn}, nil
	case *ir.Unreachable:
		return next, runtime.TrapUnreachable()
	default:
		return next, fmt.Errorf("unhandled statement %T", s)
	}
	return next, nil
}

// takeBranch fills the target's slots and produces the unwinding control.
func (machine *Machine) takeBranch(f *frame, t ir.BranchTarget, values []ir.VarID) ctrl {
	if t.Return {
		f.results = make([]uint64, len(values))
		for i, v := range values {
			f.results[i] = f.vars[v]
		}
		return ctrl{kind: ctrlReturn}
	}
	for i, dst := range f.labelVars[t.Label] {
		f.vars[dst] = f.vars[values[i]]
	}
	return ctrl{kind: ctrlBr, label: t.Label, isLoop: t.IsLoop}
}

func (machine *Machine) binary(f *frame, s *ir.Binary) error {
	x, y := f.vars[s.LHS], f.vars[s.RHS]
	if s.Type == wasm.ValueTypeI32 {
		v, err := binary32(s.Op, uint32(x), uint32(y))
		if err != nil {
			return err
		}
		f.vars[s.Dest] = uint64(v)
		return nil
	}
	v, err := binary64(s.Op, x, y)
	if err != nil {
		return err
	}
	f.vars[s.Dest] = v
	return nil
}

func binary32(op ir.BinOp, x, y uint32) (uint32, error) {
	switch op {
	case ir.BinOpAdd:
		return x + y, nil
	case ir.BinOpSub:
		return x - y, nil
	case ir.BinOpMul:
		return x * y, nil
	case ir.BinOpDivS:
		v, err := runtime.DivS(int32(x), int32(y))
		return uint32(v), err
	case ir.BinOpDivU:
		return runtime.DivU(x, y)
	case ir.BinOpRemS:
		v, err := runtime.RemS(int32(x), int32(y))
		return uint32(v), err
	case ir.BinOpRemU:
		return runtime.RemU(x, y)
	case ir.BinOpAnd:
		return x & y, nil
	case ir.BinOpOr:
		return x | y, nil
	case ir.BinOpXor:
		return x ^ y, nil
	case ir.BinOpShl:
		return x << (y & 31), nil
	case ir.BinOpShrS:
		return uint32(int32(x) >> (y & 31)), nil
	case ir.BinOpShrU:
		return x >> (y & 31), nil
	case ir.BinOpRotl:
		return bits.RotateLeft32(x, int(y)), nil
	case ir.BinOpRotr:
		return bits.RotateLeft32(x, -int(y)), nil
	}
	return 0, fmt.Errorf("unhandled binary op %d", op)
}

func binary64(op ir.BinOp, x, y uint64) (uint64, error) {
	switch op {
	case ir.BinOpAdd:
		return x + y, nil
	case ir.BinOpSub:
		return x - y, nil
	case ir.BinOpMul:
		return x * y, nil
	case ir.BinOpDivS:
		v, err := runtime.DivS64(int64(x), int64(y))
		return uint64(v), err
	case ir.BinOpDivU:
		return runtime.DivU64(x, y)
	case ir.BinOpRemS:
		v, err := runtime.RemS64(int64(x), int64(y))
		return uint64(v), err
	case ir.BinOpRemU:
		return runtime.RemU64(x, y)
	case ir.BinOpAnd:
		return x & y, nil
	case ir.BinOpOr:
		return x | y, nil
	case ir.BinOpXor:
		return x ^ y, nil
	case ir.BinOpShl:
		return x << (y & 63), nil
	case ir.BinOpShrS:
		return uint64(int64(x) >> (y & 63)), nil
	case ir.BinOpShrU:
		return x >> (y & 63), nil
	case ir.BinOpRotl:
		return bits.RotateLeft64(x, int(y)), nil
	case ir.BinOpRotr:
		return bits.RotateLeft64(x, -int(y)), nil
	}
	return 0, fmt.Errorf("unhandled binary op %d", op)
}

func compare(s *ir.Compare, x, y uint64) uint64 {
	var b bool
	if s.Type == wasm.ValueTypeI32 {
		b = compare32(s.Op, uint32(x), uint32(y))
	} else {
		b = compare64(s.Op, x, y)
	}
	if b {
		return 1
	}
	return 0
}

func compare32(op ir.CmpOp, x, y uint32) bool {
	sx, sy := int32(x), int32(y)
	switch op {
	case ir.CmpOpEq:
		return x == y
	case ir.CmpOpNe:
		return x != y
	case ir.CmpOpLtS:
		return sx < sy
	case ir.CmpOpLtU:
		return x < y
	case ir.CmpOpGtS:
		return sx > sy
	case ir.CmpOpGtU:
		return x > y
	case ir.CmpOpLeS:
		return sx <= sy
	case ir.CmpOpLeU:
		return x <= y
	case ir.CmpOpGeS:
		return sx >= sy
	default:
		return x >= y
	}
}

func compare64(op ir.CmpOp, x, y uint64) bool {
	sx, sy := int64(x), int64(y)
	switch op {
	case ir.CmpOpEq:
		return x == y
	case ir.CmpOpNe:
		return x != y
	case ir.CmpOpLtS:
		return sx < sy
	case ir.CmpOpLtU:
		return x < y
	case ir.CmpOpGtS:
		return sx > sy
	case ir.CmpOpGtU:
		return x > y
	case ir.CmpOpLeS:
		return sx <= sy
	case ir.CmpOpLeU:
		return x <= y
	case ir.CmpOpGeS:
		return sx >= sy
	default:
		return x >= y
	}
}

func unary(s *ir.Unary, x uint64) uint64 {
	if s.Type == wasm.ValueTypeI32 {
		v := uint32(x)
		switch s.Op {
		case ir.UnOpClz:
			return uint64(bits.LeadingZeros32(v))
		case ir.UnOpCtz:
			return uint64(bits.TrailingZeros32(v))
		case ir.UnOpPopcnt:
			return uint64(bits.OnesCount32(v))
		case ir.UnOpEqz:
			if v == 0 {
				return 1
			}
			return 0
		case ir.UnOpExtendI32S:
			return uint64(int64(int32(v)))
		case ir.UnOpExtendI32U:
			return uint64(v)
		}
		return 0
	}
	switch s.Op {
	case ir.UnOpClz:
		return uint64(bits.LeadingZeros64(x))
	case ir.UnOpCtz:
		return uint64(bits.TrailingZeros64(x))
	case ir.UnOpPopcnt:
		return uint64(bits.OnesCount64(x))
	case ir.UnOpEqz:
		if x == 0 {
			return 1
		}
		return 0
	case ir.UnOpWrapI64:
		return uint64(uint32(x))
	}
	return 0
}

// load reads per the access shape: (base + offset) mod 2^32 is the effective
// address, and sub-word values extend per the signedness of the opcode.
func (machine *Machine) load(s *ir.MemoryLoad, base uint32) (uint64, error) {
	addr := base + s.Offset
	switch s.Width {
	case 1:
		v, err := machine.mem.ReadUint8(addr)
		if err != nil {
			return 0, err
		}
		if s.Signed {
			return extend(int64(int8(v)), s.Type), nil
		}
		return uint64(v), nil
	case 2:
		v, err := machine.mem.ReadUint16(addr)
		if err != nil {
			return 0, err
		}
		if s.Signed {
			return extend(int64(int16(v)), s.Type), nil
		}
		return uint64(v), nil
	case 4:
		v, err := machine.mem.ReadUint32(addr)
		if err != nil {
			return 0, err
		}
		if s.Signed && s.Type == wasm.ValueTypeI64 {
			return uint64(int64(int32(v))), nil
		}
		return uint64(v), nil
	default:
		return machine.mem.ReadUint64(addr)
	}
}

// extend produces the raw bits of a sign-extended sub-word load, masked back
// to 32 bits for an i32 destination.
func extend(signed int64, t wasm.ValueType) uint64 {
	if t == wasm.ValueTypeI32 {
		return uint64(uint32(signed))
	}
	return uint64(signed)
}

func (machine *Machine) store(s *ir.MemoryStore, base uint32, v uint64) error {
	addr := base + s.Offset
	switch s.Width {
	case 1:
		return machine.mem.WriteUint8(addr, byte(v))
	case 2:
		return machine.mem.WriteUint16(addr, uint16(v))
	case 4:
		return machine.mem.WriteUint32(addr, uint32(v))
	default:
		return machine.mem.WriteUint64(addr, v)
	}
}
