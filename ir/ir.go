// Package ir reconstructs structured control flow and explicit operand
// binding from the flat, stack-based instruction stream of a decoded module.
//
// Each function body becomes a tree of statements: value-producing
// instructions assign numbered temporaries (the implicit operand stack made
// explicit), and control instructions become nested Block/Loop/If nodes with
// Branch edges resolved to label identifiers. The tree is immutable once
// built and owned by its Function.
package ir

import (
	"github.com/herkos-dev/herkos/wasm"
)

// VarID identifies one function-scoped temporary. Every value an instruction
// would have pushed on the operand stack is bound to exactly one VarID.
type VarID = uint32

// NoVar marks an absent variable reference, e.g. the condition of an
// unconditional branch.
const NoVar VarID = 0xffffffff

// LabelID identifies one Block/Loop/If structure within a function, the
// resolution of a branch's relative depth.
type LabelID = uint32

// BinOp is a two-operand integer operation. Operand and result share one
// width; unsigned variants reinterpret the bit patterns at the operation.
type BinOp byte

const (
	BinOpAdd BinOp = iota
	BinOpSub
	BinOpMul
	BinOpDivS
	BinOpDivU
	BinOpRemS
	BinOpRemU
	BinOpAnd
	BinOpOr
	BinOpXor
	BinOpShl
	BinOpShrS
	BinOpShrU
	BinOpRotl
	BinOpRotr
)

// CmpOp is a two-operand comparison producing a 0/1 i32 result.
type CmpOp byte

const (
	CmpOpEq CmpOp = iota
	CmpOpNe
	CmpOpLtS
	CmpOpLtU
	CmpOpGtS
	CmpOpGtU
	CmpOpLeS
	CmpOpLeU
	CmpOpGeS
	CmpOpGeU
)

// UnOp is a single-operand operation.
type UnOp byte

const (
	UnOpClz UnOp = iota
	UnOpCtz
	UnOpPopcnt
	// UnOpEqz produces an i32 regardless of operand width.
	UnOpEqz
	// UnOpWrapI64 truncates an i64 to i32.
	UnOpWrapI64
	// UnOpExtendI32S/U widen an i32 to i64 with sign/zero extension.
	UnOpExtendI32S
	UnOpExtendI32U
)

// Stmt is one node of a function body tree.
type Stmt interface {
	stmt()
}

// Const binds a literal to a temporary. Bits holds the raw pattern; for i32
// only the low 32 bits are meaningful.
type Const struct {
	Dest VarID
	Type wasm.ValueType
	Bits uint64
}

// LocalGet copies the current value of a local (parameter or declared local)
// into a temporary. The copy pins the value at read time: later writes to the
// local cannot be observed through Dest.
type LocalGet struct {
	Dest  VarID
	Local uint32
	Type  wasm.ValueType
}

// LocalSet stores a temporary into a local slot.
type LocalSet struct {
	Local uint32
	Src   VarID
}

// Assign copies one temporary to another; used to merge branch and
// fallthrough values into a label's result slots.
type Assign struct {
	Dest, Src VarID
	Type      wasm.ValueType
}

// Binary applies Op at the width of Type to two temporaries.
type Binary struct {
	Dest     VarID
	Op       BinOp
	Type     wasm.ValueType
	LHS, RHS VarID
}

// Compare applies Op to two temporaries of Type, producing an i32 0/1.
type Compare struct {
	Dest     VarID
	Op       CmpOp
	Type     wasm.ValueType
	LHS, RHS VarID
}

// Unary applies Op to one temporary. Type is the operand type; the result
// type follows from Op (e.g. UnOpEqz always yields i32).
type Unary struct {
	Dest    VarID
	Op      UnOp
	Type    wasm.ValueType
	Operand VarID
}

// Select picks Then when Cond is non-zero, Else otherwise. Both alternatives
// are already evaluated, matching the eager semantics of `select`.
type Select struct {
	Dest             VarID
	Type             wasm.ValueType
	Cond, Then, Else VarID
}

// Call invokes another function in the module. Dests receives the callee's
// results in order; a trap in the callee aborts the caller too.
type Call struct {
	Dests []VarID
	Func  wasm.Index
	Args  []VarID
}

// MemoryLoad reads Width bytes at the effective address
// (Base + Offset) mod 2^32 from linear memory, little-endian, extending
// sub-word values to Type per Signed. The bounds condition
// effective+Width <= memory size is checked before any byte access.
type MemoryLoad struct {
	Dest   VarID
	Type   wasm.ValueType
	Width  byte
	Signed bool
	Base   VarID
	Offset uint32
}

// MemoryStore writes the low Width bytes of Src at the effective address
// (Base + Offset) mod 2^32, little-endian, after the same bounds check as
// MemoryLoad.
type MemoryStore struct {
	Width  byte
	Base   VarID
	Offset uint32
	Src    VarID
}

// MemorySize binds the current page count to a temporary.
type MemorySize struct {
	Dest VarID
}

// MemoryGrow attempts to extend memory by Delta pages, binding the previous
// page count, or -1 on failure, to Dest.
type MemoryGrow struct {
	Dest  VarID
	Delta VarID
}

// Block is a forward-branch target: branching to its label exits it with the
// label's arity worth of values bound to ResultVars.
type Block struct {
	Label      LabelID
	Results    []wasm.ValueType
	ResultVars []VarID
	Body       []Stmt
}

// Loop is a backward-branch target: branching to its label rebinds ParamVars
// and restarts the body. Falling off the end exits with Results bound to
// ResultVars.
type Loop struct {
	Label      LabelID
	Params     []wasm.ValueType
	ParamVars  []VarID
	Results    []wasm.ValueType
	ResultVars []VarID
	Body       []Stmt
}

// If evaluates Then when Cond is non-zero, Else otherwise. An `if` with no
// `else` in the source has an empty Else, which is only legal when the label
// arity is zero.
type If struct {
	Label      LabelID
	Cond       VarID
	Results    []wasm.ValueType
	ResultVars []VarID
	Then, Else []Stmt
}

// BranchTarget is a resolved branch destination.
type BranchTarget struct {
	// Return is true when the branch depth resolved to the function frame.
	Return bool
	// Label is the destination structure's label when Return is false.
	Label LabelID
	// IsLoop distinguishes restart-with-values (continue) from
	// exit-with-values (break) semantics.
	IsLoop bool
}

// Branch transfers control to Target, first assigning Values to the target
// label's parameter (loop) or result (block/if) slots. Cond is NoVar for an
// unconditional branch; otherwise the branch is taken when Cond is non-zero
// and execution falls through when it is zero.
type Branch struct {
	Target BranchTarget
	// Depth is the relative label depth from the source, kept for
	// diagnostics.
	Depth  uint32
	Values []VarID
	Cond   VarID
}

// BranchTable selects a target by Index: Targets[Index], or Default when
// Index is out of range. All targets share one arity, so one Values list
// serves every destination.
type BranchTable struct {
	Index   VarID
	Targets []BranchTarget
	Default BranchTarget
	Values  []VarID
}

// Return exits the function with Values as its results.
type Return struct {
	Values []VarID
}

// Unreachable aborts execution with an unconditional trap. Statements after
// it on the same straight-line path were discarded at build time.
type Unreachable struct{}

func (*Const) stmt()       {}
func (*LocalGet) stmt()    {}
func (*LocalSet) stmt()    {}
func (*Assign) stmt()      {}
func (*Binary) stmt()      {}
func (*Compare) stmt()     {}
func (*Unary) stmt()       {}
func (*Select) stmt()      {}
func (*Call) stmt()        {}
func (*MemoryLoad) stmt()  {}
func (*MemoryStore) stmt() {}
func (*MemorySize) stmt()  {}
func (*MemoryGrow) stmt()  {}
func (*Block) stmt()       {}
func (*Loop) stmt()        {}
func (*If) stmt()          {}
func (*Branch) stmt()      {}
func (*BranchTable) stmt() {}
func (*Return) stmt()      {}
func (*Unreachable) stmt() {}

// Function is the structured form of one function body.
type Function struct {
	// Index in the module's function index space.
	Index wasm.Index
	// Type is the function's signature.
	Type *wasm.FunctionType
	// LocalTypes holds parameter types followed by declared local types.
	LocalTypes []wasm.ValueType
	// NumParams is the number of leading LocalTypes that are parameters.
	NumParams int
	// Body is the statement tree.
	Body []Stmt
	// VarTypes assigns a value type to every temporary; len(VarTypes) is the
	// temp count.
	VarTypes []wasm.ValueType
	// LabelTargeted[l] is true when some Branch targets label l; untargeted
	// labels need no loop/label construct in generated code.
	LabelTargeted []bool
}

// NumLabels returns how many labels the function allocates.
func (f *Function) NumLabels() int { return len(f.LabelTargeted) }
