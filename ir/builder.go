package ir

import (
	"bytes"
	"fmt"

	"github.com/herkos-dev/herkos/wasm"
	"github.com/herkos-dev/herkos/wasm/leb128"
)

// anyType relaxes an operand type check for the polymorphic instructions
// (drop, select).
const anyType wasm.ValueType = 0

type frameKind byte

const (
	// frameKindFunction is the implicit outermost frame; branching to its
	// depth returns from the function.
	frameKindFunction frameKind = iota
	frameKindBlock
	frameKindLoop
	// frameKindIfThen is an if frame currently collecting its then arm.
	frameKindIfThen
	// frameKindIfElse is an if frame collecting its else arm.
	frameKindIfElse
)

// frame tracks one open structure during the linear walk of a function body.
// It records the operand stack height at entry so underflow and leftover
// values can be detected per the validation rules, and accumulates the
// statements of the structure's (current) body.
type frame struct {
	kind             frameKind
	label            LabelID
	params, results  []wasm.ValueType
	paramVars        []VarID
	resultVars       []VarID
	height           int
	cond             VarID
	body             []Stmt
	// thenBody holds the finished then arm once an else is seen.
	thenBody []Stmt
}

type stackEntry struct {
	v VarID
	t wasm.ValueType
}

// builder translates one function body. It simulates the operand stack with
// typed temporary references so every implicit stack slot becomes an explicit
// VarID, and keeps a frame per open block/loop/if to nest statements and
// resolve branch depths.
//
// Unreachable code after br, br_table, return and unreachable is type-checked
// loosely per the validation rules: we skip it entirely, tracking only the
// block nesting depth so the matching end (or else) is found.
type builder struct {
	m          *wasm.Module
	sig        *wasm.FunctionType
	localTypes []wasm.ValueType
	br         *bytes.Reader

	stack  []stackEntry
	frames []*frame

	varTypes      []wasm.ValueType
	labelTargeted []bool

	unreachable      bool
	unreachableDepth int

	// fnBody receives the function frame's statements when it is popped.
	fnBody []Stmt
	done   bool
}

// BuildModule translates every function body of m. Function i of the result
// corresponds to CodeSection[i]. The first failing function aborts the build
// with its index in the error.
func BuildModule(m *wasm.Module) ([]*Function, error) {
	fns := make([]*Function, len(m.CodeSection))
	for i := range m.CodeSection {
		fn, err := BuildFunction(m, wasm.Index(i))
		if err != nil {
			return nil, fmt.Errorf("function[%d]: %w", i, err)
		}
		fns[i] = fn
	}
	return fns, nil
}

// BuildFunction translates the body of the function at idx into its
// structured form.
func BuildFunction(m *wasm.Module, idx wasm.Index) (*Function, error) {
	sig, err := m.TypeOfFunction(idx)
	if err != nil {
		return nil, err
	}
	code := m.CodeSection[idx]

	localTypes := make([]wasm.ValueType, 0, len(sig.Params)+len(code.LocalTypes))
	localTypes = append(localTypes, sig.Params...)
	localTypes = append(localTypes, code.LocalTypes...)

	b := &builder{
		m:          m,
		sig:        sig,
		localTypes: localTypes,
		br:         bytes.NewReader(code.Body),
	}
	// The function frame owns result slots like any other structure so the
	// implicit return at the final end reuses the closeArm machinery.
	fnFrame := &frame{kind: frameKindFunction, results: sig.Results}
	for _, t := range sig.Results {
		fnFrame.resultVars = append(fnFrame.resultVars, b.newVar(t))
	}
	b.frames = append(b.frames, fnFrame)

	if err := b.run(); err != nil {
		return nil, err
	}

	return &Function{
		Index:         idx,
		Type:          sig,
		LocalTypes:    localTypes,
		NumParams:     len(sig.Params),
		Body:          b.fnBody,
		VarTypes:      b.varTypes,
		LabelTargeted: b.labelTargeted,
	}, nil
}

func (b *builder) run() error {
	for !b.done {
		op, err := b.br.ReadByte()
		if err != nil {
			return fmt.Errorf("unexpected end of function body: %d control frames remain open", len(b.frames))
		}
		if b.unreachable {
			err = b.handleUnreachable(op)
		} else {
			err = b.handle(op)
		}
		if err != nil {
			return err
		}
	}
	if b.br.Len() != 0 {
		return fmt.Errorf("%d bytes remain after the final end opcode", b.br.Len())
	}
	return nil
}

// handleUnreachable consumes op's immediates without emitting anything,
// counting block nesting so the end (or else) that closes the dead region is
// recognized.
func (b *builder) handleUnreachable(op wasm.Opcode) error {
	switch op {
	case wasm.OpcodeBlock, wasm.OpcodeLoop, wasm.OpcodeIf:
		if _, _, err := b.readBlockType(); err != nil {
			return err
		}
		b.unreachableDepth++
		return nil
	case wasm.OpcodeElse:
		if b.unreachableDepth > 0 {
			return nil
		}
		// The then arm ended in dead code; the else arm starts reachable.
		return b.beginElse(true)
	case wasm.OpcodeEnd:
		if b.unreachableDepth > 0 {
			b.unreachableDepth--
			return nil
		}
		return b.endFrame(true)
	default:
		return b.skipImmediates(op)
	}
}

// skipImmediates advances past op's immediate operands.
func (b *builder) skipImmediates(op wasm.Opcode) error {
	var err error
	switch op {
	case wasm.OpcodeBr, wasm.OpcodeBrIf, wasm.OpcodeCall,
		wasm.OpcodeLocalGet, wasm.OpcodeLocalSet, wasm.OpcodeLocalTee:
		_, _, err = leb128.DecodeUint32(b.br)
	case wasm.OpcodeBrTable:
		var n uint32
		n, _, err = leb128.DecodeUint32(b.br)
		for i := uint32(0); err == nil && i <= n; i++ { // targets plus default
			_, _, err = leb128.DecodeUint32(b.br)
		}
	case wasm.OpcodeI32Const:
		_, _, err = leb128.DecodeInt32(b.br)
	case wasm.OpcodeI64Const:
		_, _, err = leb128.DecodeInt64(b.br)
	case wasm.OpcodeMemorySize, wasm.OpcodeMemoryGrow:
		_, err = b.br.ReadByte()
	default:
		if op >= wasm.OpcodeI32Load && op <= wasm.OpcodeI64Store32 {
			if _, _, err = leb128.DecodeUint32(b.br); err == nil {
				_, _, err = leb128.DecodeUint32(b.br)
			}
		} else if _, known := knownOpcode(op); !known {
			return fmt.Errorf("%w: instruction %s", wasm.ErrUnsupportedFeature, wasm.InstructionName(op))
		}
	}
	if err != nil {
		return fmt.Errorf("%s: read immediate: %w", wasm.InstructionName(op), err)
	}
	return nil
}

// knownOpcode reports whether op belongs to the supported subset. Immediates
// of unlisted ops cannot be skipped, so the dead-code scanner must reject
// them too.
func knownOpcode(op wasm.Opcode) (wasm.Opcode, bool) {
	switch {
	case op <= wasm.OpcodeCall && op != 0x06 && op != 0x07 && op != 0x08 && op != 0x09 && op != 0x0a,
		op == wasm.OpcodeDrop, op == wasm.OpcodeSelect,
		op >= wasm.OpcodeLocalGet && op <= wasm.OpcodeLocalTee,
		op >= wasm.OpcodeI32Load && op <= wasm.OpcodeI64Const && op != 0x2a && op != 0x2b && op != 0x38 && op != 0x39,
		op >= wasm.OpcodeI32Eqz && op <= wasm.OpcodeI64GeU,
		op >= wasm.OpcodeI32Clz && op <= wasm.OpcodeI64Rotr,
		op == wasm.OpcodeI32WrapI64, op == wasm.OpcodeI64ExtendI32S, op == wasm.OpcodeI64ExtendI32U:
		return op, true
	}
	return op, false
}

func (b *builder) handle(op wasm.Opcode) error {
	switch op {
	case wasm.OpcodeUnreachable:
		b.emit(&Unreachable{})
		b.markUnreachable()
		return nil
	case wasm.OpcodeNop:
		return nil
	case wasm.OpcodeBlock:
		return b.beginBlock(op, frameKindBlock)
	case wasm.OpcodeLoop:
		return b.beginBlock(op, frameKindLoop)
	case wasm.OpcodeIf:
		return b.beginBlock(op, frameKindIfThen)
	case wasm.OpcodeElse:
		return b.beginElse(false)
	case wasm.OpcodeEnd:
		return b.endFrame(false)
	case wasm.OpcodeBr:
		return b.branch(op)
	case wasm.OpcodeBrIf:
		return b.branch(op)
	case wasm.OpcodeBrTable:
		return b.branchTable()
	case wasm.OpcodeReturn:
		values, err := b.popValues(op, b.sig.Results)
		if err != nil {
			return err
		}
		b.emit(&Return{Values: values})
		b.markUnreachable()
		return nil
	case wasm.OpcodeCall:
		return b.call()
	case wasm.OpcodeDrop:
		// The value was already bound to a temporary; forgetting it is free.
		_, _, err := b.popAny(op)
		return err
	case wasm.OpcodeSelect:
		return b.selectOp()
	case wasm.OpcodeLocalGet, wasm.OpcodeLocalSet, wasm.OpcodeLocalTee:
		return b.local(op)
	case wasm.OpcodeMemorySize:
		if err := b.memoryIndex(op); err != nil {
			return err
		}
		dest := b.newVar(wasm.ValueTypeI32)
		b.emit(&MemorySize{Dest: dest})
		b.push(dest, wasm.ValueTypeI32)
		return nil
	case wasm.OpcodeMemoryGrow:
		if err := b.memoryIndex(op); err != nil {
			return err
		}
		delta, err := b.pop(op, wasm.ValueTypeI32)
		if err != nil {
			return err
		}
		dest := b.newVar(wasm.ValueTypeI32)
		b.emit(&MemoryGrow{Dest: dest, Delta: delta})
		b.push(dest, wasm.ValueTypeI32)
		return nil
	case wasm.OpcodeI32Const:
		v, _, err := leb128.DecodeInt32(b.br)
		if err != nil {
			return fmt.Errorf("i32.const: read immediate: %w", err)
		}
		dest := b.newVar(wasm.ValueTypeI32)
		b.emit(&Const{Dest: dest, Type: wasm.ValueTypeI32, Bits: uint64(uint32(v))})
		b.push(dest, wasm.ValueTypeI32)
		return nil
	case wasm.OpcodeI64Const:
		v, _, err := leb128.DecodeInt64(b.br)
		if err != nil {
			return fmt.Errorf("i64.const: read immediate: %w", err)
		}
		dest := b.newVar(wasm.ValueTypeI64)
		b.emit(&Const{Dest: dest, Type: wasm.ValueTypeI64, Bits: uint64(v)})
		b.push(dest, wasm.ValueTypeI64)
		return nil
	}

	if op >= wasm.OpcodeI32Load && op <= wasm.OpcodeI64Store32 {
		return b.memoryAccess(op)
	}
	return b.numeric(op)
}

// markUnreachable enters dead-code scanning until the enclosing frame's end
// or else.
func (b *builder) markUnreachable() {
	b.unreachable = true
	b.unreachableDepth = 0
}

func (b *builder) emit(s Stmt) {
	f := b.frames[len(b.frames)-1]
	f.body = append(f.body, s)
}

func (b *builder) newVar(t wasm.ValueType) VarID {
	v := VarID(len(b.varTypes))
	b.varTypes = append(b.varTypes, t)
	return v
}

func (b *builder) newLabel() LabelID {
	l := LabelID(len(b.labelTargeted))
	b.labelTargeted = append(b.labelTargeted, false)
	return l
}

func (b *builder) push(v VarID, t wasm.ValueType) {
	b.stack = append(b.stack, stackEntry{v: v, t: t})
}

// pop removes the top operand, checking its type unless expected is anyType.
// Underflow is relative to the current frame's entry height: a structure may
// not consume operands that belong to its parent.
func (b *builder) pop(op wasm.Opcode, expected wasm.ValueType) (VarID, error) {
	v, t, err := b.popAny(op)
	if err != nil {
		return 0, err
	}
	if expected != anyType && t != expected {
		return 0, fmt.Errorf("%s: type mismatch: expected %s, got %s",
			wasm.InstructionName(op), wasm.ValueTypeName(expected), wasm.ValueTypeName(t))
	}
	return v, nil
}

func (b *builder) popAny(op wasm.Opcode) (VarID, wasm.ValueType, error) {
	f := b.frames[len(b.frames)-1]
	if len(b.stack) <= f.height {
		return 0, 0, fmt.Errorf("%s: operand stack underflow", wasm.InstructionName(op))
	}
	e := b.stack[len(b.stack)-1]
	b.stack = b.stack[:len(b.stack)-1]
	return e.v, e.t, nil
}

// popValues removes len(types) operands, returning them in declaration order
// (deepest first).
func (b *builder) popValues(op wasm.Opcode, types []wasm.ValueType) ([]VarID, error) {
	values := make([]VarID, len(types))
	for i := len(types) - 1; i >= 0; i-- {
		v, err := b.pop(op, types[i])
		if err != nil {
			return nil, err
		}
		values[i] = v
	}
	return values, nil
}

// peekValues is popValues without consuming, for br_if whose fallthrough path
// keeps the operands.
func (b *builder) peekValues(op wasm.Opcode, types []wasm.ValueType) ([]VarID, error) {
	f := b.frames[len(b.frames)-1]
	if len(b.stack)-f.height < len(types) {
		return nil, fmt.Errorf("%s: operand stack underflow", wasm.InstructionName(op))
	}
	values := make([]VarID, len(types))
	for i := range types {
		e := b.stack[len(b.stack)-len(types)+i]
		if e.t != types[i] {
			return nil, fmt.Errorf("%s: type mismatch: expected %s, got %s",
				wasm.InstructionName(op), wasm.ValueTypeName(types[i]), wasm.ValueTypeName(e.t))
		}
		values[i] = e.v
	}
	return values, nil
}

// readBlockType decodes a blocktype immediate: 0x40 for empty, a value type
// for one result. Type-index block types are a multi-value extension and
// rejected.
// See https://www.w3.org/TR/wasm-core-1/#binary-blocktype
func (b *builder) readBlockType() (params, results []wasm.ValueType, err error) {
	raw, _, err := leb128.DecodeInt33AsInt64(b.br)
	if err != nil {
		return nil, nil, fmt.Errorf("read block type: %w", err)
	}
	switch raw {
	case -64: // 0x40 in the signed 7-bit encoding
		return nil, nil, nil
	case -1:
		return nil, []wasm.ValueType{wasm.ValueTypeI32}, nil
	case -2:
		return nil, []wasm.ValueType{wasm.ValueTypeI64}, nil
	case -3, -4:
		return nil, nil, fmt.Errorf("%w: floating-point block type", wasm.ErrUnsupportedFeature)
	default:
		if raw >= 0 {
			return nil, nil, fmt.Errorf("%w: type-index block type %d", wasm.ErrUnsupportedFeature, raw)
		}
		return nil, nil, fmt.Errorf("invalid block type: %d", raw)
	}
}

func (b *builder) beginBlock(op wasm.Opcode, kind frameKind) error {
	params, results, err := b.readBlockType()
	if err != nil {
		return fmt.Errorf("%s: %w", wasm.InstructionName(op), err)
	}

	var cond VarID = NoVar
	if kind == frameKindIfThen {
		if cond, err = b.pop(op, wasm.ValueTypeI32); err != nil {
			return err
		}
	}

	// Block parameters are re-bound to fresh slots so a branch back to a loop
	// header can rewrite them.
	args, err := b.popValues(op, params)
	if err != nil {
		return err
	}
	paramVars := make([]VarID, len(params))
	for i, t := range params {
		paramVars[i] = b.newVar(t)
		b.emit(&Assign{Dest: paramVars[i], Src: args[i], Type: t})
	}
	resultVars := make([]VarID, len(results))
	for i, t := range results {
		resultVars[i] = b.newVar(t)
	}

	f := &frame{
		kind:       kind,
		label:      b.newLabel(),
		params:     params,
		results:    results,
		paramVars:  paramVars,
		resultVars: resultVars,
		height:     len(b.stack),
		cond:       cond,
	}
	b.frames = append(b.frames, f)
	for i, t := range params {
		b.push(paramVars[i], t)
	}
	return nil
}

// beginElse switches the open if frame from its then arm to its else arm.
// When the then arm was reachable at the else, its result values must be on
// the stack and are moved into the frame's result slots.
func (b *builder) beginElse(fromUnreachable bool) error {
	f := b.frames[len(b.frames)-1]
	if f.kind != frameKindIfThen {
		return fmt.Errorf("else found outside an if block")
	}
	if !fromUnreachable {
		if err := b.closeArm(f, wasm.OpcodeElse); err != nil {
			return err
		}
	}
	b.stack = b.stack[:f.height]
	f.kind = frameKindIfElse
	f.thenBody = f.body
	f.body = nil
	b.unreachable = false
	b.unreachableDepth = 0
	for i, t := range f.params {
		b.push(f.paramVars[i], t)
	}
	return nil
}

// closeArm checks that exactly the frame's results remain above its entry
// height and copies them into the result slots.
func (b *builder) closeArm(f *frame, op wasm.Opcode) error {
	if got := len(b.stack) - f.height; got != len(f.results) {
		return fmt.Errorf("%s: expected %d values on the stack, found %d",
			wasm.InstructionName(op), len(f.results), got)
	}
	for i, t := range f.results {
		e := b.stack[f.height+i]
		if e.t != t {
			return fmt.Errorf("%s: type mismatch on result %d: expected %s, got %s",
				wasm.InstructionName(op), i, wasm.ValueTypeName(t), wasm.ValueTypeName(e.t))
		}
		b.emit(&Assign{Dest: f.resultVars[i], Src: e.v, Type: t})
	}
	return nil
}

// endFrame closes the innermost structure and appends its node to the parent.
func (b *builder) endFrame(fromUnreachable bool) error {
	f := b.frames[len(b.frames)-1]
	if !fromUnreachable {
		if err := b.closeArm(f, wasm.OpcodeEnd); err != nil {
			return err
		}
	}
	b.frames = b.frames[:len(b.frames)-1]
	b.stack = b.stack[:f.height]
	b.unreachable = false
	b.unreachableDepth = 0

	switch f.kind {
	case frameKindFunction:
		if !fromUnreachable {
			// The copies emitted by closeArm feed the implicit return.
			f.body = append(f.body, &Return{Values: f.resultVars})
		}
		b.fnBody = f.body
		b.done = true
		return nil
	case frameKindBlock:
		b.emit(&Block{Label: f.label, Results: f.results, ResultVars: f.resultVars, Body: f.body})
	case frameKindLoop:
		b.emit(&Loop{
			Label: f.label, Params: f.params, ParamVars: f.paramVars,
			Results: f.results, ResultVars: f.resultVars, Body: f.body,
		})
	case frameKindIfThen:
		if len(f.results) != 0 {
			return fmt.Errorf("if without else cannot produce a value")
		}
		b.emit(&If{Label: f.label, Cond: f.cond, Then: f.body})
	case frameKindIfElse:
		b.emit(&If{
			Label: f.label, Cond: f.cond, Results: f.results, ResultVars: f.resultVars,
			Then: f.thenBody, Else: f.body,
		})
	}
	for i, t := range f.results {
		b.push(f.resultVars[i], t)
	}
	return nil
}

// resolveTarget maps a relative branch depth to its destination frame.
// Depth 0 is the innermost structure; the function frame is the outermost
// valid depth and branching to it returns.
func (b *builder) resolveTarget(op wasm.Opcode, depth uint32) (*frame, BranchTarget, error) {
	if int(depth) >= len(b.frames) {
		return nil, BranchTarget{}, fmt.Errorf("%s: invalid depth %d with %d open frames",
			wasm.InstructionName(op), depth, len(b.frames))
	}
	f := b.frames[len(b.frames)-1-int(depth)]
	if f.kind == frameKindFunction {
		return f, BranchTarget{Return: true}, nil
	}
	b.labelTargeted[f.label] = true
	return f, BranchTarget{Label: f.label, IsLoop: f.kind == frameKindLoop}, nil
}

// branchArity returns the types a branch to f must carry: a loop re-binds its
// parameters, every other target receives its results.
func (b *builder) branchArity(f *frame) []wasm.ValueType {
	if f.kind == frameKindLoop {
		return f.params
	}
	return f.results
}

func (b *builder) branch(op wasm.Opcode) error {
	depth, _, err := leb128.DecodeUint32(b.br)
	if err != nil {
		return fmt.Errorf("%s: read depth: %w", wasm.InstructionName(op), err)
	}

	var cond VarID = NoVar
	if op == wasm.OpcodeBrIf {
		if cond, err = b.pop(op, wasm.ValueTypeI32); err != nil {
			return err
		}
	}

	f, target, err := b.resolveTarget(op, depth)
	if err != nil {
		return err
	}
	arity := b.branchArity(f)

	var values []VarID
	if op == wasm.OpcodeBrIf {
		// The fallthrough path still needs the operands.
		values, err = b.peekValues(op, arity)
	} else {
		values, err = b.popValues(op, arity)
	}
	if err != nil {
		return err
	}

	b.emit(&Branch{Target: target, Depth: depth, Values: values, Cond: cond})
	if op == wasm.OpcodeBr {
		b.markUnreachable()
	}
	return nil
}

func (b *builder) branchTable() error {
	const op = wasm.OpcodeBrTable
	n, _, err := leb128.DecodeUint32(b.br)
	if err != nil {
		return fmt.Errorf("br_table: read target count: %w", err)
	}
	depths := make([]uint32, n+1) // targets plus the default
	for i := range depths {
		if depths[i], _, err = leb128.DecodeUint32(b.br); err != nil {
			return fmt.Errorf("br_table: read target %d: %w", i, err)
		}
	}

	index, err := b.pop(op, wasm.ValueTypeI32)
	if err != nil {
		return err
	}

	frames := make([]*frame, len(depths))
	targets := make([]BranchTarget, len(depths))
	for i, depth := range depths {
		if frames[i], targets[i], err = b.resolveTarget(op, depth); err != nil {
			return err
		}
	}

	// All targets must agree on the branch arity so one value list serves
	// every destination.
	arity := b.branchArity(frames[len(frames)-1])
	for i, f := range frames[:len(frames)-1] {
		if !valueTypesEqual(b.branchArity(f), arity) {
			return fmt.Errorf("br_table: target %d disagrees with the default target's arity", i)
		}
	}

	values, err := b.popValues(op, arity)
	if err != nil {
		return err
	}

	b.emit(&BranchTable{
		Index:   index,
		Targets: targets[:len(targets)-1],
		Default: targets[len(targets)-1],
		Values:  values,
	})
	b.markUnreachable()
	return nil
}

func (b *builder) call() error {
	index, _, err := leb128.DecodeUint32(b.br)
	if err != nil {
		return fmt.Errorf("call: read function index: %w", err)
	}
	sig, err := b.m.TypeOfFunction(index)
	if err != nil {
		return fmt.Errorf("call: %w", err)
	}
	args, err := b.popValues(wasm.OpcodeCall, sig.Params)
	if err != nil {
		return err
	}
	dests := make([]VarID, len(sig.Results))
	for i, t := range sig.Results {
		dests[i] = b.newVar(t)
	}
	b.emit(&Call{Dests: dests, Func: index, Args: args})
	for i, t := range sig.Results {
		b.push(dests[i], t)
	}
	return nil
}

func (b *builder) selectOp() error {
	const op = wasm.OpcodeSelect
	cond, err := b.pop(op, wasm.ValueTypeI32)
	if err != nil {
		return err
	}
	elseV, t, err := b.popAny(op)
	if err != nil {
		return err
	}
	thenV, err := b.pop(op, t)
	if err != nil {
		return err
	}
	dest := b.newVar(t)
	b.emit(&Select{Dest: dest, Type: t, Cond: cond, Then: thenV, Else: elseV})
	b.push(dest, t)
	return nil
}

func (b *builder) local(op wasm.Opcode) error {
	index, _, err := leb128.DecodeUint32(b.br)
	if err != nil {
		return fmt.Errorf("%s: read local index: %w", wasm.InstructionName(op), err)
	}
	if int(index) >= len(b.localTypes) {
		return fmt.Errorf("%s: local index out of range: %d (have %d locals)",
			wasm.InstructionName(op), index, len(b.localTypes))
	}
	t := b.localTypes[index]

	switch op {
	case wasm.OpcodeLocalGet:
		dest := b.newVar(t)
		b.emit(&LocalGet{Dest: dest, Local: index, Type: t})
		b.push(dest, t)
	case wasm.OpcodeLocalSet:
		src, err := b.pop(op, t)
		if err != nil {
			return err
		}
		b.emit(&LocalSet{Local: index, Src: src})
	case wasm.OpcodeLocalTee:
		// tee keeps the operand: pop, store, push the same temporary back.
		src, err := b.pop(op, t)
		if err != nil {
			return err
		}
		b.emit(&LocalSet{Local: index, Src: src})
		b.push(src, t)
	}
	return nil
}

func valueTypesEqual(a, b []wasm.ValueType) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
