package codegen

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/herkos-dev/herkos/ir"
	"github.com/herkos-dev/herkos/wasm"
)

// funcWriter emits one function. Temporaries become v0..vN declared up front,
// locals (parameters included) become l0..lN, and structures with targeted
// labels become labeled single-iteration for statements so br maps to break
// and a loop back-edge to continue.
type funcWriter struct {
	g   *generator
	fn  *ir.Function
	out *bytes.Buffer

	indent int
	site   int

	// labelVars maps each label to the slots a branch to it must fill:
	// a loop's parameters, any other structure's results.
	labelVars map[ir.LabelID][]ir.VarID

	varRead   []bool
	localRead []bool
}

func (w *funcWriter) write(out *bytes.Buffer) {
	w.out = out
	w.labelVars = make(map[ir.LabelID][]ir.VarID)
	w.analyzeReads()

	params := make([]string, 0, w.fn.NumParams+1)
	if w.g.hasMem {
		params = append(params, "mem *runtime.Memory")
	}
	for i := 0; i < w.fn.NumParams; i++ {
		params = append(params, fmt.Sprintf("l%d %s", i, goType(w.fn.LocalTypes[i])))
	}
	fmt.Fprintf(out, "func fn%d(%s) (%s) {\n", w.fn.Index, strings.Join(params, ", "), resultList(w.fn.Type.Results))
	w.indent = 1

	w.writeDecls()
	w.stmts(w.fn.Body)

	w.indent = 0
	out.WriteString("}\n\n")
}

// writeDecls declares the non-parameter locals and every temporary, then
// blank-assigns the ones nothing reads so the declarations stay legal.
func (w *funcWriter) writeDecls() {
	var decls, blanks []string
	for i := w.fn.NumParams; i < len(w.fn.LocalTypes); i++ {
		decls = append(decls, fmt.Sprintf("l%d %s", i, goType(w.fn.LocalTypes[i])))
		if !w.localRead[i] {
			blanks = append(blanks, fmt.Sprintf("l%d", i))
		}
	}
	for i, t := range w.fn.VarTypes {
		decls = append(decls, fmt.Sprintf("v%d %s", i, goType(t)))
		if !w.varRead[i] {
			blanks = append(blanks, fmt.Sprintf("v%d", i))
		}
	}

	switch len(decls) {
	case 0:
	case 1:
		w.line("var %s", decls[0])
	default:
		w.line("var (")
		for _, d := range decls {
			w.line("\t%s", d)
		}
		w.line(")")
	}
	for _, b := range blanks {
		w.line("_ = %s", b)
	}
}

func (w *funcWriter) line(format string, args ...interface{}) {
	w.out.WriteString(strings.Repeat("\t", w.indent))
	fmt.Fprintf(w.out, format, args...)
	w.out.WriteByte('\n')
}

func (w *funcWriter) v(id ir.VarID) string { return fmt.Sprintf("v%d", id) }

func (w *funcWriter) fresh() string {
	w.site++
	return fmt.Sprintf("t%d", w.site-1)
}

// zeroReturn renders a `return` carrying zero values and the given error
// expression, the form every trap exit takes.
func (w *funcWriter) zeroReturn(errExpr string) string {
	parts := make([]string, 0, len(w.fn.Type.Results)+1)
	for range w.fn.Type.Results {
		parts = append(parts, "0")
	}
	parts = append(parts, errExpr)
	return "return " + strings.Join(parts, ", ")
}

// checkErr emits the propagation of a trap from a fallible site.
func (w *funcWriter) checkErr() {
	w.line("if err != nil {")
	w.line("\t%s", w.zeroReturn("err"))
	w.line("}")
}

func (w *funcWriter) stmts(list []ir.Stmt) {
	for _, s := range list {
		w.stmt(s)
	}
}

func (w *funcWriter) stmt(s ir.Stmt) {
	switch s := s.(type) {
	case *ir.Const:
		if s.Type == wasm.ValueTypeI64 {
			w.line("%s = %d", w.v(s.Dest), int64(s.Bits))
		} else {
			w.line("%s = %d", w.v(s.Dest), int32(uint32(s.Bits)))
		}
	case *ir.LocalGet:
		w.line("%s = l%d", w.v(s.Dest), s.Local)
	case *ir.LocalSet:
		w.line("l%d = %s", s.Local, w.v(s.Src))
	case *ir.Assign:
		w.line("%s = %s", w.v(s.Dest), w.v(s.Src))
	case *ir.Binary:
		w.binary(s)
	case *ir.Compare:
		w.compare(s)
	case *ir.Unary:
		w.unary(s)
	case *ir.Select:
		w.line("%s = %s", w.v(s.Dest), w.v(s.Then))
		w.line("if %s == 0 {", w.v(s.Cond))
		w.line("\t%s = %s", w.v(s.Dest), w.v(s.Else))
		w.line("}")
	case *ir.Call:
		w.call(s)
	case *ir.MemoryLoad:
		w.load(s)
	case *ir.MemoryStore:
		w.store(s)
	case *ir.MemorySize:
		w.line("%s = int32(mem.Pages())", w.v(s.Dest))
	case *ir.MemoryGrow:
		w.line("%s = mem.Grow(uint32(%s))", w.v(s.Dest), w.v(s.Delta))
	case *ir.Block:
		w.labelVars[s.Label] = s.ResultVars
		w.structure(s.Label, func() { w.stmts(s.Body) })
	case *ir.Loop:
		w.labelVars[s.Label] = s.ParamVars
		w.structure(s.Label, func() { w.stmts(s.Body) })
	case *ir.If:
		w.labelVars[s.Label] = s.ResultVars
		w.structure(s.Label, func() {
			w.line("if %s != 0 {", w.v(s.Cond))
			w.indent++
			w.stmts(s.Then)
			w.indent--
			if len(s.Else) > 0 {
				w.line("} else {")
				w.indent++
				w.stmts(s.Else)
				w.indent--
			}
			w.line("}")
		})
	case *ir.Branch:
		if s.Cond == ir.NoVar {
			w.jump(s.Target, s.Values)
		} else {
			w.line("if %s != 0 {", w.v(s.Cond))
			w.indent++
			w.jump(s.Target, s.Values)
			w.indent--
			w.line("}")
		}
	case *ir.BranchTable:
		w.line("switch uint32(%s) {", w.v(s.Index))
		for i, t := range s.Targets {
			w.line("case %d:", i)
			w.indent++
			w.jump(t, s.Values)
			w.indent--
		}
		w.line("default:")
		w.indent++
		w.jump(s.Default, s.Values)
		w.indent--
		w.line("}")
	case *ir.Return:
		w.returnValues(s.Values)
	case *ir.Unreachable:
		w.g.needsRuntime = true
		w.line("%s", w.zeroReturn("runtime.TrapUnreachable()"))
	default:
		panic(fmt.Sprintf("unhandled statement %T", s))
	}
}

// structure wraps body in a labeled single-iteration for when the label is
// branch-targeted; untargeted structures flatten into the surrounding code.
func (w *funcWriter) structure(label ir.LabelID, body func()) {
	if !w.fn.LabelTargeted[label] {
		body()
		return
	}
	w.line("L%d:", label)
	w.line("for {")
	w.indent++
	body()
	w.line("break L%d", label)
	w.indent--
	w.line("}")
}

// jump emits one resolved branch: fill the target's slots, then leave by
// return, break or continue.
func (w *funcWriter) jump(t ir.BranchTarget, values []ir.VarID) {
	if t.Return {
		w.returnValues(values)
		return
	}
	for i, dst := range w.labelVars[t.Label] {
		if dst != values[i] {
			w.line("%s = %s", w.v(dst), w.v(values[i]))
		}
	}
	if t.IsLoop {
		w.line("continue L%d", t.Label)
	} else {
		w.line("break L%d", t.Label)
	}
}

func (w *funcWriter) returnValues(values []ir.VarID) {
	parts := make([]string, 0, len(values)+1)
	for _, v := range values {
		parts = append(parts, w.v(v))
	}
	parts = append(parts, "nil")
	w.line("return %s", strings.Join(parts, ", "))
}

func (w *funcWriter) binary(s *ir.Binary) {
	d, a, b := w.v(s.Dest), w.v(s.LHS), w.v(s.RHS)
	is64 := s.Type == wasm.ValueTypeI64
	u, signed, mask := "uint32", "int32", 31
	if is64 {
		u, signed, mask = "uint64", "int64", 63
	}

	switch s.Op {
	case ir.BinOpAdd:
		w.line("%s = %s + %s", d, a, b)
	case ir.BinOpSub:
		w.line("%s = %s - %s", d, a, b)
	case ir.BinOpMul:
		w.line("%s = %s * %s", d, a, b)
	case ir.BinOpAnd:
		w.line("%s = %s & %s", d, a, b)
	case ir.BinOpOr:
		w.line("%s = %s | %s", d, a, b)
	case ir.BinOpXor:
		w.line("%s = %s ^ %s", d, a, b)
	case ir.BinOpShl:
		w.line("%s = %s << (%s(%s) & %d)", d, a, u, b, mask)
	case ir.BinOpShrS:
		w.line("%s = %s >> (%s(%s) & %d)", d, a, u, b, mask)
	case ir.BinOpShrU:
		w.line("%s = %s(%s(%s) >> (%s(%s) & %d))", d, signed, u, a, u, b, mask)
	case ir.BinOpRotl, ir.BinOpRotr:
		w.g.needsBits = true
		rot := fmt.Sprintf("int(%s)", b)
		if s.Op == ir.BinOpRotr {
			rot = fmt.Sprintf("-int(%s)", b)
		}
		if is64 {
			w.line("%s = int64(bits.RotateLeft64(uint64(%s), %s))", d, a, rot)
		} else {
			w.line("%s = int32(bits.RotateLeft32(uint32(%s), %s))", d, a, rot)
		}
	case ir.BinOpDivS, ir.BinOpRemS:
		w.g.needsRuntime = true
		fn := map[ir.BinOp]string{ir.BinOpDivS: "DivS", ir.BinOpRemS: "RemS"}[s.Op]
		if is64 {
			fn += "64"
		}
		t := w.fresh()
		w.line("%s, err := runtime.%s(%s, %s)", t, fn, a, b)
		w.checkErr()
		w.line("%s = %s", d, t)
	case ir.BinOpDivU, ir.BinOpRemU:
		w.g.needsRuntime = true
		fn := map[ir.BinOp]string{ir.BinOpDivU: "DivU", ir.BinOpRemU: "RemU"}[s.Op]
		if is64 {
			fn += "64"
		}
		t := w.fresh()
		w.line("%s, err := runtime.%s(%s(%s), %s(%s))", t, fn, u, a, u, b)
		w.checkErr()
		w.line("%s = %s(%s)", d, signed, t)
	default:
		panic(fmt.Sprintf("unhandled binary op %d", s.Op))
	}
}

func (w *funcWriter) compare(s *ir.Compare) {
	w.g.needsRuntime = true
	d, a, b := w.v(s.Dest), w.v(s.LHS), w.v(s.RHS)
	u := "uint32"
	if s.Type == wasm.ValueTypeI64 {
		u = "uint64"
	}

	var expr string
	switch s.Op {
	case ir.CmpOpEq:
		expr = fmt.Sprintf("%s == %s", a, b)
	case ir.CmpOpNe:
		expr = fmt.Sprintf("%s != %s", a, b)
	case ir.CmpOpLtS:
		expr = fmt.Sprintf("%s < %s", a, b)
	case ir.CmpOpLtU:
		expr = fmt.Sprintf("%s(%s) < %s(%s)", u, a, u, b)
	case ir.CmpOpGtS:
		expr = fmt.Sprintf("%s > %s", a, b)
	case ir.CmpOpGtU:
		expr = fmt.Sprintf("%s(%s) > %s(%s)", u, a, u, b)
	case ir.CmpOpLeS:
		expr = fmt.Sprintf("%s <= %s", a, b)
	case ir.CmpOpLeU:
		expr = fmt.Sprintf("%s(%s) <= %s(%s)", u, a, u, b)
	case ir.CmpOpGeS:
		expr = fmt.Sprintf("%s >= %s", a, b)
	case ir.CmpOpGeU:
		expr = fmt.Sprintf("%s(%s) >= %s(%s)", u, a, u, b)
	}
	w.line("%s = runtime.Bool(%s)", d, expr)
}

func (w *funcWriter) unary(s *ir.Unary) {
	d, x := w.v(s.Dest), w.v(s.Operand)
	is64 := s.Type == wasm.ValueTypeI64

	switch s.Op {
	case ir.UnOpEqz:
		w.g.needsRuntime = true
		w.line("%s = runtime.Bool(%s == 0)", d, x)
	case ir.UnOpClz, ir.UnOpCtz, ir.UnOpPopcnt:
		w.g.needsBits = true
		fn := map[ir.UnOp]string{ir.UnOpClz: "LeadingZeros", ir.UnOpCtz: "TrailingZeros", ir.UnOpPopcnt: "OnesCount"}[s.Op]
		if is64 {
			w.line("%s = int64(bits.%s64(uint64(%s)))", d, fn, x)
		} else {
			w.line("%s = int32(bits.%s32(uint32(%s)))", d, fn, x)
		}
	case ir.UnOpWrapI64:
		w.line("%s = int32(%s)", d, x)
	case ir.UnOpExtendI32S:
		w.line("%s = int64(%s)", d, x)
	case ir.UnOpExtendI32U:
		w.line("%s = int64(uint32(%s))", d, x)
	}
}

func (w *funcWriter) call(s *ir.Call) {
	args := make([]string, 0, len(s.Args)+1)
	if w.g.hasMem {
		args = append(args, "mem")
	}
	for _, a := range s.Args {
		args = append(args, w.v(a))
	}
	callExpr := fmt.Sprintf("fn%d(%s)", s.Func, strings.Join(args, ", "))

	if len(s.Dests) == 0 {
		w.line("if err := %s; err != nil {", callExpr)
		w.line("\t%s", w.zeroReturn("err"))
		w.line("}")
		return
	}

	temps := make([]string, len(s.Dests))
	for i := range temps {
		temps[i] = w.fresh()
	}
	w.line("%s, err := %s", strings.Join(temps, ", "), callExpr)
	w.checkErr()
	for i, dst := range s.Dests {
		w.line("%s = %s", w.v(dst), temps[i])
	}
}

// effectiveAddr renders (base + offset) mod 2^32; the uint32 addition wraps.
func (w *funcWriter) effectiveAddr(base ir.VarID, offset uint32) string {
	if offset == 0 {
		return fmt.Sprintf("uint32(%s)", w.v(base))
	}
	return fmt.Sprintf("uint32(%s)+%d", w.v(base), offset)
}

func (w *funcWriter) load(s *ir.MemoryLoad) {
	w.g.needsRuntime = true
	d := w.v(s.Dest)
	ea := w.effectiveAddr(s.Base, s.Offset)
	is64 := s.Type == wasm.ValueTypeI64
	t := w.fresh()

	var readFn, conv string
	switch s.Width {
	case 1:
		readFn = "ReadUint8"
		conv = pick(s.Signed, "int8("+t+")", t)
	case 2:
		readFn = "ReadUint16"
		conv = pick(s.Signed, "int16("+t+")", t)
	case 4:
		readFn = "ReadUint32"
		conv = pick(is64 && s.Signed, "int32("+t+")", t)
	case 8:
		readFn = "ReadUint64"
		conv = t
	}
	w.line("%s, err := mem.%s(%s)", t, readFn, ea)
	w.checkErr()
	if is64 {
		w.line("%s = int64(%s)", d, conv)
	} else {
		w.line("%s = int32(%s)", d, conv)
	}
}

func pick(cond bool, a, b string) string {
	if cond {
		return a
	}
	return b
}

func (w *funcWriter) store(s *ir.MemoryStore) {
	w.g.needsRuntime = true
	src := w.v(s.Src)
	ea := w.effectiveAddr(s.Base, s.Offset)

	var writeFn, conv string
	switch s.Width {
	case 1:
		writeFn, conv = "WriteUint8", "byte("+src+")"
	case 2:
		writeFn, conv = "WriteUint16", "uint16("+src+")"
	case 4:
		writeFn, conv = "WriteUint32", "uint32("+src+")"
	case 8:
		writeFn, conv = "WriteUint64", "uint64("+src+")"
	}
	w.line("if err := mem.%s(%s, %s); err != nil {", writeFn, ea, conv)
	w.line("\t%s", w.zeroReturn("err"))
	w.line("}")
}

// analyzeReads records which temporaries and locals any statement reads, so
// write-only ones can be blank-assigned instead of tripping the unused
// variable check.
func (w *funcWriter) analyzeReads() {
	w.varRead = make([]bool, len(w.fn.VarTypes))
	w.localRead = make([]bool, len(w.fn.LocalTypes))
	w.walkReads(w.fn.Body)
}

func (w *funcWriter) walkReads(list []ir.Stmt) {
	read := func(vs ...ir.VarID) {
		for _, v := range vs {
			if v != ir.NoVar {
				w.varRead[v] = true
			}
		}
	}
	for _, s := range list {
		switch s := s.(type) {
		case *ir.LocalGet:
			w.localRead[s.Local] = true
		case *ir.LocalSet:
			read(s.Src)
		case *ir.Assign:
			read(s.Src)
		case *ir.Binary:
			read(s.LHS, s.RHS)
		case *ir.Compare:
			read(s.LHS, s.RHS)
		case *ir.Unary:
			read(s.Operand)
		case *ir.Select:
			read(s.Cond, s.Then, s.Else)
		case *ir.Call:
			read(s.Args...)
		case *ir.MemoryLoad:
			read(s.Base)
		case *ir.MemoryStore:
			read(s.Base, s.Src)
		case *ir.MemoryGrow:
			read(s.Delta)
		case *ir.Block:
			w.walkReads(s.Body)
		case *ir.Loop:
			w.walkReads(s.Body)
		case *ir.If:
			read(s.Cond)
			w.walkReads(s.Then)
			w.walkReads(s.Else)
		case *ir.Branch:
			read(s.Cond)
			read(s.Values...)
		case *ir.BranchTable:
			read(s.Index)
			read(s.Values...)
		case *ir.Return:
			read(s.Values...)
		}
	}
}
