// Package codegen turns the structured form of a module into a compilable Go
// source file.
//
// The output is deterministic: the same module and options always produce
// byte-identical source. Functions keep their index order, exports are
// emitted name-sorted, and no map iteration order leaks into the file. That
// makes generated files diffable and lets a build regenerate them without
// churn.
package codegen

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	"github.com/herkos-dev/herkos/ir"
	"github.com/herkos-dev/herkos/wasm"
)

// DefaultMaxPages caps how far a generated module's memory may grow when the
// module itself declares no maximum.
const DefaultMaxPages = 256

// Options control the shape of the generated file.
type Options struct {
	// PackageName is the package clause of the generated file. Defaults to
	// "wasmout".
	PackageName string
	// MaxPages caps memory growth. A module maximum below this cap wins.
	// Defaults to DefaultMaxPages.
	MaxPages uint32
}

func (o *Options) applyDefaults() {
	if o.PackageName == "" {
		o.PackageName = "wasmout"
	}
	if o.MaxPages == 0 {
		o.MaxPages = DefaultMaxPages
	}
}

// Generate emits one Go source file implementing m's functions, with fns the
// structured form of its code section in index order.
//
// Every function becomes an unexported fnN; every export becomes an exported
// wrapper named after the export. When the module has a memory, all
// signatures take a *runtime.Memory first and a NewMemory constructor is
// emitted that applies the data segments.
func Generate(m *wasm.Module, fns []*ir.Function, opts Options) ([]byte, error) {
	opts.applyDefaults()
	if len(fns) != len(m.CodeSection) {
		return nil, fmt.Errorf("have %d structured functions for %d code entries", len(fns), len(m.CodeSection))
	}

	g := &generator{m: m, hasMem: m.MemorySection != nil, opts: opts}

	var body bytes.Buffer
	if g.hasMem {
		g.writeNewMemory(&body)
	}
	if err := g.writeExports(&body); err != nil {
		return nil, err
	}
	for _, fn := range fns {
		w := &funcWriter{g: g, fn: fn}
		w.write(&body)
	}

	var out bytes.Buffer
	out.WriteString("// Code generated from a WebAssembly module. DO NOT EDIT.\n\n")
	fmt.Fprintf(&out, "package %s\n\n", opts.PackageName)
	g.writeImports(&out)
	out.Write(body.Bytes())
	return out.Bytes(), nil
}

type generator struct {
	m      *wasm.Module
	hasMem bool
	opts   Options

	needsRuntime bool
	needsBits    bool
}

func (g *generator) writeImports(out *bytes.Buffer) {
	if g.hasMem {
		g.needsRuntime = true
	}
	switch {
	case g.needsRuntime && g.needsBits:
		out.WriteString("import (\n\t\"math/bits\"\n\n\t\"github.com/herkos-dev/herkos/runtime\"\n)\n\n")
	case g.needsRuntime:
		out.WriteString("import \"github.com/herkos-dev/herkos/runtime\"\n\n")
	case g.needsBits:
		out.WriteString("import \"math/bits\"\n\n")
	}
}

// writeNewMemory emits the constructor that instantiates linear memory and
// copies the active data segments in.
func (g *generator) writeNewMemory(out *bytes.Buffer) {
	mem := g.m.MemorySection
	maxPages := g.opts.MaxPages
	if mem.Max != nil && *mem.Max < maxPages {
		maxPages = *mem.Max
	}

	out.WriteString("// NewMemory returns the module's linear memory: the declared initial size,\n")
	out.WriteString("// the growth limit, and the active data segments applied.\n")
	out.WriteString("func NewMemory() (*runtime.Memory, error) {\n")
	fmt.Fprintf(out, "\tmem := runtime.NewMemory(%d, %d)\n", mem.Min, maxPages)
	for _, seg := range g.m.DataSection {
		fmt.Fprintf(out, "\tif err := mem.Initialize(%d, %s); err != nil {\n", seg.Offset, byteSlice(seg.Init))
		out.WriteString("\t\treturn nil, err\n\t}\n")
	}
	out.WriteString("\treturn mem, nil\n}\n\n")
}

func byteSlice(b []byte) string {
	var sb strings.Builder
	sb.WriteString("[]byte{")
	for i, v := range b {
		if i > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(&sb, "0x%02x", v)
	}
	sb.WriteString("}")
	return sb.String()
}

// writeExports emits one exported wrapper per export, name-sorted.
func (g *generator) writeExports(out *bytes.Buffer) error {
	names := make([]string, 0, len(g.m.ExportSection))
	for name := range g.m.ExportSection {
		names = append(names, name)
	}
	sort.Strings(names)

	taken := map[string]bool{"NewMemory": g.hasMem}
	for _, name := range names {
		e := g.m.ExportSection[name]
		sig, err := g.m.TypeOfFunction(e.Index)
		if err != nil {
			return fmt.Errorf("export %q: %w", name, err)
		}

		goName := exportName(name)
		if taken[goName] {
			goName = fmt.Sprintf("%s_%d", goName, e.Index)
		}
		taken[goName] = true

		params := make([]string, 0, len(sig.Params)+1)
		args := make([]string, 0, len(sig.Params)+1)
		if g.hasMem {
			params = append(params, "mem *runtime.Memory")
			args = append(args, "mem")
		}
		for i, t := range sig.Params {
			params = append(params, fmt.Sprintf("a%d %s", i, goType(t)))
			args = append(args, fmt.Sprintf("a%d", i))
		}

		fmt.Fprintf(out, "// %s calls the exported function %q.\n", goName, name)
		fmt.Fprintf(out, "func %s(%s) (%s) {\n", goName, strings.Join(params, ", "), resultList(sig.Results))
		fmt.Fprintf(out, "\treturn fn%d(%s)\n}\n\n", e.Index, strings.Join(args, ", "))
	}
	return nil
}

// exportName maps an export name to an exported Go identifier: invalid
// characters become underscores and the first letter is upper-cased.
func exportName(name string) string {
	var sb strings.Builder
	for i, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r == '_':
			if i == 0 && r >= 'a' && r <= 'z' {
				r -= 'a' - 'A'
			}
			sb.WriteRune(r)
		case r >= '0' && r <= '9':
			if i == 0 {
				sb.WriteByte('F')
			}
			sb.WriteRune(r)
		default:
			if i == 0 {
				sb.WriteByte('F')
			}
			sb.WriteByte('_')
		}
	}
	if sb.Len() == 0 {
		return "F"
	}
	return sb.String()
}

func goType(t wasm.ValueType) string {
	if t == wasm.ValueTypeI64 {
		return "int64"
	}
	return "int32"
}

// resultList renders a function's Go result types: the value results followed
// by the error that carries traps.
func resultList(results []wasm.ValueType) string {
	parts := make([]string, 0, len(results)+1)
	for _, t := range results {
		parts = append(parts, goType(t))
	}
	parts = append(parts, "error")
	return strings.Join(parts, ", ")
}
