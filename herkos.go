// Package herkos translates WebAssembly 1.0 binary modules into memory-safe
// Go source.
//
// The pipeline has three stages: the binary decoder produces a typed
// wasm.Module, the ir builder reconstructs structured control flow with
// explicit operand binding, and the code generator emits deterministic Go.
// Traps keep their WebAssembly semantics in the output: division faults,
// out-of-bounds accesses and unreachable code return runtime.Trap errors
// instead of corrupting state.
package herkos

import (
	"fmt"
	"sort"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/herkos-dev/herkos/codegen"
	"github.com/herkos-dev/herkos/ir"
	"github.com/herkos-dev/herkos/wasm"
	"github.com/herkos-dev/herkos/wasm/binary"
)

type config struct {
	logger      *zap.Logger
	packageName string
	maxPages    uint32
}

// Option adjusts how Transpile works.
type Option func(*config)

// WithLogger attaches a logger; the pipeline reports per-stage progress at
// debug level. The default discards everything.
func WithLogger(logger *zap.Logger) Option {
	return func(c *config) { c.logger = logger }
}

// WithPackageName sets the package clause of the generated file. The default
// is "wasmout".
func WithPackageName(name string) Option {
	return func(c *config) { c.packageName = name }
}

// WithMaxPages caps how far the generated module's memory may grow. A module
// maximum below the cap wins. The default is codegen.DefaultMaxPages.
func WithMaxPages(pages uint32) Option {
	return func(c *config) { c.maxPages = pages }
}

// FunctionError locates a translation failure in one function, by index and,
// when the function is exported, by name.
type FunctionError struct {
	Index wasm.Index
	Name  string
	Err   error
}

func (e *FunctionError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("function[%d] %q: %v", e.Index, e.Name, e.Err)
	}
	return fmt.Sprintf("function[%d]: %v", e.Index, e.Err)
}

func (e *FunctionError) Unwrap() error { return e.Err }

// Transpile decodes a WebAssembly binary and returns the Go source that
// implements it. The output is deterministic: the same binary and options
// always produce identical bytes.
func Transpile(bin []byte, opts ...Option) ([]byte, error) {
	cfg := config{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&cfg)
	}

	m, err := binary.DecodeModule(bin)
	if err != nil {
		return nil, fmt.Errorf("decode module: %w", err)
	}
	cfg.logger.Debug("decoded module",
		zap.Int("types", len(m.TypeSection)),
		zap.Int("functions", len(m.CodeSection)),
		zap.Int("exports", len(m.ExportSection)),
		zap.Bool("memory", m.MemorySection != nil))

	// Build every function even after a failure so one bad body reports
	// alongside the others instead of masking them.
	fns := make([]*ir.Function, len(m.CodeSection))
	var buildErr error
	for i := range m.CodeSection {
		fn, err := ir.BuildFunction(m, wasm.Index(i))
		if err != nil {
			buildErr = multierr.Append(buildErr,
				&FunctionError{Index: wasm.Index(i), Name: exportNameOf(m, wasm.Index(i)), Err: err})
			continue
		}
		fns[i] = fn
	}
	if buildErr != nil {
		return nil, buildErr
	}
	cfg.logger.Debug("built structured form", zap.Int("functions", len(fns)))

	src, err := codegen.Generate(m, fns, codegen.Options{
		PackageName: cfg.packageName,
		MaxPages:    cfg.maxPages,
	})
	if err != nil {
		return nil, fmt.Errorf("generate code: %w", err)
	}
	cfg.logger.Debug("generated source", zap.Int("bytes", len(src)))
	return src, nil
}

// exportNameOf returns a stable export name for the function at idx, if any:
// the lexicographically first when several exports alias it.
func exportNameOf(m *wasm.Module, idx wasm.Index) string {
	var names []string
	for name, e := range m.ExportSection {
		if e.Index == idx {
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		return ""
	}
	sort.Strings(names)
	return names[0]
}
