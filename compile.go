// Package compiler provides a pure Go OpenSCAD-to-mesh compiler: lex, parse,
// lower, evaluate, and realize OpenSCAD source text into a triangle mesh
// ready for WebGL rendering. Compile is the high-level convenience
// entry point; CompileWithOptions is the fully configurable one, and the
// individual stage functions (Parse, Lower, eval.NewEvaluator, kernel.Build)
// are exported from their own packages for callers that want finer control.
package compiler

import (
	"context"
	"errors"
	"time"

	"github.com/oscadgo/compiler/diag"
	"github.com/oscadgo/compiler/eval"
	"github.com/oscadgo/compiler/export"
	"github.com/oscadgo/compiler/kernel"
	"github.com/oscadgo/compiler/scad"
)

// CompileOptions configures a single compile call. There is no global or
// persisted state: every field here is consumed once, during Compile, and
// dropped on return.
type CompileOptions struct {
	// MaxRecursionDepth bounds user module/function recursion before the
	// evaluator aborts with a diagnostic instead of overflowing the host
	// stack.
	MaxRecursionDepth int
	// DefaultFn/DefaultFa/DefaultFs seed the root $fn/$fa/$fs frame.
	DefaultFn float64
	DefaultFa float64
	DefaultFs float64
	// Preview seeds $preview.
	Preview bool
	// EpsilonScale is the relative tolerance, scaled by the compiled
	// geometry's bounding-box diagonal, used for vertex-coincidence
	// merging in boolean CSG.
	EpsilonScale float64
}

// DefaultCompileOptions returns the documented field defaults.
func DefaultCompileOptions() CompileOptions {
	return CompileOptions{
		MaxRecursionDepth: 1024,
		DefaultFn:         0,
		DefaultFa:         12,
		DefaultFs:         2,
		Preview:           true,
		EpsilonScale:      1e-6,
	}
}

// Stats carries summary numbers about a successful compile.
type Stats struct {
	VertexCount   int     `json:"vertex_count"`
	TriangleCount int     `json:"triangle_count"`
	CompileTimeMs float64 `json:"compile_time_ms"`
}

// MeshBuffers is the sole success return value of Compile:
// everything a WebGL renderer needs, plus any non-fatal diagnostics
// collected along the way.
type MeshBuffers struct {
	Vertices    []float32        `json:"vertices"`
	Indices     []uint32         `json:"indices"`
	Normals     []float32        `json:"normals"`
	Colors      []float32        `json:"colors,omitempty"`
	Stats       Stats            `json:"stats"`
	Diagnostics []diag.Diagnostic `json:"diagnostics,omitempty"`
}

// Compile compiles OpenSCAD source with DefaultCompileOptions.
func Compile(source string) (MeshBuffers, error) {
	return CompileWithOptions(source, DefaultCompileOptions())
}

// CompileFailure is the error Compile/CompileWithOptions return when the
// run produced at least one Error-severity diagnostic: no mesh on error,
// and the diagnostics list is complete, not first-error-wins.
type CompileFailure struct {
	Diagnostics []diag.Diagnostic
}

func (f *CompileFailure) Error() string {
	for _, d := range f.Diagnostics {
		if d.Severity == diag.Error {
			return d.Error()
		}
	}
	return "compile failed"
}

// CompileWithOptions runs the full five-stage pipeline:
// lex+parse -> AST lowering -> evaluation -> geometry kernel -> mesh export.
// Every stage appends to one diagnostics slice; a stage failure aborts only
// its own subtree, not the whole compile. The one exception to "continue on
// error" is a nil/unparseable top-level CST, which naturally lowers to an
// empty AST and an empty mesh rather than a second failure path.
func CompileWithOptions(source string, opts CompileOptions) (MeshBuffers, error) {
	return CompileWithContext(context.Background(), source, opts)
}

// CompileWithContext is CompileWithOptions plus cooperative cancellation:
// the evaluator polls ctx at every call entry and loop iteration, the
// kernel between IR nodes. A cancelled run fails with an Info-severity
// "cancelled" diagnostic rather than whatever partial state the stages
// reached.
func CompileWithContext(ctx context.Context, source string, opts CompileOptions) (MeshBuffers, error) {
	start := compileClock()
	var diags diag.Bag

	cst, parseDiags := scad.Parse(source)
	diags.Extend(parseDiags)

	file, lowerDiags := scad.Lower(cst)
	diags.Extend(lowerDiags)

	ev := eval.NewEvaluatorWithOptions(opts.MaxRecursionDepth, opts.DefaultFn, opts.DefaultFa, opts.DefaultFs, opts.Preview).WithContext(ctx)
	ir, evalDiags := ev.Run(file)
	diags.Extend(evalDiags)

	kernelOpts := kernel.Options{EpsilonScale: opts.EpsilonScale, Ctx: ctx}
	result, buildErr := kernel.Build(ir, kernelOpts)
	if buildErr != nil && !errors.Is(buildErr, context.Canceled) && !errors.Is(buildErr, context.DeadlineExceeded) {
		if ge, ok := buildErr.(*kernel.GeometryError); ok {
			diags.Errorf(ge.Span, "%s", ge.Message)
		} else {
			diags.Errorf(diag.Span{}, "%s", buildErr.Error())
		}
	}

	if ctx.Err() != nil {
		diags.Infof(diag.Span{}, "cancelled")
		return MeshBuffers{}, &CompileFailure{Diagnostics: diags.All()}
	}
	if diags.HasErrors() {
		return MeshBuffers{}, &CompileFailure{Diagnostics: diags.All()}
	}

	buffers := export.FromResult(result)
	elapsed := compileClock().Sub(start)
	return MeshBuffers{
		Vertices: buffers.Vertices,
		Indices:  buffers.Indices,
		Normals:  buffers.Normals,
		Colors:   buffers.Colors,
		Stats: Stats{
			VertexCount:   len(buffers.Vertices) / 3,
			TriangleCount: len(buffers.Indices) / 3,
			CompileTimeMs: float64(elapsed.Microseconds()) / 1000.0,
		},
		Diagnostics: diags.All(),
	}, nil
}

// compileClock is the one wall-clock read in the pipeline (Stats'
// CompileTimeMs); it is isolated here purely so tests never need to touch
// a real clock for anything but this one summary number.
var compileClock = time.Now

// FormatDiagnostics renders every diagnostic with source context, for CLI
// and test output.
func FormatDiagnostics(source string, diags []diag.Diagnostic) string {
	s := ""
	for _, d := range diags {
		s += d.FormatWithContext(source)
	}
	return s
}
