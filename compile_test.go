package compiler

import (
	"context"
	"testing"
	"time"

	"github.com/oscadgo/compiler/diag"
)

func TestCompileCube(t *testing.T) {
	result, err := Compile(`cube(10);`)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if result.Stats.VertexCount != 8 {
		t.Errorf("got %d vertices, want 8", result.Stats.VertexCount)
	}
	if result.Stats.TriangleCount != 12 {
		t.Errorf("got %d triangles, want 12", result.Stats.TriangleCount)
	}
	if len(result.Diagnostics) != 0 {
		t.Errorf("unexpected diagnostics: %+v", result.Diagnostics)
	}
	minX, maxX := boundsOf(result.Vertices)
	if minX[0] != 0 || maxX[0] != 10 {
		t.Errorf("got AABB x=[%v,%v], want [0,10]", minX[0], maxX[0])
	}
}

func TestCompileCubeCentered(t *testing.T) {
	result, err := Compile(`cube(10, center=true);`)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	minV, maxV := boundsOf(result.Vertices)
	for i := 0; i < 3; i++ {
		if minV[i] != -5 || maxV[i] != 5 {
			t.Errorf("axis %d: got [%v,%v], want [-5,5]", i, minV[i], maxV[i])
		}
	}
}

func TestCompileThreeDisjointBooleans(t *testing.T) {
	source := `
translate([-24,0,0]) union() { cube(15, center=true); sphere(10); }
intersection() { cube(15, center=true); sphere(10); }
translate([24,0,0]) difference() { cube(15, center=true); sphere(10); }
`
	result, err := Compile(source)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	for _, d := range result.Diagnostics {
		if d.Severity.String() == "error" {
			t.Errorf("unexpected error diagnostic: %+v", d)
		}
	}
	if result.Stats.TriangleCount == 0 {
		t.Error("expected a non-empty mesh")
	}
}

func TestCompileRecursiveFunction(t *testing.T) {
	result, err := Compile(`function fact(n) = n <= 1 ? 1 : n * fact(n-1); x = fact(5); cube(x);`)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	minV, maxV := boundsOf(result.Vertices)
	if minV[0] != 0 || maxV[0] != 120 {
		t.Errorf("got AABB x=[%v,%v], want [0,120] (5! == 120)", minV[0], maxV[0])
	}
}

func TestCompileUnterminatedCallIsParseError(t *testing.T) {
	_, err := Compile(`cube(`)
	if err == nil {
		t.Fatal("expected a compile failure")
	}
	failure, ok := err.(*CompileFailure)
	if !ok {
		t.Fatalf("got %T, want *CompileFailure", err)
	}
	if len(failure.Diagnostics) == 0 {
		t.Error("expected at least one diagnostic")
	}
}

func TestCompileRingModule(t *testing.T) {
	source := `module ring(n) { for(i=[0:n-1]) rotate([0,0, i*360/n]) translate([10,0,0]) sphere(1, $fn=16); } ring(8);`
	result, err := Compile(source)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	for _, d := range result.Diagnostics {
		if d.Severity.String() == "error" {
			t.Errorf("unexpected error diagnostic: %+v", d)
		}
	}
	if result.Stats.VertexCount == 0 {
		t.Error("expected a non-empty mesh")
	}
}

func TestCompileSphereFn32(t *testing.T) {
	result, err := Compile(`sphere(r=10, $fn=32);`)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if len(result.Diagnostics) != 0 {
		t.Errorf("unexpected diagnostics: %+v", result.Diagnostics)
	}
	minV, maxV := boundsOf(result.Vertices)
	for i := 0; i < 3; i++ {
		if minV[i] < -10.001 || minV[i] > -9.9 || maxV[i] > 10.001 || maxV[i] < 9.9 {
			t.Errorf("axis %d: AABB [%v, %v] not within tessellation error of [-10, 10]", i, minV[i], maxV[i])
		}
	}
	// 32 segments, 16 rings: poles + 15 interior rings of 32 vertices.
	want := 2 + 15*32
	if result.Stats.VertexCount != want {
		t.Errorf("got %d vertices, want %d", result.Stats.VertexCount, want)
	}
}

func TestCompileCubeZeroWarnsButSucceeds(t *testing.T) {
	result, err := Compile(`cube(0);`)
	if err != nil {
		t.Fatalf("Compile: %v (a warning must not fail the compile)", err)
	}
	if result.Stats.TriangleCount != 0 {
		t.Errorf("got %d triangles, want 0", result.Stats.TriangleCount)
	}
	warned := false
	for _, d := range result.Diagnostics {
		if d.Severity == diag.Warning {
			warned = true
		}
	}
	if !warned {
		t.Errorf("expected a warning diagnostic, got %+v", result.Diagnostics)
	}
}

func TestCompileUnterminatedString(t *testing.T) {
	source := `x = "abc`
	_, err := Compile(source)
	if err == nil {
		t.Fatal("expected a compile failure")
	}
	failure := err.(*CompileFailure)
	found := false
	for _, d := range failure.Diagnostics {
		if d.Span.Start == 4 && d.Span.End == len(source) {
			found = true
		}
	}
	if !found {
		t.Errorf("expected a diagnostic spanning from the opening quote to EOF, got %+v", failure.Diagnostics)
	}
}

func TestCompileDeterministic(t *testing.T) {
	source := `difference() { sphere(8); translate([4,0,0]) cube(6, center=true); }`
	a, err := Compile(source)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	b, err := Compile(source)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if len(a.Vertices) != len(b.Vertices) || len(a.Indices) != len(b.Indices) {
		t.Fatalf("buffer sizes differ between runs: %d/%d vs %d/%d",
			len(a.Vertices), len(a.Indices), len(b.Vertices), len(b.Indices))
	}
	for i := range a.Vertices {
		if a.Vertices[i] != b.Vertices[i] {
			t.Fatalf("vertex buffer differs at %d: %v vs %v", i, a.Vertices[i], b.Vertices[i])
		}
	}
	for i := range a.Indices {
		if a.Indices[i] != b.Indices[i] {
			t.Fatalf("index buffer differs at %d", i)
		}
	}
}

func TestCompileTranslateComposition(t *testing.T) {
	chained, err := Compile(`translate([1,2,3]) translate([10,20,30]) cube(5);`)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	direct, err := Compile(`translate([11,22,33]) cube(5);`)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if chained.Stats.VertexCount != direct.Stats.VertexCount {
		t.Fatalf("vertex counts differ: %d vs %d", chained.Stats.VertexCount, direct.Stats.VertexCount)
	}
	for i := range chained.Vertices {
		if chained.Vertices[i] != direct.Vertices[i] {
			t.Fatalf("translate(u) translate(v) differs from translate(u+v) at %d", i)
		}
	}
}

func TestCompileDoubleMirrorRestoresMesh(t *testing.T) {
	mirrored, err := Compile(`mirror([1,0,0]) mirror([1,0,0]) cube(5);`)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	plain, err := Compile(`cube(5);`)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if mirrored.Stats.TriangleCount != plain.Stats.TriangleCount {
		t.Errorf("triangle counts differ: %d vs %d", mirrored.Stats.TriangleCount, plain.Stats.TriangleCount)
	}
	mMin, mMax := boundsOf(mirrored.Vertices)
	pMin, pMax := boundsOf(plain.Vertices)
	if mMin != pMin || mMax != pMax {
		t.Errorf("bounds differ after double mirror: [%v %v] vs [%v %v]", mMin, mMax, pMin, pMax)
	}
}

func TestCompilePolyhedronBadFaceFails(t *testing.T) {
	_, err := Compile(`polyhedron(points=[[0,0,0],[1,0,0],[0,1,0],[0,0,1]], faces=[[0,1,2],[0,3,1],[1,3,2],[2,3,0],[0,9,1]]);`)
	if err == nil {
		t.Fatal("expected a compile failure for an out-of-range face index")
	}
	failure := err.(*CompileFailure)
	if len(failure.Diagnostics) == 0 {
		t.Fatal("expected diagnostics")
	}
	hasError := false
	for _, d := range failure.Diagnostics {
		if d.Severity == diag.Error && d.Span.End > d.Span.Start {
			hasError = true
		}
	}
	if !hasError {
		t.Errorf("expected an error diagnostic with a real span, got %+v", failure.Diagnostics)
	}
}

func TestCompileColorPropagatesToBuffers(t *testing.T) {
	result, err := Compile(`color([1, 0, 0]) cube(2);`)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if len(result.Colors) != result.Stats.VertexCount*4 {
		t.Fatalf("got %d color components, want 4 per vertex (%d)", len(result.Colors), result.Stats.VertexCount*4)
	}
	if result.Colors[0] != 1 || result.Colors[1] != 0 || result.Colors[2] != 0 || result.Colors[3] != 1 {
		t.Errorf("got color %v, want opaque red", result.Colors[:4])
	}
}

func TestCompileCancellationResponsive(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	// A loop this long only terminates because the evaluator polls ctx per
	// iteration; the range must also never be materialized up front.
	_, err := CompileWithContext(ctx, `for (i = [0:0.1:1e9]) cube(1);`, DefaultCompileOptions())
	if err == nil {
		t.Fatal("expected a cancelled compile to fail")
	}
	failure, ok := err.(*CompileFailure)
	if !ok {
		t.Fatalf("got %T, want *CompileFailure", err)
	}
	found := false
	for _, d := range failure.Diagnostics {
		if d.Severity == diag.Info && d.Message == "cancelled" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected an info 'cancelled' diagnostic, got %+v", failure.Diagnostics)
	}
}

func TestCompilePreCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := CompileWithContext(ctx, `cube(1);`, DefaultCompileOptions())
	if err == nil {
		t.Fatal("expected a cancelled compile to fail")
	}
}

func boundsOf(verts []float32) (min, max [3]float32) {
	if len(verts) == 0 {
		return
	}
	min = [3]float32{verts[0], verts[1], verts[2]}
	max = min
	for i := 0; i+2 < len(verts); i += 3 {
		for axis := 0; axis < 3; axis++ {
			v := verts[i+axis]
			if v < min[axis] {
				min[axis] = v
			}
			if v > max[axis] {
				max[axis] = v
			}
		}
	}
	return
}
