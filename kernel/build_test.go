package kernel

import (
	"testing"

	"github.com/oscadgo/compiler/diag"
	"github.com/oscadgo/compiler/geomir"
)

func TestBuildCube(t *testing.T) {
	node := &geomir.Cube{Size: [3]float64{10, 10, 10}}
	result, err := Build(node, DefaultOptions())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	mesh, ok := result.(*Mesh)
	if !ok {
		t.Fatalf("got %T, want *Mesh", result)
	}
	if len(mesh.Vertices) != 8 {
		t.Errorf("got %d vertices, want 8", len(mesh.Vertices))
	}
	if len(mesh.Triangles()) != 12 {
		t.Errorf("got %d triangles, want 12", len(mesh.Triangles()))
	}
	if errs := mesh.Validate(); len(errs) != 0 {
		t.Errorf("invalid mesh: %+v", errs)
	}
}

func TestBuildEmptyCube(t *testing.T) {
	node := &geomir.Cube{Size: [3]float64{0, 0, 0}}
	result, err := Build(node, DefaultOptions())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	mesh := result.(*Mesh)
	if len(mesh.Vertices) != 0 {
		t.Errorf("got %d vertices, want 0 (cube(0) is Empty)", len(mesh.Vertices))
	}
}

func TestBuildBooleanDisjointUnion(t *testing.T) {
	node := &geomir.Boolean{
		Op: geomir.OpUnion,
		Children: []geomir.GeometryNode{
			&geomir.Cube{Size: [3]float64{5, 5, 5}},
			&geomir.Transform{
				Matrix: geomir.Translate([3]float64{100, 0, 0}),
				Child:  &geomir.Cube{Size: [3]float64{5, 5, 5}},
			},
		},
	}
	result, err := Build(node, DefaultOptions())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	mesh := result.(*Mesh)
	if len(mesh.Vertices) != 16 {
		t.Errorf("got %d vertices, want 16 (two disjoint cubes)", len(mesh.Vertices))
	}
	if errs := mesh.Validate(); len(errs) != 0 {
		t.Errorf("invalid mesh: %+v", errs)
	}
}

func TestBuildShowOnlyModifierSuppressesSiblings(t *testing.T) {
	showOnly := &geomir.Modifier{
		Kind:  geomir.ModDisableOthers,
		Child: &geomir.Cube{Size: [3]float64{4, 4, 4}},
	}
	other := &geomir.Transform{
		Matrix: geomir.Translate([3]float64{100, 0, 0}),
		Child:  &geomir.Cube{Size: [3]float64{4, 4, 4}},
	}
	node := &geomir.Boolean{Op: geomir.OpUnion, Children: []geomir.GeometryNode{showOnly, other}}
	result, err := Build(node, DefaultOptions())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	mesh := result.(*Mesh)
	if len(mesh.Vertices) != 8 {
		t.Errorf("got %d vertices, want 8 (only the ! sibling should render)", len(mesh.Vertices))
	}
}

func TestBuildTransparentModifierExcludedFromExport(t *testing.T) {
	transparent := &geomir.Modifier{
		Kind:  geomir.ModTransparent,
		Child: &geomir.Cube{Size: [3]float64{4, 4, 4}},
	}
	node := &geomir.Boolean{Op: geomir.OpUnion, Children: []geomir.GeometryNode{transparent}}
	result, err := Build(node, DefaultOptions())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	mesh := result.(*Mesh)
	if len(mesh.Vertices) != 0 {
		t.Errorf("got %d vertices, want 0 (%% sibling never contributes to the exported solid)", len(mesh.Vertices))
	}
}

func TestBuildPolyhedronOutOfRangeFace(t *testing.T) {
	node := &geomir.Polyhedron{
		Points: [][3]float64{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}},
		Faces:  [][]int{{0, 1, 5}},
		Span_:  diag.Span{Start: 10, End: 20},
	}
	_, err := Build(node, DefaultOptions())
	if err == nil {
		t.Fatal("expected an error for an out-of-range face index")
	}
	ge, ok := err.(*GeometryError)
	if !ok {
		t.Fatalf("got %T, want *GeometryError", err)
	}
	if ge.Span != node.Span_ {
		t.Errorf("got span %+v, want %+v", ge.Span, node.Span_)
	}
}

func TestBuildResolutionMonotonicity(t *testing.T) {
	low, err := Build(&geomir.Sphere{Radius: 10, Res: geomir.Resolution{Fn: 3}}, DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	high, err := Build(&geomir.Sphere{Radius: 10, Res: geomir.Resolution{Fn: 32}}, DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	lowMesh, highMesh := low.(*Mesh), high.(*Mesh)
	if len(highMesh.Vertices) <= len(lowMesh.Vertices) {
		t.Errorf("increasing $fn should not decrease vertex count: got %d then %d", len(lowMesh.Vertices), len(highMesh.Vertices))
	}
}

func TestBuild2DBooleanDifference(t *testing.T) {
	node := &geomir.Boolean{
		Op: geomir.OpDifference,
		Children: []geomir.GeometryNode{
			&geomir.Square{Size: [2]float64{10, 10}},
			&geomir.Circle{Radius: 2, Res: geomir.Resolution{Fn: 16}},
		},
	}
	result, err := Build(node, DefaultOptions())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	shape, ok := result.(*Shape2D)
	if !ok {
		t.Fatalf("got %T, want *Shape2D", result)
	}
	if len(shape.Outer) == 0 {
		t.Error("expected a non-empty outer boundary")
	}
}
