package kernel

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/oscadgo/compiler/diag"
	"github.com/oscadgo/compiler/geomir"
)

func mustValidate(t *testing.T, m *Mesh) {
	t.Helper()
	if errs := m.Validate(); len(errs) != 0 {
		t.Fatalf("invalid mesh: %+v", errs)
	}
}

func TestSphereDeterministicConstruction(t *testing.T) {
	a, err := Sphere(10, 16, diag.Span{})
	if err != nil {
		t.Fatal(err)
	}
	b, err := Sphere(10, 16, diag.Span{})
	if err != nil {
		t.Fatal(err)
	}
	if len(a.Vertices) != len(b.Vertices) {
		t.Fatalf("vertex counts differ: %d vs %d", len(a.Vertices), len(b.Vertices))
	}
	for i := range a.Vertices {
		if a.Vertices[i] != b.Vertices[i] {
			t.Fatalf("vertex %d differs: %v vs %v", i, a.Vertices[i], b.Vertices[i])
		}
	}
	mustValidate(t, a)
	min, max := a.Bounds()
	if math.Abs(min.X+10) > 1e-9 || math.Abs(max.X-10) > 1e-9 {
		t.Errorf("sphere bounds X = [%v, %v], want [-10, 10]", min.X, max.X)
	}
}

func TestSphereChordErrorDecreasesWithSegments(t *testing.T) {
	maxChordError := func(segments int) float64 {
		m, err := Sphere(10, segments, diag.Span{})
		if err != nil {
			t.Fatal(err)
		}
		worst := 0.0
		for _, tri := range m.Triangles() {
			a, b, c := m.Vertices[tri[0]], m.Vertices[tri[1]], m.Vertices[tri[2]]
			mid := r3.Scale(1.0/3.0, r3.Add(a, r3.Add(b, c)))
			if e := 10 - r3.Norm(mid); e > worst {
				worst = e
			}
		}
		return worst
	}
	coarse, fine := maxChordError(8), maxChordError(64)
	if fine >= coarse {
		t.Errorf("chord error did not decrease: %v (8 segs) vs %v (64 segs)", coarse, fine)
	}
}

func TestCylinderConeCollapsesApex(t *testing.T) {
	cone, err := Cylinder(10, 5, 0, false, 12, diag.Span{})
	if err != nil {
		t.Fatal(err)
	}
	mustValidate(t, cone)
	// 12 base vertices, one apex; no top cap.
	if len(cone.Vertices) != 13 {
		t.Errorf("got %d vertices, want 13", len(cone.Vertices))
	}
	_, max := cone.Bounds()
	if max.Z != 10 {
		t.Errorf("apex at Z=%v, want 10", max.Z)
	}
}

func TestCylinderCentered(t *testing.T) {
	cyl, err := Cylinder(10, 3, 3, true, 8, diag.Span{})
	if err != nil {
		t.Fatal(err)
	}
	mustValidate(t, cyl)
	min, max := cyl.Bounds()
	if min.Z != -5 || max.Z != 5 {
		t.Errorf("got Z span [%v, %v], want [-5, 5]", min.Z, max.Z)
	}
}

func TestLinearExtrudeSquare(t *testing.T) {
	mesh, err := LinearExtrude(Square2D([2]float64{2, 2}, false), 5, 0, [2]float64{1, 1}, 1, false, diag.Span{})
	if err != nil {
		t.Fatal(err)
	}
	mustValidate(t, mesh)
	if len(mesh.Vertices) != 8 {
		t.Errorf("got %d vertices, want 8 (two rings of the square profile)", len(mesh.Vertices))
	}
	if len(mesh.Faces) != 12 {
		t.Errorf("got %d triangles, want 12", len(mesh.Faces))
	}
	min, max := mesh.Bounds()
	if min.Z != 0 || max.Z != 5 {
		t.Errorf("got Z span [%v, %v], want [0, 5]", min.Z, max.Z)
	}
}

func TestLinearExtrudeCenterAndScale(t *testing.T) {
	mesh, err := LinearExtrude(Square2D([2]float64{2, 2}, true), 4, 0, [2]float64{0.5, 0.5}, 4, true, diag.Span{})
	if err != nil {
		t.Fatal(err)
	}
	mustValidate(t, mesh)
	min, max := mesh.Bounds()
	if min.Z != -2 || max.Z != 2 {
		t.Errorf("got Z span [%v, %v], want [-2, 2] (center=true)", min.Z, max.Z)
	}
	// the top ring is scaled to half the bottom ring's extent
	if math.Abs(max.X-1) > 1e-9 || math.Abs(min.X+1) > 1e-9 {
		t.Errorf("got X span [%v, %v], want [-1, 1] from the unscaled bottom", min.X, max.X)
	}
}

func TestRotateExtrudeFullRevolution(t *testing.T) {
	profile := &Shape2D{Outer: [][2]float64{{2, 0}, {3, 0}, {3, 1}, {2, 1}}}
	mesh, err := RotateExtrude(profile, 360, 16, diag.Span{})
	if err != nil {
		t.Fatal(err)
	}
	mustValidate(t, mesh)
	if len(mesh.Vertices) != 16*4 {
		t.Errorf("got %d vertices, want 64 (16 copies of a 4-point profile, ends shared)", len(mesh.Vertices))
	}
	min, max := mesh.Bounds()
	if math.Abs(max.X-3) > 1e-9 || math.Abs(min.X+3) > 1e-9 {
		t.Errorf("got X span [%v, %v], want [-3, 3]", min.X, max.X)
	}
}

func TestRotateExtrudePartialSweepHasCaps(t *testing.T) {
	profile := &Shape2D{Outer: [][2]float64{{2, 0}, {3, 0}, {3, 1}, {2, 1}}}
	mesh, err := RotateExtrude(profile, 90, 8, diag.Span{})
	if err != nil {
		t.Fatal(err)
	}
	mustValidate(t, mesh)
	if len(mesh.Vertices) != 9*4 {
		t.Errorf("got %d vertices, want 36 (9 distinct copies over a quarter turn)", len(mesh.Vertices))
	}
}

func TestHull3DOfTwoCubes(t *testing.T) {
	a, err := Cube([3]float64{1, 1, 1}, false, diag.Span{})
	if err != nil {
		t.Fatal(err)
	}
	b, err := Cube([3]float64{1, 1, 1}, false, diag.Span{})
	if err != nil {
		t.Fatal(err)
	}
	b = ApplyMatrix(b, geomir.Translate([3]float64{5, 0, 0}))
	hull, err := Hull3D([]*Mesh{a, b}, diag.Span{})
	if err != nil {
		t.Fatal(err)
	}
	mustValidate(t, hull)
	min, max := hull.Bounds()
	if min.X != 0 || max.X != 6 || max.Y != 1 || max.Z != 1 {
		t.Errorf("hull bounds [%v, %v] don't span both cubes", min, max)
	}
}

func TestHull3DTooFewPoints(t *testing.T) {
	m := &Mesh{Vertices: []r3.Vec{{X: 0}, {X: 1}}}
	_, err := Hull3D([]*Mesh{m}, diag.Span{Start: 3, End: 9})
	ge, ok := err.(*GeometryError)
	if !ok {
		t.Fatalf("got %v, want a *GeometryError for fewer than 3 distinct points", err)
	}
	if ge.Span != (diag.Span{Start: 3, End: 9}) {
		t.Errorf("error span %+v does not point at the hull node", ge.Span)
	}
}

func TestHull2DConvexOutline(t *testing.T) {
	// a concave L-shape hulls to its bounding pentagon-or-smaller outline
	l := &Shape2D{Outer: [][2]float64{{0, 0}, {4, 0}, {4, 1}, {1, 1}, {1, 4}, {0, 4}}}
	hull := Hull2D([]*Shape2D{l})
	if len(hull.Outer) >= 6 {
		t.Errorf("hull kept %d points, want fewer than the concave input's 6", len(hull.Outer))
	}
	if got := ConvexHull2D([][2]float64{{0, 0}, {2, 0}, {1, 0.5}, {2, 2}, {0, 2}}); len(got) != 4 {
		t.Errorf("interior point survived the hull: %v", got)
	}
}

func TestOffset2DGrowsAndShrinks(t *testing.T) {
	square := Square2D([2]float64{10, 10}, false)
	grown := Offset2D(square, 2, false, 16)
	min, max := grown.Bounds()
	if math.Abs(min[0]+2) > 1e-6 || math.Abs(max[0]-12) > 1e-6 {
		t.Errorf("grown bounds X = [%v, %v], want [-2, 12]", min[0], max[0])
	}
	shrunk := Offset2D(square, -2, false, 16)
	min, max = shrunk.Bounds()
	if math.Abs(min[0]-2) > 1e-6 || math.Abs(max[0]-8) > 1e-6 {
		t.Errorf("shrunk bounds X = [%v, %v], want [2, 8]", min[0], max[0])
	}
}

func TestOffset2DRoundJoinAddsArcPoints(t *testing.T) {
	square := Square2D([2]float64{10, 10}, false)
	round := Offset2D(square, 2, true, 32)
	miter := Offset2D(square, 2, false, 32)
	if len(round.Outer) <= len(miter.Outer) {
		t.Errorf("round join produced %d points, miter %d; expected arc fans at corners", len(round.Outer), len(miter.Outer))
	}
}

func TestProjectionFlattenSilhouette(t *testing.T) {
	cube, err := Cube([3]float64{4, 6, 8}, false, diag.Span{})
	if err != nil {
		t.Fatal(err)
	}
	shape, err := Projection(cube, false, diag.Span{})
	if err != nil {
		t.Fatal(err)
	}
	min, max := shape.Bounds()
	if math.Abs(min[0]) > 1e-6 || math.Abs(max[0]-4) > 1e-6 || math.Abs(max[1]-6) > 1e-6 {
		t.Errorf("silhouette bounds [%v, %v], want [0,0]..[4,6]", min, max)
	}
}

func TestProjectionCutCrossSection(t *testing.T) {
	cube, err := Cube([3]float64{4, 4, 4}, true, diag.Span{})
	if err != nil {
		t.Fatal(err)
	}
	shape, err := Projection(cube, true, diag.Span{})
	if err != nil {
		t.Fatal(err)
	}
	min, max := shape.Bounds()
	if math.Abs(min[0]+2) > 1e-6 || math.Abs(max[0]-2) > 1e-6 {
		t.Errorf("cut bounds [%v, %v], want [-2,-2]..[2,2]", min, max)
	}
}

func TestBooleanUnionWithEmptyIsIdentity(t *testing.T) {
	cube, err := Cube([3]float64{3, 3, 3}, false, diag.Span{})
	if err != nil {
		t.Fatal(err)
	}
	out, err := Boolean3D(geomir.OpUnion, []*Mesh{cube, EmptyMesh()}, 1e-6, diag.Span{})
	if err != nil {
		t.Fatal(err)
	}
	if len(out.Faces) != len(cube.Faces) || len(out.Vertices) != len(cube.Vertices) {
		t.Errorf("union(A, Empty) changed the mesh: %d faces vs %d", len(out.Faces), len(cube.Faces))
	}
}

func TestBooleanDifferenceEmptyBaseIsEmpty(t *testing.T) {
	cube, err := Cube([3]float64{3, 3, 3}, false, diag.Span{})
	if err != nil {
		t.Fatal(err)
	}
	out, err := Boolean3D(geomir.OpDifference, []*Mesh{EmptyMesh(), cube}, 1e-6, diag.Span{})
	if err != nil {
		t.Fatal(err)
	}
	if len(out.Faces) != 0 {
		t.Errorf("difference(Empty, A) should be Empty, got %d faces", len(out.Faces))
	}
}

func TestBooleanIntersectionWithEmptyIsEmpty(t *testing.T) {
	cube, err := Cube([3]float64{3, 3, 3}, false, diag.Span{})
	if err != nil {
		t.Fatal(err)
	}
	out, err := Boolean3D(geomir.OpIntersection, []*Mesh{cube, EmptyMesh()}, 1e-6, diag.Span{})
	if err != nil {
		t.Fatal(err)
	}
	if len(out.Faces) != 0 {
		t.Errorf("intersection(A, Empty) should be Empty, got %d faces", len(out.Faces))
	}
}

func TestBooleanDifferenceRemovesVolume(t *testing.T) {
	base, err := Cube([3]float64{10, 10, 10}, true, diag.Span{})
	if err != nil {
		t.Fatal(err)
	}
	tool, err := Cube([3]float64{4, 4, 20}, true, diag.Span{})
	if err != nil {
		t.Fatal(err)
	}
	out, err := Boolean3D(geomir.OpDifference, []*Mesh{base, tool}, 1e-6, diag.Span{})
	if err != nil {
		t.Fatal(err)
	}
	mustValidate(t, out)
	if len(out.Faces) <= len(base.Faces) {
		t.Errorf("punching a hole should add faces: got %d, base had %d", len(out.Faces), len(base.Faces))
	}
}

func TestMirrorTransformRestoresWindingWhenDoubled(t *testing.T) {
	cube, err := Cube([3]float64{2, 2, 2}, false, diag.Span{})
	if err != nil {
		t.Fatal(err)
	}
	m := geomir.MirrorPlane([3]float64{1, 0, 0})
	once := ApplyMatrix(cube.Clone(), m)
	mustValidate(t, once)
	twice := ApplyMatrix(once, m)
	mustValidate(t, twice)
	if len(twice.Faces) != len(cube.Faces) {
		t.Errorf("double mirror changed face count: %d vs %d", len(twice.Faces), len(cube.Faces))
	}
	min, max := twice.Bounds()
	if min.X != 0 || max.X != 2 {
		t.Errorf("double mirror moved the mesh: X span [%v, %v]", min.X, max.X)
	}
}

func TestResize3D(t *testing.T) {
	cube, err := Cube([3]float64{2, 2, 2}, false, diag.Span{})
	if err != nil {
		t.Fatal(err)
	}
	out := Resize3D(cube, [3]float64{10, 0, 4}, [3]bool{})
	min, max := out.Bounds()
	if max.X-min.X != 10 {
		t.Errorf("X extent = %v, want 10", max.X-min.X)
	}
	if max.Y-min.Y != 2 {
		t.Errorf("Y extent = %v, want 2 (zero newsize keeps the child's extent)", max.Y-min.Y)
	}
	if max.Z-min.Z != 4 {
		t.Errorf("Z extent = %v, want 4", max.Z-min.Z)
	}
}

func TestMinkowski3DCubes(t *testing.T) {
	a, err := Cube([3]float64{2, 2, 2}, true, diag.Span{})
	if err != nil {
		t.Fatal(err)
	}
	b, err := Cube([3]float64{1, 1, 1}, true, diag.Span{})
	if err != nil {
		t.Fatal(err)
	}
	sum, _, err := Minkowski3D([]*Mesh{a, b}, diag.Span{})
	if err != nil {
		t.Fatal(err)
	}
	mustValidate(t, sum)
	min, max := sum.Bounds()
	if math.Abs(min.X+1.5) > 1e-9 || math.Abs(max.X-1.5) > 1e-9 {
		t.Errorf("minkowski bounds X = [%v, %v], want [-1.5, 1.5]", min.X, max.X)
	}
}
