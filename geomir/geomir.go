// Package geomir is the geometry-agnostic intermediate representation the
// evaluator lowers an OpenSCAD AST into: a tree of GeometryNode values that
// the kernel package later realizes into concrete meshes. It plays the same
// role for this compiler that a shader IR plays between a parsed shader
// program and backend code generation.
package geomir

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/oscadgo/compiler/diag"
)

// GeometryNode is implemented by every node in the geometry IR. Every node
// carries the Span of the AST construct it was built from, so a kernel
// failure can still be reported against real source text.
type GeometryNode interface {
	geometryNode()
	Span() diag.Span
}

// Empty is the identity element for union: it produces no geometry. (An
// operation mixing 2D and 3D operands is a GeometryError, not Empty.)
type Empty struct {
	Span_ diag.Span
}

func (Empty) geometryNode()        {}
func (n Empty) Span() diag.Span    { return n.Span_ }

// Resolution captures the three `$fn/$fa/$fs` values a primitive was
// evaluated under, so the kernel can derive its segment count without
// reaching back into the evaluator's special-variable stack.
type Resolution struct {
	Fn float64
	Fa float64
	Fs float64
}

// Segments decides how many facets a circular primitive of the given
// radius gets: an explicit $fn wins (floored at 3), otherwise the angle
// bound 360/$fa and the arc-length bound 2πr/$fs compete and the smaller
// one is rounded up, floored at 5 fragments.
func (r Resolution) Segments(radius float64) int {
	if r.Fn > 0 {
		if r.Fn < 3 {
			return 3
		}
		return int(r.Fn)
	}
	fa := r.Fa
	if fa <= 0 {
		fa = 12
	}
	fs := r.Fs
	if fs <= 0 {
		fs = 2
	}
	n1 := 360.0 / fa
	n2 := 0.0
	if radius > 0 {
		n2 = (2 * math.Pi * radius) / fs
	}
	n := n1
	if n2 < n {
		n = n2
	}
	n = math.Ceil(n)
	if n < 5 {
		n = 5
	}
	return int(n)
}

// Cube is an axis-aligned box, `size` either a uniform scalar baked into all
// three dimensions by the evaluator or a true [x,y,z] vector, always
// centered at the origin's corner unless Center is set.
type Cube struct {
	Size   [3]float64
	Center bool
	Span_ diag.Span
}

func (*Cube) geometryNode() {}
func (n *Cube) Span() diag.Span { return n.Span_ }

// Sphere is centered at the origin with the given radius.
type Sphere struct {
	Radius float64
	Res    Resolution
	Span_ diag.Span
}

func (*Sphere) geometryNode() {}
func (n *Sphere) Span() diag.Span { return n.Span_ }

// Cylinder spans [0, h] on Z with independent top/bottom radii (R1 == R2
// for a true cylinder, R2 == 0 for a cone).
type Cylinder struct {
	Height     float64
	R1, R2     float64
	Center     bool
	Res        Resolution
	Span_ diag.Span
}

func (*Cylinder) geometryNode() {}
func (n *Cylinder) Span() diag.Span { return n.Span_ }

// Polyhedron is an explicit vertex/face list, as produced by the
// `polyhedron()` builtin.
type Polyhedron struct {
	Points    [][3]float64
	Faces     [][]int
	Convexity int
	Span_     diag.Span
}

func (*Polyhedron) geometryNode() {}
func (n *Polyhedron) Span() diag.Span { return n.Span_ }

// Circle is a 2D primitive: a disc approximated by Res.Segments(Radius)
// edges, lying in the XY plane at Z=0.
type Circle struct {
	Radius float64
	Res    Resolution
	Span_ diag.Span
}

func (*Circle) geometryNode() {}
func (n *Circle) Span() diag.Span { return n.Span_ }

// Square is a 2D axis-aligned rectangle.
type Square struct {
	Size   [2]float64
	Center bool
	Span_ diag.Span
}

func (*Square) geometryNode() {}
func (n *Square) Span() diag.Span { return n.Span_ }

// Polygon is an explicit 2D outline, with optional Paths describing holes
// (path 0 is the outer boundary when Paths is non-nil).
type Polygon struct {
	Points [][2]float64
	Paths  [][]int
	Span_ diag.Span
}

func (*Polygon) geometryNode() {}
func (n *Polygon) Span() diag.Span { return n.Span_ }

// Transform applies a 4x4 affine matrix (row-major, homogeneous) to Child.
// Matrix composition for chained transform calls happens before this node
// is built — Matrix is already the fully composed transform.
type Transform struct {
	Matrix *mat.Dense // 4x4
	Child  GeometryNode
	Span_ diag.Span
}

func (*Transform) geometryNode() {}
func (n *Transform) Span() diag.Span { return n.Span_ }

// Color tags Child with an RGBA color; purely cosmetic; it does not affect
// mesh topology and is preserved into export metadata when present.
type Color struct {
	RGBA  [4]float64
	Child GeometryNode
	Span_ diag.Span
}

func (*Color) geometryNode() {}
func (n *Color) Span() diag.Span { return n.Span_ }

// ModifierKind mirrors scad.Modifier but lives in the geometry IR so the
// kernel does not need to import the parser package.
type ModifierKind uint8

const (
	ModNone ModifierKind = iota
	ModDisableOthers
	ModHighlight
	ModTransparent
	ModDisabled
)

// Modifier wraps Child with a `!`/`#`/`%`/`*` annotation; the
// kernel/root pipeline interprets these against sibling nodes during
// assembly (DisableOthers nodes suppress their siblings, Transparent nodes
// contribute nothing to the built result). `*` calls are dropped by the
// evaluator before the IR is built, so Disabled nodes do not reach the kernel.
type Modifier struct {
	Kind  ModifierKind
	Child GeometryNode
	Span_ diag.Span
}

func (*Modifier) geometryNode() {}
func (n *Modifier) Span() diag.Span { return n.Span_ }

// BooleanOp discriminates a Boolean node's combining rule.
type BooleanOp uint8

const (
	OpUnion BooleanOp = iota
	OpDifference
	OpIntersection
)

// Boolean combines Children left-to-right: for OpDifference, Children[0] is
// the base and Children[1:] are all subtracted from it.
type Boolean struct {
	Op       BooleanOp
	Children []GeometryNode
	Span_ diag.Span
}

func (*Boolean) geometryNode() {}
func (n *Boolean) Span() diag.Span { return n.Span_ }

// LinearExtrude sweeps Child (a 2D profile) along Z, optionally twisting and
// scaling linearly from bottom to top.
type LinearExtrude struct {
	Child     GeometryNode
	Height    float64
	Twist     float64 // degrees, total rotation applied at the top
	Scale     [2]float64
	Slices    int
	Center    bool
	Span_ diag.Span
}

func (*LinearExtrude) geometryNode() {}
func (n *LinearExtrude) Span() diag.Span { return n.Span_ }

// RotateExtrude revolves Child (a 2D profile, conventionally in the
// half-plane x>=0) around the Z axis by Angle degrees.
type RotateExtrude struct {
	Child GeometryNode
	Angle float64
	Res   Resolution
	Span_ diag.Span
}

func (*RotateExtrude) geometryNode() {}
func (n *RotateExtrude) Span() diag.Span { return n.Span_ }

// Hull replaces Children with their convex hull.
type Hull struct {
	Children []GeometryNode
	Span_ diag.Span
}

func (*Hull) geometryNode() {}
func (n *Hull) Span() diag.Span { return n.Span_ }

// Minkowski replaces Children with their pairwise Minkowski sum.
type Minkowski struct {
	Children []GeometryNode
	Span_ diag.Span
}

func (*Minkowski) geometryNode() {}
func (n *Minkowski) Span() diag.Span { return n.Span_ }

// Offset grows (Delta>0) or shrinks (Delta<0) a 2D profile by Delta, using a
// rounded join unless Chamfer is set.
type Offset struct {
	Child   GeometryNode
	Delta   float64
	Chamfer bool
	Res     Resolution
	Span_ diag.Span
}

func (*Offset) geometryNode() {}
func (n *Offset) Span() diag.Span { return n.Span_ }

// Projection flattens a 3D Child onto the XY plane; Cut selects the z=0
// cross-section instead of the full silhouette.
type Projection struct {
	Child GeometryNode
	Cut   bool
	Span_ diag.Span
}

func (*Projection) geometryNode() {}
func (n *Projection) Span() diag.Span { return n.Span_ }

// Resize scales Child so its bounding box matches NewSize on every axis
// where NewSize is nonzero and Auto doesn't suppress it; axes with NewSize
// 0 keep Child's own extent, mirroring OpenSCAD's `resize([x,y,z], auto)`.
type Resize struct {
	Child   GeometryNode
	NewSize [3]float64
	Auto    [3]bool
	Span_   diag.Span
}

func (*Resize) geometryNode()        {}
func (n *Resize) Span() diag.Span    { return n.Span_ }

// Identity returns the 4x4 identity matrix, the starting point for
// composing a chain of transform calls.
func Identity() *mat.Dense {
	m := mat.NewDense(4, 4, nil)
	for i := 0; i < 4; i++ {
		m.Set(i, i, 1)
	}
	return m
}
