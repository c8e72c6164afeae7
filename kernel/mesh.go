// Package kernel realizes a geomir.GeometryNode tree into concrete geometry:
// half-edge meshes for 3D solids, polygon outlines for 2D cross-sections.
// It is the back end of the pipeline — the stage that turns a resolved IR
// into the artifact a caller actually wants.
package kernel

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/oscadgo/compiler/diag"
)

// Result is produced by Build: either a 3D Mesh or a 2D Shape2D. Nodes whose
// dimensionality depends on their children (Transform, Color, Boolean, Hull,
// Minkowski) dispatch on the concrete type of their child's Result.
type Result interface {
	result()
}

// HalfEdge is one directed half of an undirected mesh edge.
type HalfEdge struct {
	Origin int
	Twin   int
	Next   int
	Face   int
}

// Face is a triangle, named by any one of its three half-edges.
type Face struct {
	HalfEdge int
}

// Mesh is an index-based half-edge arena. Vertices, HalfEdges, and Faces
// are owned outright — there is no aliasing between meshes, so combinators
// can rewrite an input's arenas or hand them to a result without
// defensive copies.
type Mesh struct {
	Vertices  []r3.Vec
	HalfEdges []HalfEdge
	Faces     []Face
	Color     *[4]float64
}

func (*Mesh) result() {}

// edgeKey identifies an undirected edge by its unordered vertex pair, used
// only while stitching half-edges together from a triangle soup.
type edgeKey struct{ a, b int }

func keyOf(a, b int) edgeKey {
	if a > b {
		a, b = b, a
	}
	return edgeKey{a, b}
}

// NewMeshFromTriangles builds a half-edge mesh from a flat vertex list and a
// list of triangles (vertex index triples), linking twins by matching
// edges by their undirected vertex pair. An edge used by a number of faces
// other than 2 (an open or non-manifold input) is reported as a
// GeometryError. The direction of the two paired half-edges is not
// compared, so inconsistent winding between neighbouring faces is not
// detected here.
func NewMeshFromTriangles(verts []r3.Vec, tris [][3]int, span diag.Span) (*Mesh, error) {
	m := &Mesh{Vertices: verts}
	type pending struct{ he int }
	byDirectedEdge := map[edgeKey][]int{} // edgeKey -> half-edge indices incident to it

	for _, t := range tris {
		if t[0] == t[1] || t[1] == t[2] || t[0] == t[2] {
			continue // degenerate triangle, dropped during sanitation
		}
		faceIdx := len(m.Faces)
		base := len(m.HalfEdges)
		for i := 0; i < 3; i++ {
			o := t[i]
			m.HalfEdges = append(m.HalfEdges, HalfEdge{Origin: o, Twin: -1, Next: base + (i+1)%3, Face: faceIdx})
		}
		m.Faces = append(m.Faces, Face{HalfEdge: base})
		for i := 0; i < 3; i++ {
			a, b := t[i], t[(i+1)%3]
			k := keyOf(a, b)
			byDirectedEdge[k] = append(byDirectedEdge[k], base+i)
		}
	}

	for k, hes := range byDirectedEdge {
		switch len(hes) {
		case 2:
			m.HalfEdges[hes[0]].Twin = hes[1]
			m.HalfEdges[hes[1]].Twin = hes[0]
		case 1:
			return nil, &GeometryError{Span: span, Message: fmt.Sprintf("boundary edge between vertices %d and %d: mesh is not closed", k.a, k.b)}
		default:
			return nil, &GeometryError{Span: span, Message: fmt.Sprintf("edge between vertices %d and %d is shared by %d faces, not 2: non-manifold", k.a, k.b, len(hes))}
		}
	}
	return m, nil
}

// Triangles reconstructs vertex-index triples by walking each face's ring of
// three half-edges. Used by export and by algorithms that need a flat
// triangle list (CSG, hull) rather than the half-edge linkage.
func (m *Mesh) Triangles() [][3]int {
	out := make([][3]int, 0, len(m.Faces))
	for _, f := range m.Faces {
		h0 := f.HalfEdge
		h1 := m.HalfEdges[h0].Next
		h2 := m.HalfEdges[h1].Next
		out = append(out, [3]int{m.HalfEdges[h0].Origin, m.HalfEdges[h1].Origin, m.HalfEdges[h2].Origin})
	}
	return out
}

// Bounds returns the mesh's axis-aligned bounding box. An empty mesh returns
// a degenerate box at the origin.
func (m *Mesh) Bounds() (min, max r3.Vec) {
	if len(m.Vertices) == 0 {
		return r3.Vec{}, r3.Vec{}
	}
	min, max = m.Vertices[0], m.Vertices[0]
	for _, v := range m.Vertices[1:] {
		min = r3.Vec{X: math.Min(min.X, v.X), Y: math.Min(min.Y, v.Y), Z: math.Min(min.Z, v.Z)}
		max = r3.Vec{X: math.Max(max.X, v.X), Y: math.Max(max.Y, v.Y), Z: math.Max(max.Z, v.Z)}
	}
	return min, max
}

// Clone returns a deep copy; callers that need to keep both an input and a
// transformed derivative (e.g. boolean operands) should clone first.
func (m *Mesh) Clone() *Mesh {
	out := &Mesh{
		Vertices:  append([]r3.Vec(nil), m.Vertices...),
		HalfEdges: append([]HalfEdge(nil), m.HalfEdges...),
		Faces:     append([]Face(nil), m.Faces...),
	}
	if m.Color != nil {
		c := *m.Color
		out.Color = &c
	}
	return out
}

// EmptyMesh is the kernel's representation of geomir.Empty: zero vertices,
// zero faces, trivially valid.
func EmptyMesh() *Mesh { return &Mesh{} }

// ValidationError describes one violation of the half-edge manifold
// invariants: a message plus enough context (here, a face index) to locate
// it.
type ValidationError struct {
	Message string
	Face    int
}

func (e ValidationError) Error() string {
	if e.Face >= 0 {
		return fmt.Sprintf("face %d: %s", e.Face, e.Message)
	}
	return e.Message
}

// Validate checks every invariant a well-formed mesh holds: every
// half-edge has a twin, twin(twin(h)) == h, every face is a triangle, and
// every vertex is referenced by at least one half-edge. It never panics;
// violations accumulate and are all reported.
func (m *Mesh) Validate() []ValidationError {
	var errs []ValidationError
	seen := make([]bool, len(m.Vertices))
	for fi, f := range m.Faces {
		h0 := f.HalfEdge
		h1 := m.HalfEdges[h0].Next
		h2 := m.HalfEdges[h1].Next
		if m.HalfEdges[h2].Next != h0 {
			errs = append(errs, ValidationError{Face: fi, Message: "face is not a triangle (next^3 != identity)"})
		}
		for _, h := range [3]int{h0, h1, h2} {
			he := m.HalfEdges[h]
			if he.Twin < 0 || he.Twin >= len(m.HalfEdges) {
				errs = append(errs, ValidationError{Face: fi, Message: "half-edge has no twin"})
				continue
			}
			if m.HalfEdges[he.Twin].Twin != h {
				errs = append(errs, ValidationError{Face: fi, Message: "twin linkage is not involutive"})
			}
			if he.Origin >= 0 && he.Origin < len(seen) {
				seen[he.Origin] = true
			}
		}
	}
	for vi, ok := range seen {
		if !ok {
			errs = append(errs, ValidationError{Face: -1, Message: fmt.Sprintf("vertex %d is unreachable from any face", vi)})
		}
	}
	return errs
}

// ProbeSelfIntersections does a bounded, bounding-box-only scan for
// overlapping faces that aren't topological neighbors — a cheap proxy for
// an exact-predicate self-intersection test. maxPairs bounds the O(n^2)
// cost; polyhedron()'s convexity hint sets it. The probe supplements
// Validate, it never replaces it.
func (m *Mesh) ProbeSelfIntersections(maxPairs int) []ValidationError {
	n := len(m.Faces)
	if maxPairs <= 0 || n < 4 {
		return nil
	}
	bounds := make([][2]r3.Vec, n)
	tris := m.Triangles()
	for i, t := range tris {
		a, b, c := m.Vertices[t[0]], m.Vertices[t[1]], m.Vertices[t[2]]
		min := r3.Vec{X: math.Min(a.X, math.Min(b.X, c.X)), Y: math.Min(a.Y, math.Min(b.Y, c.Y)), Z: math.Min(a.Z, math.Min(b.Z, c.Z))}
		max := r3.Vec{X: math.Max(a.X, math.Max(b.X, c.X)), Y: math.Max(a.Y, math.Max(b.Y, c.Y)), Z: math.Max(a.Z, math.Max(b.Z, c.Z))}
		bounds[i] = [2]r3.Vec{min, max}
	}
	shared := func(i, j int) bool {
		for _, vi := range tris[i] {
			for _, vj := range tris[j] {
				if vi == vj {
					return true
				}
			}
		}
		return false
	}
	overlap := func(i, j int) bool {
		bi, bj := bounds[i], bounds[j]
		return bi[0].X <= bj[1].X && bj[0].X <= bi[1].X &&
			bi[0].Y <= bj[1].Y && bj[0].Y <= bi[1].Y &&
			bi[0].Z <= bj[1].Z && bj[0].Z <= bi[1].Z
	}
	var errs []ValidationError
	checked := 0
	for i := 0; i < n && checked < maxPairs; i++ {
		for j := i + 1; j < n && checked < maxPairs; j++ {
			checked++
			if shared(i, j) {
				continue
			}
			if overlap(i, j) {
				errs = append(errs, ValidationError{Face: i, Message: fmt.Sprintf("bounding box overlaps non-adjacent face %d, possible self-intersection", j)})
			}
		}
	}
	return errs
}
