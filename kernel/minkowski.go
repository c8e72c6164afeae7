package kernel

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/oscadgo/compiler/diag"
)

// minkowskiVertexWarnThreshold is the pairwise vertex-product size above
// which Minkowski3D returns its warn flag as true, marking the operation as
// expensive. Build's minkowski path discards that flag.
const minkowskiVertexWarnThreshold = 20000

// Minkowski3D computes the convex hull of the pairwise vertex-sum set for
// two operands; operands beyond the second are folded in pairwise, left to
// right, matching the n-ary fold rule used elsewhere in the kernel.
// Non-convex inputs aren't decomposed into convex pieces, so the result is
// the hull of the raw sum set, which is exact only when both operands are
// already convex.
func Minkowski3D(meshes []*Mesh, span diag.Span) (mesh *Mesh, warn bool, err error) {
	nonEmpty := make([]*Mesh, 0, len(meshes))
	for _, m := range meshes {
		if len(m.Vertices) > 0 {
			nonEmpty = append(nonEmpty, m)
		}
	}
	if len(nonEmpty) == 0 {
		return EmptyMesh(), false, nil
	}
	acc := nonEmpty[0]
	for _, next := range nonEmpty[1:] {
		if len(acc.Vertices)*len(next.Vertices) > minkowskiVertexWarnThreshold {
			warn = true
		}
		sum := make([]r3.Vec, 0, len(acc.Vertices)*len(next.Vertices))
		for _, a := range acc.Vertices {
			for _, b := range next.Vertices {
				sum = append(sum, r3.Add(a, b))
			}
		}
		hull, herr := Hull3D([]*Mesh{{Vertices: sum}}, span)
		if herr != nil {
			return nil, warn, herr
		}
		acc = hull
	}
	return acc, warn, nil
}

// Minkowski2D is the 2D analog: convex hull of the pairwise point-sum set.
func Minkowski2D(shapes []*Shape2D) *Shape2D {
	nonEmpty := make([]*Shape2D, 0, len(shapes))
	for _, s := range shapes {
		if len(s.Outer) > 0 {
			nonEmpty = append(nonEmpty, s)
		}
	}
	if len(nonEmpty) == 0 {
		return &Shape2D{}
	}
	acc := nonEmpty[0]
	for _, next := range nonEmpty[1:] {
		var sum [][2]float64
		for _, a := range acc.Outer {
			for _, b := range next.Outer {
				sum = append(sum, [2]float64{a[0] + b[0], a[1] + b[1]})
			}
		}
		hull := ConvexHull2D(sum)
		acc = &Shape2D{Outer: ensureWinding(hull, true)}
	}
	return acc
}
