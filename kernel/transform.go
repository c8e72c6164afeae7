package kernel

import (
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/oscadgo/compiler/diag"
	"github.com/oscadgo/compiler/geomir"
)

// ApplyMatrix multiplies every vertex of mesh by m, reversing per-face
// winding when m's determinant is negative so outward-facing normals are
// preserved under mirrors and negative scales.
func ApplyMatrix(mesh *Mesh, m *mat.Dense) *Mesh {
	out := mesh.Clone()
	for i, v := range out.Vertices {
		p := geomir.ApplyPoint(m, [3]float64{v.X, v.Y, v.Z})
		out.Vertices[i] = r3.Vec{X: p[0], Y: p[1], Z: p[2]}
	}
	if geomir.Determinant3(m) < 0 {
		flipWinding(out)
	}
	return out
}

// flipWinding reverses every face by swapping the second and third
// half-edges of its triangle, rebuilding twin links that now point at the
// wrong directed edge.
func flipWinding(m *Mesh) {
	tris := m.Triangles()
	for i := range tris {
		tris[i][1], tris[i][2] = tris[i][2], tris[i][1]
	}
	rebuilt, err := NewMeshFromTriangles(m.Vertices, tris, diag.Span{})
	if err == nil {
		m.HalfEdges = rebuilt.HalfEdges
		m.Faces = rebuilt.Faces
	}
}

// ApplyMatrix2D applies the XY block of a 4x4 homogeneous matrix to a
// Shape2D's points, used when a transform wraps a 2D child.
func ApplyMatrix2D(shape *Shape2D, m *mat.Dense) *Shape2D {
	apply := func(pts [][2]float64) [][2]float64 {
		out := make([][2]float64, len(pts))
		for i, p := range pts {
			q := geomir.ApplyPoint(m, [3]float64{p[0], p[1], 0})
			out[i] = [2]float64{q[0], q[1]}
		}
		return out
	}
	out := &Shape2D{Outer: apply(shape.Outer)}
	for _, h := range shape.Holes {
		out.Holes = append(out.Holes, apply(h))
	}
	return out
}
