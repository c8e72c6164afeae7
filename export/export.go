// Package export traverses the geometry kernel's final Result and flattens
// it into the three parallel f32/u32 buffers a WebGL renderer consumes:
// vertex positions, triangle indices, and per-vertex normals,
// with an optional per-vertex color array when the IR carried one. All
// internal math stays f64 (gonum's r3.Vec); conversion to f32 happens only
// at the boundary this package is.
package export

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/oscadgo/compiler/kernel"
)

// Buffers is the wire-shaped output of a compile: the root package's
// MeshBuffers minus the Stats and Diagnostics fields, which the root package
// fills in since it alone knows wall-clock compile time and the diagnostics.
type Buffers struct {
	Vertices []float32
	Indices  []uint32
	Normals  []float32
	Colors   []float32 // optional; empty when the IR carried no color
}

// FromResult flattens a kernel.Result (a 3D Mesh, or a 2D Shape2D rendered
// flat at Z=0 for a top-level 2D program) into Buffers.
func FromResult(r kernel.Result) Buffers {
	switch v := r.(type) {
	case *kernel.Mesh:
		return FromMesh(v)
	case *kernel.Shape2D:
		return fromShape2D(v)
	default:
		return Buffers{}
	}
}

// FromMesh computes area-weighted vertex normals and flattens mesh into
// Buffers.
func FromMesh(mesh *kernel.Mesh) Buffers {
	tris := mesh.Triangles()
	normals := accumulateNormals(mesh.Vertices, tris)

	b := Buffers{
		Vertices: make([]float32, 0, 3*len(mesh.Vertices)),
		Indices:  make([]uint32, 0, 3*len(tris)),
		Normals:  make([]float32, 0, 3*len(mesh.Vertices)),
	}
	for _, v := range mesh.Vertices {
		b.Vertices = append(b.Vertices, float32(v.X), float32(v.Y), float32(v.Z))
	}
	for _, n := range normals {
		b.Normals = append(b.Normals, float32(n.X), float32(n.Y), float32(n.Z))
	}
	for _, t := range tris {
		b.Indices = append(b.Indices, uint32(t[0]), uint32(t[1]), uint32(t[2]))
	}
	if mesh.Color != nil {
		c := *mesh.Color
		b.Colors = make([]float32, 0, 4*len(mesh.Vertices))
		for range mesh.Vertices {
			b.Colors = append(b.Colors, float32(c[0]), float32(c[1]), float32(c[2]), float32(c[3]))
		}
	}
	return b
}

// accumulateNormals sums each face's (unnormalized, so larger triangles
// weigh more — "area-weighted") normal into its three vertices, then
// normalizes every accumulator.
func accumulateNormals(verts []r3.Vec, tris [][3]int) []r3.Vec {
	acc := make([]r3.Vec, len(verts))
	for _, t := range tris {
		a, b, c := verts[t[0]], verts[t[1]], verts[t[2]]
		n := r3.Cross(r3.Sub(b, a), r3.Sub(c, a)) // magnitude is 2x triangle area: built-in area weighting
		acc[t[0]] = r3.Add(acc[t[0]], n)
		acc[t[1]] = r3.Add(acc[t[1]], n)
		acc[t[2]] = r3.Add(acc[t[2]], n)
	}
	for i, n := range acc {
		if l := r3.Norm(n); l > 1e-12 {
			acc[i] = r3.Scale(1/l, n)
		} else {
			acc[i] = r3.Vec{X: 0, Y: 0, Z: 1}
		}
	}
	return acc
}

// fromShape2D triangulates a top-level 2D result flat at Z=0. A flat sheet
// isn't a manifold solid, so this bypasses kernel.Mesh/Validate entirely
// and reports the same upward-facing normal for every vertex, matching how
// a flat preview sheet is lit head-on.
func fromShape2D(shape *kernel.Shape2D) Buffers {
	points, tris := shape.Triangulate()
	b := Buffers{
		Vertices: make([]float32, 0, 3*len(points)),
		Normals:  make([]float32, 0, 3*len(points)),
		Indices:  make([]uint32, 0, 3*len(tris)),
	}
	for _, p := range points {
		b.Vertices = append(b.Vertices, float32(p[0]), float32(p[1]), 0)
		b.Normals = append(b.Normals, 0, 0, 1)
	}
	for _, t := range tris {
		b.Indices = append(b.Indices, uint32(t[0]), uint32(t[1]), uint32(t[2]))
	}
	return b
}
