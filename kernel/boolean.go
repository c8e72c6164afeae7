package kernel

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/oscadgo/compiler/diag"
	"github.com/oscadgo/compiler/geomir"
)

func meshToBSPPolygons(m *Mesh) []bspPolygon {
	tris := m.Triangles()
	out := make([]bspPolygon, 0, len(tris))
	for _, t := range tris {
		verts := []r3.Vec{m.Vertices[t[0]], m.Vertices[t[1]], m.Vertices[t[2]]}
		out = append(out, bspPolygon{Verts: verts, Plane: planeFromPolygon(verts)})
	}
	return out
}

func quantize(v r3.Vec, tol float64) [3]int64 {
	return [3]int64{
		int64(math.Round(v.X / tol)),
		int64(math.Round(v.Y / tol)),
		int64(math.Round(v.Z / tol)),
	}
}

// bspPolygonsToMesh fan-triangulates every (possibly >3-sided) clipped
// polygon and merges vertices within tol, the sanitation pass that runs
// before the result is handed back as a half-edge mesh.
func bspPolygonsToMesh(polys []bspPolygon, tol float64, span diag.Span) (*Mesh, error) {
	if tol <= 0 {
		tol = 1e-9
	}
	var verts []r3.Vec
	index := map[[3]int64]int{}
	lookup := func(v r3.Vec) int {
		k := quantize(v, tol)
		if i, ok := index[k]; ok {
			return i
		}
		i := len(verts)
		verts = append(verts, v)
		index[k] = i
		return i
	}
	var tris [][3]int
	for _, p := range polys {
		if len(p.Verts) < 3 {
			continue
		}
		idx := make([]int, len(p.Verts))
		for i, v := range p.Verts {
			idx[i] = lookup(v)
		}
		for i := 1; i < len(idx)-1; i++ {
			if idx[0] == idx[i] || idx[i] == idx[i+1] || idx[0] == idx[i+1] {
				continue
			}
			tris = append(tris, [3]int{idx[0], idx[i], idx[i+1]})
		}
	}
	return NewMeshFromTriangles(verts, tris, span)
}

func boundsDiagonal(meshes []*Mesh) float64 {
	var min, max r3.Vec
	first := true
	for _, m := range meshes {
		if len(m.Vertices) == 0 {
			continue
		}
		mn, mx := m.Bounds()
		if first {
			min, max, first = mn, mx, false
			continue
		}
		min = r3.Vec{X: math.Min(min.X, mn.X), Y: math.Min(min.Y, mn.Y), Z: math.Min(min.Z, mn.Z)}
		max = r3.Vec{X: math.Max(max.X, mx.X), Y: math.Max(max.Y, mx.Y), Z: math.Max(max.Z, mx.Z)}
	}
	if first {
		return 1
	}
	return r3.Norm(r3.Sub(max, min))
}

// Boolean3D folds op left across meshes — union(a, b, c) is
// union(union(a, b), c) — using BSP clipping for each pairwise step.
// epsilonScale is CompileOptions' relative-tolerance knob; the absolute
// merge tolerance is derived from the combined bounding-box diagonal
// rather than a hard-coded constant.
func Boolean3D(op geomir.BooleanOp, meshes []*Mesh, epsilonScale float64, span diag.Span) (*Mesh, error) {
	// Empty operands are identities for union and for difference's
	// subtrahends, but an empty base (difference) or any empty operand
	// (intersection) makes the whole result empty.
	switch op {
	case geomir.OpDifference:
		if len(meshes) == 0 || len(meshes[0].Vertices) == 0 {
			return EmptyMesh(), nil
		}
	case geomir.OpIntersection:
		for _, m := range meshes {
			if len(m.Vertices) == 0 {
				return EmptyMesh(), nil
			}
		}
	}
	nonEmpty := make([]*Mesh, 0, len(meshes))
	for _, m := range meshes {
		if len(m.Vertices) > 0 {
			nonEmpty = append(nonEmpty, m)
		}
	}
	if len(nonEmpty) == 0 {
		return EmptyMesh(), nil
	}
	tol := epsilonScale * boundsDiagonal(nonEmpty)

	acc := nonEmpty[0]
	for _, next := range nonEmpty[1:] {
		a := newBSP(meshToBSPPolygons(acc), tol)
		b := newBSP(meshToBSPPolygons(next), tol)
		var combined *bspNode
		switch op {
		case geomir.OpUnion:
			combined = bspUnion(a, b)
		case geomir.OpDifference:
			combined = bspSubtract(a, b)
		case geomir.OpIntersection:
			combined = bspIntersect(a, b)
		}
		mesh, err := bspPolygonsToMesh(combined.allPolygons(), tol, span)
		if err != nil {
			return nil, err
		}
		acc = mesh
	}
	if op == geomir.OpIntersection && len(nonEmpty) == 1 {
		return nonEmpty[0].Clone(), nil
	}
	if errs := acc.Validate(); len(errs) > 0 {
		return nil, &GeometryError{Span: span, Message: "boolean result is not a valid manifold mesh: " + errs[0].Error()}
	}
	acc.Color = meshes[0].Color
	return acc, nil
}
