package kernel

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/oscadgo/compiler/diag"
)

// Hull3D computes the convex hull of the combined vertex set of meshes via
// Quickhull: start from an extreme tetrahedron, then repeatedly
// assign outside points to the hull face whose plane they're in front of and
// replace that face with the cone from its farthest outside point. All-coplanar
// input goes to hullCoplanarFallback, whose one-sided polygon fan is not a
// closed mesh and is returned as a GeometryError.
func Hull3D(meshes []*Mesh, span diag.Span) (*Mesh, error) {
	var pts []r3.Vec
	for _, m := range meshes {
		pts = append(pts, m.Vertices...)
	}
	pts = dedupPoints(pts, 1e-9)
	if len(pts) < 3 {
		return nil, &GeometryError{Span: span, Message: "hull needs at least 3 distinct points"}
	}
	tetra, ok := findExtremeTetrahedron(pts)
	if !ok {
		// all points coplanar (or collinear): fall back to a 2D hull on
		// their common plane.
		return hullCoplanarFallback(pts, span)
	}

	type face struct {
		verts    [3]int
		normal   r3.Vec
		w        float64
		outside  []int
	}
	newFace := func(a, b, c int, interior r3.Vec) face {
		n := r3.Unit(r3.Cross(r3.Sub(pts[b], pts[a]), r3.Sub(pts[c], pts[a])))
		w := r3.Dot(n, pts[a])
		if r3.Dot(n, interior)-w > 0 {
			a, b = b, a
			n = r3.Scale(-1, n)
			w = -w
		}
		return face{verts: [3]int{a, b, c}, normal: n, w: w}
	}
	interior := centroidOf([]r3.Vec{pts[tetra[0]], pts[tetra[1]], pts[tetra[2]], pts[tetra[3]]})
	faces := []face{
		newFace(tetra[0], tetra[1], tetra[2], interior),
		newFace(tetra[0], tetra[1], tetra[3], interior),
		newFace(tetra[0], tetra[2], tetra[3], interior),
		newFace(tetra[1], tetra[2], tetra[3], interior),
	}

	assigned := make([]bool, len(pts))
	for _, t := range tetra {
		assigned[t] = true
	}
	distTo := func(f face, p r3.Vec) float64 { return r3.Dot(f.normal, p) - f.w }
	for fi := range faces {
		for pi, p := range pts {
			if assigned[pi] {
				continue
			}
			if distTo(faces[fi], p) > 1e-9 {
				faces[fi].outside = append(faces[fi].outside, pi)
			}
		}
	}

	for {
		fi := -1
		for i, f := range faces {
			if len(f.outside) > 0 {
				fi = i
				break
			}
		}
		if fi < 0 {
			break
		}
		f := faces[fi]
		farthest, farDist := -1, 0.0
		for _, pi := range f.outside {
			d := distTo(f, pts[pi])
			if d > farDist {
				farDist, farthest = d, pi
			}
		}
		apex := farthest
		assigned[apex] = true

		// Find all faces visible from apex and collect their horizon edges.
		visible := map[int]bool{}
		for i, g := range faces {
			if distTo(g, pts[apex]) > 1e-9 {
				visible[i] = true
			}
		}
		type edge struct{ a, b int }
		edgeCount := map[edge]int{}
		canon := func(a, b int) edge {
			if a > b {
				a, b = b, a
			}
			return edge{a, b}
		}
		for i := range faces {
			if !visible[i] {
				continue
			}
			v := faces[i].verts
			for k := 0; k < 3; k++ {
				edgeCount[canon(v[k], v[(k+1)%3])]++
			}
		}
		var horizon []edge
		for i := range faces {
			if !visible[i] {
				continue
			}
			v := faces[i].verts
			for k := 0; k < 3; k++ {
				a, b := v[k], v[(k+1)%3]
				if edgeCount[canon(a, b)] == 1 {
					horizon = append(horizon, edge{a, b})
				}
			}
		}

		orphaned := map[int]bool{}
		var kept []face
		for i, g := range faces {
			if visible[i] {
				orphaned[i] = true
				for _, pi := range g.outside {
					if pi != apex {
						orphaned[pi] = true
					}
				}
				continue
			}
			kept = append(kept, g)
		}
		faces = kept

		var newFaces []face
		for _, e := range horizon {
			nf := newFace(e.a, e.b, apex, interior)
			newFaces = append(newFaces, nf)
		}
		var orphanList []int
		for pi := range orphaned {
			if pi != apex {
				orphanList = append(orphanList, pi)
			}
		}
		for _, pi := range orphanList {
			assigned[pi] = false
		}
		for ni := range newFaces {
			for _, pi := range orphanList {
				if assigned[pi] {
					continue
				}
				if distTo(newFaces[ni], pts[pi]) > 1e-9 {
					newFaces[ni].outside = append(newFaces[ni].outside, pi)
					assigned[pi] = true
				}
			}
		}
		faces = append(faces, newFaces...)
	}

	remap := map[int]int{}
	var verts []r3.Vec
	var tris [][3]int
	for _, f := range faces {
		var t [3]int
		for k, vi := range f.verts {
			ni, ok := remap[vi]
			if !ok {
				ni = len(verts)
				remap[vi] = ni
				verts = append(verts, pts[vi])
			}
			t[k] = ni
		}
		tris = append(tris, t)
	}
	return NewMeshFromTriangles(verts, tris, span)
}

func dedupPoints(pts []r3.Vec, tol float64) []r3.Vec {
	seen := map[[3]int64]bool{}
	var out []r3.Vec
	for _, p := range pts {
		k := quantize(p, tol)
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, p)
	}
	return out
}

// findExtremeTetrahedron picks 4 affinely-independent points to seed
// Quickhull: the min/max-X points, the point farthest from that line, and the
// point farthest from that plane. Returns ok=false if all points are coplanar.
func findExtremeTetrahedron(pts []r3.Vec) ([4]int, bool) {
	minX, maxX := 0, 0
	for i, p := range pts {
		if p.X < pts[minX].X {
			minX = i
		}
		if p.X > pts[maxX].X {
			maxX = i
		}
	}
	if minX == maxX {
		return [4]int{}, false
	}
	a, b := minX, maxX
	farLine, farLineDist := -1, 0.0
	for i, p := range pts {
		d := r3.Norm(r3.Cross(r3.Sub(p, pts[a]), r3.Sub(pts[b], pts[a])))
		if d > farLineDist {
			farLineDist, farLine = d, i
		}
	}
	if farLine < 0 || farLineDist < 1e-12 {
		return [4]int{}, false
	}
	c := farLine
	n := r3.Unit(r3.Cross(r3.Sub(pts[b], pts[a]), r3.Sub(pts[c], pts[a])))
	w := r3.Dot(n, pts[a])
	farPlane, farPlaneDist := -1, 0.0
	for i, p := range pts {
		d := math.Abs(r3.Dot(n, p) - w)
		if d > farPlaneDist {
			farPlaneDist, farPlane = d, i
		}
	}
	if farPlane < 0 || farPlaneDist < 1e-12 {
		return [4]int{}, false
	}
	return [4]int{a, b, c, farPlane}, true
}

// hullCoplanarFallback handles all-coplanar 3D input by computing a 2D hull
// in the plane's local basis and lifting it back to 3D as a one-sided
// triangle fan. The fan has open edges, so NewMeshFromTriangles rejects it
// with a GeometryError; only input with fewer than 3 hull points or no
// usable plane normal returns an empty mesh.
func hullCoplanarFallback(pts []r3.Vec, span diag.Span) (*Mesh, error) {
	if len(pts) < 3 {
		return EmptyMesh(), nil
	}
	origin := pts[0]
	var normal r3.Vec
	for i := 1; i < len(pts)-1; i++ {
		n := r3.Cross(r3.Sub(pts[i], origin), r3.Sub(pts[i+1], origin))
		if r3.Norm(n) > 1e-12 {
			normal = r3.Unit(n)
			break
		}
	}
	if r3.Norm(normal) == 0 {
		return EmptyMesh(), nil
	}
	u := r3.Unit(r3.Sub(pts[1], origin))
	v := r3.Cross(normal, u)
	pts2 := make([][2]float64, len(pts))
	for i, p := range pts {
		rel := r3.Sub(p, origin)
		pts2[i] = [2]float64{r3.Dot(rel, u), r3.Dot(rel, v)}
	}
	hull2 := ConvexHull2D(pts2)
	if len(hull2) < 3 {
		return EmptyMesh(), nil
	}
	verts := make([]r3.Vec, len(hull2))
	for i, p := range hull2 {
		verts[i] = r3.Add(origin, r3.Add(r3.Scale(p[0], u), r3.Scale(p[1], v)))
	}
	var tris [][3]int
	for i := 1; i < len(verts)-1; i++ {
		tris = append(tris, [3]int{0, i, i + 1})
	}
	return NewMeshFromTriangles(verts, tris, span)
}

// ConvexHull2D is Andrew's monotone chain, O(n log n), used both for 2D
// Hull IR nodes and the coplanar 3D fallback above.
func ConvexHull2D(pts [][2]float64) [][2]float64 {
	uniq := map[[2]int64]bool{}
	var sorted [][2]float64
	for _, p := range pts {
		k := [2]int64{int64(math.Round(p[0] * 1e9)), int64(math.Round(p[1] * 1e9))}
		if uniq[k] {
			continue
		}
		uniq[k] = true
		sorted = append(sorted, p)
	}
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i][0] != sorted[j][0] {
			return sorted[i][0] < sorted[j][0]
		}
		return sorted[i][1] < sorted[j][1]
	})
	if len(sorted) < 3 {
		return sorted
	}
	cross := func(o, a, b [2]float64) float64 {
		return (a[0]-o[0])*(b[1]-o[1]) - (a[1]-o[1])*(b[0]-o[0])
	}
	var lower, upper [][2]float64
	for _, p := range sorted {
		for len(lower) >= 2 && cross(lower[len(lower)-2], lower[len(lower)-1], p) <= 0 {
			lower = lower[:len(lower)-1]
		}
		lower = append(lower, p)
	}
	for i := len(sorted) - 1; i >= 0; i-- {
		p := sorted[i]
		for len(upper) >= 2 && cross(upper[len(upper)-2], upper[len(upper)-1], p) <= 0 {
			upper = upper[:len(upper)-1]
		}
		upper = append(upper, p)
	}
	return append(lower[:len(lower)-1], upper[:len(upper)-1]...)
}

// Hull2D wraps ConvexHull2D in a Shape2D for 2D Hull IR nodes.
func Hull2D(shapes []*Shape2D) *Shape2D {
	var pts [][2]float64
	for _, s := range shapes {
		pts = append(pts, s.Outer...)
		for _, h := range s.Holes {
			pts = append(pts, h...)
		}
	}
	hull := ConvexHull2D(pts)
	if len(hull) < 3 {
		return &Shape2D{}
	}
	return &Shape2D{Outer: ensureWinding(hull, true)}
}
