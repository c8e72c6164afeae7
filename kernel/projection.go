package kernel

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/oscadgo/compiler/diag"
)

// Projection flattens mesh to the XY plane. cut=true
// intersects with the Z=0 plane and returns the cross-section outline;
// cut=false drops every triangle's Z coordinate and 2D-unions the results,
// so overlapping triangles don't produce overlapping output polygons.
func Projection(mesh *Mesh, cut bool, span diag.Span) (*Shape2D, error) {
	if cut {
		return projectionCut(mesh), nil
	}
	return projectionFlatten(mesh), nil
}

// projectionCut walks every triangle edge that crosses Z=0: each crossing
// triangle contributes one segment, oriented from the triangle's normal so
// that the section's interior lies to its left, and the segments are then
// chained end-to-start into closed polygon loops.
func projectionCut(mesh *Mesh) *Shape2D {
	var segs [][2][2]float64
	for _, t := range mesh.Triangles() {
		a, b, c := mesh.Vertices[t[0]], mesh.Vertices[t[1]], mesh.Vertices[t[2]]
		var pts [][2]float64
		edges := [3][2]r3.Vec{{a, b}, {b, c}, {c, a}}
		for _, e := range edges {
			if (e[0].Z >= 0) == (e[1].Z >= 0) {
				if e[0].Z == 0 {
					pts = append(pts, [2]float64{e[0].X, e[0].Y})
				}
				continue
			}
			t := e[0].Z / (e[0].Z - e[1].Z)
			pts = append(pts, [2]float64{
				e[0].X + t*(e[1].X-e[0].X),
				e[0].Y + t*(e[1].Y-e[0].Y),
			})
		}
		if len(pts) >= 2 {
			p0, p1 := pts[0], pts[1]
			n := r3.Cross(r3.Sub(b, a), r3.Sub(c, a))
			if (p1[0]-p0[0])*-n.Y+(p1[1]-p0[1])*n.X < 0 {
				p0, p1 = p1, p0
			}
			segs = append(segs, [2][2]float64{p0, p1})
		}
	}
	loops := chainSegments2D(segs, 1e-6)
	return loopsToShape(loops)
}

// projectionFlatten drops Z and unions every triangle's 2D footprint via the
// 2D BSP, so overlapping triangles collapse into one outline.
func projectionFlatten(mesh *Mesh) *Shape2D {
	tris := mesh.Triangles()
	if len(tris) == 0 {
		return &Shape2D{}
	}
	toSegs := func(t [3]int) []bsp2Seg {
		pts := [3][2]float64{
			{mesh.Vertices[t[0]].X, mesh.Vertices[t[0]].Y},
			{mesh.Vertices[t[1]].X, mesh.Vertices[t[1]].Y},
			{mesh.Vertices[t[2]].X, mesh.Vertices[t[2]].Y},
		}
		if signedArea(pts[:]) < 0 {
			pts[1], pts[2] = pts[2], pts[1]
		}
		var segs []bsp2Seg
		for i := 0; i < 3; i++ {
			j := (i + 1) % 3
			segs = append(segs, bsp2Seg{A: pts[i], B: pts[j], Line: lineFromSegment(pts[i], pts[j])})
		}
		return segs
	}
	acc := newBSP2(toSegs(tris[0]), 1e-9)
	for _, t := range tris[1:] {
		next := newBSP2(toSegs(t), 1e-9)
		acc = bsp2Union(acc, next)
	}
	loops := chainSegsToLoops(acc.allSegs(), 1e-6)
	return loopsToShape(loops)
}

// chainSegments2D walks oriented 2-point segments (interior to the left)
// into closed polygon loops by matching each segment's end to the next
// segment's start within tol; used by cut=true's plane intersection.
func chainSegments2D(segs [][2][2]float64, tol float64) [][][2]float64 {
	bsegs := make([]bsp2Seg, len(segs))
	for i, s := range segs {
		bsegs[i] = bsp2Seg{A: s[0], B: s[1]}
	}
	return chainSegsToLoops(bsegs, tol)
}

func key2(p [2]float64, tol float64) [2]int64 {
	return [2]int64{int64(math.Round(p[0] / tol)), int64(math.Round(p[1] / tol))}
}

// chainSegsToLoops assembles oriented segments (A->B, interior to the left)
// into closed loops by following each segment's B to the next segment whose
// A matches it. Leftover or malformed chains (a genuinely self-intersecting
// union) are dropped rather than guessed at.
func chainSegsToLoops(segs []bsp2Seg, tol float64) [][][2]float64 {
	byStart := map[[2]int64][]int{}
	for i, s := range segs {
		k := key2(s.A, tol)
		byStart[k] = append(byStart[k], i)
	}
	used := make([]bool, len(segs))
	var loops [][][2]float64
	for i := range segs {
		if used[i] {
			continue
		}
		var loop [][2]float64
		cur := i
		guard := 0
		for guard < len(segs)+1 {
			guard++
			used[cur] = true
			loop = append(loop, segs[cur].A)
			nextKey := key2(segs[cur].B, tol)
			found := -1
			for _, cand := range byStart[nextKey] {
				if !used[cand] {
					found = cand
					break
				}
			}
			if found < 0 {
				break
			}
			if found == i {
				break
			}
			cur = found
		}
		if len(loop) >= 3 {
			loops = append(loops, loop)
		}
	}
	return loops
}

// loopsToShape picks the largest-area CCW loop as Outer and every CW loop as
// a hole. Multiple disjoint CCW loops (a union producing separate islands)
// collapse to their largest member — a documented simplification, since
// Shape2D represents a single connected region with holes.
func loopsToShape(loops [][][2]float64) *Shape2D {
	out := &Shape2D{}
	bestArea := 0.0
	for _, l := range loops {
		a := signedArea(l)
		if a > 0 {
			if math.Abs(a) > bestArea {
				bestArea = math.Abs(a)
				out.Outer = l
			}
		} else {
			out.Holes = append(out.Holes, l)
		}
	}
	return out
}
