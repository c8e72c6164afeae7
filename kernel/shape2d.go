package kernel

import "math"

// Shape2D is a planar cross-section: an outer boundary (conventionally CCW)
// plus zero or more hole boundaries (conventionally CW), the input shape
// both extrusion builders take.
type Shape2D struct {
	Outer [][2]float64
	Holes [][][2]float64
}

func (*Shape2D) result() {}

// Bounds returns the shape's axis-aligned bounding box over Outer only —
// holes are strict subsets of Outer's area so they never extend it.
func (s *Shape2D) Bounds() (min, max [2]float64) {
	if len(s.Outer) == 0 {
		return [2]float64{}, [2]float64{}
	}
	min, max = s.Outer[0], s.Outer[0]
	for _, p := range s.Outer[1:] {
		min[0], min[1] = math.Min(min[0], p[0]), math.Min(min[1], p[1])
		max[0], max[1] = math.Max(max[0], p[0]), math.Max(max[1], p[1])
	}
	return min, max
}

func signedArea(poly [][2]float64) float64 {
	area := 0.0
	n := len(poly)
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		area += poly[i][0]*poly[j][1] - poly[j][0]*poly[i][1]
	}
	return area / 2
}

func ensureWinding(poly [][2]float64, ccw bool) [][2]float64 {
	isCCW := signedArea(poly) > 0
	if isCCW == ccw {
		return poly
	}
	out := make([][2]float64, len(poly))
	for i, p := range poly {
		out[len(poly)-1-i] = p
	}
	return out
}

// Triangulate produces a flat point list and triangle index triples covering
// Outer minus Holes, via ear clipping with holes bridged into the outer
// boundary at their nearest point (the standard technique for extending
// single-polygon ear clipping to polygons-with-holes).
func (s *Shape2D) Triangulate() ([][2]float64, [][3]int) {
	outer := ensureWinding(s.Outer, true)
	if len(outer) < 3 {
		return nil, nil
	}
	points := append([][2]float64(nil), outer...)
	for _, h := range s.Holes {
		hole := ensureWinding(h, false)
		if len(hole) < 3 {
			continue
		}
		points = bridgeHole(points, hole)
	}
	tris := earClip(points)
	return points, tris
}

// bridgeHole splices hole into outer by connecting hole's point nearest to
// any outer vertex with that outer vertex via a zero-width channel, so a
// single ear-clipping pass can triangulate the whole polygon-with-hole.
func bridgeHole(outer, hole [][2]float64) [][2]float64 {
	bestO, bestH := 0, 0
	bestD := math.Inf(1)
	for oi, op := range outer {
		for hi, hp := range hole {
			dx, dy := op[0]-hp[0], op[1]-hp[1]
			d := dx*dx + dy*dy
			if d < bestD {
				bestD, bestO, bestH = d, oi, hi
			}
		}
	}
	out := make([][2]float64, 0, len(outer)+len(hole)+2)
	out = append(out, outer[:bestO+1]...)
	out = append(out, hole[bestH:]...)
	out = append(out, hole[:bestH+1]...)
	out = append(out, outer[bestO:]...)
	return out
}

// earClip triangulates a simple (possibly bridged, non-self-intersecting)
// CCW polygon by repeatedly removing convex vertices with no other polygon
// vertex inside the ear triangle.
func earClip(poly [][2]float64) [][3]int {
	n := len(poly)
	if n < 3 {
		return nil
	}
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	var tris [][3]int
	guard := 0
	for len(idx) > 2 && guard < n*n+8 {
		guard++
		earFound := false
		for i := 0; i < len(idx); i++ {
			prev := idx[(i-1+len(idx))%len(idx)]
			cur := idx[i]
			next := idx[(i+1)%len(idx)]
			if !isConvex(poly[prev], poly[cur], poly[next]) {
				continue
			}
			if anyPointInside(poly, idx, prev, cur, next) {
				continue
			}
			tris = append(tris, [3]int{prev, cur, next})
			idx = append(idx[:i], idx[i+1:]...)
			earFound = true
			break
		}
		if !earFound {
			break // degenerate/self-intersecting input: emit what we have
		}
	}
	return tris
}

func isConvex(a, b, c [2]float64) bool {
	cross := (b[0]-a[0])*(c[1]-a[1]) - (b[1]-a[1])*(c[0]-a[0])
	return cross > 0
}

func pointInTriangle(p, a, b, c [2]float64) bool {
	d1 := (p[0]-b[0])*(a[1]-b[1]) - (a[0]-b[0])*(p[1]-b[1])
	d2 := (p[0]-c[0])*(b[1]-c[1]) - (b[0]-c[0])*(p[1]-c[1])
	d3 := (p[0]-a[0])*(c[1]-a[1]) - (c[0]-a[0])*(p[1]-a[1])
	hasNeg := d1 < 0 || d2 < 0 || d3 < 0
	hasPos := d1 > 0 || d2 > 0 || d3 > 0
	return !(hasNeg && hasPos)
}

func anyPointInside(poly [][2]float64, idx []int, prev, cur, next int) bool {
	for _, i := range idx {
		if i == prev || i == cur || i == next {
			continue
		}
		if pointInTriangle(poly[i], poly[prev], poly[cur], poly[next]) {
			return true
		}
	}
	return false
}
