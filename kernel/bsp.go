package kernel

import "gonum.org/v1/gonum/spatial/r3"

// bsp.go implements binary-space-partition polygon clipping for 3D boolean
// CSG, the classic csg.js algorithm: split each polygon of one solid against
// the half-spaces of the other's BSP tree, keep or discard pieces per the
// requested operation. BSP clipping is the well-understood floating-point
// alternative to predicate-based triangle-triangle intersection pipelines —
// exact rational arithmetic is out of scope here, and the boolean
// identities (union with empty, self-intersection, self-difference) hold
// either way.

type bspPlane struct {
	Normal r3.Vec
	W      float64
}

func planeFromPolygon(verts []r3.Vec) bspPlane {
	n := r3.Unit(r3.Cross(r3.Sub(verts[1], verts[0]), r3.Sub(verts[2], verts[0])))
	return bspPlane{Normal: n, W: r3.Dot(n, verts[0])}
}

type bspPolygon struct {
	Verts []r3.Vec
	Plane bspPlane
}

func flipPolygon(p bspPolygon) bspPolygon {
	verts := make([]r3.Vec, len(p.Verts))
	for i, v := range p.Verts {
		verts[len(p.Verts)-1-i] = v
	}
	return bspPolygon{Verts: verts, Plane: bspPlane{Normal: r3.Scale(-1, p.Plane.Normal), W: -p.Plane.W}}
}

const (
	coplanar = 0
	front    = 1
	back     = 2
	spanning = 3
)

// splitPolygon classifies poly against plane (within eps) and appends its
// pieces to the four output buckets, subdividing along the plane when poly
// straddles it.
func splitPolygon(plane bspPlane, poly bspPolygon, eps float64, coplanarFront, coplanarBack, frontOut, backOut *[]bspPolygon) {
	var polyType int
	types := make([]int, len(poly.Verts))
	for i, v := range poly.Verts {
		t := r3.Dot(plane.Normal, v) - plane.W
		switch {
		case t < -eps:
			types[i] = back
		case t > eps:
			types[i] = front
		default:
			types[i] = coplanar
		}
		polyType |= types[i]
	}

	switch polyType {
	case coplanar:
		if r3.Dot(plane.Normal, poly.Plane.Normal) > 0 {
			*coplanarFront = append(*coplanarFront, poly)
		} else {
			*coplanarBack = append(*coplanarBack, poly)
		}
	case front:
		*frontOut = append(*frontOut, poly)
	case back:
		*backOut = append(*backOut, poly)
	default:
		var fv, bv []r3.Vec
		n := len(poly.Verts)
		for i := 0; i < n; i++ {
			j := (i + 1) % n
			ti, tj := types[i], types[j]
			vi, vj := poly.Verts[i], poly.Verts[j]
			if ti != back {
				fv = append(fv, vi)
			}
			if ti != front {
				bv = append(bv, vi)
			}
			if (ti | tj) == spanning {
				denom := r3.Dot(plane.Normal, r3.Sub(vj, vi))
				t := (plane.W - r3.Dot(plane.Normal, vi)) / denom
				mid := r3.Add(vi, r3.Scale(t, r3.Sub(vj, vi)))
				fv = append(fv, mid)
				bv = append(bv, mid)
			}
		}
		if len(fv) >= 3 {
			*frontOut = append(*frontOut, bspPolygon{Verts: fv, Plane: poly.Plane})
		}
		if len(bv) >= 3 {
			*backOut = append(*backOut, bspPolygon{Verts: bv, Plane: poly.Plane})
		}
	}
}

type bspNode struct {
	Plane *bspPlane
	Front *bspNode
	Back  *bspNode
	Polys []bspPolygon
	Eps   float64
}

func newBSP(polys []bspPolygon, eps float64) *bspNode {
	n := &bspNode{Eps: eps}
	n.build(polys)
	return n
}

func (n *bspNode) build(polys []bspPolygon) {
	if len(polys) == 0 {
		return
	}
	if n.Plane == nil {
		p := polys[0].Plane
		n.Plane = &p
	}
	var frontList, backList []bspPolygon
	for _, p := range polys {
		splitPolygon(*n.Plane, p, n.Eps, &n.Polys, &n.Polys, &frontList, &backList)
	}
	if len(frontList) > 0 {
		if n.Front == nil {
			n.Front = &bspNode{Eps: n.Eps}
		}
		n.Front.build(frontList)
	}
	if len(backList) > 0 {
		if n.Back == nil {
			n.Back = &bspNode{Eps: n.Eps}
		}
		n.Back.build(backList)
	}
}

func (n *bspNode) clone() *bspNode {
	if n == nil {
		return nil
	}
	c := &bspNode{Polys: append([]bspPolygon(nil), n.Polys...), Eps: n.Eps}
	if n.Plane != nil {
		p := *n.Plane
		c.Plane = &p
	}
	c.Front = n.Front.clone()
	c.Back = n.Back.clone()
	return c
}

func (n *bspNode) invert() {
	if n == nil {
		return
	}
	for i := range n.Polys {
		n.Polys[i] = flipPolygon(n.Polys[i])
	}
	if n.Plane != nil {
		n.Plane.Normal = r3.Scale(-1, n.Plane.Normal)
		n.Plane.W = -n.Plane.W
	}
	n.Front.invert()
	n.Back.invert()
	n.Front, n.Back = n.Back, n.Front
}

func (n *bspNode) clipPolygons(polys []bspPolygon) []bspPolygon {
	if n == nil {
		return polys
	}
	if n.Plane == nil {
		return append([]bspPolygon(nil), polys...)
	}
	var frontList, backList []bspPolygon
	for _, p := range polys {
		splitPolygon(*n.Plane, p, n.Eps, &frontList, &backList, &frontList, &backList)
	}
	if n.Front != nil {
		frontList = n.Front.clipPolygons(frontList)
	}
	if n.Back != nil {
		backList = n.Back.clipPolygons(backList)
	} else {
		backList = nil
	}
	return append(frontList, backList...)
}

func (n *bspNode) clipTo(other *bspNode) {
	if n == nil {
		return
	}
	n.Polys = other.clipPolygons(n.Polys)
	n.Front.clipTo(other)
	n.Back.clipTo(other)
}

func (n *bspNode) allPolygons() []bspPolygon {
	if n == nil {
		return nil
	}
	out := append([]bspPolygon(nil), n.Polys...)
	out = append(out, n.Front.allPolygons()...)
	out = append(out, n.Back.allPolygons()...)
	return out
}

// bspUnion, bspSubtract, and bspIntersect are the three combinators csg.js
// builds from clone/clipTo/invert/build; every n-ary Boolean IR node folds
// left across these.
func bspUnion(a, b *bspNode) *bspNode {
	a, b = a.clone(), b.clone()
	a.clipTo(b)
	b.clipTo(a)
	b.invert()
	b.clipTo(a)
	b.invert()
	a.build(b.allPolygons())
	return newBSP(a.allPolygons(), a.Eps)
}

func bspSubtract(a, b *bspNode) *bspNode {
	a, b = a.clone(), b.clone()
	a.invert()
	a.clipTo(b)
	b.clipTo(a)
	b.invert()
	b.clipTo(a)
	b.invert()
	a.build(b.allPolygons())
	a.invert()
	return newBSP(a.allPolygons(), a.Eps)
}

func bspIntersect(a, b *bspNode) *bspNode {
	a, b = a.clone(), b.clone()
	a.invert()
	b.clipTo(a)
	b.invert()
	a.clipTo(b)
	b.clipTo(a)
	a.build(b.allPolygons())
	a.invert()
	return newBSP(a.allPolygons(), a.Eps)
}
