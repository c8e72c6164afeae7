package kernel

import "math"

// bsp2d.go is the 2D analog of bsp.go: lines partition the plane the way
// planes partition space, and a polygon boundary is a soup of 2-point
// segments instead of a soup of triangles. The clone/clipTo/invert/build
// combinators are otherwise identical, so 2D booleans (needed when a
// Boolean IR node's children are 2D primitives, e.g. `difference()` of two
// circles) reuse the same BSP-CSG family as the 3D kernel.

type bsp2Line struct {
	Normal [2]float64
	W      float64
}

func lineFromSegment(a, b [2]float64) bsp2Line {
	dx, dy := b[0]-a[0], b[1]-a[1]
	l := math.Hypot(dx, dy)
	if l == 0 {
		l = 1
	}
	n := [2]float64{dy / l, -dx / l}
	return bsp2Line{Normal: n, W: n[0]*a[0] + n[1]*a[1]}
}

type bsp2Seg struct {
	A, B [2]float64
	Line bsp2Line
}

func flipSeg(s bsp2Seg) bsp2Seg {
	return bsp2Seg{A: s.B, B: s.A, Line: bsp2Line{Normal: [2]float64{-s.Line.Normal[0], -s.Line.Normal[1]}, W: -s.Line.W}}
}

func classify2(line bsp2Line, p [2]float64, eps float64) int {
	t := line.Normal[0]*p[0] + line.Normal[1]*p[1] - line.W
	switch {
	case t < -eps:
		return back
	case t > eps:
		return front
	default:
		return coplanar
	}
}

func splitSeg(line bsp2Line, s bsp2Seg, eps float64, coplanarFront, coplanarBack, frontOut, backOut *[]bsp2Seg) {
	ta, tb := classify2(line, s.A, eps), classify2(line, s.B, eps)
	switch {
	case ta == coplanar && tb == coplanar:
		if line.Normal[0]*s.Line.Normal[0]+line.Normal[1]*s.Line.Normal[1] > 0 {
			*coplanarFront = append(*coplanarFront, s)
		} else {
			*coplanarBack = append(*coplanarBack, s)
		}
	case (ta == front || ta == coplanar) && (tb == front || tb == coplanar):
		*frontOut = append(*frontOut, s)
	case (ta == back || ta == coplanar) && (tb == back || tb == coplanar):
		*backOut = append(*backOut, s)
	default:
		dx, dy := s.B[0]-s.A[0], s.B[1]-s.A[1]
		denom := line.Normal[0]*dx + line.Normal[1]*dy
		t := (line.W - (line.Normal[0]*s.A[0] + line.Normal[1]*s.A[1])) / denom
		mid := [2]float64{s.A[0] + t*dx, s.A[1] + t*dy}
		if ta == front {
			*frontOut = append(*frontOut, bsp2Seg{A: s.A, B: mid, Line: s.Line})
			*backOut = append(*backOut, bsp2Seg{A: mid, B: s.B, Line: s.Line})
		} else {
			*frontOut = append(*frontOut, bsp2Seg{A: mid, B: s.B, Line: s.Line})
			*backOut = append(*backOut, bsp2Seg{A: s.A, B: mid, Line: s.Line})
		}
	}
}

type bsp2Node struct {
	Line  *bsp2Line
	Front *bsp2Node
	Back  *bsp2Node
	Segs  []bsp2Seg
	Eps   float64
}

func newBSP2(segs []bsp2Seg, eps float64) *bsp2Node {
	n := &bsp2Node{Eps: eps}
	n.build(segs)
	return n
}

func (n *bsp2Node) build(segs []bsp2Seg) {
	if len(segs) == 0 {
		return
	}
	if n.Line == nil {
		l := segs[0].Line
		n.Line = &l
	}
	var frontList, backList []bsp2Seg
	for _, s := range segs {
		splitSeg(*n.Line, s, n.Eps, &n.Segs, &n.Segs, &frontList, &backList)
	}
	if len(frontList) > 0 {
		if n.Front == nil {
			n.Front = &bsp2Node{Eps: n.Eps}
		}
		n.Front.build(frontList)
	}
	if len(backList) > 0 {
		if n.Back == nil {
			n.Back = &bsp2Node{Eps: n.Eps}
		}
		n.Back.build(backList)
	}
}

func (n *bsp2Node) clone() *bsp2Node {
	if n == nil {
		return nil
	}
	c := &bsp2Node{Segs: append([]bsp2Seg(nil), n.Segs...), Eps: n.Eps}
	if n.Line != nil {
		l := *n.Line
		c.Line = &l
	}
	c.Front = n.Front.clone()
	c.Back = n.Back.clone()
	return c
}

func (n *bsp2Node) invert() {
	if n == nil {
		return
	}
	for i := range n.Segs {
		n.Segs[i] = flipSeg(n.Segs[i])
	}
	if n.Line != nil {
		n.Line.Normal = [2]float64{-n.Line.Normal[0], -n.Line.Normal[1]}
		n.Line.W = -n.Line.W
	}
	n.Front.invert()
	n.Back.invert()
	n.Front, n.Back = n.Back, n.Front
}

func (n *bsp2Node) clipSegs(segs []bsp2Seg) []bsp2Seg {
	if n == nil {
		return segs
	}
	if n.Line == nil {
		return append([]bsp2Seg(nil), segs...)
	}
	var frontList, backList []bsp2Seg
	for _, s := range segs {
		splitSeg(*n.Line, s, n.Eps, &frontList, &backList, &frontList, &backList)
	}
	if n.Front != nil {
		frontList = n.Front.clipSegs(frontList)
	}
	if n.Back != nil {
		backList = n.Back.clipSegs(backList)
	} else {
		backList = nil
	}
	return append(frontList, backList...)
}

func (n *bsp2Node) clipTo(other *bsp2Node) {
	if n == nil {
		return
	}
	n.Segs = other.clipSegs(n.Segs)
	n.Front.clipTo(other)
	n.Back.clipTo(other)
}

func (n *bsp2Node) allSegs() []bsp2Seg {
	if n == nil {
		return nil
	}
	out := append([]bsp2Seg(nil), n.Segs...)
	out = append(out, n.Front.allSegs()...)
	out = append(out, n.Back.allSegs()...)
	return out
}

func bsp2Union(a, b *bsp2Node) *bsp2Node {
	a, b = a.clone(), b.clone()
	a.clipTo(b)
	b.clipTo(a)
	b.invert()
	b.clipTo(a)
	b.invert()
	a.build(b.allSegs())
	return newBSP2(a.allSegs(), a.Eps)
}

func bsp2Subtract(a, b *bsp2Node) *bsp2Node {
	a, b = a.clone(), b.clone()
	a.invert()
	a.clipTo(b)
	b.clipTo(a)
	b.invert()
	b.clipTo(a)
	b.invert()
	a.build(b.allSegs())
	a.invert()
	return newBSP2(a.allSegs(), a.Eps)
}

func bsp2Intersect(a, b *bsp2Node) *bsp2Node {
	a, b = a.clone(), b.clone()
	a.invert()
	b.clipTo(a)
	b.invert()
	a.clipTo(b)
	b.clipTo(a)
	a.build(b.allSegs())
	a.invert()
	return newBSP2(a.allSegs(), a.Eps)
}
