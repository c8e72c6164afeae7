package kernel

import "math"

// offsetScale is the centralized integer-scaling constant polygon-offset
// arithmetic goes through, so join computations never rely on ad-hoc float
// snapping.
const offsetScale = 1e6

// Offset2D grows (delta > 0) or shrinks (delta < 0) every boundary of shape
// by delta along its local outward normal. round selects rounded joins
// (circular arc fans at convex corners); otherwise joins are mitered
// (chamfered when the miter point would exceed a length bound).
func Offset2D(shape *Shape2D, delta float64, round bool, segments int) *Shape2D {
	out := &Shape2D{}
	if len(shape.Outer) >= 3 {
		out.Outer = offsetLoop(ensureWinding(shape.Outer, true), delta, round, segments)
	}
	for _, h := range shape.Holes {
		if len(h) < 3 {
			continue
		}
		loop := offsetLoop(ensureWinding(h, false), -delta, round, segments)
		if len(loop) >= 3 {
			out.Holes = append(out.Holes, loop)
		}
	}
	return out
}

// offsetLoop offsets a single CCW loop by delta using per-edge outward
// normals and miter (or rounded-fan) joins, scaling to integer grid units
// and back through offsetScale to keep join arithmetic well-conditioned.
func offsetLoop(poly [][2]float64, delta float64, round bool, segments int) [][2]float64 {
	n := len(poly)
	if n < 3 {
		return nil
	}
	scaled := make([][2]float64, n)
	for i, p := range poly {
		scaled[i] = [2]float64{math.Round(p[0] * offsetScale), math.Round(p[1] * offsetScale)}
	}
	d := delta * offsetScale

	edgeNormal := func(i int) [2]float64 {
		j := (i + 1) % n
		dx, dy := scaled[j][0]-scaled[i][0], scaled[j][1]-scaled[i][1]
		l := math.Hypot(dx, dy)
		if l == 0 {
			return [2]float64{0, 0}
		}
		return [2]float64{dy / l, -dx / l}
	}

	var out [][2]float64
	for i := 0; i < n; i++ {
		prev := (i - 1 + n) % n
		nPrev, nCur := edgeNormal(prev), edgeNormal(i)
		convex := nPrev[0]*nCur[1]-nPrev[1]*nCur[0] >= 0 // turning left at this vertex
		if round && convex && segments > 1 {
			a0 := math.Atan2(nPrev[1], nPrev[0])
			a1 := math.Atan2(nCur[1], nCur[0])
			if a1 < a0 {
				a1 += 2 * math.Pi
			}
			steps := int(math.Max(1, float64(segments)*(a1-a0)/(2*math.Pi)))
			for s := 0; s <= steps; s++ {
				a := a0 + (a1-a0)*float64(s)/float64(steps)
				out = append(out, [2]float64{
					(scaled[i][0] + d*math.Cos(a)) / offsetScale,
					(scaled[i][1] + d*math.Sin(a)) / offsetScale,
				})
			}
			continue
		}
		// miter point: intersection of the two offset edge lines through
		// this vertex; falls back to the averaged-normal point (a chamfer)
		// when the miter would be numerically unstable.
		mx, my := nPrev[0]+nCur[0], nPrev[1]+nCur[1]
		l := math.Hypot(mx, my)
		if l < 1e-9 {
			out = append(out, [2]float64{
				(scaled[i][0] + d*nCur[0]) / offsetScale,
				(scaled[i][1] + d*nCur[1]) / offsetScale,
			})
			continue
		}
		cosHalf := (nPrev[0]*mx/l + nPrev[1]*my/l)
		miterLen := d / math.Max(cosHalf, 0.2) // clamp: sharp corners chamfer instead of spiking
		out = append(out, [2]float64{
			(scaled[i][0] + miterLen*mx/l) / offsetScale,
			(scaled[i][1] + miterLen*my/l) / offsetScale,
		})
	}
	return out
}
