package kernel

import "math"

// Circle2D builds a regular polygon approximating a disc of the given
// radius with the given number of equatorial segments — the same
// segment-count formula drives both circle and sphere.
func Circle2D(radius float64, segments int) *Shape2D {
	if segments < 3 {
		segments = 3
	}
	outer := make([][2]float64, segments)
	for i := 0; i < segments; i++ {
		a := 2 * math.Pi * float64(i) / float64(segments)
		outer[i] = [2]float64{radius * math.Cos(a), radius * math.Sin(a)}
	}
	return &Shape2D{Outer: outer}
}

// Square2D builds an axis-aligned rectangle, centered at the origin if
// center is set, otherwise with its min corner at the origin.
func Square2D(size [2]float64, center bool) *Shape2D {
	x, y := size[0], size[1]
	var ox, oy float64
	if center {
		ox, oy = -x/2, -y/2
	}
	return &Shape2D{Outer: [][2]float64{
		{ox, oy}, {ox + x, oy}, {ox + x, oy + y}, {ox, oy + y},
	}}
}

// Polygon2D builds a shape from explicit points and optional path index
// lists, the builtin `polygon(points, paths)`; the first path is the outer
// boundary and any further paths are holes, matching OpenSCAD's convention.
func Polygon2D(points [][2]float64, paths [][]int) *Shape2D {
	if len(paths) == 0 {
		return &Shape2D{Outer: points}
	}
	out := &Shape2D{Outer: pathPoints(points, paths[0])}
	for _, p := range paths[1:] {
		out.Holes = append(out.Holes, pathPoints(points, p))
	}
	return out
}

func pathPoints(points [][2]float64, path []int) [][2]float64 {
	out := make([][2]float64, 0, len(path))
	for _, i := range path {
		if i >= 0 && i < len(points) {
			out = append(out, points[i])
		}
	}
	return out
}
