package kernel

import (
	"gonum.org/v1/gonum/mat"
)

// resizeScales computes, per axis, the factor that stretches extent to
// newsize. An axis with newsize == 0 is left untouched unless auto[axis] is
// set, in which case it's scaled by the average of the axes that did get an
// explicit target (OpenSCAD's "auto" uniform-scale-to-match rule).
func resizeScales(extent [3]float64, newsize [3]float64, auto [3]bool) [3]float64 {
	scales := [3]float64{1, 1, 1}
	var explicitSum float64
	var explicitCount int
	for i := 0; i < 3; i++ {
		if newsize[i] != 0 && extent[i] != 0 {
			scales[i] = newsize[i] / extent[i]
			explicitSum += scales[i]
			explicitCount++
		}
	}
	if explicitCount == 0 {
		return scales
	}
	avg := explicitSum / float64(explicitCount)
	for i := 0; i < 3; i++ {
		if (newsize[i] == 0 || extent[i] == 0) && auto[i] {
			scales[i] = avg
		}
	}
	return scales
}

// Resize3D rescales mesh so its bounding box matches newsize on every axis
// where newsize is nonzero, OpenSCAD's resize() semantics.
func Resize3D(mesh *Mesh, newsize [3]float64, auto [3]bool) *Mesh {
	min, max := mesh.Bounds()
	extent := [3]float64{max.X - min.X, max.Y - min.Y, max.Z - min.Z}
	s := resizeScales(extent, newsize, auto)
	m := mat.NewDense(4, 4, []float64{
		s[0], 0, 0, 0,
		0, s[1], 0, 0,
		0, 0, s[2], 0,
		0, 0, 0, 1,
	})
	return ApplyMatrix(mesh, m)
}

// Resize2D is the 2D analog, scaling X/Y only.
func Resize2D(shape *Shape2D, newsize [3]float64, auto [3]bool) *Shape2D {
	min, max := shape.Bounds()
	extent := [3]float64{max[0] - min[0], max[1] - min[1], 0}
	s := resizeScales(extent, newsize, auto)
	m := mat.NewDense(4, 4, []float64{
		s[0], 0, 0, 0,
		0, s[1], 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	})
	return ApplyMatrix2D(shape, m)
}
