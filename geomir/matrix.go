package geomir

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// Translate builds the 4x4 homogeneous translation matrix for v.
func Translate(v [3]float64) *mat.Dense {
	m := Identity()
	m.Set(0, 3, v[0])
	m.Set(1, 3, v[1])
	m.Set(2, 3, v[2])
	return m
}

// Scale builds the 4x4 homogeneous scale matrix for v.
func Scale(v [3]float64) *mat.Dense {
	m := Identity()
	m.Set(0, 0, v[0])
	m.Set(1, 1, v[1])
	m.Set(2, 2, v[2])
	return m
}

// RotateEuler builds the combined rotation matrix for degrees applied in
// OpenSCAD's documented X, then Y, then Z order.
func RotateEuler(degrees [3]float64) *mat.Dense {
	rx := axisRotation(0, degrees[0])
	ry := axisRotation(1, degrees[1])
	rz := axisRotation(2, degrees[2])
	return Compose(rz, Compose(ry, rx))
}

// RotateAxisAngle builds the rotation matrix for a rotation by degrees
// around an arbitrary axis, using Rodrigues' rotation formula.
func RotateAxisAngle(axis [3]float64, degrees float64) *mat.Dense {
	n := math.Hypot(axis[0], math.Hypot(axis[1], axis[2]))
	if n == 0 {
		return Identity()
	}
	x, y, z := axis[0]/n, axis[1]/n, axis[2]/n
	t := degrees * math.Pi / 180
	c, s := math.Cos(t), math.Sin(t)
	k := 1 - c
	m := mat.NewDense(4, 4, []float64{
		c + x*x*k, x*y*k - z*s, x*z*k + y*s, 0,
		y*x*k + z*s, c + y*y*k, y*z*k - x*s, 0,
		z*x*k - y*s, z*y*k + x*s, c + z*z*k, 0,
		0, 0, 0, 1,
	})
	return m
}

func axisRotation(axis int, degrees float64) *mat.Dense {
	t := degrees * math.Pi / 180
	c, s := math.Cos(t), math.Sin(t)
	m := Identity()
	switch axis {
	case 0: // X
		m.Set(1, 1, c)
		m.Set(1, 2, -s)
		m.Set(2, 1, s)
		m.Set(2, 2, c)
	case 1: // Y
		m.Set(0, 0, c)
		m.Set(0, 2, s)
		m.Set(2, 0, -s)
		m.Set(2, 2, c)
	case 2: // Z
		m.Set(0, 0, c)
		m.Set(0, 1, -s)
		m.Set(1, 0, s)
		m.Set(1, 1, c)
	}
	return m
}

// MirrorPlane builds the reflection matrix across the plane through the
// origin with normal v, the matrix behind `mirror([x,y,z])`.
func MirrorPlane(v [3]float64) *mat.Dense {
	n := math.Hypot(v[0], math.Hypot(v[1], v[2]))
	if n == 0 {
		return Identity()
	}
	x, y, z := v[0]/n, v[1]/n, v[2]/n
	m := mat.NewDense(4, 4, []float64{
		1 - 2*x*x, -2 * x * y, -2 * x * z, 0,
		-2 * x * y, 1 - 2*y*y, -2 * y * z, 0,
		-2 * x * z, -2 * y * z, 1 - 2*z*z, 0,
		0, 0, 0, 1,
	})
	return m
}

// Compose returns a*b (a applied after b, i.e. a's transform is outermost),
// matching the convention that `translate(t) rotate(r) cube();` composes to
// T * R.
func Compose(a, b *mat.Dense) *mat.Dense {
	out := mat.NewDense(4, 4, nil)
	out.Mul(a, b)
	return out
}

// ApplyPoint transforms the point p by m (homogeneous w=1), returning the
// dehomogenized xyz.
func ApplyPoint(m *mat.Dense, p [3]float64) [3]float64 {
	v := [4]float64{p[0], p[1], p[2], 1}
	var out [4]float64
	for r := 0; r < 4; r++ {
		sum := 0.0
		for c := 0; c < 4; c++ {
			sum += m.At(r, c) * v[c]
		}
		out[r] = sum
	}
	if out[3] == 0 {
		return [3]float64{out[0], out[1], out[2]}
	}
	return [3]float64{out[0] / out[3], out[1] / out[3], out[2] / out[3]}
}

// ApplyDirection transforms a direction (w=0), used for normals and to
// detect a winding flip via Determinant3.
func ApplyDirection(m *mat.Dense, d [3]float64) [3]float64 {
	var out [3]float64
	for r := 0; r < 3; r++ {
		sum := 0.0
		for c := 0; c < 3; c++ {
			sum += m.At(r, c) * d[c]
		}
		out[r] = sum
	}
	return out
}

// Determinant3 returns the determinant of m's upper-left 3x3 block; a
// negative value means the transform flips winding and the kernel must
// reverse face orientation after applying it.
func Determinant3(m *mat.Dense) float64 {
	a, b, c := m.At(0, 0), m.At(0, 1), m.At(0, 2)
	d, e, f := m.At(1, 0), m.At(1, 1), m.At(1, 2)
	g, h, i := m.At(2, 0), m.At(2, 1), m.At(2, 2)
	return a*(e*i-f*h) - b*(d*i-f*g) + c*(d*h-e*g)
}
