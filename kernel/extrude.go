package kernel

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/oscadgo/compiler/diag"
)

// LinearExtrude builds a prism from profile: triangulated top/bottom caps
// plus slices+1 stacked, twisted, scaled rings stitched with quads. center
// shifts the whole solid by -height/2 along Z.
func LinearExtrude(profile *Shape2D, height float64, twistDegrees float64, scale [2]float64, slices int, center bool, span diag.Span) (*Mesh, error) {
	if height == 0 || len(profile.Outer) < 3 {
		return EmptyMesh(), nil
	}
	if slices < 1 {
		slices = 1
	}
	points, caps := profile.Triangulate()
	if len(points) == 0 {
		return EmptyMesh(), nil
	}
	n := len(points)

	z0 := 0.0
	if center {
		z0 = -height / 2
	}

	var verts []r3.Vec
	ringStart := make([]int, slices+1)
	for s := 0; s <= slices; s++ {
		t := float64(s) / float64(slices)
		ang := t * twistDegrees * math.Pi / 180
		sx := 1 + t*(scale[0]-1)
		sy := 1 + t*(scale[1]-1)
		cosA, sinA := math.Cos(ang), math.Sin(ang)
		ringStart[s] = len(verts)
		for _, p := range points {
			x, y := p[0]*sx, p[1]*sy
			rx := x*cosA - y*sinA
			ry := x*sinA + y*cosA
			verts = append(verts, r3.Vec{X: rx, Y: ry, Z: z0 + t*height})
		}
	}

	var tris [][3]int
	// bottom cap, reversed so its outward normal faces -Z
	bottom := ringStart[0]
	for _, tri := range caps {
		tris = append(tris, [3]int{bottom + tri[0], bottom + tri[2], bottom + tri[1]})
	}
	// top cap, original winding faces +Z
	top := ringStart[slices]
	for _, tri := range caps {
		tris = append(tris, [3]int{top + tri[0], top + tri[1], top + tri[2]})
	}
	// side walls between each adjacent ring pair
	for s := 0; s < slices; s++ {
		cur, next := ringStart[s], ringStart[s+1]
		for i := 0; i < n; i++ {
			j := (i + 1) % n
			tris = append(tris,
				[3]int{cur + i, cur + j, next + j},
				[3]int{cur + i, next + j, next + i},
			)
		}
	}
	return NewMeshFromTriangles(verts, tris, span)
}

// RotateExtrude revolves profile (expected at X >= 0) about the Z axis over
// angleDegrees, stitching copies of the profile. A full 360-degree sweep
// uses segments copies, stitches the last back to the first and has no end
// caps; a partial sweep uses segments+1 copies and triangulates both ends
// as caps.
func RotateExtrude(profile *Shape2D, angleDegrees float64, segments int, span diag.Span) (*Mesh, error) {
	if len(profile.Outer) < 3 || segments < 1 {
		return EmptyMesh(), nil
	}
	points, caps := profile.Triangulate()
	if len(points) == 0 {
		return EmptyMesh(), nil
	}
	n := len(points)
	full := math.Abs(angleDegrees-360) < 1e-9
	copies := segments
	if !full {
		copies = segments + 1
	}

	var verts []r3.Vec
	ringStart := make([]int, copies)
	for s := 0; s < copies; s++ {
		ang := angleDegrees * float64(s) / float64(segments) * math.Pi / 180
		cosA, sinA := math.Cos(ang), math.Sin(ang)
		ringStart[s] = len(verts)
		for _, p := range points {
			// profile's local X is the radius in the revolved plane, Y stays Z
			verts = append(verts, r3.Vec{X: p[0] * cosA, Y: p[0] * sinA, Z: p[1]})
		}
	}

	var tris [][3]int
	ringCount := copies
	if full {
		for s := 0; s < ringCount; s++ {
			cur, next := ringStart[s], ringStart[(s+1)%ringCount]
			for i := 0; i < n; i++ {
				j := (i + 1) % n
				tris = append(tris,
					[3]int{cur + i, next + i, next + j},
					[3]int{cur + i, next + j, cur + j},
				)
			}
		}
	} else {
		for s := 0; s < ringCount-1; s++ {
			cur, next := ringStart[s], ringStart[s+1]
			for i := 0; i < n; i++ {
				j := (i + 1) % n
				tris = append(tris,
					[3]int{cur + i, next + i, next + j},
					[3]int{cur + i, next + j, cur + j},
				)
			}
		}
		start := ringStart[0]
		for _, tri := range caps {
			tris = append(tris, [3]int{start + tri[0], start + tri[2], start + tri[1]})
		}
		end := ringStart[ringCount-1]
		for _, tri := range caps {
			tris = append(tris, [3]int{end + tri[0], end + tri[1], end + tri[2]})
		}
	}
	return NewMeshFromTriangles(verts, tris, span)
}
