package kernel

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/oscadgo/compiler/diag"
)

func centroidOf(verts []r3.Vec) r3.Vec {
	var c r3.Vec
	for _, v := range verts {
		c = r3.Add(c, v)
	}
	n := float64(len(verts))
	if n == 0 {
		return c
	}
	return r3.Scale(1/n, c)
}

// orientOutward returns tri, possibly with its last two indices swapped, so
// that its normal points away from centroid — the generic way every
// primitive builder here guarantees consistent outward winding without
// hand-deriving vertex order per face.
func orientOutward(verts []r3.Vec, tri [3]int, centroid r3.Vec) [3]int {
	a, b, c := verts[tri[0]], verts[tri[1]], verts[tri[2]]
	normal := r3.Cross(r3.Sub(b, a), r3.Sub(c, a))
	toCenter := r3.Sub(centroid, a)
	if r3.Dot(normal, toCenter) > 0 {
		return [3]int{tri[0], tri[2], tri[1]}
	}
	return tri
}

// Cube builds the usual 8-vertex, 12-triangle box.
func Cube(size [3]float64, center bool, span diag.Span) (*Mesh, error) {
	if size[0] == 0 || size[1] == 0 || size[2] == 0 {
		return EmptyMesh(), nil
	}
	var ox, oy, oz float64
	if center {
		ox, oy, oz = -size[0]/2, -size[1]/2, -size[2]/2
	}
	verts := []r3.Vec{
		{X: ox, Y: oy, Z: oz},
		{X: ox + size[0], Y: oy, Z: oz},
		{X: ox + size[0], Y: oy + size[1], Z: oz},
		{X: ox, Y: oy + size[1], Z: oz},
		{X: ox, Y: oy, Z: oz + size[2]},
		{X: ox + size[0], Y: oy, Z: oz + size[2]},
		{X: ox + size[0], Y: oy + size[1], Z: oz + size[2]},
		{X: ox, Y: oy + size[1], Z: oz + size[2]},
	}
	quads := [6][4]int{
		{0, 1, 2, 3}, // bottom
		{4, 5, 6, 7}, // top
		{0, 1, 5, 4}, // front
		{1, 2, 6, 5}, // right
		{2, 3, 7, 6}, // back
		{3, 0, 4, 7}, // left
	}
	centroid := centroidOf(verts)
	var tris [][3]int
	for _, q := range quads {
		tris = append(tris,
			orientOutward(verts, [3]int{q[0], q[1], q[2]}, centroid),
			orientOutward(verts, [3]int{q[0], q[2], q[3]}, centroid),
		)
	}
	return NewMeshFromTriangles(verts, tris, span)
}

// Sphere tessellates a UV sphere: segments equatorial fragments and
// max(2, segments/2) latitude bands. The same segments always produce the
// same vertex sequence, since construction only depends on radius and
// segments — two spheres built alike are byte-identical.
func Sphere(radius float64, segments int, span diag.Span) (*Mesh, error) {
	if radius == 0 || segments < 3 {
		return EmptyMesh(), nil
	}
	rings := segments / 2
	if rings < 2 {
		rings = 2
	}
	north := r3.Vec{X: 0, Y: 0, Z: radius}
	south := r3.Vec{X: 0, Y: 0, Z: -radius}
	verts := []r3.Vec{north}
	ringStart := make([]int, rings) // ringStart[r] = index of ring r's first vertex, 1<=r<=rings-1
	for r := 1; r < rings; r++ {
		phi := math.Pi * float64(r) / float64(rings)
		ringStart[r] = len(verts)
		for i := 0; i < segments; i++ {
			theta := 2 * math.Pi * float64(i) / float64(segments)
			verts = append(verts, r3.Vec{
				X: radius * math.Sin(phi) * math.Cos(theta),
				Y: radius * math.Sin(phi) * math.Sin(theta),
				Z: radius * math.Cos(phi),
			})
		}
	}
	southIdx := len(verts)
	verts = append(verts, south)

	centroid := r3.Vec{}
	var tris [][3]int
	firstRing := ringStart[1]
	for i := 0; i < segments; i++ {
		j := (i + 1) % segments
		tris = append(tris, orientOutward(verts, [3]int{0, firstRing + i, firstRing + j}, centroid))
	}
	for r := 1; r < rings-1; r++ {
		cur, next := ringStart[r], ringStart[r+1]
		for i := 0; i < segments; i++ {
			j := (i + 1) % segments
			tris = append(tris,
				orientOutward(verts, [3]int{cur + i, next + i, next + j}, centroid),
				orientOutward(verts, [3]int{cur + i, next + j, cur + j}, centroid),
			)
		}
	}
	lastRing := ringStart[rings-1]
	for i := 0; i < segments; i++ {
		j := (i + 1) % segments
		tris = append(tris, orientOutward(verts, [3]int{southIdx, lastRing + j, lastRing + i}, centroid))
	}
	return NewMeshFromTriangles(verts, tris, span)
}

// Cylinder builds two segments-vertex circles joined by a ribbon of quads,
// collapsing that end to an apex (with no cap there) when r1 or r2 is zero;
// the other end keeps its cap.
func Cylinder(height, r1, r2 float64, center bool, segments int, span diag.Span) (*Mesh, error) {
	if height == 0 || segments < 3 || (r1 == 0 && r2 == 0) {
		return EmptyMesh(), nil
	}
	z0, z1 := 0.0, height
	if center {
		z0, z1 = -height/2, height/2
	}
	var verts []r3.Vec
	bottomApex, topApex := -1, -1
	var bottomStart, topStart int
	if r1 == 0 {
		bottomApex = len(verts)
		verts = append(verts, r3.Vec{X: 0, Y: 0, Z: z0})
	} else {
		bottomStart = len(verts)
		for i := 0; i < segments; i++ {
			a := 2 * math.Pi * float64(i) / float64(segments)
			verts = append(verts, r3.Vec{X: r1 * math.Cos(a), Y: r1 * math.Sin(a), Z: z0})
		}
	}
	if r2 == 0 {
		topApex = len(verts)
		verts = append(verts, r3.Vec{X: 0, Y: 0, Z: z1})
	} else {
		topStart = len(verts)
		for i := 0; i < segments; i++ {
			a := 2 * math.Pi * float64(i) / float64(segments)
			verts = append(verts, r3.Vec{X: r2 * math.Cos(a), Y: r2 * math.Sin(a), Z: z1})
		}
	}
	centroid := r3.Vec{X: 0, Y: 0, Z: (z0 + z1) / 2}
	var tris [][3]int

	switch {
	case bottomApex >= 0:
		for i := 0; i < segments; i++ {
			j := (i + 1) % segments
			tris = append(tris, orientOutward(verts, [3]int{bottomApex, topStart + i, topStart + j}, centroid))
		}
		for i := 1; i < segments-1; i++ {
			tris = append(tris, orientOutward(verts, [3]int{topStart, topStart + i, topStart + i + 1}, centroid))
		}
	case topApex >= 0:
		for i := 0; i < segments; i++ {
			j := (i + 1) % segments
			tris = append(tris, orientOutward(verts, [3]int{topApex, bottomStart + j, bottomStart + i}, centroid))
		}
		for i := 1; i < segments-1; i++ {
			tris = append(tris, orientOutward(verts, [3]int{bottomStart, bottomStart + i + 1, bottomStart + i}, centroid))
		}
	default:
		for i := 0; i < segments; i++ {
			j := (i + 1) % segments
			tris = append(tris,
				orientOutward(verts, [3]int{bottomStart + i, bottomStart + j, topStart + j}, centroid),
				orientOutward(verts, [3]int{bottomStart + i, topStart + j, topStart + i}, centroid),
			)
		}
		// bottom cap fan
		for i := 1; i < segments-1; i++ {
			tris = append(tris, orientOutward(verts, [3]int{bottomStart, bottomStart + i + 1, bottomStart + i}, centroid))
		}
		// top cap fan
		for i := 1; i < segments-1; i++ {
			tris = append(tris, orientOutward(verts, [3]int{topStart, topStart + i, topStart + i + 1}, centroid))
		}
	}
	return NewMeshFromTriangles(verts, tris, span)
}

// Polyhedron builds a mesh from explicit points and face index lists,
// fan-triangulating faces with more than 3 vertices and reversing winding
// to match this kernel's outward convention (OpenSCAD documents the
// opposite). convexity is threaded through only to bound the
// self-intersection scan — it never bypasses validation.
func Polyhedron(points [][3]float64, faces [][]int, convexity int, span diag.Span) (*Mesh, error) {
	verts := make([]r3.Vec, len(points))
	for i, p := range points {
		verts[i] = r3.Vec{X: p[0], Y: p[1], Z: p[2]}
	}
	var tris [][3]int
	for fi, face := range faces {
		if len(face) < 3 {
			return nil, &GeometryError{Span: span, Message: fmt.Sprintf("face %d has fewer than 3 vertices", fi)}
		}
		for _, idx := range face {
			if idx < 0 || idx >= len(verts) {
				return nil, &GeometryError{Span: span, Message: fmt.Sprintf("face %d references out-of-range vertex %d", fi, idx)}
			}
		}
		// Reverse: OpenSCAD's documented winding is the opposite of ours.
		rev := make([]int, len(face))
		for i, idx := range face {
			rev[len(face)-1-i] = idx
		}
		for i := 1; i < len(rev)-1; i++ {
			tris = append(tris, [3]int{rev[0], rev[i], rev[i+1]})
		}
	}
	mesh, err := NewMeshFromTriangles(verts, tris, span)
	if err != nil {
		return nil, err
	}
	// convexity bounds the self-intersection probe's pair budget; it never
	// substitutes for Validate.
	budget := convexity
	if budget <= 0 {
		budget = 1
	}
	if errs := mesh.ProbeSelfIntersections(budget * len(mesh.Faces)); len(errs) > 0 {
		return nil, &GeometryError{Span: span, Message: "polyhedron: " + errs[0].Error()}
	}
	return mesh, nil
}
