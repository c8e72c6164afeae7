package kernel

import (
	"context"

	"github.com/oscadgo/compiler/geomir"
)

// Options configures the host-tunable parts of Build: the relative
// tolerance used for vertex-coincidence merging in boolean ops, and the
// cancellation context Build polls between IR nodes. It is the
// kernel-facing slice of the top-level CompileOptions.
type Options struct {
	EpsilonScale float64
	Ctx          context.Context // nil disables cancellation polling
}

// DefaultOptions mirrors CompileOptions' default EpsilonScale.
func DefaultOptions() Options {
	return Options{EpsilonScale: 1e-6}
}

// Build realizes a geomir.GeometryNode tree into a Result (a *Mesh for 3D
// nodes, a *Shape2D for 2D nodes), the kernel's half of the pipeline: it
// never panics, and a failure surfaces as a *GeometryError carrying the
// offending node's span. The first failure in any subtree is returned as
// the result of the whole build; siblings of the failing node are not kept.
func Build(node geomir.GeometryNode, opts Options) (Result, error) {
	if opts.Ctx != nil {
		select {
		case <-opts.Ctx.Done():
			return nil, opts.Ctx.Err()
		default:
		}
	}
	switch n := node.(type) {
	case geomir.Empty:
		return EmptyMesh(), nil
	case *geomir.Cube:
		return Cube(n.Size, n.Center, n.Span_)
	case *geomir.Sphere:
		return Sphere(n.Radius, n.Res.Segments(n.Radius), n.Span_)
	case *geomir.Cylinder:
		segs := n.Res.Segments(maxF(n.R1, n.R2))
		return Cylinder(n.Height, n.R1, n.R2, n.Center, segs, n.Span_)
	case *geomir.Polyhedron:
		return Polyhedron(n.Points, n.Faces, n.Convexity, n.Span_)
	case *geomir.Circle:
		return Circle2D(n.Radius, n.Res.Segments(n.Radius)), nil
	case *geomir.Square:
		return Square2D(n.Size, n.Center), nil
	case *geomir.Polygon:
		return Polygon2D(n.Points, n.Paths), nil
	case *geomir.Transform:
		return buildTransform(n, opts)
	case *geomir.Color:
		return buildColor(n, opts)
	case *geomir.Modifier:
		r, err := Build(n.Child, opts)
		if err != nil || n.Kind != geomir.ModTransparent {
			return r, err
		}
		if _, ok := r.(*Shape2D); ok {
			return &Shape2D{}, nil
		}
		return EmptyMesh(), nil
	case *geomir.Boolean:
		return buildBoolean(n, opts)
	case *geomir.LinearExtrude:
		return buildLinearExtrude(n, opts)
	case *geomir.RotateExtrude:
		return buildRotateExtrude(n, opts)
	case *geomir.Hull:
		return buildHull(n, opts)
	case *geomir.Minkowski:
		return buildMinkowski(n, opts)
	case *geomir.Offset:
		return buildOffset(n, opts)
	case *geomir.Projection:
		return buildProjection(n, opts)
	case *geomir.Resize:
		return buildResize(n, opts)
	default:
		return nil, &GeometryError{Span: node.Span(), Message: "internal: unhandled geometry IR node"}
	}
}

func maxF(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

// filterModifiers applies the sigil-modifier semantics across a
// sibling list before they're folded into a boolean/hull/minkowski/root
// assembly: a ShowOnly ("!") sibling suppresses every other sibling at that
// level, and a Transparent ("%") sibling is a preview-only annotation that
// never contributes to the exported solid. Highlight ("#") is purely
// cosmetic and participates normally.
func filterModifiers(children []geomir.GeometryNode) []geomir.GeometryNode {
	var showOnly []geomir.GeometryNode
	for _, c := range children {
		if m, ok := c.(*geomir.Modifier); ok && m.Kind == geomir.ModDisableOthers {
			showOnly = append(showOnly, m.Child)
		}
	}
	if len(showOnly) > 0 {
		return showOnly
	}
	out := make([]geomir.GeometryNode, 0, len(children))
	for _, c := range children {
		if m, ok := c.(*geomir.Modifier); ok && m.Kind == geomir.ModTransparent {
			continue
		}
		out = append(out, c)
	}
	return out
}

// buildChildren builds every child of a sibling list after modifier
// filtering and stops at the first error, which fails the whole list; every
// sibling list goes through it, including the implicit top-level union.
func buildChildren(children []geomir.GeometryNode, opts Options) ([]Result, error) {
	filtered := filterModifiers(children)
	results := make([]Result, 0, len(filtered))
	for _, c := range filtered {
		r, err := Build(c, opts)
		if err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, nil
}

func asMeshes(results []Result) ([]*Mesh, bool) {
	meshes := make([]*Mesh, 0, len(results))
	for _, r := range results {
		m, ok := r.(*Mesh)
		if !ok {
			return nil, false
		}
		meshes = append(meshes, m)
	}
	return meshes, true
}

func asShapes(results []Result) ([]*Shape2D, bool) {
	shapes := make([]*Shape2D, 0, len(results))
	for _, r := range results {
		s, ok := r.(*Shape2D)
		if !ok {
			return nil, false
		}
		shapes = append(shapes, s)
	}
	return shapes, true
}

func buildTransform(n *geomir.Transform, opts Options) (Result, error) {
	child, err := Build(n.Child, opts)
	if err != nil {
		return nil, err
	}
	switch c := child.(type) {
	case *Mesh:
		return ApplyMatrix(c, n.Matrix), nil
	case *Shape2D:
		return ApplyMatrix2D(c, n.Matrix), nil
	default:
		return nil, &GeometryError{Span: n.Span_, Message: "internal: transform of unrecognized result kind"}
	}
}

func buildColor(n *geomir.Color, opts Options) (Result, error) {
	child, err := Build(n.Child, opts)
	if err != nil {
		return nil, err
	}
	if m, ok := child.(*Mesh); ok {
		rgba := n.RGBA
		m.Color = &rgba
	}
	return child, nil
}

// buildBoolean dispatches union/difference/intersection to the 3D or 2D
// kernel family: all surviving children must be meshes or all must be 2D
// shapes, and a mix of the two is a GeometryError.
func buildBoolean(n *geomir.Boolean, opts Options) (Result, error) {
	results, err := buildChildren(n.Children, opts)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return EmptyMesh(), nil
	}
	if meshes, ok := asMeshes(results); ok {
		eps := opts.EpsilonScale
		if eps <= 0 {
			eps = 1e-6
		}
		return Boolean3D(n.Op, meshes, eps, n.Span_)
	}
	if shapes, ok := asShapes(results); ok {
		return boolean2D(n.Op, shapes), nil
	}
	return nil, &GeometryError{Span: n.Span_, Message: "boolean operands mix 2D and 3D geometry"}
}

func buildLinearExtrude(n *geomir.LinearExtrude, opts Options) (Result, error) {
	child, err := Build(n.Child, opts)
	if err != nil {
		return nil, err
	}
	shape, ok := child.(*Shape2D)
	if !ok {
		return nil, &GeometryError{Span: n.Span_, Message: "linear_extrude requires a 2D child"}
	}
	return LinearExtrude(shape, n.Height, n.Twist, n.Scale, n.Slices, n.Center, n.Span_)
}

func buildRotateExtrude(n *geomir.RotateExtrude, opts Options) (Result, error) {
	child, err := Build(n.Child, opts)
	if err != nil {
		return nil, err
	}
	shape, ok := child.(*Shape2D)
	if !ok {
		return nil, &GeometryError{Span: n.Span_, Message: "rotate_extrude requires a 2D child"}
	}
	_, max := shape.Bounds()
	segs := n.Res.Segments(max[0])
	return RotateExtrude(shape, n.Angle, segs, n.Span_)
}

func buildHull(n *geomir.Hull, opts Options) (Result, error) {
	results, err := buildChildren(n.Children, opts)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return EmptyMesh(), nil
	}
	if meshes, ok := asMeshes(results); ok {
		return Hull3D(meshes, n.Span_)
	}
	if shapes, ok := asShapes(results); ok {
		return Hull2D(shapes), nil
	}
	return nil, &GeometryError{Span: n.Span_, Message: "hull operands mix 2D and 3D geometry"}
}

func buildMinkowski(n *geomir.Minkowski, opts Options) (Result, error) {
	results, err := buildChildren(n.Children, opts)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return EmptyMesh(), nil
	}
	if meshes, ok := asMeshes(results); ok {
		mesh, _, err := Minkowski3D(meshes, n.Span_)
		return mesh, err
	}
	if shapes, ok := asShapes(results); ok {
		return Minkowski2D(shapes), nil
	}
	return nil, &GeometryError{Span: n.Span_, Message: "minkowski operands mix 2D and 3D geometry"}
}

func buildOffset(n *geomir.Offset, opts Options) (Result, error) {
	child, err := Build(n.Child, opts)
	if err != nil {
		return nil, err
	}
	shape, ok := child.(*Shape2D)
	if !ok {
		return nil, &GeometryError{Span: n.Span_, Message: "offset requires a 2D child"}
	}
	segs := n.Res.Segments(absF(n.Delta))
	return Offset2D(shape, n.Delta, !n.Chamfer, segs), nil
}

func absF(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

func buildProjection(n *geomir.Projection, opts Options) (Result, error) {
	child, err := Build(n.Child, opts)
	if err != nil {
		return nil, err
	}
	mesh, ok := child.(*Mesh)
	if !ok {
		return nil, &GeometryError{Span: n.Span_, Message: "projection requires a 3D child"}
	}
	return Projection(mesh, n.Cut, n.Span_)
}

func buildResize(n *geomir.Resize, opts Options) (Result, error) {
	child, err := Build(n.Child, opts)
	if err != nil {
		return nil, err
	}
	switch c := child.(type) {
	case *Mesh:
		return Resize3D(c, n.NewSize, n.Auto), nil
	case *Shape2D:
		return Resize2D(c, n.NewSize, n.Auto), nil
	default:
		return nil, &GeometryError{Span: n.Span_, Message: "internal: resize of unrecognized result kind"}
	}
}

// boolean2D folds op left across shapes using the 2D BSP family — the same
// n-ary fold rule as the 3D booleans, e.g.
// `difference(){circle(5);circle(3);}`.
func boolean2D(op geomir.BooleanOp, shapes []*Shape2D) *Shape2D {
	nonEmpty := make([]*Shape2D, 0, len(shapes))
	for _, s := range shapes {
		if len(s.Outer) >= 3 {
			nonEmpty = append(nonEmpty, s)
		}
	}
	if len(nonEmpty) == 0 {
		return &Shape2D{}
	}
	acc := shapeToBSP2(nonEmpty[0])
	for _, next := range nonEmpty[1:] {
		b := shapeToBSP2(next)
		switch op {
		case geomir.OpUnion:
			acc = bsp2Union(acc, b)
		case geomir.OpDifference:
			acc = bsp2Subtract(acc, b)
		case geomir.OpIntersection:
			acc = bsp2Intersect(acc, b)
		}
	}
	if op == geomir.OpIntersection && len(nonEmpty) == 1 {
		return nonEmpty[0]
	}
	loops := chainSegsToLoops(acc.allSegs(), 1e-6)
	return loopsToShape(loops)
}

func shapeToBSP2(s *Shape2D) *bsp2Node {
	var segs []bsp2Seg
	appendLoop := func(loop [][2]float64, ccw bool) {
		pts := ensureWinding(loop, ccw)
		n := len(pts)
		for i := 0; i < n; i++ {
			j := (i + 1) % n
			segs = append(segs, bsp2Seg{A: pts[i], B: pts[j], Line: lineFromSegment(pts[i], pts[j])})
		}
	}
	appendLoop(s.Outer, true)
	for _, h := range s.Holes {
		appendLoop(h, false)
	}
	return newBSP2(segs, 1e-9)
}
