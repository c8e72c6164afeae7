package kernel

import "github.com/oscadgo/compiler/diag"

// GeometryError is returned by Build when an IR subtree cannot be realized:
// invalid polyhedron topology, a boolean operation left in a non-manifold
// state, a hull with too few points, and so on. It carries the span of the
// offending IR node so the pipeline can surface a diagnostic instead of
// aborting the whole compile.
type GeometryError struct {
	Span    diag.Span
	Message string
}

func (e *GeometryError) Error() string { return e.Message }
