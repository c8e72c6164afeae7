package eval

import "github.com/oscadgo/compiler/value"

// Scope is a lexical variable-binding chain. OpenSCAD hoists every
// assignment in a block before evaluating any of them, so a Scope's vars
// map is fully populated by Evaluator.hoist before any expression in that
// block is evaluated.
type Scope struct {
	vars   map[string]value.Value
	parent *Scope
}

// NewScope creates a child scope of parent (nil for the root scope).
func NewScope(parent *Scope) *Scope {
	return &Scope{vars: make(map[string]value.Value), parent: parent}
}

// Get looks up name in this scope or any ancestor.
func (s *Scope) Get(name string) (value.Value, bool) {
	for cur := s; cur != nil; cur = cur.parent {
		if v, ok := cur.vars[name]; ok {
			return v, true
		}
	}
	return value.Undef, false
}

// Define binds name in this scope only, shadowing any ancestor binding.
func (s *Scope) Define(name string, v value.Value) {
	s.vars[name] = v
}
