package eval

import "github.com/oscadgo/compiler/scad"

// ModuleRegistry holds every user-defined module, keyed by name; redefining
// a name overwrites the previous definition, matching OpenSCAD's
// last-definition-wins file semantics.
type ModuleRegistry struct {
	defs map[string]*scad.ModuleDef
}

// NewModuleRegistry creates an empty registry.
func NewModuleRegistry() *ModuleRegistry {
	return &ModuleRegistry{defs: make(map[string]*scad.ModuleDef)}
}

// Register adds or replaces a module definition.
func (r *ModuleRegistry) Register(def *scad.ModuleDef) {
	r.defs[def.Name] = def
}

// Lookup returns the module definition for name, if any.
func (r *ModuleRegistry) Lookup(name string) (*scad.ModuleDef, bool) {
	d, ok := r.defs[name]
	return d, ok
}

// FunctionRegistry holds every user-defined function, keyed by name.
type FunctionRegistry struct {
	defs map[string]*scad.FunctionDef
}

// NewFunctionRegistry creates an empty registry.
func NewFunctionRegistry() *FunctionRegistry {
	return &FunctionRegistry{defs: make(map[string]*scad.FunctionDef)}
}

// Register adds or replaces a function definition.
func (r *FunctionRegistry) Register(def *scad.FunctionDef) {
	r.defs[def.Name] = def
}

// Lookup returns the function definition for name, if any.
func (r *FunctionRegistry) Lookup(name string) (*scad.FunctionDef, bool) {
	d, ok := r.defs[name]
	return d, ok
}
