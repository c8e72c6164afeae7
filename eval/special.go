package eval

import "github.com/oscadgo/compiler/value"

// SpecialStack holds the dynamically-scoped `$`-variables ($fn, $fa, $fs,
// $t, $preview, $vpr, $vpt, $vpd, $children, ...): a module call that sets
// `$fn=50` affects everything evaluated underneath it, lexical nesting
// notwithstanding, and the override is popped on return. This is the
// opposite scoping discipline from Scope, hence the separate type.
type SpecialStack struct {
	frames []map[string]value.Value
}

// NewSpecialStack creates a stack seeded with OpenSCAD's documented
// defaults for the resolution variables: $fn=0, $fa=12, $fs=2.
func NewSpecialStack() *SpecialStack {
	return NewSpecialStackWithDefaults(0, 12, 2, true)
}

// NewSpecialStackWithDefaults seeds the root frame from CompileOptions'
// DefaultFn/DefaultFa/DefaultFs/Preview fields instead of OpenSCAD's own
// hardcoded defaults.
func NewSpecialStackWithDefaults(fn, fa, fs float64, preview bool) *SpecialStack {
	return &SpecialStack{frames: []map[string]value.Value{{
		"$fn":      value.Number(fn),
		"$fa":      value.Number(fa),
		"$fs":      value.Number(fs),
		"$t":       value.Number(0),
		"$preview": value.Bool(preview),
		// viewport specials carry OpenSCAD's documented defaults; the
		// compiler never reads them but user code may.
		"$vpr": value.Vec3(55, 0, 25),
		"$vpt": value.Vec3(0, 0, 0),
		"$vpd": value.Number(140),
		"$vpf": value.Number(22.5),
	}}}
}

// Push installs a new frame of overrides; only the keys present in
// overrides shadow outer frames, everything else still resolves downward.
func (s *SpecialStack) Push(overrides map[string]value.Value) {
	s.frames = append(s.frames, overrides)
}

// Pop removes the most recently pushed frame.
func (s *SpecialStack) Pop() {
	s.frames = s.frames[:len(s.frames)-1]
}

// Get resolves name from the innermost frame outward, returning
// value.Undef if it was never set.
func (s *SpecialStack) Get(name string) value.Value {
	for i := len(s.frames) - 1; i >= 0; i-- {
		if v, ok := s.frames[i][name]; ok {
			return v
		}
	}
	return value.Undef
}

// Resolution reads the current $fn/$fa/$fs triple.
func (s *SpecialStack) FN() float64 { return s.Get("$fn").NumberVal() }
func (s *SpecialStack) FA() float64 { return s.Get("$fa").NumberVal() }
func (s *SpecialStack) FS() float64 { return s.Get("$fs").NumberVal() }
