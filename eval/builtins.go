package eval

import (
	"math"

	"github.com/oscadgo/compiler/diag"
	"github.com/oscadgo/compiler/geomir"
	"github.com/oscadgo/compiler/scad"
	"github.com/oscadgo/compiler/value"
)

// ---------------------------------------------------------------------------
// Built-in functions.
// ---------------------------------------------------------------------------

type builtinFunc func(args []evaluatedArg) value.Value

func positional(args []evaluatedArg, i int) value.Value {
	if i >= len(args) {
		return value.Undef
	}
	return args[i].Value
}

var builtinFunctions map[string]builtinFunc

func init() {
	builtinFunctions = map[string]builtinFunc{
		"str": func(args []evaluatedArg) value.Value {
			s := ""
			for _, a := range args {
				s += value.Str(a.Value)
			}
			return value.String(s)
		},
		"len":        func(args []evaluatedArg) value.Value { return value.Len(positional(args, 0)) },
		"is_undef":   func(args []evaluatedArg) value.Value { return value.Bool(positional(args, 0).IsUndef()) },
		"is_bool":    func(args []evaluatedArg) value.Value { return value.Bool(positional(args, 0).Kind() == value.KindBool) },
		"is_num":     func(args []evaluatedArg) value.Value { return value.Bool(positional(args, 0).Kind() == value.KindNumber) },
		"is_string":  func(args []evaluatedArg) value.Value { return value.Bool(positional(args, 0).Kind() == value.KindString) },
		"is_list":    func(args []evaluatedArg) value.Value { return value.Bool(positional(args, 0).Kind() == value.KindList) },
		"is_function": func(args []evaluatedArg) value.Value {
			return value.Bool(positional(args, 0).Kind() == value.KindFunction)
		},
		"concat": func(args []evaluatedArg) value.Value {
			var out []value.Value
			for _, a := range args {
				if a.Value.Kind() == value.KindList {
					out = append(out, a.Value.ListVal()...)
				} else {
					out = append(out, a.Value)
				}
			}
			return value.List(out)
		},
		"lookup": func(args []evaluatedArg) value.Value { return value.Lookup(positional(args, 0), positional(args, 1)) },
		"search": func(args []evaluatedArg) value.Value { return value.Search(positional(args, 0), positional(args, 1)) },
		"abs":    mathFn1(math.Abs),
		"sign": func(args []evaluatedArg) value.Value {
			n := positional(args, 0).NumberVal()
			switch {
			case n > 0:
				return value.Number(1)
			case n < 0:
				return value.Number(-1)
			default:
				return value.Number(0)
			}
		},
		"floor": mathFn1(math.Floor),
		"ceil":  mathFn1(math.Ceil),
		"round": mathFn1(math.Round),
		"sqrt":  mathFn1(math.Sqrt),
		"ln":    mathFn1(math.Log),
		"log":   mathFn1(math.Log10),
		"exp":   mathFn1(math.Exp),
		"sin":   degFn1(math.Sin),
		"cos":   degFn1(math.Cos),
		"tan":   degFn1(math.Tan),
		"asin":  invDegFn1(math.Asin),
		"acos":  invDegFn1(math.Acos),
		"atan":  invDegFn1(math.Atan),
		"atan2": func(args []evaluatedArg) value.Value {
			y, x := positional(args, 0).NumberVal(), positional(args, 1).NumberVal()
			return value.Number(math.Atan2(y, x) * 180 / math.Pi)
		},
		"pow": func(args []evaluatedArg) value.Value {
			return value.Pow(positional(args, 0), positional(args, 1))
		},
		"min": func(args []evaluatedArg) value.Value { return reduceNumbers(args, math.Min, math.Inf(1)) },
		"max": func(args []evaluatedArg) value.Value { return reduceNumbers(args, math.Max, math.Inf(-1)) },
		"norm": func(args []evaluatedArg) value.Value {
			v := positional(args, 0)
			if v.Kind() != value.KindList {
				return value.Undef
			}
			sum := 0.0
			for _, e := range v.ListVal() {
				sum += e.NumberVal() * e.NumberVal()
			}
			return value.Number(math.Sqrt(sum))
		},
		"cross": func(args []evaluatedArg) value.Value {
			a, b := positional(args, 0), positional(args, 1)
			if a.Kind() != value.KindList || b.Kind() != value.KindList || len(a.ListVal()) != 3 || len(b.ListVal()) != 3 {
				return value.Undef
			}
			av, bv := a.ListVal(), b.ListVal()
			return value.Vec3(
				av[1].NumberVal()*bv[2].NumberVal()-av[2].NumberVal()*bv[1].NumberVal(),
				av[2].NumberVal()*bv[0].NumberVal()-av[0].NumberVal()*bv[2].NumberVal(),
				av[0].NumberVal()*bv[1].NumberVal()-av[1].NumberVal()*bv[0].NumberVal(),
			)
		},
	}
}

func mathFn1(f func(float64) float64) builtinFunc {
	return func(args []evaluatedArg) value.Value { return value.Number(f(positional(args, 0).NumberVal())) }
}

func degFn1(f func(float64) float64) builtinFunc {
	return func(args []evaluatedArg) value.Value {
		return value.Number(f(positional(args, 0).NumberVal() * math.Pi / 180))
	}
}

func invDegFn1(f func(float64) float64) builtinFunc {
	return func(args []evaluatedArg) value.Value {
		return value.Number(f(positional(args, 0).NumberVal()) * 180 / math.Pi)
	}
}

func reduceNumbers(args []evaluatedArg, f func(a, b float64) float64, identity float64) value.Value {
	vals := args
	// min([1,2,3]) and min(1,2,3) are both valid OpenSCAD forms.
	if len(args) == 1 && args[0].Value.Kind() == value.KindList {
		list := args[0].Value.ListVal()
		vals = make([]evaluatedArg, len(list))
		for i, v := range list {
			vals[i] = evaluatedArg{Value: v}
		}
	}
	if len(vals) == 0 {
		return value.Undef
	}
	acc := identity
	for _, a := range vals {
		acc = f(acc, a.Value.NumberVal())
	}
	return value.Number(acc)
}

// ---------------------------------------------------------------------------
// Built-in modules: primitives, transforms, booleans, and higher-order ops.
// ---------------------------------------------------------------------------

type moduleCtor func(e *Evaluator, args []evaluatedArg, body []scad.Stmt, scope *Scope, span diag.Span) geomir.GeometryNode

var builtinModules map[string]moduleCtor

func namedOr(args []evaluatedArg, name string, pos int, def value.Value) value.Value {
	for _, a := range args {
		if a.Name == name {
			return a.Value
		}
	}
	if pos >= 0 && pos < len(args) && args[pos].Name == "" {
		return args[pos].Value
	}
	return def
}

func vec3Of(v value.Value, fallback [3]float64) [3]float64 {
	if v.Kind() == value.KindNumber {
		n := v.NumberVal()
		return [3]float64{n, n, n}
	}
	if v.Kind() == value.KindList {
		l := v.ListVal()
		out := fallback
		for i := 0; i < len(l) && i < 3; i++ {
			out[i] = l[i].NumberVal()
		}
		return out
	}
	return fallback
}

func bodyGeometry(e *Evaluator, body []scad.Stmt, scope *Scope) geomir.GeometryNode {
	return collapse(e.execStmts(body, NewScope(scope)))
}

func resolutionFrom(e *Evaluator) geomir.Resolution {
	return geomir.Resolution{Fn: e.Specials.FN(), Fa: e.Specials.FA(), Fs: e.Specials.FS()}
}

func init() {
	builtinModules = map[string]moduleCtor{
		"cube": func(e *Evaluator, args []evaluatedArg, _ []scad.Stmt, _ *Scope, span diag.Span) geomir.GeometryNode {
			size := vec3Of(namedOr(args, "size", 0, value.Number(1)), [3]float64{1, 1, 1})
			center := value.Truthy(namedOr(args, "center", 1, value.Bool(false)))
			if size[0] == 0 || size[1] == 0 || size[2] == 0 {
				e.Diags.Warnf(span, "cube with zero dimension produces no geometry")
			}
			return &geomir.Cube{Size: size, Center: center, Span_: span}
		},
		"sphere": func(e *Evaluator, args []evaluatedArg, _ []scad.Stmt, _ *Scope, span diag.Span) geomir.GeometryNode {
			r := namedOr(args, "r", 0, value.Number(1)).NumberVal()
			if d := namedOr(args, "d", -1, value.Undef); !d.IsUndef() {
				r = d.NumberVal() / 2
			}
			return &geomir.Sphere{Radius: r, Res: resolutionFrom(e), Span_: span}
		},
		"cylinder": func(e *Evaluator, args []evaluatedArg, _ []scad.Stmt, _ *Scope, span diag.Span) geomir.GeometryNode {
			h := namedOr(args, "h", 0, value.Number(1)).NumberVal()
			r := namedOr(args, "r", -1, value.Undef)
			r1, r2 := 1.0, 1.0
			if !r.IsUndef() {
				r1, r2 = r.NumberVal(), r.NumberVal()
			}
			if v := namedOr(args, "r1", -1, value.Undef); !v.IsUndef() {
				r1 = v.NumberVal()
			}
			if v := namedOr(args, "r2", -1, value.Undef); !v.IsUndef() {
				r2 = v.NumberVal()
			}
			if v := namedOr(args, "d", -1, value.Undef); !v.IsUndef() {
				r1, r2 = v.NumberVal()/2, v.NumberVal()/2
			}
			center := value.Truthy(namedOr(args, "center", -1, value.Bool(false)))
			return &geomir.Cylinder{Height: h, R1: r1, R2: r2, Center: center, Res: resolutionFrom(e), Span_: span}
		},
		"polyhedron": func(e *Evaluator, args []evaluatedArg, _ []scad.Stmt, _ *Scope, span diag.Span) geomir.GeometryNode {
			pointsV := namedOr(args, "points", 0, value.Undef)
			facesV := namedOr(args, "faces", 1, value.Undef)
			convexity := int(namedOr(args, "convexity", -1, value.Number(1)).NumberVal())
			var points [][3]float64
			for _, p := range pointsV.ListVal() {
				points = append(points, vec3Of(p, [3]float64{}))
			}
			var faces [][]int
			for _, f := range facesV.ListVal() {
				var idx []int
				for _, i := range f.ListVal() {
					idx = append(idx, int(i.NumberVal()))
				}
				faces = append(faces, idx)
			}
			return &geomir.Polyhedron{Points: points, Faces: faces, Convexity: convexity, Span_: span}
		},
		"circle": func(e *Evaluator, args []evaluatedArg, _ []scad.Stmt, _ *Scope, span diag.Span) geomir.GeometryNode {
			r := namedOr(args, "r", 0, value.Number(1)).NumberVal()
			if d := namedOr(args, "d", -1, value.Undef); !d.IsUndef() {
				r = d.NumberVal() / 2
			}
			return &geomir.Circle{Radius: r, Res: resolutionFrom(e), Span_: span}
		},
		"square": func(e *Evaluator, args []evaluatedArg, _ []scad.Stmt, _ *Scope, span diag.Span) geomir.GeometryNode {
			size := namedOr(args, "size", 0, value.Number(1))
			var dims [2]float64
			if size.Kind() == value.KindNumber {
				dims = [2]float64{size.NumberVal(), size.NumberVal()}
			} else if size.Kind() == value.KindList && len(size.ListVal()) >= 2 {
				dims = [2]float64{size.ListVal()[0].NumberVal(), size.ListVal()[1].NumberVal()}
			}
			center := value.Truthy(namedOr(args, "center", 1, value.Bool(false)))
			return &geomir.Square{Size: dims, Center: center, Span_: span}
		},
		"polygon": func(e *Evaluator, args []evaluatedArg, _ []scad.Stmt, _ *Scope, span diag.Span) geomir.GeometryNode {
			pointsV := namedOr(args, "points", 0, value.Undef)
			var points [][2]float64
			for _, p := range pointsV.ListVal() {
				v3 := vec3Of(p, [3]float64{})
				points = append(points, [2]float64{v3[0], v3[1]})
			}
			var paths [][]int
			if pathsV := namedOr(args, "paths", 1, value.Undef); pathsV.Kind() == value.KindList {
				for _, p := range pathsV.ListVal() {
					var idx []int
					for _, i := range p.ListVal() {
						idx = append(idx, int(i.NumberVal()))
					}
					paths = append(paths, idx)
				}
			}
			return &geomir.Polygon{Points: points, Paths: paths, Span_: span}
		},
		"translate": func(e *Evaluator, args []evaluatedArg, body []scad.Stmt, scope *Scope, span diag.Span) geomir.GeometryNode {
			v := vec3Of(namedOr(args, "v", 0, value.Undef), [3]float64{})
			return &geomir.Transform{Matrix: geomir.Translate(v), Child: bodyGeometry(e, body, scope), Span_: span}
		},
		"scale": func(e *Evaluator, args []evaluatedArg, body []scad.Stmt, scope *Scope, span diag.Span) geomir.GeometryNode {
			v := vec3Of(namedOr(args, "v", 0, value.Undef), [3]float64{1, 1, 1})
			return &geomir.Transform{Matrix: geomir.Scale(v), Child: bodyGeometry(e, body, scope), Span_: span}
		},
		"rotate": func(e *Evaluator, args []evaluatedArg, body []scad.Stmt, scope *Scope, span diag.Span) geomir.GeometryNode {
			a := namedOr(args, "a", 0, value.Undef)
			var m = geomir.Identity()
			if v := namedOr(args, "v", 1, value.Undef); !v.IsUndef() && a.Kind() == value.KindNumber {
				m = geomir.RotateAxisAngle(vec3Of(v, [3]float64{0, 0, 1}), a.NumberVal())
			} else if a.Kind() == value.KindList {
				m = geomir.RotateEuler(vec3Of(a, [3]float64{}))
			} else if a.Kind() == value.KindNumber {
				m = geomir.RotateAxisAngle([3]float64{0, 0, 1}, a.NumberVal())
			}
			return &geomir.Transform{Matrix: m, Child: bodyGeometry(e, body, scope), Span_: span}
		},
		"mirror": func(e *Evaluator, args []evaluatedArg, body []scad.Stmt, scope *Scope, span diag.Span) geomir.GeometryNode {
			v := vec3Of(namedOr(args, "v", 0, value.Undef), [3]float64{1, 0, 0})
			return &geomir.Transform{Matrix: geomir.MirrorPlane(v), Child: bodyGeometry(e, body, scope), Span_: span}
		},
		"multmatrix": func(e *Evaluator, args []evaluatedArg, body []scad.Stmt, scope *Scope, span diag.Span) geomir.GeometryNode {
			m := namedOr(args, "m", 0, value.Undef)
			mat := geomir.Identity()
			if m.Kind() == value.KindList {
				rows := m.ListVal()
				for r := 0; r < 4 && r < len(rows); r++ {
					if rows[r].Kind() != value.KindList {
						continue
					}
					cols := rows[r].ListVal()
					for c := 0; c < 4 && c < len(cols); c++ {
						mat.Set(r, c, cols[c].NumberVal())
					}
				}
			}
			return &geomir.Transform{Matrix: mat, Child: bodyGeometry(e, body, scope), Span_: span}
		},
		"color": func(e *Evaluator, args []evaluatedArg, body []scad.Stmt, scope *Scope, span diag.Span) geomir.GeometryNode {
			c := namedOr(args, "c", 0, value.Undef)
			rgba := [4]float64{0.5, 0.5, 0.5, 1}
			if c.Kind() == value.KindList {
				l := c.ListVal()
				for i := 0; i < len(l) && i < 4; i++ {
					rgba[i] = l[i].NumberVal()
				}
			}
			if a := namedOr(args, "alpha", -1, value.Undef); !a.IsUndef() {
				rgba[3] = a.NumberVal()
			}
			return &geomir.Color{RGBA: rgba, Child: bodyGeometry(e, body, scope), Span_: span}
		},
		"union": func(e *Evaluator, _ []evaluatedArg, body []scad.Stmt, scope *Scope, span diag.Span) geomir.GeometryNode {
			return &geomir.Boolean{Op: geomir.OpUnion, Children: e.execStmts(body, NewScope(scope)), Span_: span}
		},
		"difference": func(e *Evaluator, _ []evaluatedArg, body []scad.Stmt, scope *Scope, span diag.Span) geomir.GeometryNode {
			return &geomir.Boolean{Op: geomir.OpDifference, Children: e.execStmts(body, NewScope(scope)), Span_: span}
		},
		"intersection": func(e *Evaluator, _ []evaluatedArg, body []scad.Stmt, scope *Scope, span diag.Span) geomir.GeometryNode {
			return &geomir.Boolean{Op: geomir.OpIntersection, Children: e.execStmts(body, NewScope(scope)), Span_: span}
		},
		"hull": func(e *Evaluator, _ []evaluatedArg, body []scad.Stmt, scope *Scope, span diag.Span) geomir.GeometryNode {
			return &geomir.Hull{Children: e.execStmts(body, NewScope(scope)), Span_: span}
		},
		"minkowski": func(e *Evaluator, _ []evaluatedArg, body []scad.Stmt, scope *Scope, span diag.Span) geomir.GeometryNode {
			return &geomir.Minkowski{Children: e.execStmts(body, NewScope(scope)), Span_: span}
		},
		"linear_extrude": func(e *Evaluator, args []evaluatedArg, body []scad.Stmt, scope *Scope, span diag.Span) geomir.GeometryNode {
			h := namedOr(args, "height", 0, value.Number(1)).NumberVal()
			twist := namedOr(args, "twist", -1, value.Number(0)).NumberVal()
			center := value.Truthy(namedOr(args, "center", -1, value.Bool(false)))
			slices := int(namedOr(args, "slices", -1, value.Number(1)).NumberVal())
			if slices < 1 {
				slices = 1
			}
			scaleV := namedOr(args, "scale", -1, value.Number(1))
			sc := [2]float64{1, 1}
			if scaleV.Kind() == value.KindNumber {
				sc = [2]float64{scaleV.NumberVal(), scaleV.NumberVal()}
			} else if scaleV.Kind() == value.KindList && len(scaleV.ListVal()) >= 2 {
				sc = [2]float64{scaleV.ListVal()[0].NumberVal(), scaleV.ListVal()[1].NumberVal()}
			}
			return &geomir.LinearExtrude{
				Child: bodyGeometry(e, body, scope), Height: h, Twist: twist,
				Scale: sc, Slices: slices, Center: center, Span_: span,
			}
		},
		"rotate_extrude": func(e *Evaluator, args []evaluatedArg, body []scad.Stmt, scope *Scope, span diag.Span) geomir.GeometryNode {
			angle := namedOr(args, "angle", -1, value.Number(360)).NumberVal()
			return &geomir.RotateExtrude{Child: bodyGeometry(e, body, scope), Angle: angle, Res: resolutionFrom(e), Span_: span}
		},
		"offset": func(e *Evaluator, args []evaluatedArg, body []scad.Stmt, scope *Scope, span diag.Span) geomir.GeometryNode {
			delta := namedOr(args, "r", 0, value.Undef)
			chamfer := false
			d := 0.0
			if !delta.IsUndef() {
				d = delta.NumberVal()
			} else if v := namedOr(args, "delta", -1, value.Undef); !v.IsUndef() {
				d = v.NumberVal()
				chamfer = value.Truthy(namedOr(args, "chamfer", -1, value.Bool(false)))
			}
			return &geomir.Offset{Child: bodyGeometry(e, body, scope), Delta: d, Chamfer: chamfer, Res: resolutionFrom(e), Span_: span}
		},
		"projection": func(e *Evaluator, args []evaluatedArg, body []scad.Stmt, scope *Scope, span diag.Span) geomir.GeometryNode {
			cut := value.Truthy(namedOr(args, "cut", 0, value.Bool(false)))
			return &geomir.Projection{Child: bodyGeometry(e, body, scope), Cut: cut, Span_: span}
		},
		"resize": func(e *Evaluator, args []evaluatedArg, body []scad.Stmt, scope *Scope, span diag.Span) geomir.GeometryNode {
			newsize := vec3Of(namedOr(args, "newsize", 0, value.Undef), [3]float64{})
			autoV := namedOr(args, "auto", 1, value.Undef)
			var auto [3]bool
			switch autoV.Kind() {
			case value.KindBool:
				b := autoV.BoolVal()
				auto = [3]bool{b, b, b}
			case value.KindList:
				l := autoV.ListVal()
				for i := 0; i < len(l) && i < 3; i++ {
					auto[i] = value.Truthy(l[i])
				}
			}
			return &geomir.Resize{Child: bodyGeometry(e, body, scope), NewSize: newsize, Auto: auto, Span_: span}
		},
		"children": func(e *Evaluator, args []evaluatedArg, _ []scad.Stmt, _ *Scope, _ diag.Span) geomir.GeometryNode {
			if len(args) == 0 {
				return e.evalChildren(nil)
			}
			idx := int(args[0].Value.NumberVal())
			return e.evalChildren(&idx)
		},
	}
}
