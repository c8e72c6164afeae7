// Package eval walks a scad.File's AST and produces a geomir.GeometryNode
// tree, evaluating OpenSCAD's dynamically-typed expression language and
// module-call semantics along the way.
package eval

import (
	"context"
	"strings"

	"github.com/oscadgo/compiler/diag"
	"github.com/oscadgo/compiler/geomir"
	"github.com/oscadgo/compiler/scad"
	"github.com/oscadgo/compiler/value"
)

const defaultMaxRecursionDepth = 1000

// childrenFrame captures a module call's actual children (statements plus
// the scope they close over) so the `children()` builtin can re-evaluate
// them on demand, possibly more than once, rather than receiving an
// already-materialized geometry list — OpenSCAD's children are late-bound.
type childrenFrame struct {
	stmts []scad.Stmt
	scope *Scope
}

// Evaluator walks an AST and produces geometry IR.
type Evaluator struct {
	Diags     diag.Bag
	Modules   *ModuleRegistry
	Functions *FunctionRegistry
	Specials  *SpecialStack

	maxRecursionDepth int
	depth             int
	children          []childrenFrame
	global            *Scope
	ctx               context.Context
	cancelled         bool
}

// NewEvaluator creates an Evaluator with empty registries and default
// special-variable values.
func NewEvaluator() *Evaluator {
	return &Evaluator{
		Modules:           NewModuleRegistry(),
		Functions:         NewFunctionRegistry(),
		Specials:          NewSpecialStack(),
		maxRecursionDepth: defaultMaxRecursionDepth,
	}
}

// NewEvaluatorWithOptions creates an Evaluator whose $fn/$fa/$fs/$preview
// root frame and recursion-depth guard come from the given CompileOptions
// fields, rather than OpenSCAD's hardcoded documented defaults.
func NewEvaluatorWithOptions(maxRecursionDepth int, defaultFn, defaultFa, defaultFs float64, preview bool) *Evaluator {
	e := NewEvaluator()
	if maxRecursionDepth > 0 {
		e.maxRecursionDepth = maxRecursionDepth
	}
	e.Specials = NewSpecialStackWithDefaults(defaultFn, defaultFa, defaultFs, preview)
	return e
}

// WithContext installs the cancellation context the evaluator polls at
// every call entry and loop iteration. A nil context disables polling.
func (e *Evaluator) WithContext(ctx context.Context) *Evaluator {
	e.ctx = ctx
	return e
}

// checkCancelled reports whether the compile has been cancelled, latching
// the first observation so every later poll is a cheap field read.
func (e *Evaluator) checkCancelled() bool {
	if e.cancelled {
		return true
	}
	if e.ctx == nil {
		return false
	}
	select {
	case <-e.ctx.Done():
		e.cancelled = true
		return true
	default:
		return false
	}
}

// Run hoists every top-level module/function definition, then evaluates the
// remaining top-level items as an implicit union, returning the resulting
// geometry tree and any diagnostics raised along the way.
func (e *Evaluator) Run(file *scad.File) (geomir.GeometryNode, []diag.Diagnostic) {
	root := NewScope(nil)
	e.global = root
	stmts := e.hoistTop(file.Items)
	nodes := e.execStmts(stmts, root)
	return collapse(nodes), e.Diags.All()
}

// collapse folds a slice of sibling geometry nodes into a single node: zero
// children is Empty, one child is itself, more than one is an implicit
// union — a sequence of solids in a block implicitly unions.
func collapse(nodes []geomir.GeometryNode) geomir.GeometryNode {
	switch len(nodes) {
	case 0:
		return geomir.Empty{}
	case 1:
		return nodes[0]
	default:
		span := diag.Join(nodes[0].Span(), nodes[len(nodes)-1].Span())
		return &geomir.Boolean{Op: geomir.OpUnion, Children: nodes, Span_: span}
	}
}

// hoistTop returns file items as statements in source order, dropping
// `use`/`include` (file inclusion is resolved by the host embedding this
// compiler, not by the evaluator itself — Compile takes one source
// string). Definition registration happens in execStmts, which hoists per
// block.
func (e *Evaluator) hoistTop(items []scad.Item) []scad.Stmt {
	var stmts []scad.Stmt
	for _, it := range items {
		switch it.(type) {
		case *scad.Use, *scad.Include:
			// no-op: see doc comment above.
		default:
			if s, ok := it.(scad.Stmt); ok {
				stmts = append(stmts, s)
			}
		}
	}
	return stmts
}

// execStmts implements OpenSCAD's block semantics: module/function
// definitions and variable assignments are collected before any other
// statement in the block runs, so a definition may appear textually after
// its first use and the last assignment to a name is the one every
// expression in the block observes.
func (e *Evaluator) execStmts(stmts []scad.Stmt, scope *Scope) []geomir.GeometryNode {
	e.hoist(stmts, scope)
	var nodes []geomir.GeometryNode
	for _, st := range stmts {
		if e.checkCancelled() {
			break
		}
		switch st.(type) {
		case *scad.ModuleDef, *scad.FunctionDef, *scad.VarDecl:
			continue // already handled by hoist
		}
		if n := e.execStmt(st, scope); n != nil {
			nodes = append(nodes, n)
		}
	}
	return nodes
}

// hoist registers the block's definitions, then evaluates its assignments
// in source order. Define overwrites, so a name assigned twice ends up
// with its last value.
func (e *Evaluator) hoist(stmts []scad.Stmt, scope *Scope) {
	for _, st := range stmts {
		switch n := st.(type) {
		case *scad.ModuleDef:
			e.Modules.Register(n)
		case *scad.FunctionDef:
			e.Functions.Register(n)
		}
	}
	for _, st := range stmts {
		if n, ok := st.(*scad.VarDecl); ok {
			scope.Define(n.Name, e.Eval(n.Value, scope))
		}
	}
}

func (e *Evaluator) execStmt(st scad.Stmt, scope *Scope) geomir.GeometryNode {
	switch n := st.(type) {
	case *scad.VarDecl:
		scope.Define(n.Name, e.Eval(n.Value, scope))
		return nil
	case *scad.ModuleDef:
		e.Modules.Register(n)
		return nil
	case *scad.FunctionDef:
		e.Functions.Register(n)
		return nil
	case *scad.EmptyStmt:
		return nil
	case *scad.Block:
		child := NewScope(scope)
		return collapse(e.execStmts(n.Items, child))
	case *scad.ModuleCall:
		return e.execModuleCall(n, scope)
	case *scad.For:
		nodes := e.execFor(n, scope)
		if n.Intersection {
			return &geomir.Boolean{Op: geomir.OpIntersection, Children: nodes, Span_: n.Span_}
		}
		return collapse(nodes)
	case *scad.If:
		if value.Truthy(e.Eval(n.Cond, scope)) {
			return e.execStmt(n.Then, scope)
		} else if n.Else != nil {
			return e.execStmt(n.Else, scope)
		}
		return nil
	case *scad.LetStmt:
		child := NewScope(scope)
		for _, b := range n.Bindings {
			child.Define(b.Name, e.Eval(b.Value, child))
		}
		return e.execStmt(n.Body, child)
	case *scad.AssertStmt:
		e.checkAssert(n.Cond, n.Msg, scope)
		return nil
	case *scad.EchoStmt:
		e.Diags.Infof(n.Span_, "%s", formatEcho(e.evalArgs(n.Args, scope)))
		return nil
	default:
		e.Diags.Errorf(st.Pos(), "internal: unhandled statement kind")
		return nil
	}
}

func (e *Evaluator) checkAssert(cond, msg scad.Expr, scope *Scope) {
	if value.Truthy(e.Eval(cond, scope)) {
		return
	}
	text := "assertion failed"
	if msg != nil {
		text = value.Str(e.Eval(msg, scope))
	}
	e.Diags.Errorf(cond.Pos(), "%s", text)
}

func formatEcho(args []evaluatedArg) string {
	s := ""
	for i, a := range args {
		if i > 0 {
			s += ", "
		}
		if a.Name != "" {
			s += a.Name + " = "
		}
		s += value.String_(a.Value)
	}
	return s
}

func (e *Evaluator) execFor(n *scad.For, scope *Scope) []geomir.GeometryNode {
	var nodes []geomir.GeometryNode
	e.forEachCombination(n.Iterators, 0, NewScope(scope), func(s *Scope) {
		if node := e.execStmt(n.Body, s); node != nil {
			nodes = append(nodes, node)
		}
	})
	return nodes
}

// forEachCombination enumerates the cartesian product of every iterator's
// source sequence, mirroring a nested for-loop, and invokes fn once per
// combination with a scope carrying all of them bound.
func (e *Evaluator) forEachCombination(iters []scad.Iterator, i int, scope *Scope, fn func(*Scope)) {
	if i >= len(iters) {
		fn(scope)
		return
	}
	it := iters[i]
	src := e.Eval(it.Value, scope)
	// Ranges iterate lazily: a for over [0:0.1:1e9] must poll cancellation
	// per iteration, never allocate the whole sequence.
	if src.Kind() == value.KindRange {
		r := src.RangeVal()
		for k, n := 0, r.Len(); k < n; k++ {
			if e.checkCancelled() {
				return
			}
			child := NewScope(scope)
			child.Define(it.Name, value.Number(r.At(k)))
			e.forEachCombination(iters, i+1, child, fn)
		}
		return
	}
	seq := src
	if seq.Kind() != value.KindList {
		child := NewScope(scope)
		child.Define(it.Name, seq)
		e.forEachCombination(iters, i+1, child, fn)
		return
	}
	for _, v := range seq.ListVal() {
		if e.checkCancelled() {
			return
		}
		child := NewScope(scope)
		child.Define(it.Name, v)
		e.forEachCombination(iters, i+1, child, fn)
	}
}

type evaluatedArg struct {
	Name  string
	Value value.Value
}

func (e *Evaluator) evalArgs(args []scad.Arg, scope *Scope) []evaluatedArg {
	out := make([]evaluatedArg, len(args))
	for i, a := range args {
		out[i] = evaluatedArg{Name: a.Name, Value: e.Eval(a.Value, scope)}
	}
	return out
}

// execModuleCall dispatches to a builtin geometry constructor or a
// user-defined module, binding children via the childrenFrame stack so
// `children()` can re-evaluate them.
func (e *Evaluator) execModuleCall(n *scad.ModuleCall, scope *Scope) geomir.GeometryNode {
	if n.Modifier&scad.ModDisabled != 0 {
		return nil
	}
	args := e.evalArgs(n.Args, scope)

	specials := map[string]value.Value{}
	var positional []evaluatedArg
	for _, a := range args {
		if strings.HasPrefix(a.Name, "$") {
			specials[a.Name] = a.Value
		} else {
			positional = append(positional, a)
		}
	}
	if len(specials) > 0 {
		e.Specials.Push(specials)
		defer e.Specials.Pop()
	}

	var node geomir.GeometryNode
	if ctor, ok := builtinModules[n.Name]; ok {
		node = ctor(e, positional, n.Body, scope, n.Span_)
	} else if def, ok := e.Modules.Lookup(n.Name); ok {
		node = e.callUserModule(def, positional, n.Body, scope)
	} else {
		e.Diags.Errorf(n.Span_, "unknown module %q", n.Name)
		return nil
	}

	switch {
	case n.Modifier&scad.ModDisableOthers != 0:
		return &geomir.Modifier{Kind: geomir.ModDisableOthers, Child: node, Span_: n.Span_}
	case n.Modifier&scad.ModHighlight != 0:
		return &geomir.Modifier{Kind: geomir.ModHighlight, Child: node, Span_: n.Span_}
	case n.Modifier&scad.ModTransparent != 0:
		return &geomir.Modifier{Kind: geomir.ModTransparent, Child: node, Span_: n.Span_}
	}
	return node
}

func (e *Evaluator) callUserModule(def *scad.ModuleDef, args []evaluatedArg, body []scad.Stmt, callerScope *Scope) geomir.GeometryNode {
	if e.checkCancelled() {
		return nil
	}
	e.depth++
	defer func() { e.depth-- }()
	if e.depth > e.maxRecursionDepth {
		e.Diags.Errorf(def.Span_, "maximum recursion depth exceeded in module %q", def.Name)
		return nil
	}

	moduleScope := NewScope(e.global)
	bindParams(def.Params, args, moduleScope, e, def.Span_)

	e.children = append(e.children, childrenFrame{stmts: body, scope: callerScope})
	defer func() { e.children = e.children[:len(e.children)-1] }()

	e.Specials.Push(map[string]value.Value{"$children": value.Number(float64(len(body)))})
	defer e.Specials.Pop()

	return collapse(e.execStmts(def.Body, moduleScope))
}

// bindParams implements the 4-step argument-binding algorithm:
// named args bind directly by name, positional args fill the remaining
// params left-to-right, unfilled params fall back to their default
// (evaluated in the new scope so a later default can reference an earlier
// parameter), and any param still unbound resolves to undef. Leftover args
// warn but never fail the call.
func bindParams(params []scad.Param, args []evaluatedArg, dest *Scope, e *Evaluator, callSpan diag.Span) {
	declared := make(map[string]bool, len(params))
	for _, p := range params {
		declared[p.Name] = true
	}
	bound := make(map[string]bool, len(params))
	for _, a := range args {
		if a.Name == "" {
			continue
		}
		if !declared[a.Name] {
			e.Diags.Warnf(callSpan, "argument %q does not match any parameter", a.Name)
		}
		dest.Define(a.Name, a.Value)
		bound[a.Name] = true
	}
	pos := 0
	leftover := 0
	for _, a := range args {
		if a.Name != "" {
			continue
		}
		for pos < len(params) && bound[params[pos].Name] {
			pos++
		}
		if pos < len(params) {
			dest.Define(params[pos].Name, a.Value)
			bound[params[pos].Name] = true
			pos++
		} else {
			leftover++
		}
	}
	if leftover > 0 {
		e.Diags.Warnf(callSpan, "%d extra positional argument(s) ignored", leftover)
	}
	for _, p := range params {
		if bound[p.Name] {
			continue
		}
		if p.Default != nil {
			dest.Define(p.Name, e.Eval(p.Default, dest))
		} else {
			dest.Define(p.Name, value.Undef)
		}
	}
}

// Eval evaluates an expression against scope, returning value.Undef (with a
// diagnostic) for anything it cannot make sense of rather than panicking.
func (e *Evaluator) Eval(expr scad.Expr, scope *Scope) value.Value {
	switch n := expr.(type) {
	case *scad.Literal:
		return evalLiteral(n)
	case *scad.Ident:
		if v, ok := scope.Get(n.Name); ok {
			return v
		}
		if def, ok := e.Functions.Lookup(n.Name); ok {
			return e.closureFor(def, scope)
		}
		return value.Undef
	case *scad.SpecialVar:
		if n.Name == "$children" {
			return e.Specials.Get("$children")
		}
		return e.Specials.Get(n.Name)
	case *scad.UnaryExpr:
		return evalUnary(n.Op, e.Eval(n.Operand, scope))
	case *scad.BinaryExpr:
		return e.evalBinary(n, scope)
	case *scad.TernaryExpr:
		if value.Truthy(e.Eval(n.Cond, scope)) {
			return e.Eval(n.Then, scope)
		}
		return e.Eval(n.Else, scope)
	case *scad.CallExpr:
		return e.evalCall(n, scope)
	case *scad.IndexExpr:
		return value.Index(e.Eval(n.Expr, scope), e.Eval(n.Index, scope))
	case *scad.MemberExpr:
		return value.Member(e.Eval(n.Expr, scope), n.Name)
	case *scad.RangeExpr:
		start := e.Eval(n.Start, scope).NumberVal()
		step := 1.0
		if n.Step != nil {
			step = e.Eval(n.Step, scope).NumberVal()
		}
		end := e.Eval(n.End, scope).NumberVal()
		return value.MakeRange(value.Range{Start: start, Step: step, End: end})
	case *scad.ListExpr:
		return e.evalList(n.Elements, scope)
	case *scad.LetExpr:
		child := NewScope(scope)
		for _, b := range n.Bindings {
			child.Define(b.Name, e.Eval(b.Value, child))
		}
		return e.Eval(n.Body, child)
	case *scad.AssertExpr:
		e.checkAssert(n.Cond, n.Msg, scope)
		return e.Eval(n.Body, scope)
	case *scad.EchoExpr:
		e.Diags.Infof(n.Span_, "%s", formatEcho(e.evalArgs(n.Args, scope)))
		return e.Eval(n.Body, scope)
	case *scad.LambdaExpr:
		return e.lambdaValue(n, scope)
	default:
		e.Diags.Errorf(expr.Pos(), "internal: unhandled expression kind")
		return value.Undef
	}
}

func evalLiteral(n *scad.Literal) value.Value {
	switch n.Kind {
	case scad.LitNumber:
		return value.Number(n.Num)
	case scad.LitString:
		return value.String(n.Str)
	case scad.LitBool:
		return value.Bool(n.Bool)
	default:
		return value.Undef
	}
}

func evalUnary(op scad.UnOp, v value.Value) value.Value {
	switch op {
	case scad.UnNot:
		return value.Bool(!value.Truthy(v))
	case scad.UnPos:
		if v.Kind() != value.KindNumber {
			return value.Undef
		}
		return v
	case scad.UnNeg:
		return value.Neg(v)
	default:
		return value.Undef
	}
}

func (e *Evaluator) evalBinary(n *scad.BinaryExpr, scope *Scope) value.Value {
	// || and && short-circuit; every other operator evaluates both sides.
	if n.Op == scad.BinOr {
		if value.Truthy(e.Eval(n.Left, scope)) {
			return value.Bool(true)
		}
		return value.Bool(value.Truthy(e.Eval(n.Right, scope)))
	}
	if n.Op == scad.BinAnd {
		if !value.Truthy(e.Eval(n.Left, scope)) {
			return value.Bool(false)
		}
		return value.Bool(value.Truthy(e.Eval(n.Right, scope)))
	}
	l := e.Eval(n.Left, scope)
	r := e.Eval(n.Right, scope)
	switch n.Op {
	case scad.BinEq:
		return value.Bool(value.Equal(l, r))
	case scad.BinNe:
		return value.Bool(!value.Equal(l, r))
	case scad.BinLt, scad.BinGt, scad.BinLe, scad.BinGe:
		less, equal, ok := value.Compare(l, r)
		if !ok {
			return value.Undef
		}
		switch n.Op {
		case scad.BinLt:
			return value.Bool(less)
		case scad.BinGt:
			return value.Bool(!less && !equal)
		case scad.BinLe:
			return value.Bool(less || equal)
		default:
			return value.Bool(!less)
		}
	case scad.BinAdd:
		return value.Add(l, r)
	case scad.BinSub:
		return value.Sub(l, r)
	case scad.BinMul:
		return value.Mul(l, r)
	case scad.BinDiv:
		if r.Kind() == value.KindNumber && r.NumberVal() == 0 {
			e.Diags.Warnf(n.Span_, "division by zero")
			return value.Undef
		}
		return value.Div(l, r)
	case scad.BinMod:
		return value.Mod(l, r)
	case scad.BinPow:
		return value.Pow(l, r)
	default:
		return value.Undef
	}
}

func (e *Evaluator) evalList(elements []scad.Expr, scope *Scope) value.Value {
	out := []value.Value{}
	for _, el := range elements {
		e.evalListElement(el, scope, &out)
	}
	return value.List(out)
}

// evalListElement appends the values one list element contributes. Clauses
// recurse, since comprehension clauses nest (`for ... if ... each ...`);
// anything that isn't a clause is a plain expression contributing itself.
func (e *Evaluator) evalListElement(el scad.Expr, scope *Scope, out *[]value.Value) {
	switch c := el.(type) {
	case *scad.ListForClause:
		e.forEachCombination(c.Iterators, 0, NewScope(scope), func(s *Scope) {
			e.evalListElement(c.Body, s, out)
		})
	case *scad.ListIfClause:
		if value.Truthy(e.Eval(c.Cond, scope)) {
			e.evalListElement(c.Then, scope, out)
		} else if c.Else != nil {
			e.evalListElement(c.Else, scope, out)
		}
	case *scad.ListLetClause:
		child := NewScope(scope)
		for _, b := range c.Bindings {
			child.Define(b.Name, e.Eval(b.Value, child))
		}
		e.evalListElement(c.Body, child, out)
	case *scad.ListEachClause:
		v := value.Materialize(e.Eval(c.Value, scope))
		if v.Kind() == value.KindList {
			*out = append(*out, v.ListVal()...)
		} else {
			*out = append(*out, v)
		}
	default:
		*out = append(*out, e.Eval(el, scope))
	}
}

func (e *Evaluator) evalCall(n *scad.CallExpr, scope *Scope) value.Value {
	ident, ok := n.Callee.(*scad.Ident)
	if !ok {
		callee := e.Eval(n.Callee, scope)
		if callee.Kind() != value.KindFunction {
			return value.Undef
		}
		return callee.FunctionVal().Call(e.positionalValues(n.Args, scope))
	}
	if fn, ok := scope.Get(ident.Name); ok && fn.Kind() == value.KindFunction {
		return fn.FunctionVal().Call(e.positionalValues(n.Args, scope))
	}
	if builtin, ok := builtinFunctions[ident.Name]; ok {
		return builtin(e.evalArgs(n.Args, scope))
	}
	if def, ok := e.Functions.Lookup(ident.Name); ok {
		return e.callUserFunction(def, e.evalArgs(n.Args, scope))
	}
	e.Diags.Errorf(n.Span_, "unknown function %q", ident.Name)
	return value.Undef
}

func (e *Evaluator) positionalValues(args []scad.Arg, scope *Scope) []value.Value {
	out := make([]value.Value, len(args))
	for i, a := range args {
		out[i] = e.Eval(a.Value, scope)
	}
	return out
}

func (e *Evaluator) callUserFunction(def *scad.FunctionDef, args []evaluatedArg) value.Value {
	if e.checkCancelled() {
		return value.Undef
	}
	e.depth++
	defer func() { e.depth-- }()
	if e.depth > e.maxRecursionDepth {
		e.Diags.Errorf(def.Span_, "maximum recursion depth exceeded in function %q", def.Name)
		return value.Undef
	}
	// Functions resolve free names against the global scope: defaults and
	// the body evaluate in the callee's defining scope, not the call site.
	scope := NewScope(e.global)
	bindParams(def.Params, args, scope, e, def.Span_)
	return e.Eval(def.Body, scope)
}

// closureFor wraps a named user function as a first-class value.Function so
// it can be passed around like the result of a lambda expression.
func (e *Evaluator) closureFor(def *scad.FunctionDef, _ *Scope) value.Value {
	return value.MakeFunction(value.Function{Name: def.Name, Call: func(args []value.Value) value.Value {
		named := make([]evaluatedArg, len(args))
		for i, a := range args {
			named[i] = evaluatedArg{Value: a}
		}
		return e.callUserFunction(def, named)
	}})
}

func (e *Evaluator) lambdaValue(n *scad.LambdaExpr, closureScope *Scope) value.Value {
	return value.MakeFunction(value.Function{Call: func(args []value.Value) value.Value {
		scope := NewScope(closureScope)
		pos := 0
		for _, p := range n.Params {
			if pos < len(args) {
				scope.Define(p.Name, args[pos])
				pos++
			} else if p.Default != nil {
				scope.Define(p.Name, e.Eval(p.Default, scope))
			} else {
				scope.Define(p.Name, value.Undef)
			}
		}
		return e.Eval(n.Body, scope)
	}})
}

// evalChildren is called by the `children()` builtin module to re-evaluate
// the calling module's actual children, optionally selecting a single
// index: $children re-evaluates the stored AST, it is not a materialized
// mesh list.
func (e *Evaluator) evalChildren(idx *int) geomir.GeometryNode {
	if len(e.children) == 0 {
		return geomir.Empty{}
	}
	frame := e.children[len(e.children)-1]
	if idx != nil {
		if *idx < 0 || *idx >= len(frame.stmts) {
			return geomir.Empty{}
		}
		return e.execStmt(frame.stmts[*idx], frame.scope)
	}
	return collapse(e.execStmts(frame.stmts, frame.scope))
}
