package scad

import (
	"strconv"

	"github.com/oscadgo/compiler/diag"
)

// Lower converts a CstFile into an AST File, resolving operator tokens to
// enums and flattening modifier sigils and call chains. Lowering never fails
// outright: a node it cannot make sense of becomes a Literal{Kind: LitUndef}
// (for expressions) or is simply dropped with a diagnostic (for items), so a
// CST with recovery nodes still produces a usable AST.
func Lower(cst *CstFile) (*File, []diag.Diagnostic) {
	lw := &lowerer{}
	items := lw.items(cst.Items)
	return &File{Items: items, Span: cst.Span}, lw.diags.All()
}

type lowerer struct {
	diags diag.Bag
}

func (lw *lowerer) items(cstItems []CstItem) []Item {
	out := make([]Item, 0, len(cstItems))
	for _, it := range cstItems {
		if lowered := lw.item(it); lowered != nil {
			out = append(out, lowered)
		}
	}
	return out
}

func (lw *lowerer) stmts(cstItems []CstItem) []Stmt {
	items := lw.items(cstItems)
	out := make([]Stmt, 0, len(items))
	for _, it := range items {
		if s, ok := it.(Stmt); ok {
			out = append(out, s)
		} else {
			lw.diags.Errorf(it.Pos(), "this construct cannot appear inside a module body")
		}
	}
	return out
}

func (lw *lowerer) item(it CstItem) Item {
	switch n := it.(type) {
	case *CstModuleDef:
		return &ModuleDef{Name: n.NameTok.Text, Params: lw.params(n.Params), Body: lw.stmts(n.Body.Items), Span_: n.Span_}
	case *CstFunctionDef:
		return &FunctionDef{Name: n.NameTok.Text, Params: lw.params(n.Params), Body: lw.expr(n.Body), Span_: n.Span_}
	case *CstVarDecl:
		return &VarDecl{Name: n.NameTok.Text, Value: lw.expr(n.Value), Span_: n.Span_}
	case *CstUse:
		return &Use{Path: n.PathTok.Text, Span_: n.Span_}
	case *CstInclude:
		return &Include{Path: n.PathTok.Text, Span_: n.Span_}
	case *CstModuleCall:
		return lw.moduleCall(n)
	case *CstFor:
		return &For{Iterators: lw.iterators(n.Iterators), Intersection: n.Intersection, Body: lw.stmt(n.Body), Span_: n.Span_}
	case *CstIf:
		var elseStmt Stmt
		if n.Else != nil {
			elseStmt = lw.stmt(n.Else)
		}
		return &If{Cond: lw.expr(n.Cond), Then: lw.stmt(n.Then), Else: elseStmt, Span_: n.Span_}
	case *CstLetStmt:
		return &LetStmt{Bindings: lw.iterators(n.Bindings), Body: lw.stmt(n.Body), Span_: n.Span_}
	case *CstBlock:
		return &Block{Items: lw.stmts(n.Items), Span_: n.Span_}
	case *CstAssertStmt:
		var msg Expr
		if n.Msg != nil {
			msg = lw.expr(n.Msg)
		}
		return &AssertStmt{Cond: lw.expr(n.Cond), Msg: msg, Span_: n.Span_}
	case *CstEchoStmt:
		return &EchoStmt{Args: lw.args(n.Args), Span_: n.Span_}
	case *CstEmptyStmt:
		return &EmptyStmt{Span_: n.Span_}
	case *CstBad:
		return nil
	default:
		lw.diags.Errorf(it.Pos(), "internal: unhandled CST item kind")
		return nil
	}
}

// stmt lowers a single item expected to be statement-shaped (for/if/let
// bodies, which the CST allows to be any item, including a bare block).
func (lw *lowerer) stmt(it CstItem) Stmt {
	lowered := lw.item(it)
	if s, ok := lowered.(Stmt); ok {
		return s
	}
	lw.diags.Errorf(it.Pos(), "expected a statement here")
	return &EmptyStmt{Span_: it.Pos()}
}

func (lw *lowerer) params(cstParams []CstParam) []Param {
	out := make([]Param, 0, len(cstParams))
	for _, p := range cstParams {
		var def Expr
		if p.Default != nil {
			def = lw.expr(p.Default)
		}
		out = append(out, Param{Name: p.NameTok.Text, Default: def})
	}
	return out
}

func (lw *lowerer) iterators(cstIters []CstIterator) []Iterator {
	out := make([]Iterator, 0, len(cstIters))
	for _, it := range cstIters {
		out = append(out, Iterator{Name: it.NameTok.Text, Value: lw.expr(it.Value)})
	}
	return out
}

func (lw *lowerer) args(cstArgs []CstArg) []Arg {
	out := make([]Arg, 0, len(cstArgs))
	for _, a := range cstArgs {
		name := ""
		if a.NameTok != nil {
			name = a.NameTok.Text
		}
		out = append(out, Arg{Name: name, Value: lw.expr(a.Value)})
	}
	return out
}

// modifierFromTokens folds the leading sigil tokens of a module call into a
// single Modifier bitmask; modifiers are independent flags, not mutually
// exclusive, though `*` makes the others moot at evaluation time.
func modifierFromTokens(toks []Token) Modifier {
	var m Modifier
	for _, t := range toks {
		switch t.Kind {
		case TokBang:
			m |= ModDisableOthers
		case TokHash:
			m |= ModHighlight
		case TokPercent:
			m |= ModTransparent
		case TokStar:
			m |= ModDisabled
		}
	}
	return m
}

// moduleCall lowers a CstModuleCall, flattening a chained call
// (`translate(v) cube(1);`) into a single-child Body rather than a distinct
// AST node kind for "chain", since a chain and an explicit-brace body mean
// the same thing to the evaluator.
func (lw *lowerer) moduleCall(n *CstModuleCall) *ModuleCall {
	call := &ModuleCall{
		Modifier: modifierFromTokens(n.Modifiers),
		Name:     n.NameTok.Text,
		Args:     lw.args(n.Args),
		Span_:    n.Span_,
	}
	switch {
	case n.Body != nil:
		call.Body = lw.stmts(n.Body.Items)
	case n.Next != nil:
		call.Body = []Stmt{lw.moduleCall(n.Next)}
	}
	return call
}

func (lw *lowerer) expr(e CstExpr) Expr {
	if e == nil {
		return &Literal{Kind: LitUndef}
	}
	switch n := e.(type) {
	case *CstLiteral:
		return lw.literal(n)
	case *CstIdentExpr:
		return &Ident{Name: n.Tok.Text, Span_: n.Tok.Span}
	case *CstSpecialExpr:
		return &SpecialVar{Name: n.Tok.Text, Span_: n.Tok.Span}
	case *CstUnary:
		return &UnaryExpr{Op: lw.unOp(n.OpTok), Operand: lw.expr(n.Operand), Span_: n.Span_}
	case *CstBinary:
		return &BinaryExpr{Op: lw.binOp(n.OpTok), Left: lw.expr(n.Left), Right: lw.expr(n.Right), Span_: n.Span_}
	case *CstTernary:
		return &TernaryExpr{Cond: lw.expr(n.Cond), Then: lw.expr(n.Then), Else: lw.expr(n.Else), Span_: n.Span_}
	case *CstCall:
		return &CallExpr{Callee: lw.expr(n.Callee), Args: lw.args(n.Args), Span_: n.Span_}
	case *CstIndex:
		return &IndexExpr{Expr: lw.expr(n.Expr), Index: lw.expr(n.Index), Span_: n.Span_}
	case *CstDotIndex:
		return &MemberExpr{Expr: lw.expr(n.Expr), Name: n.NameTok.Text, Span_: n.Span_}
	case *CstRange:
		var step Expr
		if n.Step != nil {
			step = lw.expr(n.Step)
		}
		return &RangeExpr{Start: lw.expr(n.Start), Step: step, End: lw.expr(n.End), Span_: n.Span_}
	case *CstList:
		elems := make([]Expr, 0, len(n.Elements))
		for _, el := range n.Elements {
			elems = append(elems, lw.expr(el))
		}
		return &ListExpr{Elements: elems, Span_: n.Span_}
	case *CstListFor:
		return &ListForClause{Iterators: lw.iterators(n.Iterators), Body: lw.expr(n.Body), Span_: n.Span_}
	case *CstListIf:
		var elseE Expr
		if n.Else != nil {
			elseE = lw.expr(n.Else)
		}
		return &ListIfClause{Cond: lw.expr(n.Cond), Then: lw.expr(n.Then), Else: elseE, Span_: n.Span_}
	case *CstListLet:
		return &ListLetClause{Bindings: lw.iterators(n.Bindings), Body: lw.expr(n.Body), Span_: n.Span_}
	case *CstListEach:
		return &ListEachClause{Value: lw.expr(n.Value), Span_: n.Span_}
	case *CstLetExpr:
		return &LetExpr{Bindings: lw.iterators(n.Bindings), Body: lw.expr(n.Body), Span_: n.Span_}
	case *CstAssertExpr:
		var msg Expr
		if n.Msg != nil {
			msg = lw.expr(n.Msg)
		}
		return &AssertExpr{Cond: lw.expr(n.Cond), Msg: msg, Body: lw.expr(n.Body), Span_: n.Span_}
	case *CstEchoExpr:
		return &EchoExpr{Args: lw.args(n.Args), Body: lw.expr(n.Body), Span_: n.Span_}
	case *CstLambda:
		return &LambdaExpr{Params: lw.params(n.Params), Body: lw.expr(n.Body), Span_: n.Span_}
	default:
		lw.diags.Errorf(e.Pos(), "internal: unhandled CST expression kind")
		return &Literal{Kind: LitUndef, Span_: e.Pos()}
	}
}

func (lw *lowerer) literal(n *CstLiteral) *Literal {
	switch n.Tok.Kind {
	case TokInt, TokFloat:
		v, err := strconv.ParseFloat(n.Tok.Text, 64)
		if err != nil {
			lw.diags.Errorf(n.Tok.Span, "invalid numeric literal %q", n.Tok.Text)
			return &Literal{Kind: LitUndef, Span_: n.Tok.Span}
		}
		return &Literal{Kind: LitNumber, Num: v, Span_: n.Tok.Span}
	case TokString:
		return &Literal{Kind: LitString, Str: n.Tok.Text, Span_: n.Tok.Span}
	case TokTrue:
		return &Literal{Kind: LitBool, Bool: true, Span_: n.Tok.Span}
	case TokFalse:
		return &Literal{Kind: LitBool, Bool: false, Span_: n.Tok.Span}
	default:
		return &Literal{Kind: LitUndef, Span_: n.Tok.Span}
	}
}

func (lw *lowerer) unOp(t Token) UnOp {
	switch t.Kind {
	case TokBang:
		return UnNot
	case TokPlus:
		return UnPos
	case TokMinus:
		return UnNeg
	default:
		lw.diags.Errorf(t.Span, "internal: unhandled unary operator %s", t.Kind)
		return UnNeg
	}
}

func (lw *lowerer) binOp(t Token) BinOp {
	switch t.Kind {
	case TokPipePipe:
		return BinOr
	case TokAmpAmp:
		return BinAnd
	case TokEqualEqual:
		return BinEq
	case TokBangEqual:
		return BinNe
	case TokLess:
		return BinLt
	case TokGreater:
		return BinGt
	case TokLessEqual:
		return BinLe
	case TokGreaterEqual:
		return BinGe
	case TokPlus:
		return BinAdd
	case TokMinus:
		return BinSub
	case TokStar:
		return BinMul
	case TokSlash:
		return BinDiv
	case TokPercent:
		return BinMod
	case TokCaret:
		return BinPow
	default:
		lw.diags.Errorf(t.Span, "internal: unhandled binary operator %s", t.Kind)
		return BinAdd
	}
}
