package scad

// CST nodes mirror the grammar productions one-to-one and
// preserve every syntactic child, including the raw operator/keyword tokens,
// so that source[Span.Start:Span.End] always reproduces the node's text
// (whitespace-trimmed at the boundary). AST lowering (lower.go) consumes a
// CstFile and resolves operator tokens to enums, but never discards a span.

// CstFile is the root of a parsed source file: a sequence of items.
type CstFile struct {
	Items []CstItem
	Span  Span
}

// CstNode is implemented by every CST node.
type CstNode interface {
	Pos() Span
}

// CstItem is a top-level item: a definition, declaration, or statement.
type CstItem interface {
	CstNode
	cstItemNode()
}

// CstModuleDef is `module name(params) body`.
type CstModuleDef struct {
	NameTok Token
	Params  []CstParam
	Body    *CstBlock
	Span_   Span
}

func (n *CstModuleDef) Pos() Span  { return n.Span_ }
func (*CstModuleDef) cstItemNode() {}

// CstFunctionDef is `function name(params) = expr;`.
type CstFunctionDef struct {
	NameTok Token
	Params  []CstParam
	Body    CstExpr
	Span_   Span
}

func (n *CstFunctionDef) Pos() Span  { return n.Span_ }
func (*CstFunctionDef) cstItemNode() {}

// CstParam is one formal parameter: `name` or `name = default`.
type CstParam struct {
	NameTok Token
	Default CstExpr // nil if no default
}

// CstVarDecl is a top-level or block-level `name = expr;`.
type CstVarDecl struct {
	NameTok Token
	Value   CstExpr
	Span_   Span
}

func (n *CstVarDecl) Pos() Span  { return n.Span_ }
func (*CstVarDecl) cstItemNode() {}
func (*CstVarDecl) cstStmtNode() {}

// CstUse is `use <path>;`.
type CstUse struct {
	PathTok Token
	Span_   Span
}

func (n *CstUse) Pos() Span  { return n.Span_ }
func (*CstUse) cstItemNode() {}

// CstInclude is `include <path>;`.
type CstInclude struct {
	PathTok Token
	Span_   Span
}

func (n *CstInclude) Pos() Span  { return n.Span_ }
func (*CstInclude) cstItemNode() {}

// CstStmt is the interface for statement-level CST nodes.
type CstStmt interface {
	CstItem
	cstStmtNode()
}

// CstModuleCall is `[modifiers] name(args) [body | ;]`, optionally followed
// by a chained call (`translate(v) rotate(r) cube(1);`), captured here as
// Next; lowering turns the chained call into the ModuleCall's Body.
type CstModuleCall struct {
	Modifiers []Token // leading * ! # % sigils, in source order
	NameTok   Token
	Args      []CstArg
	Body      *CstBlock // nil if terminated by `;` with no body
	Next      *CstModuleCall // chained call this one wraps, nil if none
	Span_     Span
}

func (n *CstModuleCall) Pos() Span  { return n.Span_ }
func (*CstModuleCall) cstItemNode() {}
func (*CstModuleCall) cstStmtNode() {}

// CstArg is a positional or named call argument.
type CstArg struct {
	NameTok *Token // nil for positional args
	Value   CstExpr
}

// CstBlock is `{ items... }`.
type CstBlock struct {
	Items []CstItem
	Span_ Span
}

func (n *CstBlock) Pos() Span  { return n.Span_ }
func (*CstBlock) cstItemNode() {}
func (*CstBlock) cstStmtNode() {}

// CstFor is `for (iterators) body`, where each iterator is `name = range`.
type CstFor struct {
	Iterators    []CstIterator
	Intersection bool // true for `intersection_for`
	Body         CstItem
	Span_        Span
}

func (n *CstFor) Pos() Span  { return n.Span_ }
func (*CstFor) cstItemNode() {}
func (*CstFor) cstStmtNode() {}

// CstIterator is one `name = expr` clause inside a for-loop header.
type CstIterator struct {
	NameTok Token
	Value   CstExpr
}

// CstIf is `if (cond) then [else else_]`.
type CstIf struct {
	Cond  CstExpr
	Then  CstItem
	Else  CstItem // nil if absent
	Span_ Span
}

func (n *CstIf) Pos() Span  { return n.Span_ }
func (*CstIf) cstItemNode() {}
func (*CstIf) cstStmtNode() {}

// CstLetStmt is `let (bindings) body` used as a statement.
type CstLetStmt struct {
	Bindings []CstIterator
	Body     CstItem
	Span_    Span
}

func (n *CstLetStmt) Pos() Span  { return n.Span_ }
func (*CstLetStmt) cstItemNode() {}
func (*CstLetStmt) cstStmtNode() {}

// CstAssertStmt is `assert(cond, msg?);` used as a statement.
type CstAssertStmt struct {
	Cond  CstExpr
	Msg   CstExpr // nil if absent
	Span_ Span
}

func (n *CstAssertStmt) Pos() Span  { return n.Span_ }
func (*CstAssertStmt) cstItemNode() {}
func (*CstAssertStmt) cstStmtNode() {}

// CstEchoStmt is `echo(args...);` used as a statement.
type CstEchoStmt struct {
	Args  []CstArg
	Span_ Span
}

func (n *CstEchoStmt) Pos() Span  { return n.Span_ }
func (*CstEchoStmt) cstItemNode() {}
func (*CstEchoStmt) cstStmtNode() {}

// CstEmptyStmt is a bare `;`.
type CstEmptyStmt struct {
	Span_ Span
}

func (n *CstEmptyStmt) Pos() Span  { return n.Span_ }
func (*CstEmptyStmt) cstItemNode() {}
func (*CstEmptyStmt) cstStmtNode() {}

// CstBad wraps a span the parser could not make sense of; it is produced
// only during error recovery so the rest of the file can still be parsed.
type CstBad struct {
	Span_ Span
}

func (n *CstBad) Pos() Span  { return n.Span_ }
func (*CstBad) cstItemNode() {}
func (*CstBad) cstStmtNode() {}

// Expressions.

// CstExpr is the interface for expression-level CST nodes.
type CstExpr interface {
	CstNode
	cstExprNode()
}

// CstLiteral is a number, string, bool, or undef literal token.
type CstLiteral struct {
	Tok Token
}

func (n *CstLiteral) Pos() Span  { return n.Tok.Span }
func (*CstLiteral) cstExprNode() {}

// CstIdentExpr is a bare identifier reference.
type CstIdentExpr struct {
	Tok Token
}

func (n *CstIdentExpr) Pos() Span  { return n.Tok.Span }
func (*CstIdentExpr) cstExprNode() {}

// CstSpecialExpr is a `$name` reference.
type CstSpecialExpr struct {
	Tok Token
}

func (n *CstSpecialExpr) Pos() Span  { return n.Tok.Span }
func (*CstSpecialExpr) cstExprNode() {}

// CstUnary is `op operand`, keeping the raw operator token.
type CstUnary struct {
	OpTok   Token
	Operand CstExpr
	Span_   Span
}

func (n *CstUnary) Pos() Span  { return n.Span_ }
func (*CstUnary) cstExprNode() {}

// CstBinary is `left op right`, keeping the raw operator token.
type CstBinary struct {
	Left, Right CstExpr
	OpTok       Token
	Span_       Span
}

func (n *CstBinary) Pos() Span  { return n.Span_ }
func (*CstBinary) cstExprNode() {}

// CstTernary is `cond ? then : else`.
type CstTernary struct {
	Cond, Then, Else CstExpr
	Span_            Span
}

func (n *CstTernary) Pos() Span  { return n.Span_ }
func (*CstTernary) cstExprNode() {}

// CstCall is `callee(args)`.
type CstCall struct {
	Callee CstExpr
	Args   []CstArg
	Span_  Span
}

func (n *CstCall) Pos() Span  { return n.Span_ }
func (*CstCall) cstExprNode() {}

// CstIndex is `expr[index]`.
type CstIndex struct {
	Expr, Index CstExpr
	Span_       Span
}

func (n *CstIndex) Pos() Span  { return n.Span_ }
func (*CstIndex) cstExprNode() {}

// CstDotIndex is `expr.x/.y/.z/.name`.
type CstDotIndex struct {
	Expr    CstExpr
	NameTok Token
	Span_   Span
}

func (n *CstDotIndex) Pos() Span  { return n.Span_ }
func (*CstDotIndex) cstExprNode() {}

// CstRange is `[start : end]` or `[start : step : end]`.
type CstRange struct {
	Start, Step, End CstExpr // Step is nil for the two-argument form
	Span_            Span
}

func (n *CstRange) Pos() Span  { return n.Span_ }
func (*CstRange) cstExprNode() {}

// CstList is a literal list `[e1, e2, ...]`, whose elements may include
// CstListFor/CstListIf/CstListLet/CstListEach comprehension clauses.
type CstList struct {
	Elements []CstExpr
	Span_    Span
}

func (n *CstList) Pos() Span  { return n.Span_ }
func (*CstList) cstExprNode() {}

// CstListFor is a `for (iterators) expr` comprehension clause.
type CstListFor struct {
	Iterators []CstIterator
	Body      CstExpr
	Span_     Span
}

func (n *CstListFor) Pos() Span  { return n.Span_ }
func (*CstListFor) cstExprNode() {}

// CstListIf is an `if (cond) expr [else expr]` comprehension clause.
type CstListIf struct {
	Cond  CstExpr
	Then  CstExpr
	Else  CstExpr // nil if absent
	Span_ Span
}

func (n *CstListIf) Pos() Span  { return n.Span_ }
func (*CstListIf) cstExprNode() {}

// CstListLet is a `let (bindings) expr` comprehension clause.
type CstListLet struct {
	Bindings []CstIterator
	Body     CstExpr
	Span_    Span
}

func (n *CstListLet) Pos() Span  { return n.Span_ }
func (*CstListLet) cstExprNode() {}

// CstListEach is an `each expr` splat clause.
type CstListEach struct {
	Value CstExpr
	Span_ Span
}

func (n *CstListEach) Pos() Span  { return n.Span_ }
func (*CstListEach) cstExprNode() {}

// CstLetExpr is `let (bindings) expr` used as an expression.
type CstLetExpr struct {
	Bindings []CstIterator
	Body     CstExpr
	Span_    Span
}

func (n *CstLetExpr) Pos() Span  { return n.Span_ }
func (*CstLetExpr) cstExprNode() {}

// CstAssertExpr is `assert(cond, msg?) expr`.
type CstAssertExpr struct {
	Cond  CstExpr
	Msg   CstExpr
	Body  CstExpr
	Span_ Span
}

func (n *CstAssertExpr) Pos() Span  { return n.Span_ }
func (*CstAssertExpr) cstExprNode() {}

// CstEchoExpr is `echo(args) expr`.
type CstEchoExpr struct {
	Args  []CstArg
	Body  CstExpr
	Span_ Span
}

func (n *CstEchoExpr) Pos() Span  { return n.Span_ }
func (*CstEchoExpr) cstExprNode() {}

// CstLambda is `function(params) expr`.
type CstLambda struct {
	Params []CstParam
	Body   CstExpr
	Span_  Span
}

func (n *CstLambda) Pos() Span  { return n.Span_ }
func (*CstLambda) cstExprNode() {}
