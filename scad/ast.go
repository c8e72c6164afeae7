package scad

// The AST is the normalized tree lowering produces from a CST (lower.go):
// operator tokens are resolved to BinOp/UnOp enums, modifier sigils become a
// Modifier bitmask, module-call chains become a flat Body slice, and
// comprehension clauses stay as elements of a ListExpr's Elements. Every
// node still carries its originating Span so diagnostics raised in later
// stages point back at real source text.

// File is a parsed and lowered source file.
type File struct {
	Items []Item
	Span  Span
}

// Node is implemented by every AST node.
type Node interface {
	Pos() Span
}

// Item is a top-level or block-level construct: a definition or a statement.
type Item interface {
	Node
	itemNode()
}

// Stmt is the subset of Item that can appear inside a module body.
type Stmt interface {
	Item
	stmtNode()
}

// ModuleDef is `module name(params) body`.
type ModuleDef struct {
	Name   string
	Params []Param
	Body   []Stmt
	Span_  Span
}

func (n *ModuleDef) Pos() Span { return n.Span_ }
func (*ModuleDef) itemNode()   {}
func (*ModuleDef) stmtNode()   {}

// FunctionDef is `function name(params) = expr;`.
type FunctionDef struct {
	Name   string
	Params []Param
	Body   Expr
	Span_  Span
}

func (n *FunctionDef) Pos() Span { return n.Span_ }
func (*FunctionDef) itemNode()   {}
func (*FunctionDef) stmtNode()   {}

// Param is a formal parameter, with Default nil when there is none.
type Param struct {
	Name    string
	Default Expr
}

// VarDecl is `name = expr;`.
type VarDecl struct {
	Name  string
	Value Expr
	Span_ Span
}

func (n *VarDecl) Pos() Span { return n.Span_ }
func (*VarDecl) itemNode()   {}
func (*VarDecl) stmtNode()   {}

// Use is `use <path>;`.
type Use struct {
	Path  string
	Span_ Span
}

func (n *Use) Pos() Span { return n.Span_ }
func (*Use) itemNode()   {}

// Include is `include <path>;`.
type Include struct {
	Path  string
	Span_ Span
}

func (n *Include) Pos() Span { return n.Span_ }
func (*Include) itemNode()   {}

// Modifier is a bitmask of leading module-call sigils.
type Modifier uint8

const (
	ModNone          Modifier = 0
	ModDisableOthers Modifier = 1 << iota // ! show only this subtree
	ModHighlight                          // # highlight this subtree, still render the rest
	ModTransparent                        // % render as background-only, excluded from result
	ModDisabled                           // * skip this subtree entirely
)

// ModuleCall is `[mods] name(args) { body }` with any call chain
// (`translate(v) rotate(r) cube(1);`) flattened into Body as nested calls,
// so there is a single ModuleCall node per call rather than a separate
// chain node kind.
type ModuleCall struct {
	Modifier Modifier
	Name     string
	Args     []Arg
	Body     []Stmt // children in braces, a single chained call, or nil
	Span_    Span
}

func (n *ModuleCall) Pos() Span { return n.Span_ }
func (*ModuleCall) itemNode()   {}
func (*ModuleCall) stmtNode()   {}

// Arg is a positional (Name == "") or named call argument.
type Arg struct {
	Name  string
	Value Expr
}

// For is `for (iterators) body` or, when Intersection is true,
// `intersection_for`.
type For struct {
	Iterators    []Iterator
	Intersection bool
	Body         Stmt
	Span_        Span
}

func (n *For) Pos() Span { return n.Span_ }
func (*For) itemNode()   {}
func (*For) stmtNode()   {}

// Iterator is one `name = expr` clause in a for/let header.
type Iterator struct {
	Name  string
	Value Expr
}

// If is `if (cond) then [else else_]`.
type If struct {
	Cond  Expr
	Then  Stmt
	Else  Stmt // nil if absent
	Span_ Span
}

func (n *If) Pos() Span { return n.Span_ }
func (*If) itemNode()   {}
func (*If) stmtNode()   {}

// LetStmt is `let (bindings) body` used as a statement.
type LetStmt struct {
	Bindings []Iterator
	Body     Stmt
	Span_    Span
}

func (n *LetStmt) Pos() Span { return n.Span_ }
func (*LetStmt) itemNode()   {}
func (*LetStmt) stmtNode()   {}

// Block is `{ items... }`, flattened into Items for direct iteration.
type Block struct {
	Items []Stmt
	Span_ Span
}

func (n *Block) Pos() Span { return n.Span_ }
func (*Block) itemNode()   {}
func (*Block) stmtNode()   {}

// AssertStmt is `assert(cond, msg?);`.
type AssertStmt struct {
	Cond  Expr
	Msg   Expr
	Span_ Span
}

func (n *AssertStmt) Pos() Span { return n.Span_ }
func (*AssertStmt) itemNode()   {}
func (*AssertStmt) stmtNode()   {}

// EchoStmt is `echo(args...);`.
type EchoStmt struct {
	Args  []Arg
	Span_ Span
}

func (n *EchoStmt) Pos() Span { return n.Span_ }
func (*EchoStmt) itemNode()   {}
func (*EchoStmt) stmtNode()   {}

// EmptyStmt is a bare `;`, preserved so Span coverage remains contiguous.
type EmptyStmt struct {
	Span_ Span
}

func (n *EmptyStmt) Pos() Span { return n.Span_ }
func (*EmptyStmt) itemNode()   {}
func (*EmptyStmt) stmtNode()   {}

// Expr is the interface for every AST expression node.
type Expr interface {
	Node
	exprNode()
}

// BinOp is a resolved binary operator.
type BinOp uint8

const (
	BinOr BinOp = iota
	BinAnd
	BinEq
	BinNe
	BinLt
	BinGt
	BinLe
	BinGe
	BinAdd
	BinSub
	BinMul
	BinDiv
	BinMod
	BinPow
)

// UnOp is a resolved unary operator.
type UnOp uint8

const (
	UnNot UnOp = iota
	UnPos
	UnNeg
)

// Literal is a resolved constant: one of Number, String, Bool, or Undef.
type Literal struct {
	Kind  LiteralKind
	Num   float64
	Str   string
	Bool  bool
	Span_ Span
}

// LiteralKind discriminates Literal's payload.
type LiteralKind uint8

const (
	LitNumber LiteralKind = iota
	LitString
	LitBool
	LitUndef
)

func (n *Literal) Pos() Span { return n.Span_ }
func (*Literal) exprNode()   {}

// Ident is a bare variable or function reference.
type Ident struct {
	Name  string
	Span_ Span
}

func (n *Ident) Pos() Span { return n.Span_ }
func (*Ident) exprNode()   {}

// SpecialVar is a `$name` reference.
type SpecialVar struct {
	Name  string
	Span_ Span
}

func (n *SpecialVar) Pos() Span { return n.Span_ }
func (*SpecialVar) exprNode()   {}

// UnaryExpr is `op operand`.
type UnaryExpr struct {
	Op      UnOp
	Operand Expr
	Span_   Span
}

func (n *UnaryExpr) Pos() Span { return n.Span_ }
func (*UnaryExpr) exprNode()   {}

// BinaryExpr is `left op right`.
type BinaryExpr struct {
	Op          BinOp
	Left, Right Expr
	Span_       Span
}

func (n *BinaryExpr) Pos() Span { return n.Span_ }
func (*BinaryExpr) exprNode()   {}

// TernaryExpr is `cond ? then : else`.
type TernaryExpr struct {
	Cond, Then, Else Expr
	Span_            Span
}

func (n *TernaryExpr) Pos() Span { return n.Span_ }
func (*TernaryExpr) exprNode()   {}

// CallExpr is `callee(args)`, where Callee is usually an Ident.
type CallExpr struct {
	Callee Expr
	Args   []Arg
	Span_  Span
}

func (n *CallExpr) Pos() Span { return n.Span_ }
func (*CallExpr) exprNode()   {}

// IndexExpr is `expr[index]`.
type IndexExpr struct {
	Expr, Index Expr
	Span_       Span
}

func (n *IndexExpr) Pos() Span { return n.Span_ }
func (*IndexExpr) exprNode()   {}

// MemberExpr is `expr.x/.y/.z/.name`, kept distinct from IndexExpr since
// `.x/.y/.z` resolve against vectors without a general string-keyed lookup.
type MemberExpr struct {
	Expr  Expr
	Name  string
	Span_ Span
}

func (n *MemberExpr) Pos() Span { return n.Span_ }
func (*MemberExpr) exprNode()   {}

// RangeExpr is `[start : end]` or `[start : step : end]`, with Step nil in
// the two-argument form (defaulting to 1 at evaluation time).
type RangeExpr struct {
	Start, Step, End Expr
	Span_            Span
}

func (n *RangeExpr) Pos() Span { return n.Span_ }
func (*RangeExpr) exprNode()   {}

// ListExpr is a literal list, possibly containing comprehension Clauses
// instead of, or alongside, plain Elements — OpenSCAD allows either form but
// not both in one element position, so each slot is either a plain Expr (in
// Elements) or represented via a ListClause implementing Expr (in Elements
// too, tagged by type switch at eval time). Kept as a single Elements slice
// mirroring the CST shape one-to-one; lowering does not merge clause kinds.
type ListExpr struct {
	Elements []Expr
	Span_    Span
}

func (n *ListExpr) Pos() Span { return n.Span_ }
func (*ListExpr) exprNode()   {}

// ListForClause is a `for (iterators) expr` list-comprehension element.
type ListForClause struct {
	Iterators []Iterator
	Body      Expr
	Span_     Span
}

func (n *ListForClause) Pos() Span { return n.Span_ }
func (*ListForClause) exprNode()   {}

// ListIfClause is an `if (cond) expr [else expr]` list-comprehension element.
type ListIfClause struct {
	Cond  Expr
	Then  Expr
	Else  Expr
	Span_ Span
}

func (n *ListIfClause) Pos() Span { return n.Span_ }
func (*ListIfClause) exprNode()   {}

// ListLetClause is a `let (bindings) expr` list-comprehension element.
type ListLetClause struct {
	Bindings []Iterator
	Body     Expr
	Span_    Span
}

func (n *ListLetClause) Pos() Span { return n.Span_ }
func (*ListLetClause) exprNode()   {}

// ListEachClause is an `each expr` splat list-comprehension element.
type ListEachClause struct {
	Value Expr
	Span_ Span
}

func (n *ListEachClause) Pos() Span { return n.Span_ }
func (*ListEachClause) exprNode()   {}

// LetExpr is `let (bindings) expr` used as an expression.
type LetExpr struct {
	Bindings []Iterator
	Body     Expr
	Span_    Span
}

func (n *LetExpr) Pos() Span { return n.Span_ }
func (*LetExpr) exprNode()   {}

// AssertExpr is `assert(cond, msg?) expr`.
type AssertExpr struct {
	Cond, Msg, Body Expr
	Span_           Span
}

func (n *AssertExpr) Pos() Span { return n.Span_ }
func (*AssertExpr) exprNode()   {}

// EchoExpr is `echo(args) expr`.
type EchoExpr struct {
	Args  []Arg
	Body  Expr
	Span_ Span
}

func (n *EchoExpr) Pos() Span { return n.Span_ }
func (*EchoExpr) exprNode()   {}

// LambdaExpr is `function(params) expr`, a first-class function value.
type LambdaExpr struct {
	Params []Param
	Body   Expr
	Span_  Span
}

func (n *LambdaExpr) Pos() Span { return n.Span_ }
func (*LambdaExpr) exprNode()   {}
