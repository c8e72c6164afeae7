package scad

import (
	"github.com/oscadgo/compiler/diag"
)

// Parser builds a CstFile from a token stream using recursive descent with
// precedence climbing for expressions, synchronizing to the next statement
// boundary on error instead of aborting.
type Parser struct {
	lex     *Lexer
	tokens  []Token
	current int
	diags   diag.Bag
}

// Parse tokenizes and parses source, returning a CST that is always
// non-empty (at least an empty CstFile) and the diagnostics collected along
// the way. Parse never panics; malformed input yields CstBad nodes plus
// diagnostics rather than aborting.
func Parse(source string) (*CstFile, []diag.Diagnostic) {
	lex := NewLexer(source)
	tokens := lex.Tokenize()
	p := &Parser{lex: lex, tokens: tokens}
	file := p.parseFile()
	return file, p.diags.All()
}

func (p *Parser) parseFile() *CstFile {
	start := p.peek().Span.Start
	file := &CstFile{}
	for !p.isAtEnd() {
		item := p.item()
		if item != nil {
			file.Items = append(file.Items, item)
		}
	}
	end := p.previous().Span.End
	file.Span = Span{Start: start, End: end}
	return file
}

// item parses one top-level or block-level item, dispatching on the leading
// token.
func (p *Parser) item() CstItem {
	switch {
	case p.check(TokSemicolon):
		tok := p.advance()
		return &CstEmptyStmt{Span_: tok.Span}
	case p.check(TokModule):
		return p.moduleDef()
	case p.check(TokFunction):
		return p.functionDef()
	case p.check(TokUse):
		return p.useDecl()
	case p.check(TokInclude):
		return p.includeDecl()
	case p.check(TokFor):
		return p.forStmt(false)
	case p.check(TokIf):
		return p.ifStmt()
	case p.check(TokLet), p.check(TokAssign):
		return p.letStmt()
	case p.check(TokAssert):
		return p.assertStmt()
	case p.check(TokEcho):
		return p.echoStmt()
	case p.check(TokLeftBrace):
		return p.block()
	case p.check(TokIdent) && p.peek().Text == "intersection_for":
		return p.forStmt(true)
	case p.isModifierStart():
		return p.moduleCallOrChain()
	case p.check(TokIdent):
		return p.identLed()
	case p.check(TokEOF):
		return nil
	default:
		tok := p.peek()
		p.diags.Errorf(tok.Span, "unexpected token %s", tok.Kind)
		p.advance()
		p.synchronize()
		return &CstBad{Span_: tok.Span}
	}
}

// identLed disambiguates `name = expr;` (assignment) from `name(...)`
// (module call), both of which start with a bare identifier.
func (p *Parser) identLed() CstItem {
	if p.checkAt(1, TokEqual) {
		return p.varDecl()
	}
	return p.moduleCallOrChain()
}

func (p *Parser) varDecl() CstItem {
	start := p.peek().Span.Start
	name := p.advance()
	p.expect(TokEqual)
	value := p.expression()
	end := p.peek().Span.End
	p.expect(TokSemicolon)
	return &CstVarDecl{NameTok: name, Value: value, Span_: Span{Start: start, End: end}}
}

func (p *Parser) useDecl() CstItem {
	start := p.advance().Span.Start // `use`
	path := p.lex.ScanIncludePath()
	end := path.Span.End
	p.expect(TokSemicolon)
	return &CstUse{PathTok: path, Span_: Span{Start: start, End: end}}
}

func (p *Parser) includeDecl() CstItem {
	start := p.advance().Span.Start // `include`
	path := p.lex.ScanIncludePath()
	end := path.Span.End
	p.expect(TokSemicolon)
	return &CstInclude{PathTok: path, Span_: Span{Start: start, End: end}}
}

func (p *Parser) moduleDef() CstItem {
	start := p.advance().Span.Start // `module`
	name := p.expectTok(TokIdent, "module name")
	params := p.paramList()
	body := p.block()
	return &CstModuleDef{NameTok: name, Params: params, Body: body, Span_: Span{Start: start, End: body.Span_.End}}
}

func (p *Parser) functionDef() CstItem {
	start := p.advance().Span.Start // `function`
	name := p.expectTok(TokIdent, "function name")
	params := p.paramList()
	p.expect(TokEqual)
	body := p.expression()
	end := p.peek().Span.End
	p.expect(TokSemicolon)
	return &CstFunctionDef{NameTok: name, Params: params, Body: body, Span_: Span{Start: start, End: end}}
}

func (p *Parser) paramList() []CstParam {
	p.expect(TokLeftParen)
	var params []CstParam
	for !p.check(TokRightParen) && !p.isAtEnd() {
		name := p.expectTok(TokIdent, "parameter name")
		var def CstExpr
		if p.match(TokEqual) {
			def = p.expression()
		}
		params = append(params, CstParam{NameTok: name, Default: def})
		if !p.match(TokComma) {
			break
		}
	}
	p.expect(TokRightParen)
	return params
}

func (p *Parser) block() *CstBlock {
	start := p.peek().Span.Start
	if !p.match(TokLeftBrace) {
		// A lone statement standing in for a block (e.g. an if-branch
		// without braces) is wrapped so downstream stages always see a
		// block.
		it := p.item()
		if it == nil {
			return &CstBlock{Span_: Span{Start: start, End: start}}
		}
		return &CstBlock{Items: []CstItem{it}, Span_: it.Pos()}
	}
	var items []CstItem
	for !p.check(TokRightBrace) && !p.isAtEnd() {
		it := p.item()
		if it != nil {
			items = append(items, it)
		}
	}
	end := p.peek().Span.End
	p.expect(TokRightBrace)
	return &CstBlock{Items: items, Span_: Span{Start: start, End: end}}
}

// forStmt parses `for (iterators) body` or, when isIntersection is true,
// `intersection_for (iterators) body` (lexed as a single TokIdent since it
// is not a reserved word, hence the special-cased dispatch in item()).
func (p *Parser) forStmt(isIntersection bool) CstItem {
	start := p.advance().Span.Start // `for` keyword or `intersection_for` ident
	iters := p.iteratorList()
	body := p.itemAsItem()
	return &CstFor{Iterators: iters, Intersection: isIntersection, Body: body, Span_: Span{Start: start, End: body.Pos().End}}
}

func (p *Parser) iteratorList() []CstIterator {
	p.expect(TokLeftParen)
	var iters []CstIterator
	for !p.check(TokRightParen) && !p.isAtEnd() {
		name := p.expectTok(TokIdent, "iterator name")
		p.expect(TokEqual)
		val := p.expression()
		iters = append(iters, CstIterator{NameTok: name, Value: val})
		if !p.match(TokComma) {
			break
		}
	}
	p.expect(TokRightParen)
	return iters
}

func (p *Parser) itemAsItem() CstItem {
	it := p.item()
	if it == nil {
		tok := p.peek()
		return &CstEmptyStmt{Span_: tok.Span}
	}
	return it
}

func (p *Parser) ifStmt() CstItem {
	start := p.advance().Span.Start // `if`
	p.expect(TokLeftParen)
	cond := p.expression()
	p.expect(TokRightParen)
	then := p.itemAsItem()
	var elseItem CstItem
	end := then.Pos().End
	if p.match(TokElse) {
		elseItem = p.itemAsItem()
		end = elseItem.Pos().End
	}
	return &CstIf{Cond: cond, Then: then, Else: elseItem, Span_: Span{Start: start, End: end}}
}

// letStmt parses `let (bindings) body`. `assign(bindings) body` is a legacy
// synonym with identical shape, so it shares this parse and lowers to the
// same CstLetStmt node.
func (p *Parser) letStmt() CstItem {
	start := p.advance().Span.Start // `let` or `assign`
	bindings := p.iteratorList()
	body := p.itemAsItem()
	return &CstLetStmt{Bindings: bindings, Body: body, Span_: Span{Start: start, End: body.Pos().End}}
}

func (p *Parser) assertStmt() CstItem {
	start := p.advance().Span.Start // `assert`
	p.expect(TokLeftParen)
	cond := p.expression()
	var msg CstExpr
	if p.match(TokComma) {
		msg = p.expression()
	}
	end := p.peek().Span.End
	p.expect(TokRightParen)
	p.expect(TokSemicolon)
	return &CstAssertStmt{Cond: cond, Msg: msg, Span_: Span{Start: start, End: end}}
}

func (p *Parser) echoStmt() CstItem {
	start := p.advance().Span.Start // `echo`
	args := p.argList()
	end := p.peek().Span.End
	p.expect(TokSemicolon)
	return &CstEchoStmt{Args: args, Span_: Span{Start: start, End: end}}
}

// isModifierStart reports whether the current token begins a modified
// module call such as `!cube(1);` or `#translate(...) sphere(1);`.
func (p *Parser) isModifierStart() bool {
	switch p.peek().Kind {
	case TokBang, TokHash, TokPercent, TokStar:
		return true
	default:
		return false
	}
}

// moduleCallOrChain parses `[modifiers] name(args) (body | chained-call | ;)`.
func (p *Parser) moduleCallOrChain() *CstModuleCall {
	start := p.peek().Span.Start
	var mods []Token
	for p.isModifierStart() {
		mods = append(mods, p.advance())
	}
	name := p.expectTok(TokIdent, "module name")
	args := p.argList()
	call := &CstModuleCall{Modifiers: mods, NameTok: name, Args: args}

	switch {
	case p.check(TokSemicolon):
		end := p.advance().Span.End
		call.Span_ = Span{Start: start, End: end}
	case p.check(TokLeftBrace):
		call.Body = p.block()
		call.Span_ = Span{Start: start, End: call.Body.Span_.End}
	case p.isModifierStart() || p.check(TokIdent):
		// A bare chained call with no braces: `translate(v) cube(1);`
		next := p.moduleCallOrChain()
		call.Next = next
		call.Span_ = Span{Start: start, End: next.Span_.End}
	default:
		tok := p.peek()
		p.diags.Errorf(tok.Span, "expected ';', '{', or a chained module call after %s(...)", name.Text)
		call.Span_ = Span{Start: start, End: tok.Span.End}
	}
	return call
}

func (p *Parser) argList() []CstArg {
	p.expect(TokLeftParen)
	var args []CstArg
	for !p.check(TokRightParen) && !p.isAtEnd() {
		if (p.check(TokIdent) || p.check(TokSpecialIdent)) && p.checkAt(1, TokEqual) {
			name := p.advance()
			p.advance() // `=`
			val := p.expression()
			args = append(args, CstArg{NameTok: &name, Value: val})
		} else {
			val := p.expression()
			args = append(args, CstArg{Value: val})
		}
		if !p.match(TokComma) {
			break
		}
	}
	p.expect(TokRightParen)
	return args
}

// ---------------------------------------------------------------------------
// Expressions: precedence climbing, lowest to highest.
// ---------------------------------------------------------------------------

func (p *Parser) expression() CstExpr {
	return p.ternary()
}

func (p *Parser) ternary() CstExpr {
	cond := p.logicalOr()
	if p.match(TokQuestion) {
		then := p.expression() // right-associative: recurse into the full grammar
		p.expect(TokColon)
		elseE := p.ternary()
		return &CstTernary{Cond: cond, Then: then, Else: elseE, Span_: diag.Join(cond.Pos(), elseE.Pos())}
	}
	return cond
}

func (p *Parser) logicalOr() CstExpr {
	left := p.logicalAnd()
	for p.check(TokPipePipe) {
		op := p.advance()
		right := p.logicalAnd()
		left = &CstBinary{Left: left, Right: right, OpTok: op, Span_: diag.Join(left.Pos(), right.Pos())}
	}
	return left
}

func (p *Parser) logicalAnd() CstExpr {
	left := p.equality()
	for p.check(TokAmpAmp) {
		op := p.advance()
		right := p.equality()
		left = &CstBinary{Left: left, Right: right, OpTok: op, Span_: diag.Join(left.Pos(), right.Pos())}
	}
	return left
}

func (p *Parser) equality() CstExpr {
	left := p.comparison()
	for p.check(TokEqualEqual) || p.check(TokBangEqual) {
		op := p.advance()
		right := p.comparison()
		left = &CstBinary{Left: left, Right: right, OpTok: op, Span_: diag.Join(left.Pos(), right.Pos())}
	}
	return left
}

func (p *Parser) comparison() CstExpr {
	left := p.additive()
	for p.check(TokLess) || p.check(TokGreater) || p.check(TokLessEqual) || p.check(TokGreaterEqual) {
		op := p.advance()
		right := p.additive()
		left = &CstBinary{Left: left, Right: right, OpTok: op, Span_: diag.Join(left.Pos(), right.Pos())}
	}
	return left
}

func (p *Parser) additive() CstExpr {
	left := p.multiplicative()
	for p.check(TokPlus) || p.check(TokMinus) {
		op := p.advance()
		right := p.multiplicative()
		left = &CstBinary{Left: left, Right: right, OpTok: op, Span_: diag.Join(left.Pos(), right.Pos())}
	}
	return left
}

func (p *Parser) multiplicative() CstExpr {
	left := p.power()
	for p.check(TokStar) || p.check(TokSlash) || p.check(TokPercent) {
		op := p.advance()
		right := p.power()
		left = &CstBinary{Left: left, Right: right, OpTok: op, Span_: diag.Join(left.Pos(), right.Pos())}
	}
	return left
}

// power parses `^`, right-associative and binding tighter than `*` but
// looser than unary.
func (p *Parser) power() CstExpr {
	left := p.unary()
	if p.check(TokCaret) {
		op := p.advance()
		right := p.power() // right-recurse for right-associativity
		return &CstBinary{Left: left, Right: right, OpTok: op, Span_: diag.Join(left.Pos(), right.Pos())}
	}
	return left
}

func (p *Parser) unary() CstExpr {
	if p.check(TokBang) || p.check(TokPlus) || p.check(TokMinus) {
		op := p.advance()
		operand := p.unary()
		return &CstUnary{OpTok: op, Operand: operand, Span_: Span{Start: op.Span.Start, End: operand.Pos().End}}
	}
	return p.postfix()
}

func (p *Parser) postfix() CstExpr {
	expr := p.primary()
	for {
		switch {
		case p.check(TokLeftParen):
			args := p.argList()
			expr = &CstCall{Callee: expr, Args: args, Span_: Span{Start: expr.Pos().Start, End: p.previous().Span.End}}
		case p.match(TokLeftBracket):
			idx := p.expression()
			end := p.peek().Span.End
			p.expect(TokRightBracket)
			expr = &CstIndex{Expr: expr, Index: idx, Span_: Span{Start: expr.Pos().Start, End: end}}
		case p.match(TokDot):
			name := p.expectTok(TokIdent, "member name")
			expr = &CstDotIndex{Expr: expr, NameTok: name, Span_: Span{Start: expr.Pos().Start, End: name.Span.End}}
		default:
			return expr
		}
	}
}

func (p *Parser) primary() CstExpr {
	tok := p.peek()
	switch tok.Kind {
	case TokInt, TokFloat, TokString, TokTrue, TokFalse, TokUndef:
		p.advance()
		return &CstLiteral{Tok: tok}
	case TokSpecialIdent:
		p.advance()
		return &CstSpecialExpr{Tok: tok}
	case TokFunction:
		return p.lambda()
	case TokLet:
		return p.letExpr()
	case TokAssert:
		return p.assertExpr()
	case TokEcho:
		return p.echoExpr()
	case TokIdent:
		p.advance()
		return &CstIdentExpr{Tok: tok}
	case TokLeftParen:
		p.advance()
		inner := p.expression()
		p.expect(TokRightParen)
		return inner
	case TokLeftBracket:
		return p.listOrRange()
	default:
		p.diags.Errorf(tok.Span, "unexpected token %s in expression", tok.Kind)
		p.advance()
		return &CstLiteral{Tok: Token{Kind: TokUndef, Span: tok.Span}}
	}
}

func (p *Parser) lambda() CstExpr {
	start := p.advance().Span.Start // `function`
	params := p.paramList()
	body := p.expression()
	return &CstLambda{Params: params, Body: body, Span_: Span{Start: start, End: body.Pos().End}}
}

func (p *Parser) letExpr() CstExpr {
	start := p.advance().Span.Start // `let`
	bindings := p.iteratorList()
	body := p.expression()
	return &CstLetExpr{Bindings: bindings, Body: body, Span_: Span{Start: start, End: body.Pos().End}}
}

func (p *Parser) assertExpr() CstExpr {
	start := p.advance().Span.Start // `assert`
	p.expect(TokLeftParen)
	cond := p.expression()
	var msg CstExpr
	if p.match(TokComma) {
		msg = p.expression()
	}
	p.expect(TokRightParen)
	body := p.expression()
	return &CstAssertExpr{Cond: cond, Msg: msg, Body: body, Span_: Span{Start: start, End: body.Pos().End}}
}

func (p *Parser) echoExpr() CstExpr {
	start := p.advance().Span.Start // `echo`
	args := p.argList()
	body := p.expression()
	return &CstEchoExpr{Args: args, Body: body, Span_: Span{Start: start, End: body.Pos().End}}
}

// listOrRange parses `[a:b]`, `[a:s:b]`, or `[e1, e2, ...]`, including list
// comprehension clauses (`for`, `if`, `let`, `each`) among the elements.
func (p *Parser) listOrRange() CstExpr {
	start := p.advance().Span.Start // `[`
	if p.check(TokRightBracket) {
		end := p.advance().Span.End
		return &CstList{Span_: Span{Start: start, End: end}}
	}
	// A leading clause keyword means a comprehension, which can't be a range
	// bound, so the `:` check below doesn't apply to it.
	if p.check(TokFor) || p.check(TokIf) || p.check(TokLet) || p.check(TokEach) {
		elems := []CstExpr{p.listElement()}
		for p.match(TokComma) {
			if p.check(TokRightBracket) {
				break
			}
			elems = append(elems, p.listElement())
		}
		end := p.peek().Span.End
		p.expect(TokRightBracket)
		return &CstList{Elements: elems, Span_: Span{Start: start, End: end}}
	}
	first := p.expression()
	if p.match(TokColon) {
		second := p.expression()
		var step, end CstExpr
		if p.match(TokColon) {
			step = second
			end = p.expression()
		} else {
			end = second
		}
		closeEnd := p.peek().Span.End
		p.expect(TokRightBracket)
		return &CstRange{Start: first, Step: step, End: end, Span_: Span{Start: start, End: closeEnd}}
	}
	elems := []CstExpr{first}
	for p.match(TokComma) {
		if p.check(TokRightBracket) {
			break
		}
		elems = append(elems, p.listElement())
	}
	end := p.peek().Span.End
	p.expect(TokRightBracket)
	return &CstList{Elements: elems, Span_: Span{Start: start, End: end}}
}

// listElement parses one element of a list literal, which may be a plain
// expression or a comprehension clause.
func (p *Parser) listElement() CstExpr {
	switch p.peek().Kind {
	case TokFor:
		start := p.advance().Span.Start
		iters := p.iteratorList()
		body := p.listElement()
		return &CstListFor{Iterators: iters, Body: body, Span_: Span{Start: start, End: body.Pos().End}}
	case TokIf:
		start := p.advance().Span.Start
		p.expect(TokLeftParen)
		cond := p.expression()
		p.expect(TokRightParen)
		then := p.listElement()
		var elseE CstExpr
		end := then.Pos().End
		if p.match(TokElse) {
			elseE = p.listElement()
			end = elseE.Pos().End
		}
		return &CstListIf{Cond: cond, Then: then, Else: elseE, Span_: Span{Start: start, End: end}}
	case TokLet:
		start := p.advance().Span.Start
		bindings := p.iteratorList()
		body := p.listElement()
		return &CstListLet{Bindings: bindings, Body: body, Span_: Span{Start: start, End: body.Pos().End}}
	case TokEach:
		start := p.advance().Span.Start
		val := p.listElement()
		return &CstListEach{Value: val, Span_: Span{Start: start, End: val.Pos().End}}
	default:
		return p.expression()
	}
}

// ---------------------------------------------------------------------------
// Cursor helpers.
// ---------------------------------------------------------------------------

func (p *Parser) peek() Token     { return p.tokens[p.current] }
func (p *Parser) checkAt(n int, kind TokenKind) bool {
	idx := p.current + n
	if idx >= len(p.tokens) {
		return kind == TokEOF
	}
	return p.tokens[idx].Kind == kind
}
func (p *Parser) previous() Token {
	if p.current == 0 {
		return p.tokens[0]
	}
	return p.tokens[p.current-1]
}
func (p *Parser) isAtEnd() bool { return p.peek().Kind == TokEOF }
func (p *Parser) check(kind TokenKind) bool {
	return p.peek().Kind == kind
}
func (p *Parser) advance() Token {
	tok := p.peek()
	if !p.isAtEnd() {
		p.current++
	}
	return tok
}
func (p *Parser) match(kind TokenKind) bool {
	if p.check(kind) {
		p.advance()
		return true
	}
	return false
}
func (p *Parser) expect(kind TokenKind) bool {
	if p.match(kind) {
		return true
	}
	tok := p.peek()
	p.diags.Errorf(tok.Span, "expected %s, got %s", kind, tok.Kind)
	return false
}
func (p *Parser) expectTok(kind TokenKind, what string) Token {
	if p.check(kind) {
		return p.advance()
	}
	tok := p.peek()
	p.diags.Errorf(tok.Span, "expected %s, got %s", what, tok.Kind)
	return Token{Kind: kind, Span: tok.Span}
}

// synchronize advances to the next statement boundary (`;`, `{`, `}`, or a
// statement-starter keyword) after a parse error.
func (p *Parser) synchronize() {
	for !p.isAtEnd() {
		switch p.previous().Kind {
		case TokSemicolon, TokRightBrace:
			return
		}
		switch p.peek().Kind {
		case TokModule, TokFunction, TokIf, TokFor, TokLet, TokUse, TokInclude, TokLeftBrace:
			return
		}
		p.advance()
	}
}
