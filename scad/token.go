// Package scad implements the front end of the OpenSCAD compiler: lexing,
// recursive-descent parsing to a concrete syntax tree, and CST→AST lowering.
// It mirrors the three-stage split (Lexer -> CST -> AST) used elsewhere in
// this repository's retrieval pack, generalized to OpenSCAD's grammar.
package scad

import "github.com/oscadgo/compiler/diag"

// Span is the shared cross-stage source span type.
type Span = diag.Span

// TokenKind identifies the lexical class of a Token.
type TokenKind uint8

const (
	TokEOF TokenKind = iota
	TokError

	// Literals
	TokInt
	TokFloat
	TokString
	TokIdent
	TokSpecialIdent // $-prefixed
	TokIncludePath  // <...> after include/use

	// Keywords
	TokModule
	TokFunction
	TokIf
	TokElse
	TokFor
	TokLet
	TokEach
	TokUse
	TokInclude
	TokTrue
	TokFalse
	TokUndef
	TokAssert
	TokEcho
	TokAssign

	// Operators
	TokPlus         // +
	TokMinus        // -
	TokStar         // *
	TokSlash        // /
	TokPercent      // %
	TokBang         // !
	TokEqual        // =
	TokEqualEqual   // ==
	TokBangEqual    // !=
	TokLess         // <
	TokGreater      // >
	TokLessEqual    // <=
	TokGreaterEqual // >=
	TokAmpAmp       // &&
	TokPipePipe     // ||
	TokCaret        // ^
	TokQuestion     // ?
	TokColon        // :

	// Delimiters
	TokLeftParen
	TokRightParen
	TokLeftBrace
	TokRightBrace
	TokLeftBracket
	TokRightBracket
	TokComma
	TokDot
	TokSemicolon
	TokHash // #

	// Modifier sigils. The lexer does not emit these kinds: sigils are
	// lexed as TokBang/TokHash/TokPercent/TokStar and classified by the parser.
	TokBangMod  // leading ! modifier (disable others, show only this)
	TokHashMod  // leading # modifier (highlight)
	TokPercentMod
	TokStarMod
)

func (k TokenKind) String() string {
	switch k {
	case TokEOF:
		return "EOF"
	case TokError:
		return "Error"
	case TokInt:
		return "Int"
	case TokFloat:
		return "Float"
	case TokString:
		return "String"
	case TokIdent:
		return "Ident"
	case TokSpecialIdent:
		return "SpecialIdent"
	case TokModule:
		return "module"
	case TokFunction:
		return "function"
	case TokIf:
		return "if"
	case TokElse:
		return "else"
	case TokFor:
		return "for"
	case TokLet:
		return "let"
	case TokEach:
		return "each"
	case TokUse:
		return "use"
	case TokInclude:
		return "include"
	case TokTrue:
		return "true"
	case TokFalse:
		return "false"
	case TokUndef:
		return "undef"
	case TokAssert:
		return "assert"
	case TokEcho:
		return "echo"
	case TokLeftParen:
		return "("
	case TokRightParen:
		return ")"
	case TokLeftBrace:
		return "{"
	case TokRightBrace:
		return "}"
	case TokSemicolon:
		return ";"
	default:
		return "token"
	}
}

// keywords maps reserved identifier text to its keyword token kind.
var keywords = map[string]TokenKind{
	"module":   TokModule,
	"function": TokFunction,
	"if":       TokIf,
	"else":     TokElse,
	"for":      TokFor,
	"let":      TokLet,
	"each":     TokEach,
	"use":      TokUse,
	"include":  TokInclude,
	"true":     TokTrue,
	"false":    TokFalse,
	"undef":    TokUndef,
	"assert":   TokAssert,
	"echo":     TokEcho,
	"assign":   TokAssign,
}

// Token is a single lexical unit: its kind, source span, and (for terminals
// that carry a value — literals and identifiers) the exact source text.
type Token struct {
	Kind TokenKind
	Span Span
	Text string
}
