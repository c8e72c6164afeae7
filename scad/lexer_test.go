package scad

import "testing"

func TestTokenizeBasic(t *testing.T) {
	toks := NewLexer(`cube(10);`).Tokenize()
	want := []TokenKind{TokIdent, TokLeftParen, TokInt, TokRightParen, TokSemicolon, TokEOF}
	if len(toks) != len(want) {
		t.Fatalf("got %d tokens, want %d: %+v", len(toks), len(want), toks)
	}
	for i, k := range want {
		if toks[i].Kind != k {
			t.Errorf("token %d: got %s, want %s", i, toks[i].Kind, k)
		}
	}
}

func TestTokenizeFloatVsMemberAccess(t *testing.T) {
	toks := NewLexer(`v.x`).Tokenize()
	if toks[0].Kind != TokIdent || toks[1].Kind != TokDot || toks[2].Kind != TokIdent {
		t.Fatalf("got %+v", toks)
	}
	toks = NewLexer(`1.5`).Tokenize()
	if toks[0].Kind != TokFloat || toks[0].Text != "1.5" {
		t.Fatalf("got %+v", toks)
	}
}

func TestTokenizeStringEscapes(t *testing.T) {
	toks := NewLexer(`"a\nb"`).Tokenize()
	if toks[0].Kind != TokString || toks[0].Text != "a\nb" {
		t.Fatalf("got %+v", toks)
	}
}

func TestTokenizeSpecialVar(t *testing.T) {
	toks := NewLexer(`$fn`).Tokenize()
	if toks[0].Kind != TokSpecialIdent || toks[0].Text != "$fn" {
		t.Fatalf("got %+v", toks)
	}
}

func TestTokenizeUnterminatedString(t *testing.T) {
	toks := NewLexer("\"abc").Tokenize()
	if toks[0].Kind != TokError {
		t.Fatalf("expected TokError for unterminated string, got %+v", toks)
	}
}

func TestTokenizeBlockComment(t *testing.T) {
	toks := NewLexer("/* /* nested */ still comment */ cube(1);").Tokenize()
	if toks[0].Kind != TokIdent || toks[0].Text != "cube" {
		t.Fatalf("nested block comment not fully consumed: %+v", toks)
	}
}
