package scad

import "testing"

func TestParseModuleCall(t *testing.T) {
	file, diags := Parse(`cube(size=10);`)
	if len(diags) != 0 {
		t.Fatalf("unexpected diagnostics: %+v", diags)
	}
	if len(file.Items) != 1 {
		t.Fatalf("got %d items, want 1", len(file.Items))
	}
	call, ok := file.Items[0].(*CstModuleCall)
	if !ok {
		t.Fatalf("got %T, want *CstModuleCall", file.Items[0])
	}
	if call.NameTok.Text != "cube" {
		t.Errorf("got name %q", call.NameTok.Text)
	}
	if len(call.Args) != 1 || call.Args[0].NameTok == nil || call.Args[0].NameTok.Text != "size" {
		t.Errorf("got args %+v", call.Args)
	}
}

func TestParseChainedCall(t *testing.T) {
	file, diags := Parse(`translate([1,0,0]) rotate([0,0,90]) cube(1);`)
	if len(diags) != 0 {
		t.Fatalf("unexpected diagnostics: %+v", diags)
	}
	outer := file.Items[0].(*CstModuleCall)
	if outer.NameTok.Text != "translate" || outer.Next == nil {
		t.Fatalf("got %+v", outer)
	}
	if outer.Next.NameTok.Text != "rotate" || outer.Next.Next == nil {
		t.Fatalf("got %+v", outer.Next)
	}
	if outer.Next.Next.NameTok.Text != "cube" {
		t.Fatalf("got %+v", outer.Next.Next)
	}
}

func TestParseModuleCallWithBlock(t *testing.T) {
	file, diags := Parse(`union() { cube(1); sphere(1); }`)
	if len(diags) != 0 {
		t.Fatalf("unexpected diagnostics: %+v", diags)
	}
	call := file.Items[0].(*CstModuleCall)
	if call.Body == nil || len(call.Body.Items) != 2 {
		t.Fatalf("got %+v", call.Body)
	}
}

func TestParseExpressionPrecedence(t *testing.T) {
	file, diags := Parse(`x = 1 + 2 * 3 ^ 2;`)
	if len(diags) != 0 {
		t.Fatalf("unexpected diagnostics: %+v", diags)
	}
	decl := file.Items[0].(*CstVarDecl)
	top, ok := decl.Value.(*CstBinary)
	if !ok || top.OpTok.Kind != TokPlus {
		t.Fatalf("expected top-level +, got %+v", decl.Value)
	}
	rhs, ok := top.Right.(*CstBinary)
	if !ok || rhs.OpTok.Kind != TokStar {
		t.Fatalf("expected * on the right of +, got %+v", top.Right)
	}
	pow, ok := rhs.Right.(*CstBinary)
	if !ok || pow.OpTok.Kind != TokCaret {
		t.Fatalf("expected ^ nested under *, got %+v", rhs.Right)
	}
}

func TestParsePowerRightAssociative(t *testing.T) {
	file, diags := Parse(`x = 2 ^ 3 ^ 2;`)
	if len(diags) != 0 {
		t.Fatalf("unexpected diagnostics: %+v", diags)
	}
	decl := file.Items[0].(*CstVarDecl)
	top := decl.Value.(*CstBinary)
	if _, ok := top.Right.(*CstBinary); !ok {
		t.Fatalf("expected right-associative ^, got left=%T right=%T", top.Left, top.Right)
	}
	if _, ok := top.Left.(*CstBinary); ok {
		t.Fatalf("^ should not be left-associative, got left=%+v", top.Left)
	}
}

func TestParseTernary(t *testing.T) {
	file, diags := Parse(`x = a ? b : c ? d : e;`)
	if len(diags) != 0 {
		t.Fatalf("unexpected diagnostics: %+v", diags)
	}
	decl := file.Items[0].(*CstVarDecl)
	top := decl.Value.(*CstTernary)
	if _, ok := top.Else.(*CstTernary); !ok {
		t.Fatalf("expected right-associative nested ternary in Else, got %T", top.Else)
	}
}

func TestParseListAndRange(t *testing.T) {
	file, diags := Parse(`x = [1, 2, 3]; r = [0:2:10];`)
	if len(diags) != 0 {
		t.Fatalf("unexpected diagnostics: %+v", diags)
	}
	list := file.Items[0].(*CstVarDecl).Value.(*CstList)
	if len(list.Elements) != 3 {
		t.Fatalf("got %d elements", len(list.Elements))
	}
	rng := file.Items[1].(*CstVarDecl).Value.(*CstRange)
	if rng.Step == nil {
		t.Fatalf("expected a step expression in [0:2:10]")
	}
}

func TestParseModuleDef(t *testing.T) {
	file, diags := Parse(`module box(size=1) { cube(size); }`)
	if len(diags) != 0 {
		t.Fatalf("unexpected diagnostics: %+v", diags)
	}
	def := file.Items[0].(*CstModuleDef)
	if def.NameTok.Text != "box" || len(def.Params) != 1 || def.Params[0].Default == nil {
		t.Fatalf("got %+v", def)
	}
}

func TestParseRecoversFromError(t *testing.T) {
	file, diags := Parse(`x = ; y = 2;`)
	if len(diags) == 0 {
		t.Fatalf("expected at least one diagnostic")
	}
	if len(file.Items) != 2 {
		t.Fatalf("expected parser to recover and still see both statements, got %d items", len(file.Items))
	}
}
