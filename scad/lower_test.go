package scad

import (
	"testing"

	"github.com/go-test/deep"
)

func TestLowerVarDeclAndArithmetic(t *testing.T) {
	cst, diags := Parse(`x = 1 + 2 * 3;`)
	if len(diags) != 0 {
		t.Fatalf("unexpected parse diagnostics: %+v", diags)
	}
	file, diags := Lower(cst)
	if len(diags) != 0 {
		t.Fatalf("unexpected lower diagnostics: %+v", diags)
	}
	decl, ok := file.Items[0].(*VarDecl)
	if !ok {
		t.Fatalf("got %T", file.Items[0])
	}
	add, ok := decl.Value.(*BinaryExpr)
	if !ok || add.Op != BinAdd {
		t.Fatalf("got %+v", decl.Value)
	}
	mul, ok := add.Right.(*BinaryExpr)
	if !ok || mul.Op != BinMul {
		t.Fatalf("got %+v", add.Right)
	}
}

func TestLowerModifierBitmask(t *testing.T) {
	cst, _ := Parse(`#translate([1,0,0]) cube(1);`)
	file, diags := Lower(cst)
	if len(diags) != 0 {
		t.Fatalf("unexpected diagnostics: %+v", diags)
	}
	call, ok := file.Items[0].(*ModuleCall)
	if !ok {
		t.Fatalf("got %T", file.Items[0])
	}
	if call.Modifier&ModHighlight == 0 {
		t.Errorf("expected ModHighlight set, got %v", call.Modifier)
	}
	if len(call.Body) != 1 {
		t.Fatalf("expected chained call flattened into Body, got %+v", call.Body)
	}
	if inner, ok := call.Body[0].(*ModuleCall); !ok || inner.Name != "cube" {
		t.Fatalf("got %+v", call.Body[0])
	}
}

func TestLowerModuleDefParamsAndBody(t *testing.T) {
	cst, _ := Parse(`module box(size=1) { cube(size); }`)
	file, diags := Lower(cst)
	if len(diags) != 0 {
		t.Fatalf("unexpected diagnostics: %+v", diags)
	}
	def := file.Items[0].(*ModuleDef)
	want := []Param{{Name: "size", Default: &Literal{Kind: LitNumber, Num: 1, Span_: def.Params[0].Default.Pos()}}}
	if diff := deep.Equal(def.Params, want); diff != nil {
		t.Errorf("params mismatch: %v", diff)
	}
	if len(def.Body) != 1 {
		t.Fatalf("got body %+v", def.Body)
	}
}

func TestLowerListComprehension(t *testing.T) {
	cst, diags := Parse(`x = [for (i = [0:2]) i * i];`)
	if len(diags) != 0 {
		t.Fatalf("unexpected parse diagnostics: %+v", diags)
	}
	file, diags := Lower(cst)
	if len(diags) != 0 {
		t.Fatalf("unexpected lower diagnostics: %+v", diags)
	}
	decl := file.Items[0].(*VarDecl)
	list := decl.Value.(*ListExpr)
	if len(list.Elements) != 1 {
		t.Fatalf("got %+v", list.Elements)
	}
	if _, ok := list.Elements[0].(*ListForClause); !ok {
		t.Fatalf("got %T", list.Elements[0])
	}
}
