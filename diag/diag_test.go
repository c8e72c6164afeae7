package diag

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestJoin(t *testing.T) {
	got := Join(Span{Start: 5, End: 9}, Span{Start: 2, End: 7})
	if got != (Span{Start: 2, End: 9}) {
		t.Errorf("got %+v, want {2 9}", got)
	}
}

func TestBagAccumulatesAndReportsErrors(t *testing.T) {
	var b Bag
	b.Warnf(Span{Start: 0, End: 1}, "w")
	if b.HasErrors() {
		t.Error("a warning alone should not count as an error")
	}
	b.Errorf(Span{Start: 2, End: 3}, "e %d", 1)
	b.Infof(Span{Start: 4, End: 5}, "i")
	if !b.HasErrors() {
		t.Error("HasErrors should see the error")
	}
	if b.Len() != 3 {
		t.Errorf("got %d diagnostics, want 3", b.Len())
	}
	all := b.All()
	if all[0].Severity != Warning || all[1].Severity != Error || all[2].Severity != Info {
		t.Errorf("diagnostics out of insertion order: %+v", all)
	}
	if all[1].Message != "e 1" {
		t.Errorf("format args not applied: %q", all[1].Message)
	}
}

func TestDiagnosticWireFormat(t *testing.T) {
	d := Diagnostic{
		Severity: Warning,
		Message:  "deprecated",
		Span:     Span{Start: 10, End: 14},
		Hint:     "use let",
	}
	raw, err := json.Marshal(d)
	if err != nil {
		t.Fatal(err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatal(err)
	}
	if decoded["severity"] != "warning" || decoded["message"] != "deprecated" {
		t.Errorf("got %v", decoded)
	}
	if decoded["start"] != float64(10) || decoded["end"] != float64(14) {
		t.Errorf("span not flattened into start/end: %v", decoded)
	}
	if decoded["hint"] != "use let" {
		t.Errorf("hint missing: %v", decoded)
	}
	if _, ok := decoded["Span"]; ok {
		t.Error("nested Span struct leaked into the wire format")
	}
}

func TestWireFormatOmitsEmptyHint(t *testing.T) {
	raw, err := json.Marshal(Diagnostic{Severity: Error, Message: "x"})
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(raw), "hint") {
		t.Errorf("empty hint should be omitted: %s", raw)
	}
}

func TestFormatWithContextCaret(t *testing.T) {
	src := "cube(1);\nsphere(;\n"
	d := Diagnostic{Severity: Error, Message: "unexpected token", Span: Span{Start: 16, End: 17}}
	out := d.FormatWithContext(src)
	if !strings.Contains(out, "line 2:8") {
		t.Errorf("wrong position line: %q", out)
	}
	if !strings.Contains(out, "sphere(;") {
		t.Errorf("source line missing: %q", out)
	}
	if !strings.Contains(out, "^") {
		t.Errorf("caret missing: %q", out)
	}
}

func TestSeverityStrings(t *testing.T) {
	if Error.String() != "error" || Warning.String() != "warning" || Info.String() != "info" {
		t.Error("severity strings must match the wire format")
	}
}
