package geomir

import (
	"math"
	"testing"
)

func TestSegmentsExplicitFn(t *testing.T) {
	tests := []struct {
		fn     float64
		radius float64
		want   int
	}{
		{32, 10, 32},
		{3, 10, 3},
		{1, 10, 3},  // $fn > 0 clamps up to 3
		{2, 0.1, 3}, // radius irrelevant once $fn is set
	}
	for _, tt := range tests {
		res := Resolution{Fn: tt.fn, Fa: 12, Fs: 2}
		if got := res.Segments(tt.radius); got != tt.want {
			t.Errorf("Segments(fn=%v, r=%v) = %d, want %d", tt.fn, tt.radius, got, tt.want)
		}
	}
}

func TestSegmentsAngleAndSizeBounds(t *testing.T) {
	// r=10, $fa=12, $fs=2: min(360/12, 2*pi*10/2) = min(30, 31.4...) -> 30.
	res := Resolution{Fn: 0, Fa: 12, Fs: 2}
	if got := res.Segments(10); got != 30 {
		t.Errorf("Segments(r=10) = %d, want 30", got)
	}
	// A tiny radius is dominated by $fs but floors at 5 fragments.
	if got := res.Segments(0.1); got != 5 {
		t.Errorf("Segments(r=0.1) = %d, want the floor of 5", got)
	}
	// A huge radius is dominated by $fa.
	if got := res.Segments(1000); got != 30 {
		t.Errorf("Segments(r=1000) = %d, want 30 (360/$fa)", got)
	}
}

func TestTranslateComposition(t *testing.T) {
	u := Translate([3]float64{1, 2, 3})
	v := Translate([3]float64{10, 20, 30})
	composed := Compose(u, v)
	direct := Translate([3]float64{11, 22, 33})
	p := ApplyPoint(composed, [3]float64{5, 5, 5})
	q := ApplyPoint(direct, [3]float64{5, 5, 5})
	if p != q {
		t.Errorf("translate(u)·translate(v) = %v, translate(u+v) = %v", p, q)
	}
}

func TestRotateEulerOrder(t *testing.T) {
	// rotate([0,0,90]) maps +X to +Y.
	m := RotateEuler([3]float64{0, 0, 90})
	p := ApplyPoint(m, [3]float64{1, 0, 0})
	if math.Abs(p[0]) > 1e-12 || math.Abs(p[1]-1) > 1e-12 || math.Abs(p[2]) > 1e-12 {
		t.Errorf("rotate z 90 of +X = %v, want (0,1,0)", p)
	}
	// rotate([90,0,0]) maps +Y to +Z.
	m = RotateEuler([3]float64{90, 0, 0})
	p = ApplyPoint(m, [3]float64{0, 1, 0})
	if math.Abs(p[1]) > 1e-12 || math.Abs(p[2]-1) > 1e-12 {
		t.Errorf("rotate x 90 of +Y = %v, want (0,0,1)", p)
	}
}

func TestRotateAxisAngleMatchesEulerOnZ(t *testing.T) {
	a := RotateAxisAngle([3]float64{0, 0, 1}, 37)
	b := RotateEuler([3]float64{0, 0, 37})
	for r := 0; r < 4; r++ {
		for c := 0; c < 4; c++ {
			if math.Abs(a.At(r, c)-b.At(r, c)) > 1e-12 {
				t.Fatalf("axis-angle and euler disagree at (%d,%d): %v vs %v", r, c, a.At(r, c), b.At(r, c))
			}
		}
	}
}

func TestMirrorFlipsWinding(t *testing.T) {
	m := MirrorPlane([3]float64{1, 0, 0})
	if det := Determinant3(m); det >= 0 {
		t.Errorf("mirror determinant = %v, want negative (winding flip)", det)
	}
	// Mirroring twice restores orientation.
	twice := Compose(m, m)
	if det := Determinant3(twice); math.Abs(det-1) > 1e-12 {
		t.Errorf("double mirror determinant = %v, want 1", det)
	}
	p := ApplyPoint(twice, [3]float64{3, 4, 5})
	if math.Abs(p[0]-3) > 1e-12 || math.Abs(p[1]-4) > 1e-12 || math.Abs(p[2]-5) > 1e-12 {
		t.Errorf("double mirror moved the point: %v", p)
	}
}

func TestScaleDeterminant(t *testing.T) {
	m := Scale([3]float64{2, 3, 4})
	if det := Determinant3(m); math.Abs(det-24) > 1e-12 {
		t.Errorf("scale determinant = %v, want 24", det)
	}
	m = Scale([3]float64{-1, 1, 1})
	if det := Determinant3(m); det >= 0 {
		t.Errorf("negative scale determinant = %v, want negative", det)
	}
}

func TestApplyDirectionIgnoresTranslation(t *testing.T) {
	m := Translate([3]float64{100, 100, 100})
	d := ApplyDirection(m, [3]float64{0, 0, 1})
	if d != [3]float64{0, 0, 1} {
		t.Errorf("direction transformed by a pure translation changed: %v", d)
	}
}
