package export

import (
	"math"
	"testing"

	"github.com/oscadgo/compiler/geomir"
	"github.com/oscadgo/compiler/kernel"
)

func TestFromResultCube(t *testing.T) {
	result, err := kernel.Build(&geomir.Cube{Size: [3]float64{10, 10, 10}}, kernel.DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	buf := FromResult(result)
	if len(buf.Vertices) != 8*3 {
		t.Errorf("got %d vertex floats, want %d", len(buf.Vertices), 8*3)
	}
	if len(buf.Indices) != 12*3 {
		t.Errorf("got %d indices, want %d", len(buf.Indices), 12*3)
	}
	if len(buf.Normals) != len(buf.Vertices) {
		t.Errorf("got %d normal floats, want %d (one per vertex)", len(buf.Normals), len(buf.Vertices))
	}
	for i := 0; i < len(buf.Normals); i += 3 {
		l := math.Sqrt(float64(buf.Normals[i])*float64(buf.Normals[i]) +
			float64(buf.Normals[i+1])*float64(buf.Normals[i+1]) +
			float64(buf.Normals[i+2])*float64(buf.Normals[i+2]))
		if math.Abs(l-1) > 1e-4 {
			t.Errorf("normal %d has length %v, want 1", i/3, l)
		}
	}
}

func TestFromResultCarriesColor(t *testing.T) {
	node := &geomir.Color{
		RGBA:  [4]float64{1, 0, 0, 1},
		Child: &geomir.Cube{Size: [3]float64{4, 4, 4}},
	}
	result, err := kernel.Build(node, kernel.DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	buf := FromResult(result)
	if len(buf.Colors) != 8*4 {
		t.Fatalf("got %d color floats, want %d", len(buf.Colors), 8*4)
	}
	if buf.Colors[0] != 1 || buf.Colors[1] != 0 {
		t.Errorf("got first color %v, want red", buf.Colors[:4])
	}
}

func TestFromResultFlat2DShape(t *testing.T) {
	result, err := kernel.Build(&geomir.Square{Size: [2]float64{10, 10}}, kernel.DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	buf := FromResult(result)
	if len(buf.Vertices) == 0 {
		t.Fatal("expected a flattened 2D mesh")
	}
	for i := 2; i < len(buf.Vertices); i += 3 {
		if buf.Vertices[i] != 0 {
			t.Errorf("flat 2D export should have Z=0, got %v", buf.Vertices[i])
		}
	}
}

func TestFromResultEmpty(t *testing.T) {
	buf := FromResult(kernel.EmptyMesh())
	if len(buf.Vertices) != 0 || len(buf.Indices) != 0 {
		t.Errorf("expected empty buffers, got %+v", buf)
	}
}
