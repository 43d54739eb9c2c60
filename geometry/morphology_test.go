package geometry

import "testing"

func centerDot() Heatmap {
	h := NewHeatmap(3, 3)
	h.Set(1, 1, 1)
	return h
}

func TestErode(t *testing.T) {
	out := Erode(centerDot(), 3)
	for i, v := range out.Data {
		if v != 0 {
			t.Fatalf("Erode() index %d = %v, want 0", i, v)
		}
	}
}

func TestDilate(t *testing.T) {
	out := Dilate(centerDot(), 3)
	for i, v := range out.Data {
		if v != 1 {
			t.Fatalf("Dilate() index %d = %v, want 1", i, v)
		}
	}
}

func TestMorphKernelOne(t *testing.T) {
	in := centerDot()
	out := Erode(in, 1)
	for i := range in.Data {
		if out.Data[i] != in.Data[i] {
			t.Fatalf("Erode(k=1) should be identity")
		}
	}
}

func TestThreshold(t *testing.T) {
	h := NewHeatmap(2, 2)
	h.Data = []float32{0.1, 0.4, 0.31, 0.9}
	out := Threshold(h, 0.3)
	want := []float32{0, 1, 1, 1}
	for i := range want {
		if out.Data[i] != want[i] {
			t.Fatalf("Threshold() = %v, want %v", out.Data, want)
		}
	}
}
