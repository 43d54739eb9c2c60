package transform

import (
	"image"
	"image/color"
	"math"
	"testing"
)

func solidPage(w, h int, c color.Color) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func TestNewPreProcessorValidation(t *testing.T) {
	if _, err := NewPreProcessor(0, 512, 2); err == nil {
		t.Fatalf("NewPreProcessor() expected error for zero height")
	}
	if _, err := NewPreProcessor(512, 512, 0); err == nil {
		t.Fatalf("NewPreProcessor() expected error for zero batch size")
	}
	if _, err := NewPreProcessor(512, 512, 2, WithStd(0, 1, 1)); err == nil {
		t.Fatalf("NewPreProcessor() expected error for zero std")
	}
}

func TestProcessBatching(t *testing.T) {
	p, err := NewPreProcessor(64, 64, 4)
	if err != nil {
		t.Fatalf("NewPreProcessor() error = %v", err)
	}
	pages := make([]image.Image, 10)
	for i := range pages {
		pages[i] = solidPage(100, 80, color.White)
	}
	batches, err := p.Process(pages)
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if len(batches) != 3 {
		t.Fatalf("Process() batches = %d, want 3", len(batches))
	}
	wantShapes := [][]int{{4, 64, 64, 3}, {4, 64, 64, 3}, {2, 64, 64, 3}}
	for i, b := range batches {
		for d := range wantShapes[i] {
			if b.Shape[d] != wantShapes[i][d] {
				t.Fatalf("batch %d shape = %v, want %v", i, b.Shape, wantShapes[i])
			}
		}
		if err := b.Validate(); err != nil {
			t.Fatalf("batch %d invalid: %v", i, err)
		}
	}
}

func TestProcessNormalization(t *testing.T) {
	p, err := NewPreProcessor(8, 8, 1, WithMean(0.5, 0.5, 0.5), WithStd(0.5, 0.5, 0.5))
	if err != nil {
		t.Fatalf("NewPreProcessor() error = %v", err)
	}
	out, err := p.Sample(solidPage(8, 8, color.White))
	if err != nil {
		t.Fatalf("Sample() error = %v", err)
	}
	// White pixels normalize to (1 - 0.5) / 0.5 = 1.
	for i, v := range out.Data {
		if math.Abs(float64(v)-1) > 1e-5 {
			t.Fatalf("normalized value at %d = %v, want 1", i, v)
		}
	}
}

func TestProcessRejectsNilAndEmptyPages(t *testing.T) {
	p, err := NewPreProcessor(32, 32, 1)
	if err != nil {
		t.Fatalf("NewPreProcessor() error = %v", err)
	}
	if _, err := p.Process([]image.Image{nil}); err == nil {
		t.Fatalf("Process() expected error for nil page")
	}
	empty := image.NewRGBA(image.Rect(0, 0, 0, 0))
	if _, err := p.Process([]image.Image{empty}); err == nil {
		t.Fatalf("Process() expected error for empty page")
	}
}

func TestAspectPreservingPads(t *testing.T) {
	p, err := NewPreProcessor(64, 64, 1, WithAspectPreserving())
	if err != nil {
		t.Fatalf("NewPreProcessor() error = %v", err)
	}
	// A wide white strip should land centered with black padding above/below.
	out, err := p.Sample(solidPage(128, 32, color.White))
	if err != nil {
		t.Fatalf("Sample() error = %v", err)
	}
	top := out.Data[0]       // first pixel, R channel
	mid := out.Data[32*64*3] // row 32, first pixel, R channel
	if top != 0 {
		t.Fatalf("padding pixel = %v, want 0", top)
	}
	if mid != 1 {
		t.Fatalf("content pixel = %v, want 1", mid)
	}
}
