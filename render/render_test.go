package render

import (
	"image"
	"image/color"
	"image/draw"
	"testing"

	"github.com/wudi/ocrkit/builder"
	"github.com/wudi/ocrkit/geometry"
)

func whitePage(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.White, image.Point{}, draw.Src)
	return img
}

func TestDrawBoxes(t *testing.T) {
	img := whitePage(100, 100)
	boxes := []geometry.BBox{{XMin: 0.2, YMin: 0.2, XMax: 0.6, YMax: 0.4}}
	col := color.RGBA{R: 0xff, A: 0xff}

	out := DrawBoxes(img, boxes, col)

	if got := out.RGBAAt(20, 20); got != col {
		t.Fatalf("top-left corner = %v, want stroke", got)
	}
	if got := out.RGBAAt(59, 39); got != col {
		t.Fatalf("bottom-right corner = %v, want stroke", got)
	}
	if got := out.RGBAAt(40, 30); got == col {
		t.Fatalf("interior should not be filled")
	}
	if got := img.RGBAAt(20, 20); got == col {
		t.Fatalf("source image must not be mutated")
	}
}

func TestOverlayDrawsEveryWord(t *testing.T) {
	page := builder.Page{
		Shape: geometry.Shape{Height: 100, Width: 100},
		Blocks: []builder.Block{{
			Lines: []builder.Line{{
				Words: []builder.Word{
					{Value: "a", Geometry: geometry.BBox{XMin: 0.1, YMin: 0.1, XMax: 0.3, YMax: 0.2}},
					{Value: "b", Geometry: geometry.BBox{XMin: 0.5, YMin: 0.1, XMax: 0.7, YMax: 0.2}},
				},
			}},
		}},
	}
	out := Overlay(whitePage(100, 100), page)
	if got := out.RGBAAt(10, 10); got != DefaultBoxColor {
		t.Fatalf("first word box not drawn: %v", got)
	}
	if got := out.RGBAAt(50, 10); got != DefaultBoxColor {
		t.Fatalf("second word box not drawn: %v", got)
	}
}

func TestSynthesizePageBitmapFallback(t *testing.T) {
	s, err := NewSynthesizer()
	if err != nil {
		t.Fatalf("NewSynthesizer() error = %v", err)
	}
	page := builder.Page{
		Shape: geometry.Shape{Height: 60, Width: 200},
		Blocks: []builder.Block{{
			Lines: []builder.Line{{
				Words: []builder.Word{
					{Value: "hello", Geometry: geometry.BBox{XMin: 0.05, YMin: 0.2, XMax: 0.4, YMax: 0.5}},
				},
			}},
		}},
	}
	out, err := s.Page(page)
	if err != nil {
		t.Fatalf("Page() error = %v", err)
	}
	if out.Bounds() != image.Rect(0, 0, 200, 60) {
		t.Fatalf("canvas bounds = %v", out.Bounds())
	}

	dark := 0
	for y := 0; y < 60; y++ {
		for x := 0; x < 200; x++ {
			r, g, b, _ := out.At(x, y).RGBA()
			if r < 0x8000 && g < 0x8000 && b < 0x8000 {
				dark++
			}
		}
	}
	if dark == 0 {
		t.Fatalf("no text pixels rendered")
	}
}

func TestSynthesizeRejectsDegenerateShape(t *testing.T) {
	s, err := NewSynthesizer()
	if err != nil {
		t.Fatalf("NewSynthesizer() error = %v", err)
	}
	if _, err := s.Page(builder.Page{Shape: geometry.Shape{Height: 0, Width: 10}}); err == nil {
		t.Fatalf("Page() expected error for zero-height shape")
	}
}

func TestWithFontTTFRejectsGarbage(t *testing.T) {
	if _, err := NewSynthesizer(WithFontTTF([]byte("not a font"))); err == nil {
		t.Fatalf("NewSynthesizer() expected error for invalid font data")
	}
}
