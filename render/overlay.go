// Package render draws OCR output: box overlays on source pages and synthetic
// re-renderings of recognized text.
package render

import (
	"image"
	"image/color"
	"image/draw"

	"github.com/wudi/ocrkit/builder"
	"github.com/wudi/ocrkit/geometry"
)

// DefaultBoxColor is the stroke used for detection overlays.
var DefaultBoxColor = color.RGBA{R: 0x1e, G: 0xb0, B: 0x4c, A: 0xff}

const strokeWidth = 2

// DrawBoxes returns a copy of img with the given relative boxes stroked on it.
func DrawBoxes(img image.Image, boxes []geometry.BBox, col color.Color) *image.RGBA {
	out := image.NewRGBA(img.Bounds())
	draw.Draw(out, out.Bounds(), img, img.Bounds().Min, draw.Src)

	shape := geometry.Shape{
		Height: img.Bounds().Dy(),
		Width:  img.Bounds().Dx(),
	}
	for _, b := range boxes {
		x0, y0, x1, y1 := b.Absolute(shape)
		strokeRect(out, image.Rect(x0, y0, x1, y1).Add(img.Bounds().Min), col)
	}
	return out
}

// Overlay draws every word box of an assembled page onto its source image.
func Overlay(img image.Image, page builder.Page) *image.RGBA {
	var boxes []geometry.BBox
	for _, block := range page.Blocks {
		for _, line := range block.Lines {
			for _, word := range line.Words {
				boxes = append(boxes, word.Geometry)
			}
		}
	}
	return DrawBoxes(img, boxes, DefaultBoxColor)
}

func strokeRect(img *image.RGBA, r image.Rectangle, col color.Color) {
	r = r.Intersect(img.Bounds())
	if r.Empty() {
		return
	}
	for w := 0; w < strokeWidth; w++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			setIn(img, x, r.Min.Y+w, col)
			setIn(img, x, r.Max.Y-1-w, col)
		}
		for y := r.Min.Y; y < r.Max.Y; y++ {
			setIn(img, r.Min.X+w, y, col)
			setIn(img, r.Max.X-1-w, y, col)
		}
	}
}

func setIn(img *image.RGBA, x, y int, col color.Color) {
	if image.Pt(x, y).In(img.Bounds()) {
		img.Set(x, y, col)
	}
}
