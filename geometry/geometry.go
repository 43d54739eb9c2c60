// Package geometry provides the relative-coordinate primitives shared by the
// OCR pipeline. Boxes produced by detection and carried through the document
// builder use coordinates normalized to [0, 1] with the origin in the
// upper-left corner of the page.
package geometry

import (
	"fmt"
	"math"
	"sort"
)

// Point is a 2D point in relative page coordinates.
type Point struct {
	X float64
	Y float64
}

// BBox is an axis-aligned box in relative coordinates.
type BBox struct {
	XMin float64
	YMin float64
	XMax float64
	YMax float64
}

// Polygon is a closed sequence of points, used for rotated text regions.
type Polygon []Point

// Shape describes pixel dimensions of a page.
type Shape struct {
	Height int
	Width  int
}

// Validate checks that the box satisfies the detection output contract:
// coordinates within [0, 1] and min strictly below max on both axes.
func (b BBox) Validate() error {
	if b.XMin < 0 || b.YMin < 0 || b.XMax > 1 || b.YMax > 1 {
		return fmt.Errorf("box coordinates out of [0, 1]: %+v", b)
	}
	if b.XMin >= b.XMax || b.YMin >= b.YMax {
		return fmt.Errorf("degenerate box: %+v", b)
	}
	return nil
}

// Clip clamps the box to the unit square.
func (b BBox) Clip() BBox {
	return BBox{
		XMin: clamp01(b.XMin),
		YMin: clamp01(b.YMin),
		XMax: clamp01(b.XMax),
		YMax: clamp01(b.YMax),
	}
}

// Width returns the relative width of the box.
func (b BBox) Width() float64 { return b.XMax - b.XMin }

// Height returns the relative height of the box.
func (b BBox) Height() float64 { return b.YMax - b.YMin }

// Area returns the relative area of the box.
func (b BBox) Area() float64 {
	if b.XMax <= b.XMin || b.YMax <= b.YMin {
		return 0
	}
	return (b.XMax - b.XMin) * (b.YMax - b.YMin)
}

// Center returns the midpoint of the box.
func (b BBox) Center() Point {
	return Point{X: (b.XMin + b.XMax) / 2, Y: (b.YMin + b.YMax) / 2}
}

// Intersect returns the overlapping region of two boxes. The zero BBox is
// returned when they do not overlap.
func (b BBox) Intersect(o BBox) BBox {
	out := BBox{
		XMin: math.Max(b.XMin, o.XMin),
		YMin: math.Max(b.YMin, o.YMin),
		XMax: math.Min(b.XMax, o.XMax),
		YMax: math.Min(b.YMax, o.YMax),
	}
	if out.XMin >= out.XMax || out.YMin >= out.YMax {
		return BBox{}
	}
	return out
}

// IoU computes intersection over union of two boxes.
func (b BBox) IoU(o BBox) float64 {
	inter := b.Intersect(o).Area()
	union := b.Area() + o.Area() - inter
	if union <= 0 {
		return 0
	}
	return inter / union
}

// Union returns the smallest box enclosing both operands.
func (b BBox) Union(o BBox) BBox {
	return BBox{
		XMin: math.Min(b.XMin, o.XMin),
		YMin: math.Min(b.YMin, o.YMin),
		XMax: math.Max(b.XMax, o.XMax),
		YMax: math.Max(b.YMax, o.YMax),
	}
}

// Enclosing resolves the smallest box containing every input box.
func Enclosing(boxes []BBox) BBox {
	if len(boxes) == 0 {
		return BBox{}
	}
	out := boxes[0]
	for _, b := range boxes[1:] {
		out = out.Union(b)
	}
	return out
}

// Absolute converts the box to pixel coordinates against the given shape.
func (b BBox) Absolute(shape Shape) (x0, y0, x1, y1 int) {
	x0 = int(math.Round(b.XMin * float64(shape.Width)))
	y0 = int(math.Round(b.YMin * float64(shape.Height)))
	x1 = int(math.Round(b.XMax * float64(shape.Width)))
	y1 = int(math.Round(b.YMax * float64(shape.Height)))
	return x0, y0, x1, y1
}

// Relative converts pixel coordinates to a relative box against the shape.
func Relative(x0, y0, x1, y1 int, shape Shape) BBox {
	if shape.Width == 0 || shape.Height == 0 {
		return BBox{}
	}
	return BBox{
		XMin: float64(x0) / float64(shape.Width),
		YMin: float64(y0) / float64(shape.Height),
		XMax: float64(x1) / float64(shape.Width),
		YMax: float64(y1) / float64(shape.Height),
	}.Clip()
}

// Expand grows the box by ratio of its own dimensions on each side, clipped to
// the unit square. Used to unclip shrunk detection regions.
func (b BBox) Expand(ratio float64) BBox {
	dx := b.Width() * ratio
	dy := b.Height() * ratio
	return BBox{
		XMin: b.XMin - dx,
		YMin: b.YMin - dy,
		XMax: b.XMax + dx,
		YMax: b.YMax + dy,
	}.Clip()
}

// BBox returns the axis-aligned bounds of the polygon.
func (p Polygon) BBox() BBox {
	if len(p) == 0 {
		return BBox{}
	}
	out := BBox{XMin: p[0].X, YMin: p[0].Y, XMax: p[0].X, YMax: p[0].Y}
	for _, pt := range p[1:] {
		out.XMin = math.Min(out.XMin, pt.X)
		out.YMin = math.Min(out.YMin, pt.Y)
		out.XMax = math.Max(out.XMax, pt.X)
		out.YMax = math.Max(out.YMax, pt.Y)
	}
	return out
}

// Rotate rotates the polygon by angle radians around the unit-square center.
func (p Polygon) Rotate(angle float64) Polygon {
	sin, cos := math.Sincos(angle)
	out := make(Polygon, len(p))
	for i, pt := range p {
		x := pt.X - 0.5
		y := pt.Y - 0.5
		out[i] = Point{
			X: 0.5 + x*cos - y*sin,
			Y: 0.5 + x*sin + y*cos,
		}
	}
	return out
}

// SortReadingOrder orders boxes top-to-bottom, then left-to-right. Boxes whose
// vertical centers fall within tol of each other count as the same band.
func SortReadingOrder(boxes []BBox, tol float64) []int {
	idx := make([]int, len(boxes))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		ba, bb := boxes[idx[a]], boxes[idx[b]]
		ca, cb := ba.Center(), bb.Center()
		if math.Abs(ca.Y-cb.Y) > tol {
			return ca.Y < cb.Y
		}
		return ca.X < cb.X
	})
	return idx
}

// MedianHeight returns the median box height, or 0 for an empty slice.
func MedianHeight(boxes []BBox) float64 {
	if len(boxes) == 0 {
		return 0
	}
	hs := make([]float64, len(boxes))
	for i, b := range boxes {
		hs[i] = b.Height()
	}
	sort.Float64s(hs)
	mid := len(hs) / 2
	if len(hs)%2 == 0 {
		return (hs[mid-1] + hs[mid]) / 2
	}
	return hs[mid]
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
