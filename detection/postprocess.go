package detection

import (
	"math"

	"github.com/wudi/ocrkit/geometry"
)

// Box is a detected text region with its confidence.
type Box struct {
	geometry.BBox
	Score float64
}

// minBoxSide drops candidates smaller than this many pixels on either side.
const minBoxSide = 2

// PostProcess converts a probability map into scored relative boxes. The map
// is binarized at cfg.BinThresh, connected components become candidate boxes,
// each box is scored by the mean probability over its component and expanded
// with the unclip ratio. Boxes failing the score or size thresholds are
// dropped. The result satisfies the detection output contract: coordinates in
// [0, 1] with min strictly below max.
func PostProcess(probMap geometry.Heatmap, cfg Config) []Box {
	mask := geometry.Threshold(probMap, cfg.BinThresh)
	comps := labelComponents(mask, probMap)

	boxes := make([]Box, 0, len(comps))
	for _, c := range comps {
		w := c.maxX - c.minX + 1
		h := c.maxY - c.minY + 1
		if w < minBoxSide || h < minBoxSide {
			continue
		}
		score := c.scoreSum / float64(c.count)
		if score < float64(cfg.BoxThresh) {
			continue
		}

		// DB unclip: offset each side by area * ratio / perimeter.
		fw, fh := float64(w), float64(h)
		offset := fw * fh * cfg.UnclipRatio / (2 * (fw + fh))

		box := geometry.Relative(
			int(math.Floor(float64(c.minX)-offset)),
			int(math.Floor(float64(c.minY)-offset)),
			int(math.Ceil(float64(c.maxX)+1+offset)),
			int(math.Ceil(float64(c.maxY)+1+offset)),
			geometry.Shape{Height: probMap.Height, Width: probMap.Width},
		)
		if box.Validate() != nil {
			continue
		}
		boxes = append(boxes, Box{BBox: box, Score: score})
	}
	return boxes
}

type component struct {
	minX, minY, maxX, maxY int
	count                  int
	scoreSum               float64
}

// labelComponents runs 4-connected flood fill over the binary mask, keeping
// per-component bounds and the probability sum for scoring.
func labelComponents(mask, prob geometry.Heatmap) []component {
	visited := make([]bool, len(mask.Data))
	var comps []component
	var stack []int

	for start, v := range mask.Data {
		if v == 0 || visited[start] {
			continue
		}
		c := component{
			minX: mask.Width, minY: mask.Height,
		}
		stack = append(stack[:0], start)
		visited[start] = true
		for len(stack) > 0 {
			idx := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			y, x := idx/mask.Width, idx%mask.Width

			c.count++
			c.scoreSum += float64(prob.Data[idx])
			if x < c.minX {
				c.minX = x
			}
			if x > c.maxX {
				c.maxX = x
			}
			if y < c.minY {
				c.minY = y
			}
			if y > c.maxY {
				c.maxY = y
			}

			for _, n := range [4]int{idx - 1, idx + 1, idx - mask.Width, idx + mask.Width} {
				if n < 0 || n >= len(mask.Data) || visited[n] || mask.Data[n] == 0 {
					continue
				}
				// Horizontal neighbors must stay on the same row.
				ny := n / mask.Width
				if (n == idx-1 || n == idx+1) && ny != y {
					continue
				}
				visited[n] = true
				stack = append(stack, n)
			}
		}
		comps = append(comps, c)
	}
	return comps
}
