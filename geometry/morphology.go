package geometry

// Heatmap is a single-channel float32 map laid out row-major, typically a
// detection probability map.
type Heatmap struct {
	Data   []float32
	Height int
	Width  int
}

// NewHeatmap allocates a zeroed heatmap.
func NewHeatmap(height, width int) Heatmap {
	return Heatmap{Data: make([]float32, height*width), Height: height, Width: width}
}

// At returns the value at (y, x); out-of-range reads yield 0.
func (h Heatmap) At(y, x int) float32 {
	if y < 0 || y >= h.Height || x < 0 || x >= h.Width {
		return 0
	}
	return h.Data[y*h.Width+x]
}

// Set writes the value at (y, x); out-of-range writes are ignored.
func (h Heatmap) Set(y, x int, v float32) {
	if y < 0 || y >= h.Height || x < 0 || x >= h.Width {
		return
	}
	h.Data[y*h.Width+x] = v
}

// Erode applies min-pooling with a square kernel of the given size. Pixels
// beyond the map border are treated as 0, so a lone active pixel vanishes for
// any kernel larger than 1.
func Erode(h Heatmap, kernel int) Heatmap {
	return morph(h, kernel, false)
}

// Dilate applies max-pooling with a square kernel of the given size.
func Dilate(h Heatmap, kernel int) Heatmap {
	return morph(h, kernel, true)
}

func morph(h Heatmap, kernel int, dilate bool) Heatmap {
	if kernel <= 1 {
		out := NewHeatmap(h.Height, h.Width)
		copy(out.Data, h.Data)
		return out
	}
	r := kernel / 2
	out := NewHeatmap(h.Height, h.Width)
	for y := 0; y < h.Height; y++ {
		for x := 0; x < h.Width; x++ {
			var acc float32
			if !dilate {
				acc = 1
			}
			for dy := -r; dy <= r; dy++ {
				for dx := -r; dx <= r; dx++ {
					v := h.At(y+dy, x+dx)
					if dilate {
						if v > acc {
							acc = v
						}
					} else {
						if v < acc {
							acc = v
						}
					}
				}
			}
			out.Set(y, x, acc)
		}
	}
	return out
}

// Threshold returns a binary mask with 1 where the map exceeds thresh.
func Threshold(h Heatmap, thresh float32) Heatmap {
	out := NewHeatmap(h.Height, h.Width)
	for i, v := range h.Data {
		if v > thresh {
			out.Data[i] = 1
		}
	}
	return out
}
