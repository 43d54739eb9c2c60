package detection

import "github.com/wudi/ocrkit/geometry"

// Erode applies min-pooling with a square kernel to a probability map.
func Erode(h geometry.Heatmap, kernel int) geometry.Heatmap {
	return geometry.Erode(h, kernel)
}

// Dilate applies max-pooling with a square kernel to a probability map.
func Dilate(h geometry.Heatmap, kernel int) geometry.Heatmap {
	return geometry.Dilate(h, kernel)
}
