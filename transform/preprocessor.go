// Package transform prepares page images for inference: resizing,
// normalization and batching into backend tensors.
package transform

import (
	"fmt"
	"image"

	"github.com/disintegration/imaging"

	"github.com/wudi/ocrkit/backend"
)

// Option configures a PreProcessor.
type Option func(*PreProcessor)

// WithMean sets the per-channel normalization mean.
func WithMean(r, g, b float32) Option {
	return func(p *PreProcessor) { p.mean = [3]float32{r, g, b} }
}

// WithStd sets the per-channel normalization standard deviation.
func WithStd(r, g, b float32) Option {
	return func(p *PreProcessor) { p.std = [3]float32{r, g, b} }
}

// WithAspectPreserving resizes with the aspect ratio kept and pads the short
// side symmetrically instead of stretching.
func WithAspectPreserving() Option {
	return func(p *PreProcessor) { p.preserveAspect = true }
}

// PreProcessor turns decoded pages into normalized NHWC float32 batches.
type PreProcessor struct {
	height    int
	width     int
	batchSize int

	mean           [3]float32
	std            [3]float32
	preserveAspect bool
}

// NewPreProcessor builds a preprocessor emitting batchSize x height x width x 3
// tensors. Mean and std default to identity normalization.
func NewPreProcessor(height, width, batchSize int, opts ...Option) (*PreProcessor, error) {
	if height <= 0 || width <= 0 {
		return nil, fmt.Errorf("invalid output size %dx%d", height, width)
	}
	if batchSize <= 0 {
		return nil, fmt.Errorf("invalid batch size %d", batchSize)
	}
	p := &PreProcessor{
		height:    height,
		width:     width,
		batchSize: batchSize,
		mean:      [3]float32{0, 0, 0},
		std:       [3]float32{1, 1, 1},
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.std[0] == 0 || p.std[1] == 0 || p.std[2] == 0 {
		return nil, fmt.Errorf("std must be non-zero")
	}
	return p, nil
}

// OutputSize returns the height and width every sample is resized to.
func (p *PreProcessor) OutputSize() (height, width int) { return p.height, p.width }

// BatchSize returns the configured batch size.
func (p *PreProcessor) BatchSize() int { return p.batchSize }

// Process validates, resizes, normalizes and batches the pages. The last
// batch may hold fewer samples than the batch size.
func (p *PreProcessor) Process(pages []image.Image) ([]backend.Tensor, error) {
	if len(pages) == 0 {
		return nil, nil
	}
	for i, page := range pages {
		if page == nil {
			return nil, fmt.Errorf("page %d is nil", i)
		}
		b := page.Bounds()
		if b.Dx() <= 0 || b.Dy() <= 0 {
			return nil, fmt.Errorf("page %d has empty bounds %v", i, b)
		}
	}

	batches := make([]backend.Tensor, 0, (len(pages)+p.batchSize-1)/p.batchSize)
	for start := 0; start < len(pages); start += p.batchSize {
		end := start + p.batchSize
		if end > len(pages) {
			end = len(pages)
		}
		n := end - start
		t := backend.NewTensor(n, p.height, p.width, 3)
		for i, page := range pages[start:end] {
			p.fillSample(t.Data[i*p.height*p.width*3:(i+1)*p.height*p.width*3], page)
		}
		batches = append(batches, t)
	}
	return batches, nil
}

// Sample resizes and normalizes a single image into a 1 x H x W x 3 tensor.
func (p *PreProcessor) Sample(img image.Image) (backend.Tensor, error) {
	out, err := p.Process([]image.Image{img})
	if err != nil {
		return backend.Tensor{}, err
	}
	return out[0], nil
}

func (p *PreProcessor) fillSample(dst []float32, img image.Image) {
	var resized *image.NRGBA
	if p.preserveAspect {
		fitted := imaging.Fit(img, p.width, p.height, imaging.Linear)
		canvas := imaging.New(p.width, p.height, image.Black)
		offX := (p.width - fitted.Bounds().Dx()) / 2
		offY := (p.height - fitted.Bounds().Dy()) / 2
		resized = imaging.Paste(canvas, fitted, image.Pt(offX, offY))
	} else {
		resized = imaging.Resize(img, p.width, p.height, imaging.Linear)
	}

	i := 0
	for y := 0; y < p.height; y++ {
		row := resized.Pix[y*resized.Stride:]
		for x := 0; x < p.width; x++ {
			px := row[x*4:]
			dst[i] = (float32(px[0])/255 - p.mean[0]) / p.std[0]
			dst[i+1] = (float32(px[1])/255 - p.mean[1]) / p.std[1]
			dst[i+2] = (float32(px[2])/255 - p.mean[2]) / p.std[2]
			i += 3
		}
	}
}
