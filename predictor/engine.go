package predictor

import (
	"bytes"
	"context"
	"fmt"
	"image"

	"github.com/wudi/ocrkit/builder"
	"github.com/wudi/ocrkit/document"
	"github.com/wudi/ocrkit/geometry"
	"github.com/wudi/ocrkit/ocr"
)

// EngineAdapter exposes a Pipeline through the ocr.Engine contract so the
// neural pipeline and the Tesseract engine are interchangeable.
type EngineAdapter struct {
	pipeline *Pipeline
}

// NewEngineAdapter wraps the pipeline.
func NewEngineAdapter(p *Pipeline) *EngineAdapter {
	return &EngineAdapter{pipeline: p}
}

func (a *EngineAdapter) Name() string { return "neural" }

// Recognize decodes the input image and runs the full pipeline on it as a
// single-page document.
func (a *EngineAdapter) Recognize(ctx context.Context, in ocr.Input) (ocr.Result, error) {
	img, _, err := image.Decode(bytes.NewReader(in.Image))
	if err != nil {
		return ocr.Result{}, fmt.Errorf("decode input %s: %w", in.ID, err)
	}
	doc := document.Document{Pages: []document.Page{{Index: in.PageIndex, Image: img}}}

	out, err := a.pipeline.Predict(ctx, doc)
	if err != nil {
		return ocr.Result{}, err
	}
	if len(out.Pages) != 1 {
		return ocr.Result{}, fmt.Errorf("expected a single result page, got %d", len(out.Pages))
	}
	page := out.Pages[0]
	return ocr.Result{
		InputID:   in.ID,
		PlainText: page.Text(),
		Blocks:    toBlocks(page),
	}, nil
}

// RecognizeBatch processes the inputs sequentially; page-level parallelism
// already happens inside the pipeline.
func (a *EngineAdapter) RecognizeBatch(ctx context.Context, inputs []ocr.Input) ([]ocr.Result, error) {
	results := make([]ocr.Result, 0, len(inputs))
	for _, in := range inputs {
		res, err := a.Recognize(ctx, in)
		if err != nil {
			return nil, err
		}
		results = append(results, res)
	}
	return results, nil
}

func toBlocks(page builder.Page) []ocr.TextBlock {
	blocks := make([]ocr.TextBlock, 0, len(page.Blocks))
	for _, b := range page.Blocks {
		lines := make([]ocr.TextLine, 0, len(b.Lines))
		for _, l := range b.Lines {
			words := make([]ocr.TextWord, 0, len(l.Words))
			for _, w := range l.Words {
				words = append(words, ocr.TextWord{
					Text:       w.Value,
					Bounds:     toRegion(w.Geometry, page.Shape),
					Confidence: w.Confidence,
				})
			}
			lines = append(lines, ocr.TextLine{
				Text:       l.Value(),
				Bounds:     toRegion(l.Geometry, page.Shape),
				Words:      words,
				Confidence: meanWordConfidence(words),
			})
		}
		blocks = append(blocks, ocr.TextBlock{
			Text:       b.Value(),
			Bounds:     toRegion(b.Geometry, page.Shape),
			Lines:      lines,
			Confidence: meanLineConfidence(lines),
		})
	}
	return blocks
}

func toRegion(b geometry.BBox, shape geometry.Shape) ocr.Region {
	x0, y0, x1, y1 := b.Absolute(shape)
	return ocr.Region{
		X:      float64(x0),
		Y:      float64(y0),
		Width:  float64(x1 - x0),
		Height: float64(y1 - y0),
	}
}

func meanWordConfidence(words []ocr.TextWord) float64 {
	if len(words) == 0 {
		return 0
	}
	var sum float64
	for _, w := range words {
		sum += w.Confidence
	}
	return sum / float64(len(words))
}

func meanLineConfidence(lines []ocr.TextLine) float64 {
	if len(lines) == 0 {
		return 0
	}
	var sum float64
	for _, l := range lines {
		sum += l.Confidence
	}
	return sum / float64(len(lines))
}
