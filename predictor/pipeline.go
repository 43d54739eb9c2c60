package predictor

import (
	"context"
	"fmt"
	"image"
	"time"

	"github.com/disintegration/imaging"
	"golang.org/x/sync/errgroup"

	"github.com/wudi/ocrkit/builder"
	"github.com/wudi/ocrkit/detection"
	"github.com/wudi/ocrkit/document"
	"github.com/wudi/ocrkit/geometry"
	"github.com/wudi/ocrkit/observability"
	"github.com/wudi/ocrkit/recognition"
)

// Pipeline is the end-to-end OCR predictor: detect boxes, crop, recognize,
// assemble. Pages are processed straight (no rotation estimation).
type Pipeline struct {
	det         *detection.Predictor
	reco        *recognition.Predictor
	builder     *builder.DocumentBuilder
	logger      observability.Logger
	concurrency int
}

// Detection returns the detection stage.
func (p *Pipeline) Detection() *detection.Predictor { return p.det }

// Recognition returns the recognition stage.
func (p *Pipeline) Recognition() *recognition.Predictor { return p.reco }

// Close releases both stage models.
func (p *Pipeline) Close() error {
	detErr := p.det.Close()
	if err := p.reco.Close(); err != nil {
		return err
	}
	return detErr
}

// Predict runs the full pipeline over the document and returns the assembled
// result hierarchy.
func (p *Pipeline) Predict(ctx context.Context, doc document.Document) (builder.Document, error) {
	start := time.Now()
	pages := doc.Images()
	if len(pages) == 0 {
		return builder.Document{}, fmt.Errorf("document has no pages")
	}

	boxes, err := p.det.Predict(ctx, pages)
	if err != nil {
		return builder.Document{}, err
	}

	shapes := make([]geometry.Shape, len(pages))
	pageWords := make([][]builder.Word, len(pages))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.concurrency)
	for i := range pages {
		g.Go(func() error {
			page := pages[i]
			shape := geometry.Shape{
				Height: page.Bounds().Dy(),
				Width:  page.Bounds().Dx(),
			}
			shapes[i] = shape

			words, err := p.recognizePage(gctx, page, shape, boxes[i])
			if err != nil {
				return fmt.Errorf("page %d: %w", i, err)
			}
			pageWords[i] = words
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return builder.Document{}, err
	}

	out, err := p.builder.Build(pageWords, shapes)
	if err != nil {
		return builder.Document{}, err
	}

	total := 0
	for _, words := range pageWords {
		total += len(words)
	}
	p.logger.Info("ocr complete",
		observability.Int(observability.MetricPageCount, len(pages)),
		observability.Int(observability.MetricWordCount, total),
		observability.Int64(observability.MetricBuildTime, time.Since(start).Milliseconds()),
	)
	return out, nil
}

func (p *Pipeline) recognizePage(ctx context.Context, page image.Image, shape geometry.Shape, boxes []detection.Box) ([]builder.Word, error) {
	if len(boxes) == 0 {
		return nil, nil
	}
	crops := make([]image.Image, len(boxes))
	for i, box := range boxes {
		crops[i] = cropBox(page, box.BBox, shape)
	}
	recognized, err := p.reco.Predict(ctx, crops)
	if err != nil {
		return nil, err
	}

	words := make([]builder.Word, 0, len(boxes))
	for i, rec := range recognized {
		if rec.Value == "" {
			continue
		}
		words = append(words, builder.Word{
			Value:      rec.Value,
			Confidence: rec.Confidence,
			Geometry:   boxes[i].BBox,
		})
	}
	return words, nil
}

func cropBox(page image.Image, box geometry.BBox, shape geometry.Shape) image.Image {
	x0, y0, x1, y1 := box.Absolute(shape)
	rect := image.Rect(x0, y0, x1, y1).Add(page.Bounds().Min)
	return imaging.Crop(page, rect)
}

// DetectOnly runs just the detection stage, returning per-page boxes.
func (p *Pipeline) DetectOnly(ctx context.Context, doc document.Document) ([][]detection.Box, error) {
	pages := doc.Images()
	if len(pages) == 0 {
		return nil, fmt.Errorf("document has no pages")
	}
	return p.det.Predict(ctx, pages)
}
