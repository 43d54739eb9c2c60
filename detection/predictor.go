package detection

import (
	"context"
	"fmt"
	"image"
	"math"
	"time"

	"github.com/wudi/ocrkit/backend"
	"github.com/wudi/ocrkit/geometry"
	"github.com/wudi/ocrkit/observability"
	"github.com/wudi/ocrkit/transform"
)

// Predictor runs the detection stage: preprocess pages, execute the
// segmentation model, post-process the probability maps into boxes.
type Predictor struct {
	cfg    Config
	pre    *transform.PreProcessor
	model  backend.Model
	logger observability.Logger
}

// NewPredictor wires a preprocessor and a loaded model under the given
// architecture configuration.
func NewPredictor(cfg Config, pre *transform.PreProcessor, model backend.Model, logger observability.Logger) *Predictor {
	if logger == nil {
		logger = observability.NopLogger{}
	}
	return &Predictor{cfg: cfg, pre: pre, model: model, logger: logger}
}

// Config returns the architecture configuration.
func (p *Predictor) Config() Config { return p.cfg }

// Close releases the underlying model.
func (p *Predictor) Close() error { return p.model.Close() }

// Predict returns, for every page, the detected boxes in relative
// coordinates.
func (p *Predictor) Predict(ctx context.Context, pages []image.Image) ([][]Box, error) {
	start := time.Now()
	batches, err := p.pre.Process(pages)
	if err != nil {
		return nil, fmt.Errorf("preprocess pages: %w", err)
	}

	out := make([][]Box, 0, len(pages))
	for _, batch := range batches {
		output, err := p.model.Run(ctx, batch)
		if err != nil {
			return nil, fmt.Errorf("run detection model: %w", err)
		}
		maps, err := splitMaps(output)
		if err != nil {
			return nil, err
		}
		if len(maps) != batch.Shape[0] {
			return nil, fmt.Errorf("detection output batch %d does not match input batch %d", len(maps), batch.Shape[0])
		}
		for _, m := range maps {
			if !p.cfg.ProbOutput {
				sigmoid(m)
			}
			out = append(out, PostProcess(m, p.cfg))
		}
	}

	p.logger.Debug("detection complete",
		observability.Int(observability.MetricPageCount, len(pages)),
		observability.Int64(observability.MetricDetectTime, time.Since(start).Milliseconds()),
	)
	return out, nil
}

// splitMaps slices an (N, H, W, 1) output tensor into per-page heatmaps.
func splitMaps(t backend.Tensor) ([]geometry.Heatmap, error) {
	if t.Rank() != 4 || t.Shape[3] != 1 {
		return nil, fmt.Errorf("unexpected detection output shape %v, want (N, H, W, 1)", t.Shape)
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	n, h, w := t.Shape[0], t.Shape[1], t.Shape[2]
	maps := make([]geometry.Heatmap, n)
	for i := 0; i < n; i++ {
		maps[i] = geometry.Heatmap{
			Data:   t.Data[i*h*w : (i+1)*h*w],
			Height: h,
			Width:  w,
		}
	}
	return maps, nil
}

func sigmoid(h geometry.Heatmap) {
	for i, v := range h.Data {
		h.Data[i] = float32(1 / (1 + math.Exp(-float64(v))))
	}
}
