package detection

import (
	"context"
	"image"
	"testing"

	"github.com/wudi/ocrkit/backend"
	"github.com/wudi/ocrkit/transform"
)

// mapModel fakes a segmentation model: it emits a fixed probability map for
// every sample in the batch.
type mapModel struct {
	height, width int
	paint         func(data []float32, w int)
}

func (m *mapModel) Run(ctx context.Context, input backend.Tensor) (backend.Tensor, error) {
	n := input.Shape[0]
	out := backend.NewTensor(n, m.height, m.width, 1)
	for i := 0; i < n; i++ {
		m.paint(out.Data[i*m.height*m.width:(i+1)*m.height*m.width], m.width)
	}
	return out, nil
}

func (m *mapModel) Close() error { return nil }

func newTestPredictor(t *testing.T, batchSize int) *Predictor {
	t.Helper()
	cfg, err := Arch("db_resnet50")
	if err != nil {
		t.Fatalf("Arch() error = %v", err)
	}
	cfg.InputHeight, cfg.InputWidth = 64, 64
	pre, err := transform.NewPreProcessor(cfg.InputHeight, cfg.InputWidth, batchSize,
		transform.WithMean(cfg.Mean[0], cfg.Mean[1], cfg.Mean[2]),
		transform.WithStd(cfg.Std[0], cfg.Std[1], cfg.Std[2]),
	)
	if err != nil {
		t.Fatalf("NewPreProcessor() error = %v", err)
	}
	model := &mapModel{height: 64, width: 64, paint: func(data []float32, w int) {
		for y := 10; y < 20; y++ {
			for x := 8; x < 40; x++ {
				data[y*w+x] = 0.9
			}
		}
	}}
	return NewPredictor(cfg, pre, model, nil)
}

func TestPredictorPredict(t *testing.T) {
	p := newTestPredictor(t, 4)
	pages := []image.Image{
		image.NewRGBA(image.Rect(0, 0, 320, 240)),
		image.NewRGBA(image.Rect(0, 0, 200, 100)),
	}
	out, err := p.Predict(context.Background(), pages)
	if err != nil {
		t.Fatalf("Predict() error = %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("Predict() pages = %d, want 2", len(out))
	}
	for i, boxes := range out {
		if len(boxes) != 1 {
			t.Fatalf("page %d boxes = %d, want 1", i, len(boxes))
		}
		if err := boxes[0].Validate(); err != nil {
			t.Fatalf("page %d box invalid: %v", i, err)
		}
	}
}

func TestPredictorRejectsNilPage(t *testing.T) {
	p := newTestPredictor(t, 2)
	if _, err := p.Predict(context.Background(), []image.Image{nil}); err == nil {
		t.Fatalf("Predict() expected error for nil page")
	}
}

func TestPredictorSigmoidForLogitHeads(t *testing.T) {
	cfg, err := Arch("linknet_resnet18")
	if err != nil {
		t.Fatalf("Arch() error = %v", err)
	}
	cfg.InputHeight, cfg.InputWidth = 32, 32
	pre, err := transform.NewPreProcessor(32, 32, 1)
	if err != nil {
		t.Fatalf("NewPreProcessor() error = %v", err)
	}
	// Logit 4.0 -> sigmoid ~0.982; logit -4.0 -> ~0.018.
	model := &mapModel{height: 32, width: 32, paint: func(data []float32, w int) {
		for i := range data {
			data[i] = -4
		}
		for y := 5; y < 12; y++ {
			for x := 5; x < 25; x++ {
				data[y*w+x] = 4
			}
		}
	}}
	p := NewPredictor(cfg, pre, model, nil)
	out, err := p.Predict(context.Background(), []image.Image{image.NewRGBA(image.Rect(0, 0, 64, 64))})
	if err != nil {
		t.Fatalf("Predict() error = %v", err)
	}
	if len(out[0]) != 1 {
		t.Fatalf("boxes = %d, want 1", len(out[0]))
	}
	if out[0][0].Score < 0.9 {
		t.Fatalf("score = %v, want sigmoid-mapped high score", out[0][0].Score)
	}
}
