package recognition

import (
	"context"
	"image"
	"testing"

	"github.com/wudi/ocrkit/backend"
	"github.com/wudi/ocrkit/transform"
)

// ctcModel fakes a CRNN head that always reads "42" with trailing blanks.
type ctcModel struct {
	classes int
	ran     int
}

func (m *ctcModel) Run(ctx context.Context, input backend.Tensor) (backend.Tensor, error) {
	m.ran++
	n := input.Shape[0]
	steps := 4
	out := backend.NewTensor(n, steps, m.classes)
	for i := range out.Data {
		out.Data[i] = -8
	}
	emit := []int{4, 2, m.classes - 1, m.classes - 1}
	for s := 0; s < n; s++ {
		for t, cls := range emit {
			out.Data[s*steps*m.classes+t*m.classes+cls] = 8
		}
	}
	return out, nil
}

func (m *ctcModel) Close() error { return nil }

func newRecoPredictor(t *testing.T) (*Predictor, *ctcModel) {
	t.Helper()
	cfg, err := Arch("crnn_vgg16_bn")
	if err != nil {
		t.Fatalf("Arch() error = %v", err)
	}
	cfg.Vocab = "digits"
	pre, err := transform.NewPreProcessor(cfg.InputHeight, cfg.InputWidth, 8, transform.WithAspectPreserving())
	if err != nil {
		t.Fatalf("NewPreProcessor() error = %v", err)
	}
	model := &ctcModel{classes: 11}
	p, err := NewPredictor(cfg, pre, model, nil)
	if err != nil {
		t.Fatalf("NewPredictor() error = %v", err)
	}
	return p, model
}

func TestPredictorPredict(t *testing.T) {
	p, _ := newRecoPredictor(t)
	crops := []image.Image{
		image.NewRGBA(image.Rect(0, 0, 100, 32)),
		image.NewRGBA(image.Rect(0, 0, 60, 30)),
	}
	words, err := p.Predict(context.Background(), crops)
	if err != nil {
		t.Fatalf("Predict() error = %v", err)
	}
	if len(words) != 2 {
		t.Fatalf("Predict() words = %d, want 2", len(words))
	}
	for i, w := range words {
		if w.Value != "42" {
			t.Fatalf("word %d = %q, want 42", i, w.Value)
		}
		if w.Confidence <= 0.9 {
			t.Fatalf("word %d confidence = %v", i, w.Confidence)
		}
	}
}

func TestPredictorUnknownVocab(t *testing.T) {
	cfg, err := Arch("crnn_vgg16_bn")
	if err != nil {
		t.Fatalf("Arch() error = %v", err)
	}
	cfg.Vocab = "klingon"
	pre, err := transform.NewPreProcessor(32, 128, 4)
	if err != nil {
		t.Fatalf("NewPreProcessor() error = %v", err)
	}
	if _, err := NewPredictor(cfg, pre, &ctcModel{classes: 11}, nil); err == nil {
		t.Fatalf("NewPredictor() expected error for unknown vocabulary")
	}
}

func TestPredictorRejectsNilCrop(t *testing.T) {
	p, _ := newRecoPredictor(t)
	if _, err := p.Predict(context.Background(), []image.Image{nil}); err == nil {
		t.Fatalf("Predict() expected error for nil crop")
	}
}

func TestSplitWide(t *testing.T) {
	p, _ := newRecoPredictor(t)
	// Ratio 4 -> not split (target ratio is 4, threshold is 8).
	narrow := image.NewRGBA(image.Rect(0, 0, 128, 32))
	if got := p.splitWide(narrow); len(got) != 1 {
		t.Fatalf("splitWide(narrow) = %d chunks, want 1", len(got))
	}
	// Ratio 20 -> several overlapping chunks covering the crop.
	wide := image.NewRGBA(image.Rect(0, 0, 640, 32))
	chunks := p.splitWide(wide)
	if len(chunks) < 5 {
		t.Fatalf("splitWide(wide) = %d chunks, want at least 5", len(chunks))
	}
	for i, c := range chunks {
		if c.Bounds().Dy() != 32 {
			t.Fatalf("chunk %d height = %d", i, c.Bounds().Dy())
		}
	}
}

func TestPredictEmpty(t *testing.T) {
	p, model := newRecoPredictor(t)
	words, err := p.Predict(context.Background(), nil)
	if err != nil {
		t.Fatalf("Predict() error = %v", err)
	}
	if len(words) != 0 {
		t.Fatalf("Predict() = %d words", len(words))
	}
	if model.ran != 0 {
		t.Fatalf("model should not run for empty input")
	}
}
