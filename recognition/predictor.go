package recognition

import (
	"context"
	"fmt"
	"image"
	"time"

	"github.com/disintegration/imaging"

	"github.com/wudi/ocrkit/backend"
	"github.com/wudi/ocrkit/observability"
	"github.com/wudi/ocrkit/transform"
	"github.com/wudi/ocrkit/vocab"
)

// Word is one transcribed crop.
type Word struct {
	Value      string
	Confidence float64
}

// splitOverlap is the fraction of a chunk shared with its neighbor when a
// wide crop is split.
const splitOverlap = 0.125

// maxMergeOverlap bounds the character overlap trimmed when re-joining the
// decoded pieces of a split crop.
const maxMergeOverlap = 3

// Predictor runs the recognition stage over word crops.
type Predictor struct {
	cfg    Config
	voc    []rune
	pre    *transform.PreProcessor
	model  backend.Model
	logger observability.Logger
}

// NewPredictor wires a preprocessor and a loaded model under the given
// architecture configuration.
func NewPredictor(cfg Config, pre *transform.PreProcessor, model backend.Model, logger observability.Logger) (*Predictor, error) {
	voc, err := vocab.Get(cfg.Vocab)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = observability.NopLogger{}
	}
	return &Predictor{cfg: cfg, voc: voc, pre: pre, model: model, logger: logger}, nil
}

// Config returns the architecture configuration.
func (p *Predictor) Config() Config { return p.cfg }

// Close releases the underlying model.
func (p *Predictor) Close() error { return p.model.Close() }

// Predict transcribes the crops in order. Wide crops are split with overlap,
// decoded piecewise and merged back.
func (p *Predictor) Predict(ctx context.Context, crops []image.Image) ([]Word, error) {
	start := time.Now()

	// Expand wide crops into chunks, remembering which crop each chunk
	// belongs to.
	var chunks []image.Image
	owner := make([]int, 0, len(crops))
	for i, crop := range crops {
		if crop == nil {
			return nil, fmt.Errorf("crop %d is nil", i)
		}
		for _, c := range p.splitWide(crop) {
			chunks = append(chunks, c)
			owner = append(owner, i)
		}
	}

	batches, err := p.pre.Process(chunks)
	if err != nil {
		return nil, fmt.Errorf("preprocess crops: %w", err)
	}

	pieces := make([][]string, len(crops))
	confidence := make([]float64, len(crops))
	counted := make([]int, len(crops))

	chunkIdx := 0
	for _, batch := range batches {
		output, err := p.model.Run(ctx, batch)
		if err != nil {
			return nil, fmt.Errorf("run recognition model: %w", err)
		}
		samples, err := splitLogits(output)
		if err != nil {
			return nil, err
		}
		if len(samples) != batch.Shape[0] {
			return nil, fmt.Errorf("recognition output batch %d does not match input batch %d", len(samples), batch.Shape[0])
		}
		for _, sample := range samples {
			var value string
			var conf float64
			switch p.cfg.Decode {
			case DecodeSequence:
				value, conf = SequenceGreedy(sample, p.voc)
			default:
				value, conf = CTCGreedy(sample, p.voc)
			}
			o := owner[chunkIdx]
			pieces[o] = append(pieces[o], value)
			confidence[o] += conf
			counted[o]++
			chunkIdx++
		}
	}

	words := make([]Word, len(crops))
	for i := range words {
		words[i].Value = mergeSplits(pieces[i], maxMergeOverlap)
		if counted[i] > 0 {
			words[i].Confidence = confidence[i] / float64(counted[i])
		}
	}

	p.logger.Debug("recognition complete",
		observability.Int(observability.MetricWordCount, len(words)),
		observability.Int64(observability.MetricRecognizeTime, time.Since(start).Milliseconds()),
	)
	return words, nil
}

// splitWide cuts crops whose aspect ratio exceeds twice the model input ratio
// into overlapping chunks close to that ratio.
func (p *Predictor) splitWide(crop image.Image) []image.Image {
	b := crop.Bounds()
	w, h := b.Dx(), b.Dy()
	if h == 0 {
		return []image.Image{crop}
	}
	target := float64(p.cfg.InputWidth) / float64(p.cfg.InputHeight)
	ratio := float64(w) / float64(h)
	if ratio <= 2*target {
		return []image.Image{crop}
	}

	chunkW := int(target * float64(h))
	if chunkW <= 0 {
		return []image.Image{crop}
	}
	step := int(float64(chunkW) * (1 - splitOverlap))
	if step <= 0 {
		step = chunkW
	}
	var out []image.Image
	for x := 0; x < w; x += step {
		end := x + chunkW
		if end > w {
			end = w
		}
		out = append(out, imaging.Crop(crop, image.Rect(b.Min.X+x, b.Min.Y, b.Min.X+end, b.Max.Y)))
		if end == w {
			break
		}
	}
	return out
}

// splitLogits slices an (N, T, C) output tensor into per-sample logits.
func splitLogits(t backend.Tensor) ([]Logits, error) {
	if t.Rank() != 3 {
		return nil, fmt.Errorf("unexpected recognition output shape %v, want (N, T, C)", t.Shape)
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	n, steps, classes := t.Shape[0], t.Shape[1], t.Shape[2]
	out := make([]Logits, n)
	for i := 0; i < n; i++ {
		out[i] = Logits{
			Data:    t.Data[i*steps*classes : (i+1)*steps*classes],
			Steps:   steps,
			Classes: classes,
		}
	}
	return out, nil
}
