// Package predictor exposes the model zoo: factory functions that assemble
// detection, recognition and end-to-end OCR predictors from architecture
// names, fetching model artifacts and selecting an inference runtime.
package predictor

import (
	"context"
	"fmt"

	"github.com/wudi/ocrkit/backend"
	"github.com/wudi/ocrkit/builder"
	"github.com/wudi/ocrkit/detection"
	"github.com/wudi/ocrkit/observability"
	"github.com/wudi/ocrkit/recognition"
	"github.com/wudi/ocrkit/transform"
	"github.com/wudi/ocrkit/weights"
)

// Default architectures used when the caller does not name one.
const (
	DefaultDetection   = "db_resnet50"
	DefaultRecognition = "crnn_vgg16_bn"
)

const defaultBatchSize = 32

type config struct {
	logger      observability.Logger
	fetcher     *weights.Fetcher
	runtime     backend.Runtime
	detModel    backend.Model
	recoModel   backend.Model
	batchSize   int
	concurrency int
	builderOpts []builder.Option
}

// Option customizes zoo factories.
type Option func(*config)

// WithLogger injects a logger into the assembled predictors.
func WithLogger(l observability.Logger) Option {
	return func(c *config) { c.logger = l }
}

// WithFetcher overrides the artifact fetcher, e.g. to point at a custom cache.
func WithFetcher(f *weights.Fetcher) Option {
	return func(c *config) { c.fetcher = f }
}

// WithRuntime pins an inference runtime instead of resolving one from the
// environment.
func WithRuntime(rt backend.Runtime) Option {
	return func(c *config) { c.runtime = rt }
}

// WithDetectionModel injects an already-loaded detection model, skipping
// artifact download.
func WithDetectionModel(m backend.Model) Option {
	return func(c *config) { c.detModel = m }
}

// WithRecognitionModel injects an already-loaded recognition model.
func WithRecognitionModel(m backend.Model) Option {
	return func(c *config) { c.recoModel = m }
}

// WithBatchSize sets the preprocessing batch size for both stages.
func WithBatchSize(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.batchSize = n
		}
	}
}

// WithConcurrency bounds the number of pages processed in parallel by the OCR
// pipeline.
func WithConcurrency(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.concurrency = n
		}
	}
}

// WithBuilderOptions forwards options to the document builder used by the OCR
// pipeline.
func WithBuilderOptions(opts ...builder.Option) Option {
	return func(c *config) { c.builderOpts = append(c.builderOpts, opts...) }
}

func newConfig(opts []Option) *config {
	c := &config{
		logger:      observability.NopLogger{},
		batchSize:   defaultBatchSize,
		concurrency: 2,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Detection builds a detection predictor for the named architecture. An empty
// name selects DefaultDetection.
func Detection(ctx context.Context, arch string, opts ...Option) (*detection.Predictor, error) {
	c := newConfig(opts)
	if arch == "" {
		arch = DefaultDetection
	}
	cfg, err := detection.Arch(arch)
	if err != nil {
		return nil, err
	}
	model := c.detModel
	if model == nil {
		if model, err = c.loadModel(ctx, arch); err != nil {
			return nil, err
		}
	}
	pre, err := transform.NewPreProcessor(cfg.InputHeight, cfg.InputWidth, c.batchSize,
		transform.WithMean(cfg.Mean[0], cfg.Mean[1], cfg.Mean[2]),
		transform.WithStd(cfg.Std[0], cfg.Std[1], cfg.Std[2]),
	)
	if err != nil {
		return nil, err
	}
	return detection.NewPredictor(cfg, pre, model, c.logger), nil
}

// Recognition builds a recognition predictor for the named architecture. An
// empty name selects DefaultRecognition.
func Recognition(ctx context.Context, arch string, opts ...Option) (*recognition.Predictor, error) {
	c := newConfig(opts)
	if arch == "" {
		arch = DefaultRecognition
	}
	cfg, err := recognition.Arch(arch)
	if err != nil {
		return nil, err
	}
	model := c.recoModel
	if model == nil {
		if model, err = c.loadModel(ctx, arch); err != nil {
			return nil, err
		}
	}
	pre, err := transform.NewPreProcessor(cfg.InputHeight, cfg.InputWidth, c.batchSize,
		transform.WithMean(cfg.Mean[0], cfg.Mean[1], cfg.Mean[2]),
		transform.WithStd(cfg.Std[0], cfg.Std[1], cfg.Std[2]),
		transform.WithAspectPreserving(),
	)
	if err != nil {
		return nil, err
	}
	return recognition.NewPredictor(cfg, pre, model, c.logger)
}

// OCR composes a detection and a recognition predictor into the end-to-end
// pipeline. Empty names select the defaults.
func OCR(ctx context.Context, detArch, recoArch string, opts ...Option) (*Pipeline, error) {
	c := newConfig(opts)
	det, err := Detection(ctx, detArch, opts...)
	if err != nil {
		return nil, fmt.Errorf("build detection stage: %w", err)
	}
	reco, err := Recognition(ctx, recoArch, opts...)
	if err != nil {
		det.Close()
		return nil, fmt.Errorf("build recognition stage: %w", err)
	}
	return &Pipeline{
		det:         det,
		reco:        reco,
		builder:     builder.NewDocumentBuilder(c.builderOpts...),
		logger:      c.logger,
		concurrency: c.concurrency,
	}, nil
}

func (c *config) loadModel(ctx context.Context, arch string) (backend.Model, error) {
	rt := c.runtime
	if rt == nil {
		var err error
		if rt, err = backend.Resolve(); err != nil {
			return nil, err
		}
	}
	fetcher := c.fetcher
	if fetcher == nil {
		fetcher = &weights.Fetcher{}
	}
	path, err := fetcher.Fetch(ctx, arch, rt.Ext())
	if err != nil {
		return nil, fmt.Errorf("fetch %s weights: %w", arch, err)
	}
	model, err := rt.Load(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("load %s with %s: %w", arch, rt.Name(), err)
	}
	return model, nil
}
