package ocr

import (
	"context"
	"fmt"

	"github.com/wudi/ocrkit/document"
)

var defaultEngine Engine = &noopEngine{}

// DefaultEngine returns the library's default OCR engine. Importing the
// ocr/tesseract package replaces the initial no-op engine with Tesseract.
func DefaultEngine() Engine {
	return defaultEngine
}

// SetDefaultEngine sets the library's default OCR engine.
func SetDefaultEngine(engine Engine) {
	defaultEngine = engine
}

// RecognizeDocument converts the document's pages to OCR inputs and invokes
// the provided engine. If the engine supports batch operation, it is used;
// otherwise calls are executed sequentially.
func RecognizeDocument(ctx context.Context, engine Engine, doc document.Document, opts ...InputOption) ([]Result, error) {
	inputs := make([]Input, 0, len(doc.Pages))
	for _, page := range doc.Pages {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		in, err := InputFromPage(page, opts...)
		if err != nil {
			return nil, fmt.Errorf("build input for page %d: %w", page.Index, err)
		}
		inputs = append(inputs, in)
	}
	if b, ok := engine.(BatchEngine); ok {
		return b.RecognizeBatch(ctx, inputs)
	}
	results := make([]Result, 0, len(inputs))
	for _, in := range inputs {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		res, err := engine.Recognize(ctx, in)
		if err != nil {
			return nil, fmt.Errorf("recognize %s: %w", in.ID, err)
		}
		results = append(results, res)
	}
	return results, nil
}

// DefaultRecognizeDocument runs recognition with the default engine.
func DefaultRecognizeDocument(ctx context.Context, doc document.Document, opts ...InputOption) ([]Result, error) {
	return RecognizeDocument(ctx, DefaultEngine(), doc, opts...)
}

type noopEngine struct{}

func (n noopEngine) Name() string {
	return "noop"
}

func (n noopEngine) Recognize(ctx context.Context, input Input) (Result, error) {
	return Result{InputID: input.ID}, nil
}
