package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
	"github.com/spf13/cobra"

	"github.com/wudi/ocrkit/builder"
	"github.com/wudi/ocrkit/document"
	"github.com/wudi/ocrkit/export"
	"github.com/wudi/ocrkit/geometry"
	"github.com/wudi/ocrkit/ocr"
	"github.com/wudi/ocrkit/predictor"
	"github.com/wudi/ocrkit/render"
	"github.com/wudi/ocrkit/scripting"

	// Default whole-page engine for --engine tesseract.
	_ "github.com/wudi/ocrkit/ocr/tesseract"
)

func newRunCommand(cfg *settings) *cobra.Command {
	var engine string
	var overlayDir string

	cmd := &cobra.Command{
		Use:   "run <inputs...>",
		Short: "Run the full OCR pipeline over images, PDFs or URLs",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOCR(cmd, cfg, engine, overlayDir, args)
		},
	}
	cmd.Flags().StringVarP(&cfg.Format, "format", "f", "text", "Output format: text, json, hocr, markdown, html")
	cmd.Flags().StringVar(&cfg.Script, "script", "", "JavaScript post-processing hook file")
	cmd.Flags().StringVarP(&cfg.Output, "output", "o", "", "Output file (default stdout)")
	cmd.Flags().StringVar(&engine, "engine", "neural", "OCR engine: neural or tesseract")
	cmd.Flags().StringVar(&overlayDir, "overlay", "", "Directory to write per-page box overlay images")
	return cmd
}

func runOCR(cmd *cobra.Command, cfg *settings, engine, overlayDir string, inputs []string) error {
	ctx := cmd.Context()
	logger := cfg.logger()

	doc, err := loadInputs(ctx, inputs, cfg.DPI)
	if err != nil {
		return err
	}

	var result builder.Document
	switch engine {
	case "neural":
		pipeline, err := predictor.OCR(ctx, cfg.DetArch, cfg.RecoArch,
			predictor.WithLogger(logger),
			predictor.WithBatchSize(cfg.BatchSize),
			predictor.WithConcurrency(cfg.Concurrency),
		)
		if err != nil {
			return err
		}
		defer pipeline.Close()
		if result, err = pipeline.Predict(ctx, doc); err != nil {
			return err
		}
	case "tesseract":
		results, err := ocr.DefaultRecognizeDocument(ctx, doc)
		if err != nil {
			return err
		}
		result = resultsToDocument(results, doc)
	default:
		return fmt.Errorf("unknown engine %q (want neural or tesseract)", engine)
	}

	if cfg.Script != "" {
		script, err := os.ReadFile(cfg.Script)
		if err != nil {
			return fmt.Errorf("read script: %w", err)
		}
		if err := scripting.Run(ctx, &result, string(script), logger); err != nil {
			return err
		}
	}

	if overlayDir != "" {
		if err := writeOverlays(overlayDir, doc, result); err != nil {
			return err
		}
	}

	var data []byte
	switch cfg.Format {
	case "text":
		data = []byte(result.Text() + "\n")
	case "json":
		data, err = result.ExportJSON()
	case "hocr":
		data, err = export.HOCR(result)
	case "markdown":
		data = []byte(export.Markdown(result))
	case "html":
		data, err = export.HTML(result)
	default:
		return fmt.Errorf("unknown format %q (want text, json, hocr, markdown or html)", cfg.Format)
	}
	if err != nil {
		return err
	}
	return writeOutput(cfg.Output, data)
}

// resultsToDocument lifts whole-page engine results (pixel regions) into the
// relative-geometry hierarchy the exporters consume.
func resultsToDocument(results []ocr.Result, doc document.Document) builder.Document {
	out := builder.Document{Pages: make([]builder.Page, len(results))}
	for i, res := range results {
		shape := doc.Pages[i].Shape()
		page := builder.Page{Index: doc.Pages[i].Index, Shape: shape}
		for _, block := range res.Blocks {
			b := builder.Block{Geometry: regionToBBox(block.Bounds, shape)}
			for _, line := range block.Lines {
				l := builder.Line{Geometry: regionToBBox(line.Bounds, shape)}
				for _, word := range line.Words {
					l.Words = append(l.Words, builder.Word{
						Value:      word.Text,
						Confidence: word.Confidence,
						Geometry:   regionToBBox(word.Bounds, shape),
					})
				}
				if len(l.Words) > 0 {
					b.Lines = append(b.Lines, l)
				}
			}
			if len(b.Lines) > 0 {
				page.Blocks = append(page.Blocks, b)
			}
		}
		out.Pages[i] = page
	}
	return out
}

func regionToBBox(r ocr.Region, shape geometry.Shape) geometry.BBox {
	return geometry.Relative(
		int(r.X), int(r.Y),
		int(r.X+r.Width), int(r.Y+r.Height),
		shape,
	)
}

func writeOverlays(dir string, doc document.Document, result builder.Document) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create overlay dir: %w", err)
	}
	for i, page := range result.Pages {
		img := render.Overlay(doc.Pages[i].Image, page)
		path := filepath.Join(dir, fmt.Sprintf("page-%03d.png", page.Index))
		if err := imaging.Save(img, path); err != nil {
			return fmt.Errorf("save overlay %s: %w", path, err)
		}
	}
	return nil
}
