package main

import (
	"context"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/wudi/ocrkit/document"
)

// loadInputs reads every input into a single document. PDFs are rasterized at
// the configured DPI; URLs are fetched; everything else is decoded as an
// image file.
func loadInputs(ctx context.Context, inputs []string, dpi float64) (document.Document, error) {
	var doc document.Document
	for _, in := range inputs {
		part, err := loadInput(ctx, in, dpi)
		if err != nil {
			return document.Document{}, fmt.Errorf("load %s: %w", in, err)
		}
		for _, page := range part.Pages {
			page.Index = len(doc.Pages)
			doc.Pages = append(doc.Pages, page)
		}
	}
	if len(doc.Pages) == 0 {
		return document.Document{}, fmt.Errorf("no pages loaded")
	}
	return doc, nil
}

func loadInput(ctx context.Context, in string, dpi float64) (document.Document, error) {
	switch {
	case strings.HasPrefix(in, "http://"), strings.HasPrefix(in, "https://"):
		return document.FromURL(ctx, http.DefaultClient, in)
	case strings.EqualFold(filepath.Ext(in), ".pdf"):
		return document.FromPDF(in, dpi)
	default:
		return document.FromImages(in)
	}
}
