// Package document loads pages for the OCR pipeline. Sources are image files
// (PNG, JPEG, TIFF, BMP, WebP), PDFs rasterized through MuPDF, remote files
// fetched over HTTP, and live web pages rendered by a headless browser.
package document

import (
	"bytes"
	"fmt"
	"image"
	"io"
	"os"

	// Decoders registered for image.Decode.
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/wudi/ocrkit/geometry"
)

// Page is a single decoded page.
type Page struct {
	// Index is the zero-based position within the source document.
	Index int
	// Image is the decoded raster.
	Image image.Image
	// Source names where the page came from (file path or URL).
	Source string
}

// Shape returns the pixel dimensions of the page.
func (p Page) Shape() geometry.Shape {
	b := p.Image.Bounds()
	return geometry.Shape{Height: b.Dy(), Width: b.Dx()}
}

// Document is an ordered list of pages.
type Document struct {
	Pages []Page
}

// Images returns the page rasters in order.
func (d Document) Images() []image.Image {
	out := make([]image.Image, len(d.Pages))
	for i, p := range d.Pages {
		out[i] = p.Image
	}
	return out
}

// FromImages decodes one page per image file path.
func FromImages(paths ...string) (Document, error) {
	doc := Document{Pages: make([]Page, 0, len(paths))}
	for i, path := range paths {
		fh, err := os.Open(path)
		if err != nil {
			return Document{}, fmt.Errorf("open %s: %w", path, err)
		}
		img, _, err := image.Decode(fh)
		fh.Close()
		if err != nil {
			return Document{}, fmt.Errorf("decode %s: %w", path, err)
		}
		doc.Pages = append(doc.Pages, Page{Index: i, Image: img, Source: path})
	}
	return doc, nil
}

// FromReader decodes a single page from r.
func FromReader(r io.Reader, source string) (Document, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return Document{}, fmt.Errorf("decode %s: %w", source, err)
	}
	return Document{Pages: []Page{{Index: 0, Image: img, Source: source}}}, nil
}

// FromBytes decodes a single page from an encoded image payload.
func FromBytes(data []byte, source string) (Document, error) {
	return FromReader(bytes.NewReader(data), source)
}
