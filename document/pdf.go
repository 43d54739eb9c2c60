package document

import (
	"fmt"

	"github.com/gen2brain/go-fitz"
)

// DefaultDPI is the rasterization resolution for PDF pages.
const DefaultDPI = 144

// FromPDF rasterizes every page of the PDF at the given DPI (0 selects
// DefaultDPI).
func FromPDF(path string, dpi float64) (Document, error) {
	fdoc, err := fitz.New(path)
	if err != nil {
		return Document{}, fmt.Errorf("open pdf %s: %w", path, err)
	}
	defer fdoc.Close()
	return rasterize(fdoc, path, dpi)
}

// FromPDFBytes rasterizes an in-memory PDF.
func FromPDFBytes(data []byte, source string, dpi float64) (Document, error) {
	fdoc, err := fitz.NewFromMemory(data)
	if err != nil {
		return Document{}, fmt.Errorf("open pdf %s: %w", source, err)
	}
	defer fdoc.Close()
	return rasterize(fdoc, source, dpi)
}

func rasterize(fdoc *fitz.Document, source string, dpi float64) (Document, error) {
	if dpi <= 0 {
		dpi = DefaultDPI
	}
	doc := Document{Pages: make([]Page, 0, fdoc.NumPage())}
	for i := 0; i < fdoc.NumPage(); i++ {
		img, err := fdoc.ImageDPI(i, dpi)
		if err != nil {
			return Document{}, fmt.Errorf("rasterize page %d of %s: %w", i, source, err)
		}
		doc.Pages = append(doc.Pages, Page{Index: i, Image: img, Source: source})
	}
	return doc, nil
}
