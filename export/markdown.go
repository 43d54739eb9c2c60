package export

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/wudi/ocrkit/builder"
)

// Markdown renders the document as a per-page report: a heading per page, a
// paragraph per block and a summary table of word counts and confidences.
func Markdown(doc builder.Document) string {
	var sb strings.Builder
	sb.WriteString("# OCR Report\n\n")

	sb.WriteString("| Page | Words | Mean confidence |\n")
	sb.WriteString("| --- | --- | --- |\n")
	for _, page := range doc.Pages {
		sb.WriteString(fmt.Sprintf("| %d | %d | %.2f |\n", page.Index+1, page.WordCount(), meanConfidence(page)))
	}
	sb.WriteString("\n")

	for _, page := range doc.Pages {
		sb.WriteString(fmt.Sprintf("## Page %d\n\n", page.Index+1))
		for _, block := range page.Blocks {
			text := block.Value()
			if text == "" {
				continue
			}
			// Keep intra-block line breaks as hard breaks.
			sb.WriteString(strings.ReplaceAll(text, "\n", "\\\n"))
			sb.WriteString("\n\n")
		}
	}
	return sb.String()
}

// HTML renders the markdown report to HTML.
func HTML(doc builder.Document) ([]byte, error) {
	md := goldmark.New(goldmark.WithExtensions(extension.Table))
	var buf bytes.Buffer
	if err := md.Convert([]byte(Markdown(doc)), &buf); err != nil {
		return nil, fmt.Errorf("render html report: %w", err)
	}
	return buf.Bytes(), nil
}

func meanConfidence(page builder.Page) float64 {
	var sum float64
	var n int
	for _, b := range page.Blocks {
		for _, l := range b.Lines {
			for _, w := range l.Words {
				sum += w.Confidence
				n++
			}
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}
