// Package builder assembles raw detection boxes and recognized values into a
// structured document hierarchy: Document > Page > Block > Line > Word.
package builder

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/wudi/ocrkit/geometry"
)

// Word is a recognized token with its relative bounding box.
type Word struct {
	Value      string        `json:"value"`
	Confidence float64       `json:"confidence"`
	Geometry   geometry.BBox `json:"geometry"`
}

// Line is a sequence of words sharing a horizontal baseline.
type Line struct {
	Words    []Word        `json:"words"`
	Geometry geometry.BBox `json:"geometry"`
}

// Value renders the line as space-separated words.
func (l Line) Value() string {
	parts := make([]string, len(l.Words))
	for i, w := range l.Words {
		parts[i] = w.Value
	}
	return strings.Join(parts, " ")
}

// Block is a group of vertically adjacent lines, roughly a paragraph.
type Block struct {
	Lines    []Line        `json:"lines"`
	Geometry geometry.BBox `json:"geometry"`
}

// Value renders the block with one line per row.
func (b Block) Value() string {
	parts := make([]string, len(b.Lines))
	for i, l := range b.Lines {
		parts[i] = l.Value()
	}
	return strings.Join(parts, "\n")
}

// Page holds the structured content of a single input page.
type Page struct {
	Index  int            `json:"index"`
	Shape  geometry.Shape `json:"shape"`
	Blocks []Block        `json:"blocks"`
}

// Text renders the page as plain text with blank lines between blocks.
func (p Page) Text() string {
	parts := make([]string, len(p.Blocks))
	for i, b := range p.Blocks {
		parts[i] = b.Value()
	}
	return strings.Join(parts, "\n\n")
}

// WordCount reports the number of words across all blocks.
func (p Page) WordCount() int {
	n := 0
	for _, b := range p.Blocks {
		for _, l := range b.Lines {
			n += len(l.Words)
		}
	}
	return n
}

// Document is the root of the assembled hierarchy.
type Document struct {
	Pages []Page `json:"pages"`
}

// Text renders the whole document, pages separated by form-feed-like breaks.
func (d Document) Text() string {
	parts := make([]string, len(d.Pages))
	for i, p := range d.Pages {
		parts[i] = p.Text()
	}
	return strings.Join(parts, "\n\n\n")
}

// ExportJSON serializes the full hierarchy.
func (d Document) ExportJSON() ([]byte, error) {
	data, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("export document: %w", err)
	}
	return data, nil
}

// defaultParagraphBreak is the relative vertical gap beyond which consecutive
// lines are assigned to separate blocks.
const defaultParagraphBreak = 0.035

// DocumentBuilder turns per-page word sets into a Document. The zero value is
// not usable; construct with NewDocumentBuilder.
type DocumentBuilder struct {
	resolveLines   bool
	resolveBlocks  bool
	paragraphBreak float64
}

// Option customizes a DocumentBuilder.
type Option func(*DocumentBuilder)

// WithoutLineResolution keeps every word on its own line.
func WithoutLineResolution() Option {
	return func(b *DocumentBuilder) { b.resolveLines = false }
}

// WithBlockResolution groups lines into paragraph blocks using the vertical
// gap heuristic. Off by default; every line then gets its own block.
func WithBlockResolution() Option {
	return func(b *DocumentBuilder) { b.resolveBlocks = true }
}

// WithParagraphBreak overrides the relative gap that separates blocks.
func WithParagraphBreak(gap float64) Option {
	return func(b *DocumentBuilder) {
		if gap > 0 {
			b.paragraphBreak = gap
		}
	}
}

func NewDocumentBuilder(opts ...Option) *DocumentBuilder {
	b := &DocumentBuilder{
		resolveLines:   true,
		resolveBlocks:  false,
		paragraphBreak: defaultParagraphBreak,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build assembles one Document from per-page words and page shapes. The two
// slices must be the same length and aligned by page index.
func (b *DocumentBuilder) Build(pages [][]Word, shapes []geometry.Shape) (Document, error) {
	if len(pages) != len(shapes) {
		return Document{}, fmt.Errorf("page count mismatch: %d word sets, %d shapes", len(pages), len(shapes))
	}
	doc := Document{Pages: make([]Page, len(pages))}
	for i, words := range pages {
		doc.Pages[i] = b.BuildPage(i, words, shapes[i])
	}
	return doc, nil
}

// BuildPage assembles a single page.
func (b *DocumentBuilder) BuildPage(index int, words []Word, shape geometry.Shape) Page {
	lines := b.resolvePageLines(words)
	blocks := b.resolvePageBlocks(lines)
	return Page{Index: index, Shape: shape, Blocks: blocks}
}

// resolvePageLines sorts words in reading order and merges consecutive words
// whose vertical centers sit within half the median box height.
func (b *DocumentBuilder) resolvePageLines(words []Word) []Line {
	if len(words) == 0 {
		return nil
	}

	boxes := make([]geometry.BBox, len(words))
	for i, w := range words {
		boxes[i] = w.Geometry
	}
	med := geometry.MedianHeight(boxes)
	order := geometry.SortReadingOrder(boxes, med/2)

	if !b.resolveLines {
		lines := make([]Line, len(order))
		for i, idx := range order {
			lines[i] = finishLine([]Word{words[idx]})
		}
		return lines
	}

	var lines []Line
	current := []Word{words[order[0]]}
	for _, idx := range order[1:] {
		w := words[idx]
		prev := current[len(current)-1]
		sameBand := centerDist(w.Geometry, prev.Geometry) <= med/2
		readsOn := w.Geometry.XMin >= prev.Geometry.XMin
		if sameBand && readsOn {
			current = append(current, w)
			continue
		}
		lines = append(lines, finishLine(current))
		current = []Word{w}
	}
	return append(lines, finishLine(current))
}

func centerDist(a, bb geometry.BBox) float64 {
	d := a.Center().Y - bb.Center().Y
	if d < 0 {
		return -d
	}
	return d
}

func finishLine(words []Word) Line {
	boxes := make([]geometry.BBox, len(words))
	for i, w := range words {
		boxes[i] = w.Geometry
	}
	return Line{Words: words, Geometry: geometry.Enclosing(boxes)}
}

// resolvePageBlocks splits lines into blocks at vertical gaps exceeding the
// paragraph break. Without block resolution every line becomes its own block.
func (b *DocumentBuilder) resolvePageBlocks(lines []Line) []Block {
	if len(lines) == 0 {
		return nil
	}
	if !b.resolveBlocks {
		blocks := make([]Block, len(lines))
		for i, l := range lines {
			blocks[i] = finishBlock([]Line{l})
		}
		return blocks
	}

	var blocks []Block
	current := []Line{lines[0]}
	for _, l := range lines[1:] {
		prev := current[len(current)-1]
		gap := l.Geometry.YMin - prev.Geometry.YMax
		if gap <= b.paragraphBreak {
			current = append(current, l)
			continue
		}
		blocks = append(blocks, finishBlock(current))
		current = []Line{l}
	}
	return append(blocks, finishBlock(current))
}

func finishBlock(lines []Line) Block {
	boxes := make([]geometry.BBox, len(lines))
	for i, l := range lines {
		boxes[i] = l.Geometry
	}
	return Block{Lines: lines, Geometry: geometry.Enclosing(boxes)}
}
