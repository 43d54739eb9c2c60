package scripting

import (
	"context"
	"fmt"

	"github.com/wudi/ocrkit/builder"
	"github.com/wudi/ocrkit/observability"
)

// DOM is the concrete DocumentDOM over an assembled document. Edits made by
// scripts mutate the document in place; dropped words are pruned by Apply.
type DOM struct {
	doc     *builder.Document
	logger  observability.Logger
	dropped map[wordKey]bool
}

type wordKey struct {
	page, block, line, word int
}

func NewDOM(doc *builder.Document, logger observability.Logger) *DOM {
	if logger == nil {
		logger = observability.NopLogger{}
	}
	return &DOM{doc: doc, logger: logger, dropped: make(map[wordKey]bool)}
}

func (d *DOM) PageCount() int { return len(d.doc.Pages) }

func (d *DOM) Page(index int) (PageProxy, error) {
	if index < 0 || index >= len(d.doc.Pages) {
		return nil, fmt.Errorf("page index %d out of range [0, %d)", index, len(d.doc.Pages))
	}
	return &pageRef{dom: d, page: index}, nil
}

func (d *DOM) Log(message string) {
	d.logger.Info("script", observability.String("message", message))
}

// Apply removes dropped words and prunes lines and blocks left empty.
func (d *DOM) Apply() {
	if len(d.dropped) == 0 {
		return
	}
	for pi := range d.doc.Pages {
		page := &d.doc.Pages[pi]
		blocks := page.Blocks[:0]
		for bi := range page.Blocks {
			block := page.Blocks[bi]
			lines := block.Lines[:0]
			for li := range block.Lines {
				line := block.Lines[li]
				words := line.Words[:0]
				for wi := range line.Words {
					if d.dropped[wordKey{pi, bi, li, wi}] {
						continue
					}
					words = append(words, line.Words[wi])
				}
				line.Words = words
				if len(line.Words) > 0 {
					lines = append(lines, line)
				}
			}
			block.Lines = lines
			if len(block.Lines) > 0 {
				blocks = append(blocks, block)
			}
		}
		page.Blocks = blocks
	}
	d.dropped = make(map[wordKey]bool)
}

type pageRef struct {
	dom  *DOM
	page int
}

func (p *pageRef) Index() int { return p.dom.doc.Pages[p.page].Index }

func (p *pageRef) Words() []WordProxy {
	var out []WordProxy
	page := p.dom.doc.Pages[p.page]
	for bi, block := range page.Blocks {
		for li, line := range block.Lines {
			for wi := range line.Words {
				out = append(out, &wordRef{
					dom: p.dom,
					key: wordKey{p.page, bi, li, wi},
				})
			}
		}
	}
	return out
}

type wordRef struct {
	dom *DOM
	key wordKey
}

func (w *wordRef) word() *builder.Word {
	page := &w.dom.doc.Pages[w.key.page]
	return &page.Blocks[w.key.block].Lines[w.key.line].Words[w.key.word]
}

func (w *wordRef) Value() string         { return w.word().Value }
func (w *wordRef) SetValue(value string) { w.word().Value = value }
func (w *wordRef) Confidence() float64   { return w.word().Confidence }
func (w *wordRef) Drop()                 { w.dom.dropped[w.key] = true }

// Run executes a script against the document with a fresh engine and applies
// pending drops afterwards.
func Run(ctx context.Context, doc *builder.Document, script string, logger observability.Logger) error {
	engine := NewEngine()
	dom := NewDOM(doc, logger)
	if err := engine.RegisterDOM(dom); err != nil {
		return fmt.Errorf("register document model: %w", err)
	}
	if _, err := engine.Execute(ctx, script); err != nil {
		return fmt.Errorf("run script: %w", err)
	}
	dom.Apply()
	return nil
}
