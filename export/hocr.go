// Package export serializes assembled documents to interchange formats:
// hOCR, markdown and HTML.
package export

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/wudi/ocrkit/builder"
	"github.com/wudi/ocrkit/geometry"
)

const (
	classPage = "ocr_page"
	classArea = "ocr_carea"
	classPar  = "ocr_par"
	classLine = "ocr_line"
	classWord = "ocrx_word"
)

// HOCR renders the document as an hOCR HTML file. Word boxes are emitted in
// absolute pixel coordinates derived from each page's shape.
func HOCR(doc builder.Document) ([]byte, error) {
	root := &html.Node{Type: html.ElementNode, DataAtom: atom.Html, Data: "html"}
	root.AppendChild(hocrHead())

	body := elem(atom.Body, "body")
	for _, page := range doc.Pages {
		body.AppendChild(hocrPage(page))
	}
	root.AppendChild(body)

	var buf strings.Builder
	buf.WriteString("<!DOCTYPE html>\n")
	if err := html.Render(&buf, root); err != nil {
		return nil, fmt.Errorf("render hocr: %w", err)
	}
	return []byte(buf.String()), nil
}

func hocrHead() *html.Node {
	head := elem(atom.Head, "head")

	meta := elem(atom.Meta, "meta")
	setAttr(meta, "name", "ocr-system")
	setAttr(meta, "content", "ocrkit")
	head.AppendChild(meta)

	caps := elem(atom.Meta, "meta")
	setAttr(caps, "name", "ocr-capabilities")
	setAttr(caps, "content", strings.Join([]string{classPage, classArea, classPar, classLine, classWord}, " "))
	head.AppendChild(caps)
	return head
}

func hocrPage(page builder.Page) *html.Node {
	div := elem(atom.Div, "div")
	setAttr(div, "class", classPage)
	setAttr(div, "id", fmt.Sprintf("page_%d", page.Index+1))
	setAttr(div, "title", fmt.Sprintf("bbox 0 0 %d %d; ppageno %d", page.Shape.Width, page.Shape.Height, page.Index))

	for bi, block := range page.Blocks {
		area := elem(atom.Div, "div")
		setAttr(area, "class", classArea)
		setAttr(area, "id", fmt.Sprintf("block_%d_%d", page.Index+1, bi+1))
		setAttr(area, "title", bboxTitle(block.Geometry, page.Shape))

		par := elem(atom.P, "p")
		setAttr(par, "class", classPar)
		setAttr(par, "id", fmt.Sprintf("par_%d_%d", page.Index+1, bi+1))
		setAttr(par, "title", bboxTitle(block.Geometry, page.Shape))

		for li, line := range block.Lines {
			span := elem(atom.Span, "span")
			setAttr(span, "class", classLine)
			setAttr(span, "id", fmt.Sprintf("line_%d_%d_%d", page.Index+1, bi+1, li+1))
			setAttr(span, "title", bboxTitle(line.Geometry, page.Shape))

			for wi, word := range line.Words {
				w := elem(atom.Span, "span")
				setAttr(w, "class", classWord)
				setAttr(w, "id", fmt.Sprintf("word_%d_%d_%d_%d", page.Index+1, bi+1, li+1, wi+1))
				setAttr(w, "title", fmt.Sprintf("%s; x_wconf %d", bboxTitle(word.Geometry, page.Shape), int(word.Confidence*100)))
				w.AppendChild(&html.Node{Type: html.TextNode, Data: word.Value})
				span.AppendChild(w)
			}
			par.AppendChild(span)
		}
		area.AppendChild(par)
		div.AppendChild(area)
	}
	return div
}

func elem(a atom.Atom, name string) *html.Node {
	return &html.Node{Type: html.ElementNode, DataAtom: a, Data: name}
}

func setAttr(n *html.Node, key, val string) {
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

func bboxTitle(b geometry.BBox, shape geometry.Shape) string {
	x0, y0, x1, y1 := b.Absolute(shape)
	return fmt.Sprintf("bbox %d %d %d %d", x0, y0, x1, y1)
}

// ParseHOCR reads an hOCR file back into a document. Pixel boxes are converted
// to relative coordinates using each ocr_page bbox.
func ParseHOCR(r io.Reader) (builder.Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return builder.Document{}, fmt.Errorf("parse hocr: %w", err)
	}

	var doc builder.Document
	walk(root, func(n *html.Node) bool {
		if !hasClass(n, classPage) {
			return true
		}
		page, perr := parsePage(n, len(doc.Pages))
		if perr != nil {
			err = perr
			return false
		}
		doc.Pages = append(doc.Pages, page)
		return false
	})
	if err != nil {
		return builder.Document{}, err
	}
	return doc, nil
}

func parsePage(n *html.Node, fallbackIndex int) (builder.Page, error) {
	props := parseTitle(attr(n, "title"))
	bb, ok := props["bbox"]
	if !ok || len(bb) != 4 {
		return builder.Page{}, fmt.Errorf("ocr_page %q: missing bbox", attr(n, "id"))
	}
	shape := geometry.Shape{Width: int(bb[2]), Height: int(bb[3])}
	if shape.Width <= 0 || shape.Height <= 0 {
		return builder.Page{}, fmt.Errorf("ocr_page %q: degenerate bbox", attr(n, "id"))
	}

	index := fallbackIndex
	if pn, ok := props["ppageno"]; ok && len(pn) == 1 {
		index = int(pn[0])
	}

	page := builder.Page{Index: index, Shape: shape}
	walk(n, func(c *html.Node) bool {
		if c == n {
			return true
		}
		if hasClass(c, classArea) {
			page.Blocks = append(page.Blocks, parseBlock(c, shape))
			return false
		}
		// Lines placed directly under the page get a block of their own.
		if hasClass(c, classLine) {
			page.Blocks = append(page.Blocks, builder.Block{
				Lines:    []builder.Line{parseLine(c, shape)},
				Geometry: relBBox(c, shape),
			})
			return false
		}
		return true
	})
	return page, nil
}

func parseBlock(n *html.Node, shape geometry.Shape) builder.Block {
	block := builder.Block{Geometry: relBBox(n, shape)}
	walk(n, func(c *html.Node) bool {
		if c == n {
			return true
		}
		if hasClass(c, classLine) {
			block.Lines = append(block.Lines, parseLine(c, shape))
			return false
		}
		return true
	})
	return block
}

func parseLine(n *html.Node, shape geometry.Shape) builder.Line {
	line := builder.Line{Geometry: relBBox(n, shape)}
	walk(n, func(c *html.Node) bool {
		if c == n {
			return true
		}
		if hasClass(c, classWord) {
			props := parseTitle(attr(c, "title"))
			word := builder.Word{
				Value:    strings.TrimSpace(textContent(c)),
				Geometry: relBBox(c, shape),
			}
			if conf, ok := props["x_wconf"]; ok && len(conf) == 1 {
				word.Confidence = conf[0] / 100
			}
			line.Words = append(line.Words, word)
			return false
		}
		return true
	})
	return line
}

// walk visits nodes depth-first; fn returning false prunes the subtree.
func walk(n *html.Node, fn func(*html.Node) bool) {
	if !fn(n) {
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, fn)
	}
}

func hasClass(n *html.Node, class string) bool {
	if n.Type != html.ElementNode {
		return false
	}
	for _, f := range strings.Fields(attr(n, "class")) {
		if f == class {
			return true
		}
	}
	return false
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func textContent(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}
	var sb strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		sb.WriteString(textContent(c))
	}
	return sb.String()
}

// parseTitle splits an hOCR title attribute such as
// "bbox 10 20 30 40; x_wconf 93" into named numeric fields.
func parseTitle(title string) map[string][]float64 {
	props := make(map[string][]float64)
	for _, part := range strings.Split(title, ";") {
		fields := strings.Fields(strings.TrimSpace(part))
		if len(fields) < 2 {
			continue
		}
		vals := make([]float64, 0, len(fields)-1)
		for _, f := range fields[1:] {
			v, err := strconv.ParseFloat(f, 64)
			if err != nil {
				vals = nil
				break
			}
			vals = append(vals, v)
		}
		if vals != nil {
			props[fields[0]] = vals
		}
	}
	return props
}

func relBBox(n *html.Node, shape geometry.Shape) geometry.BBox {
	props := parseTitle(attr(n, "title"))
	bb, ok := props["bbox"]
	if !ok || len(bb) != 4 {
		return geometry.BBox{}
	}
	return geometry.Relative(int(bb[0]), int(bb[1]), int(bb[2]), int(bb[3]), shape)
}
