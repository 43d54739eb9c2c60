package render

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"unicode"

	"github.com/go-text/typesetting/di"
	gofont "github.com/go-text/typesetting/font"
	"github.com/go-text/typesetting/language"
	"github.com/go-text/typesetting/shaping"
	xfont "golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"

	"github.com/wudi/ocrkit/builder"
)

// Synthesizer re-renders recognized text onto a blank page, each word at its
// detected position. With a TTF loaded, words are shaped with harfbuzz to get
// correct advances and paragraph direction; otherwise a fixed bitmap font is
// used.
type Synthesizer struct {
	shapeFace *gofont.Face
	rastFont  *sfnt.Font
}

// SynthOption configures a Synthesizer.
type SynthOption func(*Synthesizer) error

// WithFontTTF loads a TrueType/OpenType font for shaping and rasterization.
func WithFontTTF(data []byte) SynthOption {
	return func(s *Synthesizer) error {
		shapeFace, err := gofont.ParseTTF(bytes.NewReader(data))
		if err != nil {
			return fmt.Errorf("parse font for shaping: %w", err)
		}
		rast, err := opentype.Parse(data)
		if err != nil {
			return fmt.Errorf("parse font for rasterizing: %w", err)
		}
		s.shapeFace = shapeFace
		s.rastFont = rast
		return nil
	}
}

func NewSynthesizer(opts ...SynthOption) (*Synthesizer, error) {
	s := &Synthesizer{}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Page renders the page's words on a white canvas of the page's shape.
func (s *Synthesizer) Page(page builder.Page) (*image.RGBA, error) {
	if page.Shape.Width <= 0 || page.Shape.Height <= 0 {
		return nil, fmt.Errorf("page %d: degenerate shape %+v", page.Index, page.Shape)
	}
	canvas := image.NewRGBA(image.Rect(0, 0, page.Shape.Width, page.Shape.Height))
	draw.Draw(canvas, canvas.Bounds(), image.White, image.Point{}, draw.Src)

	for _, block := range page.Blocks {
		for _, line := range block.Lines {
			for _, word := range line.Words {
				if word.Value == "" {
					continue
				}
				if err := s.drawWord(canvas, page, word); err != nil {
					return nil, err
				}
			}
		}
	}
	return canvas, nil
}

func (s *Synthesizer) drawWord(canvas *image.RGBA, page builder.Page, word builder.Word) error {
	x0, y0, x1, y1 := word.Geometry.Absolute(page.Shape)
	boxW, boxH := x1-x0, y1-y0
	if boxW <= 0 || boxH <= 0 {
		return nil
	}

	text := word.Value
	size := float64(boxH)

	if s.rastFont == nil {
		drawBitmap(canvas, text, x0, y1)
		return nil
	}

	runes := []rune(text)
	dir := scriptDirection(detectScript(runes))
	advEm := s.shapedAdvance(runes, dir)
	if advEm > 0 {
		// Shrink until the shaped run fits the detected box width.
		if fitted := float64(boxW) / advEm; fitted < size {
			size = fitted
		}
	}
	if size < 1 {
		size = 1
	}

	face, err := opentype.NewFace(s.rastFont, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: xfont.HintingFull,
	})
	if err != nil {
		return fmt.Errorf("size font: %w", err)
	}
	defer face.Close()

	if dir == di.DirectionRTL {
		runes = reverseRunes(runes)
		text = string(runes)
	}

	metrics := face.Metrics()
	baseline := y1 - metrics.Descent.Round()
	d := &xfont.Drawer{
		Dst:  canvas,
		Src:  image.NewUniform(color.Black),
		Face: face,
		Dot:  fixed.P(x0, baseline),
	}
	d.DrawString(text)
	return nil
}

// shapedAdvance returns the run's total advance in em units, so that
// width_px = advance * size_px.
func (s *Synthesizer) shapedAdvance(runes []rune, dir di.Direction) float64 {
	if s.shapeFace == nil || len(runes) == 0 {
		return 0
	}
	shaper := &shaping.HarfbuzzShaper{}
	// Shape at 1000 units per em; advances come back in 26.6 fixed point.
	size := fixed.Int26_6(1000 * 64)
	out := shaper.Shape(shaping.Input{
		Text:      runes,
		RunStart:  0,
		RunEnd:    len(runes),
		Direction: dir,
		Face:      s.shapeFace,
		Size:      size,
		Script:    detectScript(runes),
		Language:  language.DefaultLanguage(),
	})
	var total float64
	for _, g := range out.Glyphs {
		total += float64(g.XAdvance) / 64.0
	}
	return total / 1000.0
}

func drawBitmap(canvas *image.RGBA, text string, x, baseline int) {
	d := &xfont.Drawer{
		Dst:  canvas,
		Src:  image.NewUniform(color.Black),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(x, baseline-2),
	}
	d.DrawString(text)
}

func reverseRunes(runes []rune) []rune {
	out := make([]rune, len(runes))
	for i, r := range runes {
		out[len(runes)-1-i] = r
	}
	return out
}

func scriptDirection(script language.Script) di.Direction {
	switch script {
	case language.Arabic, language.Hebrew, language.Syriac, language.Thaana, language.Nko:
		return di.DirectionRTL
	default:
		return di.DirectionLTR
	}
}

func detectScript(runes []rune) language.Script {
	counts := make(map[language.Script]int)
	best := language.Latin
	max := 0
	for _, r := range runes {
		script := scriptFromRune(r)
		if script == language.Unknown {
			continue
		}
		counts[script]++
		if counts[script] > max {
			max = counts[script]
			best = script
		}
	}
	return best
}

func scriptFromRune(r rune) language.Script {
	switch {
	case unicode.Is(unicode.Arabic, r):
		return language.Arabic
	case unicode.Is(unicode.Hebrew, r):
		return language.Hebrew
	case unicode.Is(unicode.Latin, r):
		return language.Latin
	case unicode.Is(unicode.Cyrillic, r):
		return language.Cyrillic
	case unicode.Is(unicode.Greek, r):
		return language.Greek
	case unicode.Is(unicode.Han, r):
		return language.Han
	case unicode.Is(unicode.Hiragana, r):
		return language.Hiragana
	case unicode.Is(unicode.Katakana, r):
		return language.Katakana
	case unicode.Is(unicode.Hangul, r):
		return language.Hangul
	case unicode.Is(unicode.Thai, r):
		return language.Thai
	case unicode.Is(unicode.Devanagari, r):
		return language.Devanagari
	}
	return language.Unknown
}
