package tesseract

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"math"
	"strings"

	"github.com/otiai10/gosseract/v2"

	"github.com/wudi/ocrkit/ocr"
)

func init() {
	ocr.SetDefaultEngine(NewTesseractEngine())
}

// TesseractEngine implements Engine and BatchEngine using the gosseract
// client. It is the default whole-page engine when the neural pipeline is not
// wanted or its model artifacts are unavailable.
type TesseractEngine struct {
	clientFactory func() *gosseract.Client
}

// NewTesseractEngine constructs a Tesseract-backed OCR engine.
func NewTesseractEngine() *TesseractEngine {
	return &TesseractEngine{clientFactory: gosseract.NewClient}
}

func (e *TesseractEngine) Name() string { return "tesseract" }

// Recognize performs OCR on a single page input.
func (e *TesseractEngine) Recognize(ctx context.Context, in ocr.Input) (ocr.Result, error) {
	c := e.clientFactory()
	defer c.Close()
	return e.recognizeWithClient(ctx, c, in)
}

// RecognizeBatch processes multiple inputs sequentially. Each input gets a
// fresh client; per-input variables must not leak between pages.
func (e *TesseractEngine) RecognizeBatch(ctx context.Context, inputs []ocr.Input) ([]ocr.Result, error) {
	results := make([]ocr.Result, 0, len(inputs))
	for _, in := range inputs {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		c := e.clientFactory()
		res, err := e.recognizeWithClient(ctx, c, in)
		if err != nil {
			return nil, fmt.Errorf("recognize %s: %w", in.ID, err)
		}
		c.Close()
		results = append(results, res)
	}
	return results, nil
}

func (e *TesseractEngine) recognizeWithClient(ctx context.Context, c *gosseract.Client, in ocr.Input) (ocr.Result, error) {
	imgData, err := cropImage(in.Image, in.Region)
	if err != nil {
		return ocr.Result{}, err
	}
	if err := c.SetImageFromBytes(imgData); err != nil {
		return ocr.Result{}, fmt.Errorf("set image: %w", err)
	}
	if len(in.Languages) > 0 {
		if err := c.SetLanguage(in.Languages...); err != nil {
			return ocr.Result{}, fmt.Errorf("set languages: %w", err)
		}
	}
	if in.DPI > 0 {
		if err := c.SetVariable(gosseract.SettableVariable("user_defined_dpi"), fmt.Sprint(in.DPI)); err != nil {
			return ocr.Result{}, fmt.Errorf("set dpi: %w", err)
		}
	}
	for k, v := range in.Metadata {
		if err := c.SetVariable(gosseract.SettableVariable(k), v); err != nil {
			return ocr.Result{}, fmt.Errorf("set variable %s: %w", k, err)
		}
	}
	text, err := c.Text()
	if err != nil {
		return ocr.Result{}, fmt.Errorf("recognize text: %w", err)
	}
	plain := strings.TrimSpace(text)

	lines, avgConf := extractLines(c)
	block := ocr.TextBlock{
		Text:       plain,
		Bounds:     mergeLineBounds(lines),
		Lines:      lines,
		Confidence: avgConf,
	}

	return ocr.Result{
		InputID:   in.ID,
		PlainText: plain,
		Blocks:    []ocr.TextBlock{block},
		Language:  firstLanguage(in.Languages),
	}, nil
}

// extractLines reads word boxes and groups them into text lines using the
// line segmentation Tesseract already computed.
func extractLines(c *gosseract.Client) ([]ocr.TextLine, float64) {
	wordBoxes, err := c.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil || len(wordBoxes) == 0 {
		return nil, 0
	}
	lineBoxes, err := c.GetBoundingBoxes(gosseract.RIL_TEXTLINE)
	if err != nil || len(lineBoxes) == 0 {
		// Degrade to a single synthetic line holding every word.
		words, conf := toWords(wordBoxes)
		return []ocr.TextLine{{
			Text:       joinWords(words),
			Bounds:     mergeWordBounds(words),
			Words:      words,
			Confidence: conf,
		}}, conf
	}

	lines := make([]ocr.TextLine, len(lineBoxes))
	var confSum float64
	var confN int
	for i, lb := range lineBoxes {
		lines[i].Bounds = toRegion(lb.Box)
	}
	for _, wb := range wordBoxes {
		conf := wb.Confidence / 100.0
		confSum += conf
		confN++
		word := ocr.TextWord{Text: wb.Word, Bounds: toRegion(wb.Box), Confidence: conf}
		li := lineFor(lines, word.Bounds)
		lines[li].Words = append(lines[li].Words, word)
	}
	for i := range lines {
		lines[i].Text = joinWords(lines[i].Words)
		lines[i].Confidence = avgConfidence(lines[i].Words)
	}
	if confN == 0 {
		return lines, 0
	}
	return lines, confSum / float64(confN)
}

// lineFor picks the line whose bounds overlap the word's vertical center the
// most; ties fall back to the first line.
func lineFor(lines []ocr.TextLine, w ocr.Region) int {
	centerY := w.Y + w.Height/2
	best := 0
	bestDist := math.MaxFloat64
	for i, l := range lines {
		if centerY >= l.Bounds.Y && centerY <= l.Bounds.Y+l.Bounds.Height {
			return i
		}
		d := math.Abs(l.Bounds.Y + l.Bounds.Height/2 - centerY)
		if d < bestDist {
			bestDist = d
			best = i
		}
	}
	return best
}

func toWords(boxes []gosseract.BoundingBox) ([]ocr.TextWord, float64) {
	words := make([]ocr.TextWord, 0, len(boxes))
	for _, b := range boxes {
		words = append(words, ocr.TextWord{
			Text:       b.Word,
			Bounds:     toRegion(b.Box),
			Confidence: b.Confidence / 100.0,
		})
	}
	return words, avgConfidence(words)
}

func toRegion(r image.Rectangle) ocr.Region {
	return ocr.Region{
		X:      float64(r.Min.X),
		Y:      float64(r.Min.Y),
		Width:  float64(r.Dx()),
		Height: float64(r.Dy()),
	}
}

func joinWords(words []ocr.TextWord) string {
	parts := make([]string, len(words))
	for i, w := range words {
		parts[i] = w.Text
	}
	return strings.Join(parts, " ")
}

func avgConfidence(words []ocr.TextWord) float64 {
	if len(words) == 0 {
		return 0
	}
	var sum float64
	for _, w := range words {
		sum += w.Confidence
	}
	return sum / float64(len(words))
}

func mergeWordBounds(words []ocr.TextWord) ocr.Region {
	regions := make([]ocr.Region, len(words))
	for i, w := range words {
		regions[i] = w.Bounds
	}
	return mergeRegions(regions)
}

func mergeLineBounds(lines []ocr.TextLine) ocr.Region {
	regions := make([]ocr.Region, len(lines))
	for i, l := range lines {
		regions[i] = l.Bounds
	}
	return mergeRegions(regions)
}

func mergeRegions(regions []ocr.Region) ocr.Region {
	if len(regions) == 0 {
		return ocr.Region{}
	}
	minX, minY := math.MaxFloat64, math.MaxFloat64
	var maxX, maxY float64
	for _, r := range regions {
		minX = math.Min(minX, r.X)
		minY = math.Min(minY, r.Y)
		maxX = math.Max(maxX, r.X+r.Width)
		maxY = math.Max(maxY, r.Y+r.Height)
	}
	return ocr.Region{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}
}

func firstLanguage(langs []string) string {
	if len(langs) == 0 {
		return ""
	}
	return langs[0]
}

func cropImage(data []byte, region *ocr.Region) ([]byte, error) {
	if region == nil || region.IsEmpty() {
		return data, nil
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode for region: %w", err)
	}
	rect := image.Rect(
		int(math.Round(region.X)),
		int(math.Round(region.Y)),
		int(math.Round(region.X+region.Width)),
		int(math.Round(region.Y+region.Height)),
	).Intersect(img.Bounds())
	if rect.Empty() {
		return nil, fmt.Errorf("region outside image bounds")
	}
	subImg, ok := img.(interface {
		SubImage(r image.Rectangle) image.Image
	})
	if !ok {
		return nil, fmt.Errorf("image does not support sub-image")
	}
	cropped := subImg.SubImage(rect)
	var buf bytes.Buffer
	if err := png.Encode(&buf, cropped); err != nil {
		return nil, fmt.Errorf("encode cropped image: %w", err)
	}
	return buf.Bytes(), nil
}
