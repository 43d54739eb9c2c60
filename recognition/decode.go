package recognition

import (
	"math"
	"strings"
)

// Logits is one sample's output: Steps rows of Classes scores each, row-major.
type Logits struct {
	Data    []float32
	Steps   int
	Classes int
}

func (l Logits) row(t int) []float32 {
	return l.Data[t*l.Classes : (t+1)*l.Classes]
}

// CTCGreedy decodes CRNN-style output. The blank class is the last one
// (index len(vocab)). Consecutive identical classes collapse into a single
// character. The confidence is the mean softmax probability of the argmax
// across all steps.
func CTCGreedy(l Logits, voc []rune) (string, float64) {
	blank := len(voc)
	var sb strings.Builder
	prev := -1
	var probSum float64
	for t := 0; t < l.Steps; t++ {
		cls, prob := argmaxSoftmax(l.row(t))
		probSum += prob
		if cls != blank && cls != prev && cls < len(voc) {
			sb.WriteRune(voc[cls])
		}
		prev = cls
	}
	if l.Steps == 0 {
		return "", 0
	}
	return sb.String(), probSum / float64(l.Steps)
}

// SequenceGreedy decodes attention-style output. The end-of-sequence class is
// the last one; decoding stops there. The confidence is the minimum softmax
// probability over the emitted characters.
func SequenceGreedy(l Logits, voc []rune) (string, float64) {
	eos := len(voc)
	var sb strings.Builder
	minProb := 1.0
	for t := 0; t < l.Steps; t++ {
		cls, prob := argmaxSoftmax(l.row(t))
		if cls == eos {
			break
		}
		if cls < len(voc) {
			sb.WriteRune(voc[cls])
			minProb = math.Min(minProb, prob)
		}
	}
	if sb.Len() == 0 {
		return "", 0
	}
	return sb.String(), minProb
}

// argmaxSoftmax returns the highest-scoring class and its softmax
// probability, computed with the max-subtraction trick for stability.
func argmaxSoftmax(scores []float32) (int, float64) {
	best := 0
	for i, v := range scores {
		if v > scores[best] {
			best = i
		}
	}
	maxV := float64(scores[best])
	var denom float64
	for _, v := range scores {
		denom += math.Exp(float64(v) - maxV)
	}
	return best, 1 / denom
}

// mergeSplits joins the decoded pieces of a split wide crop, trimming the
// longest duplicated boundary (up to maxOverlap characters) between
// consecutive pieces.
func mergeSplits(pieces []string, maxOverlap int) string {
	if len(pieces) == 0 {
		return ""
	}
	out := pieces[0]
	for _, next := range pieces[1:] {
		k := maxOverlap
		if k > len(out) {
			k = len(out)
		}
		if k > len(next) {
			k = len(next)
		}
		trimmed := false
		for ; k > 0; k-- {
			if out[len(out)-k:] == next[:k] {
				out += next[k:]
				trimmed = true
				break
			}
		}
		if !trimmed {
			out += next
		}
	}
	return out
}
