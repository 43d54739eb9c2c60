package recognition

import (
	"math"
	"testing"

	"github.com/wudi/ocrkit/vocab"
)

// logitsFor builds a Logits block whose argmax per step follows classes.
func logitsFor(classes []int, numClasses int) Logits {
	data := make([]float32, len(classes)*numClasses)
	for t, cls := range classes {
		for c := 0; c < numClasses; c++ {
			if c == cls {
				data[t*numClasses+c] = 8
			} else {
				data[t*numClasses+c] = -8
			}
		}
	}
	return Logits{Data: data, Steps: len(classes), Classes: numClasses}
}

func TestCTCGreedy(t *testing.T) {
	voc, err := vocab.Get("digits")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	blank := len(voc)
	cases := []struct {
		name    string
		classes []int
		want    string
	}{
		{"simple", []int{4, 2}, "42"},
		{"collapse repeats", []int{4, 4, 2, 2, 2}, "42"},
		{"blank separates repeats", []int{4, blank, 4}, "44"},
		{"leading trailing blanks", []int{blank, 7, blank}, "7"},
		{"all blank", []int{blank, blank}, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, conf := CTCGreedy(logitsFor(tc.classes, blank+1), voc)
			if got != tc.want {
				t.Fatalf("CTCGreedy() = %q, want %q", got, tc.want)
			}
			if conf <= 0.9 {
				t.Fatalf("CTCGreedy() confidence = %v for a confident sequence", conf)
			}
		})
	}
}

func TestSequenceGreedy(t *testing.T) {
	voc, err := vocab.Get("digits")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	eos := len(voc)
	got, conf := SequenceGreedy(logitsFor([]int{1, 2, 3, eos, 9}, eos+1), voc)
	if got != "123" {
		t.Fatalf("SequenceGreedy() = %q, want 123", got)
	}
	if conf <= 0.9 {
		t.Fatalf("SequenceGreedy() confidence = %v", conf)
	}

	got, conf = SequenceGreedy(logitsFor([]int{eos}, eos+1), voc)
	if got != "" || conf != 0 {
		t.Fatalf("SequenceGreedy() on immediate EOS = %q, %v", got, conf)
	}
}

func TestArgmaxSoftmax(t *testing.T) {
	cls, prob := argmaxSoftmax([]float32{0, 0, 0, 0})
	if cls != 0 {
		t.Fatalf("argmaxSoftmax() class = %d", cls)
	}
	if math.Abs(prob-0.25) > 1e-9 {
		t.Fatalf("argmaxSoftmax() prob = %v, want 0.25", prob)
	}
}

func TestMergeSplits(t *testing.T) {
	cases := []struct {
		name   string
		pieces []string
		want   string
	}{
		{"empty", nil, ""},
		{"single", []string{"hello"}, "hello"},
		{"overlap", []string{"invoi", "oice"}, "invoice"},
		{"no overlap", []string{"abc", "def"}, "abcdef"},
		{"full chain", []string{"123", "345", "567"}, "1234567"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := mergeSplits(tc.pieces, 3); got != tc.want {
				t.Fatalf("mergeSplits(%v) = %q, want %q", tc.pieces, got, tc.want)
			}
		})
	}
}
