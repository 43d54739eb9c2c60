// Package recognition implements text transcription: cropped text regions go
// through a pretrained sequence model and the emitted class scores are
// decoded against a character vocabulary.
package recognition

import (
	"fmt"
	"sort"
	"strings"
)

// DecodeStrategy selects how model output is turned into characters.
type DecodeStrategy string

const (
	// DecodeCTC collapses repeated argmax classes and removes blanks
	// (CRNN-style heads).
	DecodeCTC DecodeStrategy = "ctc"
	// DecodeSequence reads argmax classes until the end-of-sequence token
	// (SAR/MASTER-style heads).
	DecodeSequence DecodeStrategy = "sequence"
)

// Config describes a recognition architecture.
type Config struct {
	Name        string
	InputHeight int
	InputWidth  int
	Mean        [3]float32
	Std         [3]float32
	Vocab       string
	Decode      DecodeStrategy
}

var archs = map[string]Config{
	"crnn_vgg16_bn": {
		Name: "crnn_vgg16_bn", InputHeight: 32, InputWidth: 128,
		Mean: [3]float32{0.694, 0.695, 0.693}, Std: [3]float32{0.299, 0.296, 0.301},
		Vocab: "french", Decode: DecodeCTC,
	},
	"crnn_mobilenet_v3_small": {
		Name: "crnn_mobilenet_v3_small", InputHeight: 32, InputWidth: 128,
		Mean: [3]float32{0.694, 0.695, 0.693}, Std: [3]float32{0.299, 0.296, 0.301},
		Vocab: "french", Decode: DecodeCTC,
	},
	"crnn_mobilenet_v3_large": {
		Name: "crnn_mobilenet_v3_large", InputHeight: 32, InputWidth: 128,
		Mean: [3]float32{0.694, 0.695, 0.693}, Std: [3]float32{0.299, 0.296, 0.301},
		Vocab: "french", Decode: DecodeCTC,
	},
	"sar_resnet31": {
		Name: "sar_resnet31", InputHeight: 32, InputWidth: 128,
		Mean: [3]float32{0.694, 0.695, 0.693}, Std: [3]float32{0.299, 0.296, 0.301},
		Vocab: "french", Decode: DecodeSequence,
	},
	"master": {
		Name: "master", InputHeight: 32, InputWidth: 128,
		Mean: [3]float32{0.694, 0.695, 0.693}, Std: [3]float32{0.299, 0.296, 0.301},
		Vocab: "french", Decode: DecodeSequence,
	},
}

// Architectures lists the known recognition architecture names.
func Architectures() []string {
	names := make([]string, 0, len(archs))
	for k := range archs {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Arch returns the configuration for a named architecture.
func Arch(name string) (Config, error) {
	cfg, ok := archs[name]
	if !ok {
		return Config{}, fmt.Errorf("unknown recognition architecture %q (known: %s)",
			name, strings.Join(Architectures(), ", "))
	}
	return cfg, nil
}
