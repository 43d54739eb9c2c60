// Package detection implements text localization: pretrained segmentation
// networks produce a probability map per page, and the post-processor turns
// the map into scored bounding boxes in relative coordinates.
package detection

import (
	"fmt"
	"sort"
	"strings"
)

// Config describes a detection architecture.
type Config struct {
	Name        string
	InputHeight int
	InputWidth  int
	Mean        [3]float32
	Std         [3]float32
	// BinThresh binarizes the probability map before component extraction.
	BinThresh float32
	// BoxThresh is the minimum mean score for a candidate box to survive.
	BoxThresh float32
	// UnclipRatio controls how far shrunk text regions are expanded back.
	UnclipRatio float64
	// ProbOutput is true when the head already emits probabilities; raw
	// logit heads get a sigmoid applied during post-processing.
	ProbOutput bool
}

var archs = map[string]Config{
	"db_resnet50": {
		Name: "db_resnet50", InputHeight: 1024, InputWidth: 1024,
		Mean: [3]float32{0.798, 0.785, 0.772}, Std: [3]float32{0.264, 0.2749, 0.287},
		BinThresh: 0.3, BoxThresh: 0.1, UnclipRatio: 1.5, ProbOutput: true,
	},
	"db_mobilenet_v3_large": {
		Name: "db_mobilenet_v3_large", InputHeight: 1024, InputWidth: 1024,
		Mean: [3]float32{0.798, 0.785, 0.772}, Std: [3]float32{0.264, 0.2749, 0.287},
		BinThresh: 0.3, BoxThresh: 0.1, UnclipRatio: 1.5, ProbOutput: true,
	},
	"linknet_resnet18": {
		Name: "linknet_resnet18", InputHeight: 1024, InputWidth: 1024,
		Mean: [3]float32{0.798, 0.785, 0.772}, Std: [3]float32{0.264, 0.2749, 0.287},
		BinThresh: 0.1, BoxThresh: 0.1, UnclipRatio: 1.2, ProbOutput: false,
	},
	"linknet_resnet34": {
		Name: "linknet_resnet34", InputHeight: 1024, InputWidth: 1024,
		Mean: [3]float32{0.798, 0.785, 0.772}, Std: [3]float32{0.264, 0.2749, 0.287},
		BinThresh: 0.1, BoxThresh: 0.1, UnclipRatio: 1.2, ProbOutput: false,
	},
	"linknet_resnet50": {
		Name: "linknet_resnet50", InputHeight: 1024, InputWidth: 1024,
		Mean: [3]float32{0.798, 0.785, 0.772}, Std: [3]float32{0.264, 0.2749, 0.287},
		BinThresh: 0.1, BoxThresh: 0.1, UnclipRatio: 1.2, ProbOutput: false,
	},
}

// Architectures lists the known detection architecture names.
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
		return Config{}, fmt.Errorf("unknown detection architecture %q (known: %s)",
			name, strings.Join(Architectures(), ", "))
	}
	return cfg, nil
}
