// Package backend abstracts the inference runtime executing pretrained model
// files. Two runtimes are supported: TensorFlow Lite and ONNX Runtime. Which
// one serves a predictor is decided per process, either explicitly or through
// environment variables mirroring the selection done at install time.
package backend

import (
	"context"
	"fmt"
	"os"
	"strings"
)

// Tensor is a dense float32 array with an NHWC-style shape.
type Tensor struct {
	Data  []float32
	Shape []int
}

// NewTensor allocates a zeroed tensor for the given shape.
func NewTensor(shape ...int) Tensor {
	n := 1
	for _, d := range shape {
		n *= d
	}
	return Tensor{Data: make([]float32, n), Shape: append([]int(nil), shape...)}
}

// Elements returns the number of elements implied by the shape.
func (t Tensor) Elements() int {
	n := 1
	for _, d := range t.Shape {
		n *= d
	}
	return n
}

// Rank returns the number of dimensions.
func (t Tensor) Rank() int { return len(t.Shape) }

// Validate checks that the data length matches the shape.
func (t Tensor) Validate() error {
	if len(t.Data) != t.Elements() {
		return fmt.Errorf("tensor data length %d does not match shape %v", len(t.Data), t.Shape)
	}
	return nil
}

// Model is a loaded network ready for inference. Implementations are safe for
// sequential use only; callers serialize access.
type Model interface {
	// Run executes the network on a single batched input tensor.
	Run(ctx context.Context, input Tensor) (Tensor, error)
	Close() error
}

// Runtime loads model artifacts into executable form.
type Runtime interface {
	Name() string
	// Ext is the artifact filename extension this runtime consumes, including
	// the leading dot.
	Ext() string
	Load(ctx context.Context, modelPath string) (Model, error)
}

// Environment variables steering runtime selection. "AUTO" (or unset) lets
// the library pick the first registered runtime; truthy values force one.
const (
	EnvTFLite = "OCRKIT_TFLITE"
	EnvONNX   = "OCRKIT_ONNX"
)

var truthy = map[string]bool{"1": true, "ON": true, "YES": true, "TRUE": true}

func envState(key string) (enabled, auto bool) {
	v := strings.ToUpper(os.Getenv(key))
	if v == "" || v == "AUTO" {
		return true, true
	}
	return truthy[v], false
}

var runtimes []Runtime

// Register adds a runtime to the selection pool. The tflitert and onnxrt
// packages register themselves from init, so importing one (or both) for side
// effects is enough.
func Register(rt Runtime) {
	runtimes = append(runtimes, rt)
}

// Registered lists the registered runtime names.
func Registered() []string {
	names := make([]string, 0, len(runtimes))
	for _, rt := range runtimes {
		names = append(names, rt.Name())
	}
	return names
}

// Resolve picks the runtime to use. A runtime forced through its environment
// variable disables the other one; forcing both leaves nothing usable and is
// an error, as is resolving with no runtime registered.
func Resolve() (Runtime, error) {
	tfliteOn, tfliteAuto := envState(EnvTFLite)
	onnxOn, onnxAuto := envState(EnvONNX)

	var tflite, onnx Runtime
	for _, rt := range runtimes {
		switch rt.Name() {
		case "tflite":
			tflite = rt
		case "onnx":
			onnx = rt
		}
	}

	tfliteUsable := tfliteOn && (onnxAuto || !onnxOn) && tflite != nil
	onnxUsable := onnxOn && (tfliteAuto || !tfliteOn) && onnx != nil

	switch {
	case tfliteUsable && !tfliteAuto:
		return tflite, nil
	case onnxUsable && !onnxAuto:
		return onnx, nil
	case tfliteUsable:
		return tflite, nil
	case onnxUsable:
		return onnx, nil
	}
	return nil, fmt.Errorf(
		"no inference runtime available: import the tflitert or onnxrt package and ensure %s or %s is enabled",
		EnvTFLite, EnvONNX,
	)
}

// ByName returns the registered runtime with the given name.
func ByName(name string) (Runtime, error) {
	for _, rt := range runtimes {
		if rt.Name() == name {
			return rt, nil
		}
	}
	return nil, fmt.Errorf("unknown runtime %q (registered: %s)", name, strings.Join(Registered(), ", "))
}
