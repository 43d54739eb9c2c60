// Package tflitert provides the TensorFlow Lite inference runtime. Importing
// it registers the runtime with the backend selection pool.
package tflitert

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"github.com/tphakala/go-tflite"

	"github.com/wudi/ocrkit/backend"
)

func init() {
	backend.Register(&Runtime{})
}

// Runtime loads .tflite artifacts.
type Runtime struct {
	// Threads bounds the interpreter thread count; zero means NumCPU.
	Threads int
}

func (r *Runtime) Name() string { return "tflite" }
func (r *Runtime) Ext() string  { return ".tflite" }

// Load builds an interpreter for the model file and allocates its tensors.
func (r *Runtime) Load(ctx context.Context, modelPath string) (backend.Model, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	model := tflite.NewModelFromFile(modelPath)
	if model == nil {
		return nil, fmt.Errorf("cannot load TensorFlow Lite model %s", modelPath)
	}

	threads := r.Threads
	if threads <= 0 {
		threads = runtime.NumCPU()
	}
	options := tflite.NewInterpreterOptions()
	options.SetNumThread(threads)

	interp := tflite.NewInterpreter(model, options)
	if interp == nil {
		options.Delete()
		model.Delete()
		return nil, fmt.Errorf("cannot create interpreter for %s", modelPath)
	}
	if status := interp.AllocateTensors(); status != tflite.OK {
		interp.Delete()
		options.Delete()
		model.Delete()
		return nil, fmt.Errorf("tensor allocation failed for %s: %v", modelPath, status)
	}
	return &tfliteModel{model: model, options: options, interp: interp}, nil
}

type tfliteModel struct {
	mu      sync.Mutex
	model   *tflite.Model
	options *tflite.InterpreterOptions
	interp  *tflite.Interpreter
}

// Run copies the input into the interpreter, invokes it and copies the output
// back out. The interpreter is not reentrant, so calls are serialized.
func (m *tfliteModel) Run(ctx context.Context, input backend.Tensor) (backend.Tensor, error) {
	if err := ctx.Err(); err != nil {
		return backend.Tensor{}, err
	}
	if err := input.Validate(); err != nil {
		return backend.Tensor{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	in := m.interp.GetInputTensor(0)
	if in == nil {
		return backend.Tensor{}, fmt.Errorf("cannot get input tensor")
	}
	dst := in.Float32s()
	if len(dst) != len(input.Data) {
		return backend.Tensor{}, fmt.Errorf("input size mismatch: model expects %d values, got %d", len(dst), len(input.Data))
	}
	copy(dst, input.Data)

	if status := m.interp.Invoke(); status != tflite.OK {
		return backend.Tensor{}, fmt.Errorf("tensor invoke failed: %v", status)
	}

	out := m.interp.GetOutputTensor(0)
	if out == nil {
		return backend.Tensor{}, fmt.Errorf("cannot get output tensor")
	}
	shape := make([]int, out.NumDims())
	for i := range shape {
		shape[i] = out.Dim(i)
	}
	data := make([]float32, len(out.Float32s()))
	copy(data, out.Float32s())
	return backend.Tensor{Data: data, Shape: shape}, nil
}

func (m *tfliteModel) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.interp != nil {
		m.interp.Delete()
		m.interp = nil
	}
	if m.options != nil {
		m.options.Delete()
		m.options = nil
	}
	if m.model != nil {
		m.model.Delete()
		m.model = nil
	}
	return nil
}
