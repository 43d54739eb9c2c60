// Package onnxrt provides the ONNX Runtime inference backend. Importing it
// registers the runtime with the backend selection pool.
//
// The ONNX Runtime shared library must be reachable; set OCRKIT_ONNX_LIB to
// point at libonnxruntime when it is not on the default search path.
package onnxrt

import (
	"context"
	"fmt"
	"os"
	"sync"

	ort "github.com/yalue/onnxruntime_go"

	"github.com/wudi/ocrkit/backend"
)

func init() {
	backend.Register(&Runtime{})
}

// EnvSharedLibrary overrides the ONNX Runtime shared library location.
const EnvSharedLibrary = "OCRKIT_ONNX_LIB"

var (
	initOnce sync.Once
	initErr  error
)

func ensureEnvironment() error {
	initOnce.Do(func() {
		if lib := os.Getenv(EnvSharedLibrary); lib != "" {
			ort.SetSharedLibraryPath(lib)
		}
		initErr = ort.InitializeEnvironment()
	})
	return initErr
}

// Runtime loads .onnx artifacts.
type Runtime struct {
	// InputName and OutputName identify the graph tensors to bind. The OCR
	// model exports use "input" and "logits"; zero values fall back to those.
	InputName  string
	OutputName string
	Threads    int
}

func (r *Runtime) Name() string { return "onnx" }
func (r *Runtime) Ext() string  { return ".onnx" }

// Load opens a dynamic session so batch size can vary between calls.
func (r *Runtime) Load(ctx context.Context, modelPath string) (backend.Model, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := ensureEnvironment(); err != nil {
		return nil, fmt.Errorf("initialize onnx runtime: %w", err)
	}

	options, err := ort.NewSessionOptions()
	if err != nil {
		return nil, fmt.Errorf("create session options: %w", err)
	}
	defer options.Destroy()
	if r.Threads > 0 {
		if err := options.SetIntraOpNumThreads(r.Threads); err != nil {
			return nil, fmt.Errorf("set thread count: %w", err)
		}
	}

	inName := r.InputName
	if inName == "" {
		inName = "input"
	}
	outName := r.OutputName
	if outName == "" {
		outName = "logits"
	}

	session, err := ort.NewDynamicAdvancedSession(
		modelPath,
		[]string{inName},
		[]string{outName},
		options,
	)
	if err != nil {
		return nil, fmt.Errorf("create session for %s: %w", modelPath, err)
	}
	return &onnxModel{session: session}, nil
}

type onnxModel struct {
	mu      sync.Mutex
	session *ort.DynamicAdvancedSession
}

func (m *onnxModel) Run(ctx context.Context, input backend.Tensor) (backend.Tensor, error) {
	if err := ctx.Err(); err != nil {
		return backend.Tensor{}, err
	}
	if err := input.Validate(); err != nil {
		return backend.Tensor{}, err
	}

	dims := make([]int64, len(input.Shape))
	for i, d := range input.Shape {
		dims[i] = int64(d)
	}
	inTensor, err := ort.NewTensor(ort.NewShape(dims...), input.Data)
	if err != nil {
		return backend.Tensor{}, fmt.Errorf("create input tensor: %w", err)
	}
	defer inTensor.Destroy()

	m.mu.Lock()
	defer m.mu.Unlock()

	outputs := []ort.Value{nil}
	if err := m.session.Run([]ort.Value{inTensor}, outputs); err != nil {
		return backend.Tensor{}, fmt.Errorf("run session: %w", err)
	}
	outTensor, ok := outputs[0].(*ort.Tensor[float32])
	if !ok {
		if outputs[0] != nil {
			outputs[0].Destroy()
		}
		return backend.Tensor{}, fmt.Errorf("unexpected output tensor type %T", outputs[0])
	}
	defer outTensor.Destroy()

	srcShape := outTensor.GetShape()
	shape := make([]int, len(srcShape))
	for i, d := range srcShape {
		shape[i] = int(d)
	}
	data := make([]float32, len(outTensor.GetData()))
	copy(data, outTensor.GetData())
	return backend.Tensor{Data: data, Shape: shape}, nil
}

func (m *onnxModel) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session != nil {
		err := m.session.Destroy()
		m.session = nil
		return err
	}
	return nil
}
