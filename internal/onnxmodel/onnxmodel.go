// Package onnxmodel implements pipeline.ModelLoader and pipeline.Model on
// top of github.com/yalue/onnxruntime_go, the same ONNX Runtime binding
// the teacher uses for live wake-word inference.
package onnxmodel

import (
	"fmt"
	"sync"

	"github.com/rhasspy/oww-go/internal/pipeline"
	"github.com/rhasspy/oww-go/internal/tensor"
	ort "github.com/yalue/onnxruntime_go"
)

// Runtime owns the single process-wide ONNX Runtime environment. The
// library only permits one InitializeEnvironment/DestroyEnvironment pair
// per process, so Runtime guards initialization with a sync.Once and
// leaves Close to be called exactly once by its owner (grounded on
// `internal/wakeword/detector.go`'s ort.InitializeEnvironment call, made
// safe for the pipeline's concurrent model-loading stages).
type Runtime struct {
	libPath string
	once    sync.Once
	initErr error
}

// NewRuntime returns a Runtime that will load the ONNX Runtime shared
// library from libPath on first use. An empty libPath uses the
// platform-default search performed by the library itself.
func NewRuntime(libPath string) *Runtime {
	return &Runtime{libPath: libPath}
}

func (r *Runtime) ensureInit() error {
	r.once.Do(func() {
		if r.libPath != "" {
			ort.SetSharedLibraryPath(r.libPath)
		}
		r.initErr = ort.InitializeEnvironment()
	})
	return r.initErr
}

// Close tears down the ONNX Runtime environment. Call once after every
// Model loaded from this Runtime has been closed.
func (r *Runtime) Close() error {
	return ort.DestroyEnvironment()
}

// Load implements pipeline.ModelLoader. It inspects the graph's own
// declared input/output names via ort.GetInputOutputInfo and builds a
// single-input, single-output advanced session bound to reusable
// input/output tensors sized by inputShape. outputShape may be nil — the
// model's own declared output shape is used instead, since several of
// the pipeline's graphs (notably the mel-spectrogram model) produce a
// sample-count-dependent number of frames that isn't known statically.
func (r *Runtime) Load(path string, inputShape, outputShape []int64) (pipeline.Model, error) {
	if err := r.ensureInit(); err != nil {
		return nil, fmt.Errorf("initialize onnx runtime: %w", err)
	}

	inInfo, outInfo, err := ort.GetInputOutputInfo(path)
	if err != nil {
		return nil, fmt.Errorf("inspect model %q: %w", path, err)
	}
	if len(inInfo) == 0 || len(outInfo) == 0 {
		return nil, fmt.Errorf("model %q declares no input/output", path)
	}

	if outputShape == nil {
		outputShape = outInfo[0].Dimensions
	}

	inTensor, err := ort.NewEmptyTensor[float32](ort.NewShape(inputShape...))
	if err != nil {
		return nil, fmt.Errorf("allocate input tensor for %q: %w", path, err)
	}
	outTensor, err := ort.NewEmptyTensor[float32](ort.NewShape(outputShape...))
	if err != nil {
		inTensor.Destroy()
		return nil, fmt.Errorf("allocate output tensor for %q: %w", path, err)
	}

	opts, err := ort.NewSessionOptions()
	if err != nil {
		inTensor.Destroy()
		outTensor.Destroy()
		return nil, fmt.Errorf("create session options for %q: %w", path, err)
	}
	defer opts.Destroy()
	_ = opts.SetIntraOpNumThreads(1)
	_ = opts.SetInterOpNumThreads(1)

	sess, err := ort.NewAdvancedSession(
		path,
		[]string{inInfo[0].Name}, []string{outInfo[0].Name},
		[]ort.Value{inTensor}, []ort.Value{outTensor},
		opts,
	)
	if err != nil {
		inTensor.Destroy()
		outTensor.Destroy()
		return nil, fmt.Errorf("create session for %q: %w", path, err)
	}

	return &sessionModel{
		session: sess,
		in:      inTensor,
		out:     outTensor,
	}, nil
}

type sessionModel struct {
	session *ort.AdvancedSession
	in      *ort.Tensor[float32]
	out     *ort.Tensor[float32]
}

func (m *sessionModel) Run(in *tensor.Tensor) (*tensor.Tensor, error) {
	if err := in.Validate(); err != nil {
		return nil, fmt.Errorf("input tensor: %w", err)
	}
	copy(m.in.GetData(), in.Data)

	if err := m.session.Run(); err != nil {
		return nil, fmt.Errorf("session run: %w", err)
	}

	data := m.out.GetData()
	out := make([]float32, len(data))
	copy(out, data)
	outShape := []int64(m.out.GetShape())
	return tensor.FromData(out, outShape...), nil
}

func (m *sessionModel) Close() error {
	m.session.Destroy()
	m.in.Destroy()
	m.out.Destroy()
	return nil
}
