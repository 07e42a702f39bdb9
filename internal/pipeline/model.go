package pipeline

import "github.com/rhasspy/oww-go/internal/tensor"

// Model is the opaque neural-network inference boundary: it maps one
// fixed-shape float32 tensor to another. Pipeline stages never reach past
// this interface into a concrete runtime (spec §1, "External Interfaces"
// — the inference runtime is out of core scope).
type Model interface {
	// Run executes one inference call. The returned tensor is only valid
	// until the next call to Run on the same Model.
	Run(in *tensor.Tensor) (*tensor.Tensor, error)
	// Close releases any runtime resources (sessions, buffers). Safe to
	// call once after the owning stage is done.
	Close() error
}

// ModelLoader constructs a [Model] bound to a single ONNX graph at path,
// with fixed input/output tensor shapes. Stages call Load exactly once
// during initialization.
type ModelLoader interface {
	Load(path string, inputShape, outputShape []int64) (Model, error)
}
