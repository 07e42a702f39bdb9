// Package tensor defines the minimal float32 tensor type that crosses the
// boundary between the pipeline stages and the opaque [Model] they drive.
// It carries just enough shape information for callers to validate model
// contracts (spec §6) without depending on any particular inference
// runtime.
package tensor

import "fmt"

// Tensor is a flat, row-major float32 buffer tagged with its logical shape.
type Tensor struct {
	Shape []int64
	Data  []float32
}

// New allocates a zeroed tensor of the given shape.
func New(shape ...int64) *Tensor {
	return &Tensor{Shape: shape, Data: make([]float32, Count(shape))}
}

// FromData wraps an existing flat buffer with a shape, without copying.
func FromData(data []float32, shape ...int64) *Tensor {
	return &Tensor{Shape: shape, Data: data}
}

// Count returns the total element count implied by shape.
func Count(shape []int64) int {
	n := int64(1)
	for _, d := range shape {
		n *= d
	}
	return int(n)
}

// Validate checks that t's data length matches its declared shape.
func (t *Tensor) Validate() error {
	want := Count(t.Shape)
	if len(t.Data) != want {
		return fmt.Errorf("tensor: shape %v implies %d elements, got %d", t.Shape, want, len(t.Data))
	}
	return nil
}
