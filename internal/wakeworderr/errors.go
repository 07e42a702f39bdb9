// Package wakeworderr defines the sentinel error kinds that can halt the
// wake-word pipeline. All errors propagate out of their owning stage and
// terminate the process; there is no partial-failure mode.
package wakeworderr

import "fmt"

// Kind classifies a fatal pipeline error.
type Kind int

const (
	// KindConfig covers a missing required flag or a malformed numeric argument.
	KindConfig Kind = iota
	// KindModelLoad covers a model file that cannot be opened, parsed, or has
	// an unexpected I/O shape.
	KindModelLoad
	// KindInference covers a runtime failure during a model run.
	KindInference
	// KindInput covers a read failure on the sample source, distinct from EOF.
	KindInput
)

func (k Kind) String() string {
	switch k {
	case KindConfig:
		return "config"
	case KindModelLoad:
		return "model load"
	case KindInference:
		return "inference"
	case KindInput:
		return "input"
	default:
		return "unknown"
	}
}

// Error is a fatal pipeline error tagged with its Kind and the stage it
// originated in.
type Error struct {
	Kind  Kind
	Stage string
	Err   error
}

func (e *Error) Error() string {
	if e.Stage != "" {
		return fmt.Sprintf("%s: %s: %v", e.Stage, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// New wraps err as a fatal error of the given kind, originating in stage.
func New(kind Kind, stage string, err error) *Error {
	return &Error{Kind: kind, Stage: stage, Err: err}
}

// Configf builds a KindConfig error with a formatted message.
func Configf(format string, args ...any) *Error {
	return &Error{Kind: KindConfig, Err: fmt.Errorf(format, args...)}
}

// ModelLoadf builds a KindModelLoad error originating in stage.
func ModelLoadf(stage, format string, args ...any) *Error {
	return &Error{Kind: KindModelLoad, Stage: stage, Err: fmt.Errorf(format, args...)}
}

// Inferencef builds a KindInference error originating in stage.
func Inferencef(stage, format string, args ...any) *Error {
	return &Error{Kind: KindInference, Stage: stage, Err: fmt.Errorf(format, args...)}
}

// Inputf builds a KindInput error originating in stage.
func Inputf(stage, format string, args ...any) *Error {
	return &Error{Kind: KindInput, Stage: stage, Err: fmt.Errorf(format, args...)}
}
