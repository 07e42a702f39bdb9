// Package pipeline implements the staged producer/consumer wake-word
// detection pipeline: Source → Mel → Embedding → Wake-word[i] (fan-out),
// the sliding-window arithmetic feeding each stage, and the
// activation/refractory state machine that turns per-step probabilities
// into discrete wake-word name events.
//
// The neural-network inference itself is treated as opaque: every stage
// talks to a [Model] loaded through a [ModelLoader], never to a concrete
// runtime. Model contracts (tensor shapes) are fixed by the constants
// below and must not be parameterized.
package pipeline

// Fixed by the model contracts (spec §3) — never parameterized.
const (
	// ChunkSamples is 80 ms of audio at 16 kHz.
	ChunkSamples = 1280
	// NumMels is the number of mel bins per frame.
	NumMels = 32
	// EmbWindow is the number of mel frames the embedding model consumes
	// per call (~775 ms).
	EmbWindow = 76
	// EmbStep is the number of mel frames the embedding sliding window
	// advances per step (80 ms).
	EmbStep = 8
	// EmbFeatures is the embedding vector dimensionality.
	EmbFeatures = 96
	// WWFeatures is the number of embedding vectors a wake-word
	// classifier consumes per call.
	WWFeatures = 16

	// SampleRate is the only supported input sample rate.
	SampleRate = 16000
)

// Settings is the static, immutable-after-construction run configuration
// shared read-only by every stage.
type Settings struct {
	MelModelPath       string
	EmbeddingModelPath string
	WakeWordModelPaths []string // ordered; one wake-word stage per entry

	StepFrames int // 80 ms chunks per mel invocation; FrameSize = StepFrames * ChunkSamples
	FrameSize  int

	Threshold    float64 // activation threshold, [0,1]
	TriggerLevel int     // consecutive above-threshold steps required to fire
	Refractory   int     // post-trigger steps before re-arming

	Debug bool // log every probability to the debug trace sink
}

// DefaultSettings returns a Settings populated with spec-mandated defaults.
// Callers still must supply at least one entry in WakeWordModelPaths.
func DefaultSettings() Settings {
	s := Settings{
		MelModelPath:       "models/melspectrogram.onnx",
		EmbeddingModelPath: "models/embedding_model.onnx",
		StepFrames:         4,
		Threshold:          0.5,
		TriggerLevel:       4,
		Refractory:         20,
	}
	s.FrameSize = s.StepFrames * ChunkSamples
	return s
}

// Normalize recomputes derived fields (FrameSize) from StepFrames. Call
// after changing StepFrames directly.
func (s *Settings) Normalize() {
	if s.StepFrames <= 0 {
		s.StepFrames = 4
	}
	s.FrameSize = s.StepFrames * ChunkSamples
}
