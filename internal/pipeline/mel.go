package pipeline

import (
	"context"
	"sync"

	"github.com/rhasspy/oww-go/internal/logger"
	"github.com/rhasspy/oww-go/internal/tensor"
	"github.com/rhasspy/oww-go/internal/wakeworderr"
)

// melStage is the Go translation of `audioToMels` in the original
// openWakeWord-cpp main.cpp: it waits for sample batches on in, runs the
// mel-spectrogram model over complete frameSize windows, applies the
// mandatory affine rescale, and forwards the result on out. It closes out
// when in is closed and fully drained, signaling exhaustion downstream.
func melStage(ctx context.Context, settings Settings, loader ModelLoader, in <-chan []float32, out chan<- []float32, ready *sync.WaitGroup, log *logger.Logger) error {
	defer close(out)

	model, err := loader.Load(settings.MelModelPath, []int64{1, int64(settings.FrameSize)}, nil)
	if err != nil {
		return wakeworderr.ModelLoadf("mel", "load mel model %q: %w", settings.MelModelPath, err)
	}
	defer model.Close()

	log.Raw("[LOG] Loaded mel spectrogram model")
	ready.Done()

	var todoSamples []float32

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case batch, ok := <-in:
			if !ok {
				// Upstream exhausted; any remaining partial frame is
				// dropped per spec §4.2's edge case.
				return nil
			}
			todoSamples = append(todoSamples, batch...)

			for len(todoSamples) >= settings.FrameSize {
				frame := make([]float32, settings.FrameSize)
				copy(frame, todoSamples[:settings.FrameSize])

				inTensor := tensor.FromData(frame, 1, int64(settings.FrameSize))
				outTensor, err := model.Run(inTensor)
				if err != nil {
					return wakeworderr.Inferencef("mel", "mel model run: %w", err)
				}

				mels := make([]float32, len(outTensor.Data))
				for i, m := range outTensor.Data {
					// Mandatory scale: the embedding model was trained
					// against this affine transform (spec §4.2).
					mels[i] = m/10.0 + 2.0
				}

				select {
				case out <- mels:
				case <-ctx.Done():
					return ctx.Err()
				}

				todoSamples = popFront(todoSamples, settings.FrameSize)
			}
		}
	}
}
