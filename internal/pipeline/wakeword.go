package pipeline

import (
	"context"
	"path/filepath"
	"strings"
	"sync"

	"github.com/rhasspy/oww-go/internal/logger"
	"github.com/rhasspy/oww-go/internal/tensor"
	"github.com/rhasspy/oww-go/internal/wakeworderr"
)

// wakeWordName derives the display name from a model file's stem, without
// extension or directory (spec §4.4, §6).
func wakeWordName(modelPath string) string {
	base := filepath.Base(modelPath)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// wakeWordStage is the Go translation of `featuresToOutput`: it slides a
// 16-embedding window (advancing 1 per step) over incoming features, runs
// the wake-word classifier, and drives the activation FSM for every
// probability in the model's output, in output order (spec §4.4, §9 —
// multi-length outputs are iterated in full, each independently).
func wakeWordStage(ctx context.Context, settings Settings, loader ModelLoader, modelPath string, in <-chan []float32, out *Output, ready *sync.WaitGroup, log *logger.Logger) error {
	name := wakeWordName(modelPath)

	model, err := loader.Load(modelPath, []int64{1, WWFeatures, EmbFeatures}, nil)
	if err != nil {
		return wakeworderr.ModelLoadf(name, "load wake-word model %q: %w", modelPath, err)
	}
	defer model.Close()

	log.Raw("[LOG] Loaded " + name + " model")
	ready.Done()

	act := newActivation(settings.Threshold, settings.TriggerLevel, settings.Refractory)

	var todoFeatures []float32

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case batch, ok := <-in:
			if !ok {
				return nil
			}
			todoFeatures = append(todoFeatures, batch...)

			n := len(todoFeatures) / EmbFeatures
			for n >= WWFeatures {
				window := make([]float32, WWFeatures*EmbFeatures)
				copy(window, todoFeatures[:WWFeatures*EmbFeatures])

				inTensor := tensor.FromData(window, 1, WWFeatures, EmbFeatures)
				outTensor, err := model.Run(inTensor)
				if err != nil {
					return wakeworderr.Inferencef(name, "wake-word model run: %w", err)
				}

				for _, p := range outTensor.Data {
					if settings.Debug {
						out.Trace(name, p)
					}
					if act.step(float64(p)) {
						out.Emit(name)
					}
				}

				todoFeatures = popFront(todoFeatures, EmbFeatures)
				n = len(todoFeatures) / EmbFeatures
			}
		}
	}
}
