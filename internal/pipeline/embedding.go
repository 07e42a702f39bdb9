package pipeline

import (
	"context"
	"sync"

	"github.com/rhasspy/oww-go/internal/logger"
	"github.com/rhasspy/oww-go/internal/tensor"
	"github.com/rhasspy/oww-go/internal/wakeworderr"
)

// embeddingStage is the Go translation of `melsToFeatures`: it slides a
// 76-mel-frame window (advancing 8 frames per step) over incoming mels,
// runs the embedding model, and fans the entire flattened output out to
// every wake-word stage's feature channel identically (spec §4.3 —
// "Fan-out ... append the entire flattened output to every FeatureBuffer").
func embeddingStage(ctx context.Context, settings Settings, loader ModelLoader, in <-chan []float32, outs []chan<- []float32, ready *sync.WaitGroup, log *logger.Logger) error {
	defer func() {
		for _, o := range outs {
			close(o)
		}
	}()

	model, err := loader.Load(settings.EmbeddingModelPath, []int64{1, EmbWindow, NumMels, 1}, nil)
	if err != nil {
		return wakeworderr.ModelLoadf("embedding", "load embedding model %q: %w", settings.EmbeddingModelPath, err)
	}
	defer model.Close()

	log.Raw("[LOG] Loaded speech embedding model")
	ready.Done()

	var todoMels []float32

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case batch, ok := <-in:
			if !ok {
				return nil
			}
			todoMels = append(todoMels, batch...)

			melFrames := len(todoMels) / NumMels
			for melFrames >= EmbWindow {
				window := make([]float32, EmbWindow*NumMels)
				copy(window, todoMels[:EmbWindow*NumMels])

				inTensor := tensor.FromData(window, 1, EmbWindow, NumMels, 1)
				outTensor, err := model.Run(inTensor)
				if err != nil {
					return wakeworderr.Inferencef("embedding", "embedding model run: %w", err)
				}

				features := make([]float32, len(outTensor.Data))
				copy(features, outTensor.Data)

				for _, o := range outs {
					fanout := make([]float32, len(features))
					copy(fanout, features)
					select {
					case o <- fanout:
					case <-ctx.Done():
						return ctx.Err()
					}
				}

				todoMels = popFront(todoMels, EmbStep*NumMels)
				melFrames = len(todoMels) / NumMels
			}
		}
	}
}
