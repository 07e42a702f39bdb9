package pipeline

import (
	"context"
	"io"
	"sync"

	"github.com/rhasspy/oww-go/internal/logger"
	"github.com/rhasspy/oww-go/internal/wakeworderr"
)

// Run wires the full Source → Mel → Embedding → Wake-word[i] topology and
// blocks until the source is exhausted and every stage has drained and
// exited, or ctx is canceled, or a stage reports a fatal error.
//
// Every stage loads its own model concurrently and signals the shared
// ready barrier independently (spec §5, "State.numReady"); Run waits for
// all of them — or the first fatal error — before admitting any samples,
// then logs the single contractual "[LOG] Ready" line and starts feeding
// the source.
func Run(ctx context.Context, settings Settings, loader ModelLoader, src Source, out *Output, log *logger.Logger) error {
	settings.Normalize()

	// A local cancel ensures that any early return (fatal error from one
	// stage, parent ctx cancellation) unblocks every other stage's
	// ctx.Done() select branch instead of leaking goroutines parked on a
	// channel nobody will ever close.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	numWW := len(settings.WakeWordModelPaths)
	if numWW == 0 {
		return wakeworderr.Configf("at least one --model is required")
	}

	// Every inter-stage buffer is an unbounded queue (queue.go), so no
	// producer ever blocks on a slower consumer. Embedding→Wake-word is a
	// fan-out to N independent consumers, so each gets its own queue: a
	// slow or stalled wake-word model must never block delivery to the
	// others (spec §5, §9).
	sampleCh, sampleOut := newUnboundedQueue(ctx)
	melCh, melOut := newUnboundedQueue(ctx)

	featureIns := make([]chan<- []float32, numWW)
	featureOuts := make([]<-chan []float32, numWW)
	for i := range featureIns {
		featureIns[i], featureOuts[i] = newUnboundedQueue(ctx)
	}

	var ready sync.WaitGroup
	ready.Add(2 + numWW)
	readyCh := make(chan struct{})
	go func() {
		ready.Wait()
		close(readyCh)
	}()

	errCh := make(chan error, 2+numWW)

	go func() { errCh <- melStage(ctx, settings, loader, sampleOut, melCh, &ready, log) }()
	go func() { errCh <- embeddingStage(ctx, settings, loader, melOut, featureIns, &ready, log) }()
	for i, p := range settings.WakeWordModelPaths {
		i, p := i, p
		go func() {
			errCh <- wakeWordStage(ctx, settings, loader, p, featureOuts[i], out, &ready, log)
		}()
	}

	select {
	case <-readyCh:
	case err := <-errCh:
		cancel()
		return err
	case <-ctx.Done():
		return ctx.Err()
	}

	log.Raw("[LOG] Ready")

	// Collect stage completions concurrently with feedSource: the moment
	// any stage reports a fatal error, cancel ctx right away so every
	// other stage's ctx.Done() branch unblocks it instead of leaving
	// feedSource (and the dead stage's upstream) parked on a channel send
	// that nothing will ever drain again (spec §7: one failing stage
	// halts the whole pipeline, not just itself).
	stageErrs := make([]error, 0, 2+numWW)
	stagesDone := make(chan struct{})
	go func() {
		defer close(stagesDone)
		for i := 0; i < 2+numWW; i++ {
			if err := <-errCh; err != nil {
				stageErrs = append(stageErrs, err)
				cancel()
			}
		}
	}()

	readErr := feedSource(ctx, settings, src, sampleCh)
	<-stagesDone

	for _, err := range stageErrs {
		if err != nil {
			return err
		}
	}
	return readErr
}

// feedSource reads frameSize-sized batches from src and forwards them on
// sampleCh until src is exhausted, closing sampleCh on return. A final
// short read below frameSize is still forwarded — the mel stage's own
// windowing drops whatever remains below one full frame (spec §4.1,
// scenario "partial last frame is dropped, not padded").
func feedSource(ctx context.Context, settings Settings, src Source, sampleCh chan<- []float32) error {
	defer close(sampleCh)

	buf := make([]int16, settings.FrameSize)
	for {
		n, err := src.Read(buf)
		if n > 0 {
			batch := make([]float32, n)
			for i := 0; i < n; i++ {
				batch[i] = float32(buf[i])
			}
			select {
			case sampleCh <- batch:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return wakeworderr.Inputf("source", "read samples: %w", err)
		}
	}
}
