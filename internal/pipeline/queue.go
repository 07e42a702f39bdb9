package pipeline

import "context"

// newUnboundedQueue returns a send side and a receive side backed by a
// growable slice buffer rather than a fixed-capacity channel. Sends on
// the returned send side are always accepted promptly by the relay
// goroutine below, so a slow or stalled receiver can never block the
// sender (spec §5: buffers are unbounded with no backpressure; §9: each
// wake-word classifier's fan-out queue is independent of the others,
// "do not share a single queue with multiple consumers").
//
// Closing the send side drains whatever is still queued to the receive
// side, in order, before closing it. Canceling ctx abandons anything
// still queued and closes the receive side immediately.
func newUnboundedQueue(ctx context.Context) (chan<- []float32, <-chan []float32) {
	in := make(chan []float32)
	out := make(chan []float32)

	go func() {
		defer close(out)
		var queue [][]float32

		for {
			if len(queue) == 0 {
				select {
				case batch, ok := <-in:
					if !ok {
						return
					}
					queue = append(queue, batch)
				case <-ctx.Done():
					return
				}
				continue
			}

			select {
			case batch, ok := <-in:
				if !ok {
					for _, b := range queue {
						select {
						case out <- b:
						case <-ctx.Done():
							return
						}
					}
					return
				}
				queue = append(queue, batch)
			case out <- queue[0]:
				queue = queue[1:]
			case <-ctx.Done():
				return
			}
		}
	}()

	return in, out
}
