package watch

import (
	"context"
	"sync"
	"time"
)

// Settle coalesces bursts of events per path: a path is emitted once no event for
// it has arrived for quiet. Writers usually create then write a file in several steps.
func Settle(ctx context.Context, in <-chan Event, quiet time.Duration) <-chan Event {
	out := make(chan Event)
	go func() {
		defer close(out)
		var mu sync.Mutex
		timers := map[string]*time.Timer{}
		ready := make(chan string, 100)
		defer func() {
			mu.Lock()
			for _, t := range timers {
				t.Stop()
			}
			mu.Unlock()
		}()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-in:
				if !ok {
					return
				}
				mu.Lock()
				if t, ok := timers[ev.Path]; ok {
					t.Stop()
				}
				p := ev.Path
				timers[p] = time.AfterFunc(quiet, func() {
					select {
					case ready <- p:
					case <-ctx.Done():
					}
				})
				mu.Unlock()
			case p := <-ready:
				mu.Lock()
				delete(timers, p)
				mu.Unlock()
				select {
				case out <- Event{Path: p}:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out
}
