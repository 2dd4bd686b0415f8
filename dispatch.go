package main

import (
	"context"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
)

// dispatchMsg runs a closure on the Update goroutine.
type dispatchMsg func()

// loopDispatcher queues closures in order and forwards them to the
// bubbletea program. Dispatch never blocks, so it is safe to call from
// Update itself.
type loopDispatcher struct {
	mu    sync.Mutex
	queue []func()
	wake  chan struct{}
}

func newLoopDispatcher() *loopDispatcher {
	return &loopDispatcher{wake: make(chan struct{}, 1)}
}

func (d *loopDispatcher) Dispatch(fn func()) {
	d.mu.Lock()
	d.queue = append(d.queue, fn)
	d.mu.Unlock()

	select {
	case d.wake <- struct{}{}:
	default:
		// forwarder already signalled
	}
}

// run forwards queued closures through send until ctx is done.
func (d *loopDispatcher) run(ctx context.Context, send func(tea.Msg)) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-d.wake:
		}
		for {
			fn, ok := d.next()
			if !ok {
				break
			}
			send(dispatchMsg(fn))
		}
	}
}

func (d *loopDispatcher) next() (func(), bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.queue) == 0 {
		return nil, false
	}
	fn := d.queue[0]
	d.queue[0] = nil
	d.queue = d.queue[1:]
	return fn, true
}
