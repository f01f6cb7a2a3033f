package session

import (
	"context"
	"os"
	"sync"
	"sync/atomic"
)

// Interrupts counts interrupt requests. The first one asks the consumer
// loop to stop gracefully; any later one runs the force function, once.
type Interrupts struct {
	count     atomic.Int32
	stopping  chan struct{}
	stopOnce  sync.Once
	force     func()
	forceOnce sync.Once
}

// NewInterrupts returns a counter that calls force on the second and any
// later interrupt. force may be nil.
func NewInterrupts(force func()) *Interrupts {
	return &Interrupts{
		stopping: make(chan struct{}),
		force:    force,
	}
}

// Notify records one interrupt. Safe for concurrent use.
func (i *Interrupts) Notify() {
	if i.count.Add(1) == 1 {
		i.stopOnce.Do(func() { close(i.stopping) })
		return
	}
	i.forceOnce.Do(func() {
		if i.force != nil {
			i.force()
		}
	})
}

// Stopping is closed by the first interrupt.
func (i *Interrupts) Stopping() <-chan struct{} {
	return i.stopping
}

// Count returns the number of interrupts seen so far.
func (i *Interrupts) Count() int {
	return int(i.count.Load())
}

// Watch forwards every signal from sig to Notify until ctx is done.
func (i *Interrupts) Watch(ctx context.Context, sig <-chan os.Signal) {
	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-sig:
			if !ok {
				return
			}
			i.Notify()
		}
	}
}
