// Package broker fans lines from many readers into one ordered event stream.
//
// Each reader runs in its own goroutine and owns a private cancel function.
// Events from one reader keep their order; events from different readers
// interleave in arrival order. The event queue is unbounded, so a slow
// consumer never blocks a reader.
package broker

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"
)

// ErrSealed is returned by AddReader once the broker is sealed or shut down.
var ErrSealed = errors.New("broker: sealed")

const maxLineBytes = 4 * 1024 * 1024

// Event is one line, or one read error, from a source.
type Event struct {
	Source int
	Line   string
	Err    error
}

// Broker owns the reader goroutines and the event queue.
type Broker struct {
	ctx    context.Context
	logger *slog.Logger

	in   chan Event
	out  chan Event
	done chan struct{}

	group errgroup.Group

	mu      sync.Mutex
	cancels []context.CancelFunc
	sealed  bool

	sealOnce sync.Once
	stopOnce sync.Once
}

// New starts a broker. Readers stop when ctx is cancelled.
func New(ctx context.Context, logger *slog.Logger) *Broker {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	b := &Broker{
		ctx:    ctx,
		logger: logger,
		in:     make(chan Event),
		out:    make(chan Event),
		done:   make(chan struct{}),
	}
	go b.pump()
	return b
}

// Events returns the consumer side. It is closed after Seal once every
// reader has finished and every queued event was delivered, or on Shutdown.
func (b *Broker) Events() <-chan Event {
	return b.out
}

// AddReader starts reading lines from r on behalf of source. The returned
// function stops this reader alone; if r is an io.Closer it is closed to
// unblock a pending read.
func (b *Broker) AddReader(source int, r io.Reader) (context.CancelFunc, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.sealed {
		return nil, ErrSealed
	}

	ctx, cancel := context.WithCancel(b.ctx)
	b.cancels = append(b.cancels, cancel)
	b.group.Go(func() error {
		defer cancel()
		return b.read(ctx, source, r)
	})
	b.logger.Debug("reader started", "source", source)
	return cancel, nil
}

// Seal closes the send side: no more readers may be added, and Events is
// closed once the existing readers are exhausted.
func (b *Broker) Seal() {
	b.sealOnce.Do(func() {
		b.mu.Lock()
		b.sealed = true
		b.mu.Unlock()
		go func() {
			_ = b.group.Wait()
			close(b.in)
		}()
	})
}

// Shutdown cancels every live reader, stops delivery, and waits for all
// reader goroutines to return. The first reader error is returned.
func (b *Broker) Shutdown() error {
	b.mu.Lock()
	b.sealed = true
	cancels := b.cancels
	b.cancels = nil
	b.mu.Unlock()

	for _, cancel := range cancels {
		cancel()
	}
	b.stopOnce.Do(func() { close(b.done) })

	err := b.group.Wait()
	b.logger.Debug("readers joined", "readers", len(cancels), "error", err)
	return err
}

// pump moves events from readers into an unbounded queue and on to the
// consumer.
func (b *Broker) pump() {
	defer close(b.out)

	var queue []Event
	in := b.in
	for in != nil || len(queue) > 0 {
		var out chan<- Event
		var next Event
		if len(queue) > 0 {
			out = b.out
			next = queue[0]
		}

		select {
		case ev, ok := <-in:
			if !ok {
				in = nil
				continue
			}
			queue = append(queue, ev)
		case out <- next:
			queue[0] = Event{}
			queue = queue[1:]
		case <-b.done:
			return
		}
	}
}

type scanResult struct {
	line string
	err  error
}

func (b *Broker) read(ctx context.Context, source int, r io.Reader) error {
	lines := make(chan scanResult)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(r)
		scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
		for scanner.Scan() {
			select {
			case lines <- scanResult{line: scanner.Text()}:
			case <-ctx.Done():
				return
			}
		}
		if err := scanner.Err(); err != nil {
			select {
			case lines <- scanResult{err: err}:
			case <-ctx.Done():
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			closeReader(r)
			b.logger.Debug("reader cancelled", "source", source)
			return nil
		case res, ok := <-lines:
			if !ok {
				b.logger.Debug("reader exhausted", "source", source)
				return nil
			}
			if ctx.Err() != nil {
				closeReader(r)
				return nil
			}
			select {
			case b.in <- Event{Source: source, Line: res.line, Err: res.err}:
			case <-ctx.Done():
				closeReader(r)
				return nil
			}
			if res.err != nil {
				b.logger.Warn("read failed", "source", source, "error", res.err)
				return fmt.Errorf("source %d: %w", source, res.err)
			}
		}
	}
}

func closeReader(r io.Reader) {
	if c, ok := r.(io.Closer); ok {
		_ = c.Close()
	}
}
