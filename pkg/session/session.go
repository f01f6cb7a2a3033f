// Package session runs sources, parses their lines into region trees and
// keeps a live dashboard of them on the terminal.
package session

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/muesli/termenv"

	"github.com/dkoosis/muxfold/pkg/broker"
	"github.com/dkoosis/muxfold/pkg/layout"
	"github.com/dkoosis/muxfold/pkg/region"
)

// Terminal reports the current size of the output terminal.
type Terminal interface {
	Size() (width, height int, err error)
}

// Options configure a Session.
type Options struct {
	Matchers *region.Matchers
	// Programs are spawned in order. With none, Stdin is the only source.
	Programs []Program
	Stdin    io.Reader

	FinalShrink     int
	InterlineDelay  time.Duration
	RefreshInterval time.Duration
	FoldClosed      bool
	Replay          bool
	Debug           bool
	Profile         termenv.Profile
}

// Session owns the sources and the single consumer loop.
type Session struct {
	opts       Options
	out        io.Writer
	term       Terminal
	interrupts *Interrupts
	logger     *slog.Logger
	now        func() time.Time

	sources []*Source
	panes   []layout.Pane
}

// New returns a session writing to out. interrupts may be nil.
func New(opts Options, out io.Writer, term Terminal, interrupts *Interrupts, logger *slog.Logger) *Session {
	if interrupts == nil {
		interrupts = NewInterrupts(nil)
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Session{
		opts:       opts,
		out:        out,
		term:       term,
		interrupts: interrupts,
		logger:     logger,
		now:        time.Now,
	}
}

// Sources returns the sources started by Run.
func (s *Session) Sources() []*Source {
	return s.sources
}

// Run starts every source and consumes their lines until all are
// exhausted or an interrupt arrives. It then draws the final frame, joins
// the readers, reaps the processes and writes the completion output.
func (s *Session) Run(ctx context.Context) error {
	procCtx, kill := context.WithCancel(ctx)
	defer kill()

	b := broker.New(procCtx, s.logger)
	if err := s.start(procCtx, b); err != nil {
		kill()
		s.join(b)
		return err
	}
	b.Seal()

	var scr *screen
	if !s.opts.Debug {
		scr = newScreen(s.out, s.opts.Profile, s.opts.Replay)
		if err := scr.Begin(); err != nil {
			kill()
			s.join(b)
			return fmt.Errorf("render: %w", err)
		}
	}

	interrupted, err := s.loop(ctx, b, scr)
	if scr != nil {
		if err == nil {
			err = s.draw(scr, s.opts.FinalShrink)
		}
		if endErr := scr.End(); err == nil && endErr != nil {
			err = fmt.Errorf("render: %w", endErr)
		}
	}
	if interrupted || err != nil {
		s.logger.Info("stopping sources", "interrupted", interrupted, "error", err)
		for _, src := range s.sources {
			src.Stop()
		}
		kill()
	}
	s.join(b)
	if err != nil {
		return err
	}
	return s.complete()
}

func (s *Session) start(ctx context.Context, b *broker.Broker) error {
	if len(s.opts.Programs) == 0 {
		src, err := stdinSource(b, 0, s.opts.Stdin)
		if err != nil {
			return err
		}
		s.add(src)
		return nil
	}

	for i, p := range s.opts.Programs {
		src, err := startProgram(ctx, b, i, p)
		if src != nil {
			s.add(src)
		}
		if err != nil {
			return err
		}
		s.logger.Info("program started", "source", i, "program", p.Description, "pid", src.pid())
	}
	return nil
}

func (s *Session) add(src *Source) {
	s.sources = append(s.sources, src)
	s.panes = append(s.panes, layout.Pane{Title: src.Description, Content: src.Content})
}

// join cancels any live readers, waits for them, then reaps processes.
func (s *Session) join(b *broker.Broker) {
	if err := b.Shutdown(); err != nil {
		s.logger.Warn("reader stopped with error", "error", err)
	}
	for i, src := range s.sources {
		if err := src.Wait(); err != nil {
			s.logger.Warn("wait failed", "source", i, "error", err)
		}
	}
}

// loop is the consumer: it races the next event, the redraw timer and an
// interrupt. It reports whether it stopped because of an interrupt.
func (s *Session) loop(ctx context.Context, b *broker.Broker, scr *screen) (bool, error) {
	sched := NewScheduler(s.opts.RefreshInterval)
	timer := time.NewTimer(time.Hour)
	timer.Stop()
	defer timer.Stop()
	var wake <-chan time.Time

	events := b.Events()
	for {
		select {
		case <-ctx.Done():
			return true, nil
		case <-s.interrupts.Stopping():
			return true, nil

		case ev, ok := <-events:
			if !ok {
				s.logger.Debug("all sources exhausted")
				return false, nil
			}
			s.handle(ev)

			if scr != nil {
				now := s.now()
				if sched.OnEvent(now) {
					if err := s.draw(scr, 0); err != nil {
						return false, err
					}
					sched.Drawn(s.now())
				} else if wake == nil {
					timer.Reset(sched.Wait(now))
					wake = timer.C
				}
			}

			if s.opts.InterlineDelay > 0 && !s.pause(ctx) {
				return true, nil
			}

		case <-wake:
			wake = nil
			now := s.now()
			if sched.OnTimer(now) {
				if err := s.draw(scr, 0); err != nil {
					return false, err
				}
				sched.Drawn(s.now())
			} else if sched.Owed() {
				timer.Reset(sched.Wait(now))
				wake = timer.C
			}
		}
	}
}

// handle applies one event to its source's tree.
func (s *Session) handle(ev broker.Event) {
	if ev.Source < 0 || ev.Source >= len(s.sources) {
		return
	}
	src := s.sources[ev.Source]
	if ev.Err != nil {
		s.logger.Warn("read error", "source", ev.Source, "program", src.Description, "error", ev.Err)
		return
	}
	action := src.Content.Append(ev.Line, s.opts.Matchers)
	if action != region.Appended {
		s.logger.Debug("region event", "source", ev.Source, "action", action)
	}
}

// pause sleeps for the inter-line delay. It returns false if interrupted.
func (s *Session) pause(ctx context.Context) bool {
	t := time.NewTimer(s.opts.InterlineDelay)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	case <-s.interrupts.Stopping():
		return false
	}
}

// draw lays out every source into the terminal, minus shrink rows.
func (s *Session) draw(scr *screen, shrink int) error {
	width, height, err := s.term.Size()
	if err != nil {
		return fmt.Errorf("terminal size: %w", err)
	}
	rows := height - shrink
	if rows < 0 {
		rows = 0
	}

	start := time.Now()
	engine := layout.Engine{Width: width, FoldClosed: s.opts.FoldClosed}
	frame := engine.Allocate(s.panes, rows)
	if err := scr.Frame(frame, width); err != nil {
		return fmt.Errorf("render: %w", err)
	}
	s.logger.Debug("frame drawn", "width", width, "rows", rows, "took", time.Since(start))
	return nil
}

// complete writes the trace in debug mode, or the literal output of every
// source in replay mode.
func (s *Session) complete() error {
	var dump func(io.Writer, *region.Content) error
	switch {
	case s.opts.Debug:
		dump = region.Trace
	case s.opts.Replay:
		dump = region.Replay
	default:
		return nil
	}
	for _, src := range s.sources {
		if err := dump(s.out, src.Content); err != nil {
			return fmt.Errorf("write output: %w", err)
		}
	}
	return nil
}
