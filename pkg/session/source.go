package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"time"

	"github.com/dkoosis/muxfold/pkg/broker"
	"github.com/dkoosis/muxfold/pkg/region"
)

// StdinDescription titles the standard input source.
const StdinDescription = "<<stdin>>"

// ErrEmptyProgram is returned for a program with no argv.
var ErrEmptyProgram = errors.New("program has no command")

const waitDelay = 2 * time.Second

// Program is one command to spawn. Description is shown as the pane title.
type Program struct {
	Description string
	Argv        []string
}

// Source is one pane: a stream of lines and the tree built from them.
type Source struct {
	Description string
	Content     *region.Content

	cmd     *exec.Cmd
	cancels []context.CancelFunc
}

// Stop cancels the source's readers.
func (s *Source) Stop() {
	for _, cancel := range s.cancels {
		cancel()
	}
}

// Wait reaps the source's process, if any. It must only be called once
// all of its readers have returned.
func (s *Source) Wait() error {
	if s.cmd == nil {
		return nil
	}
	err := s.cmd.Wait()
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return nil
	}
	return err
}

func (s *Source) pid() int {
	if s.cmd == nil || s.cmd.Process == nil {
		return 0
	}
	return s.cmd.Process.Pid
}

// startProgram spawns p with stdin closed and feeds its stdout and stderr
// into b as source id.
func startProgram(ctx context.Context, b *broker.Broker, id int, p Program) (*Source, error) {
	if len(p.Argv) == 0 || p.Argv[0] == "" {
		return nil, fmt.Errorf("%q: %w", p.Description, ErrEmptyProgram)
	}

	cmd := exec.CommandContext(ctx, p.Argv[0], p.Argv[1:]...)
	cmd.WaitDelay = waitDelay
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("%s: stdout: %w", p.Description, err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("%s: stderr: %w", p.Description, err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start %s: %w", p.Description, err)
	}

	src := &Source{Description: p.Description, Content: region.NewContent(), cmd: cmd}
	for _, r := range []io.Reader{stdout, stderr} {
		cancel, err := b.AddReader(id, r)
		if err != nil {
			return src, err
		}
		src.cancels = append(src.cancels, cancel)
	}
	return src, nil
}

// stdinSource feeds r into b as source id.
func stdinSource(b *broker.Broker, id int, r io.Reader) (*Source, error) {
	cancel, err := b.AddReader(id, r)
	if err != nil {
		return nil, err
	}
	return &Source{
		Description: StdinDescription,
		Content:     region.NewContent(),
		cancels:     []context.CancelFunc{cancel},
	}, nil
}
