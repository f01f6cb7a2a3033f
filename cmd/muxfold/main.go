// muxfold runs programs side by side and folds their output into a live,
// fixed-height terminal dashboard.
//
// Usage:
//
//	muxfold -s '=== RUN (.*)' -e '--- (?:PASS|FAIL): (\S+).*' go test -v ./...
//	muxfold make -j8 -/- go test ./...
//	make 2>&1 | muxfold -s 'make\[\d+\]: Entering directory (.*)' -e 'make\[\d+\]: Leaving directory (.*)'
//
// Each begin/end pattern pair marks a nested region; the first capture group
// (or the group named M) titles it. Regions fold as space runs out.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/x/ansi"
	"github.com/muesli/termenv"
	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/dkoosis/muxfold/internal/config"
	"github.com/dkoosis/muxfold/internal/logging"
	"github.com/dkoosis/muxfold/internal/version"
	"github.com/dkoosis/muxfold/pkg/region"
	"github.com/dkoosis/muxfold/pkg/session"
)

// Exit codes.
const (
	exitOK     = 0
	exitError  = 2
	exitForced = 130
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := pflag.NewFlagSet("muxfold", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	// Everything after the first program name belongs to the program.
	fs.SetInterspersed(false)

	var flags config.CliFlags
	fs.StringArrayVarP(&flags.Begins, "match-begin", "s", nil, "regex matching a region's first line (repeatable, paired with -e)")
	fs.StringArrayVarP(&flags.Ends, "match-end", "e", nil, "regex matching a region's last line (repeatable)")
	fs.StringVarP(&flags.PairsFile, "match-pairs-file", "f", "", "file of begin/end regexes, one pair per two lines")
	fs.StringVarP(&flags.ProgramsFile, "programs-file", "F", "", `file with one shell command per line ("-" for stdin)`)
	fs.StringVar(&flags.Shell, "shell", config.DefaultShell, "shell that runs --programs-file lines")
	fs.BoolVarP(&flags.Replay, "replay", "r", false, "use the alternate screen and print all output at exit")
	fs.IntVarP(&flags.FinalShrink, "final-shrink", "x", config.DefaultFinalShrink, "rows withheld from the final frame")
	fs.IntVarP(&flags.InterlineDelayMS, "interline-delay", "D", config.DefaultInterlineDelayMS, "pause after each line, in milliseconds")
	fs.IntVar(&flags.RefreshIntervalMS, "refresh-interval", config.DefaultRefreshIntervalMS, "minimum time between redraws, in milliseconds")
	fs.BoolVar(&flags.FoldClosed, "fold-closed", false, "show closed regions as their title line only")
	fs.BoolVar(&flags.NoColor, "no-color", false, "disable colors")
	fs.StringVar(&flags.LogFile, "log-file", "", "append structured logs to this file")
	fs.BoolVarP(&flags.Debug, "debug", "d", false, "no live display; print the parsed structure at exit")
	showVersion := fs.Bool("version", false, "print version and exit")
	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: muxfold [flags] [program [args...] [-/- program [args...]]...]\n\n")
		fmt.Fprint(stderr, fs.FlagUsages())
	}

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return exitOK
		}
		fmt.Fprintf(stderr, "muxfold: %v\n", err)
		fs.Usage()
		return exitError
	}
	if *showVersion {
		fmt.Fprintln(stdout, version.String())
		return exitOK
	}

	flags.Programs = fs.Args()
	flags.ShellSet = fs.Changed("shell")
	flags.ReplaySet = fs.Changed("replay")
	flags.FinalShrinkSet = fs.Changed("final-shrink")
	flags.InterlineDelaySet = fs.Changed("interline-delay")
	flags.RefreshIntervalSet = fs.Changed("refresh-interval")
	flags.FoldClosedSet = fs.Changed("fold-closed")
	flags.NoColorSet = fs.Changed("no-color")
	flags.LogFileSet = fs.Changed("log-file")
	flags.DebugSet = fs.Changed("debug")

	app := config.LoadConfig(stderr)
	cfg, err := config.ResolveConfig(flags, app, stdin)
	if err != nil {
		fmt.Fprintf(stderr, "muxfold: %v\n", err)
		return exitError
	}
	matchers, err := region.Compile(cfg.Pairs)
	if err != nil {
		fmt.Fprintf(stderr, "muxfold: %v\n", err)
		return exitError
	}

	logger, closer, err := logging.Open(cfg.LogFile, cfg.Debug)
	if err != nil {
		fmt.Fprintf(stderr, "muxfold: %v\n", err)
		return exitError
	}
	defer closer.Close()
	logger.Info("starting",
		"version", version.Version,
		"config_file", app.Path,
		"pairs", len(cfg.Pairs),
		"programs", len(cfg.Programs),
		"shell", cfg.Shell, "shell_source", cfg.ShellSource,
		"no_color", cfg.NoColor, "no_color_source", cfg.NoColorSource,
		"debug_source", cfg.DebugSource,
	)

	interrupts := session.NewInterrupts(func() {
		logger.Warn("forced exit")
		fmt.Fprint(stdout, ansi.ShowCursor)
		os.Exit(exitForced)
	})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sig := make(chan os.Signal, 4)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sig)
	go interrupts.Watch(ctx, sig)

	s := session.New(session.Options{
		Matchers:        matchers,
		Programs:        cfg.Programs,
		Stdin:           stdin,
		FinalShrink:     cfg.FinalShrink,
		InterlineDelay:  cfg.InterlineDelay,
		RefreshInterval: cfg.RefreshInterval,
		FoldClosed:      cfg.FoldClosed,
		Replay:          cfg.Replay,
		Debug:           cfg.Debug,
		Profile:         colorProfile(stdout, cfg.NoColor),
	}, stdout, newTerminal(stdout), interrupts, logger)

	if err := s.Run(ctx); err != nil {
		logger.Error("session failed", "error", err)
		fmt.Fprintf(stderr, "muxfold: %v\n", err)
		return exitError
	}
	logger.Info("done", "interrupts", interrupts.Count())
	return exitOK
}

func colorProfile(w io.Writer, noColor bool) termenv.Profile {
	if noColor {
		return termenv.Ascii
	}
	return termenv.NewOutput(w).EnvColorProfile()
}

// ttyTerminal queries the size of a real terminal on every call.
type ttyTerminal struct {
	fd int
}

func (t ttyTerminal) Size() (int, int, error) {
	return term.GetSize(t.fd)
}

// fixedTerminal stands in when output is not a terminal.
type fixedTerminal struct {
	width, height int
}

func (t fixedTerminal) Size() (int, int, error) {
	return t.width, t.height, nil
}

// newTerminal returns the size source for w, defaulting to 80x24 when w
// is not a terminal.
func newTerminal(w io.Writer) session.Terminal {
	if f, ok := w.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		return ttyTerminal{fd: int(f.Fd())}
	}
	return fixedTerminal{width: 80, height: 24}
}
