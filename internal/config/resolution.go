package config

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/dkoosis/muxfold/pkg/region"
	"github.com/dkoosis/muxfold/pkg/session"
)

// Sources recorded for each resolved value.
const (
	SourceCLI     = "cli"
	SourceEnv     = "env"
	SourceFile    = "file"
	SourceDefault = "default"
)

// ResolvedConfig holds the final configuration after applying all
// priority rules.
type ResolvedConfig struct {
	// Pairs in match priority: command line, pairs file, config file.
	Pairs []region.PairSource
	// Programs in spawn order: programs file, then command line. Empty
	// means standard input is the only source.
	Programs []session.Program

	Shell           string
	Replay          bool
	FinalShrink     int
	InterlineDelay  time.Duration
	RefreshInterval time.Duration
	FoldClosed      bool
	NoColor         bool
	LogFile         string
	Debug           bool

	// Resolution metadata (for debugging)
	ShellSource           string
	ReplaySource          string
	FinalShrinkSource     string
	InterlineDelaySource  string
	RefreshIntervalSource string
	FoldClosedSource      string
	NoColorSource         string
	LogFileSource         string
	DebugSource           string
}

// ResolveConfig resolves configuration from all sources with explicit
// priority order: CLI flags, environment, config file, defaults.
// stdin is read only when the programs file is StdinPath.
func ResolveConfig(flags CliFlags, app *AppConfig, stdin io.Reader) (*ResolvedConfig, error) {
	if app == nil {
		app = &AppConfig{}
	}
	r := &ResolvedConfig{}

	r.Shell, r.ShellSource = resolve(DefaultShell, app.Shell, getEnvString("MUXFOLD_SHELL"), flags.Shell, flags.ShellSet)
	r.Replay, r.ReplaySource = resolve(false, app.Replay, nil, flags.Replay, flags.ReplaySet)
	r.FinalShrink, r.FinalShrinkSource = resolve(DefaultFinalShrink, app.FinalShrink, nil, flags.FinalShrink, flags.FinalShrinkSet)
	r.FoldClosed, r.FoldClosedSource = resolve(false, app.FoldClosed, nil, flags.FoldClosed, flags.FoldClosedSet)
	r.NoColor, r.NoColorSource = resolve(false, app.NoColor, getEnvNoColor(), flags.NoColor, flags.NoColorSet)
	r.LogFile, r.LogFileSource = resolve("", app.LogFile, getEnvString("MUXFOLD_LOG_FILE"), flags.LogFile, flags.LogFileSet)
	r.Debug, r.DebugSource = resolve(false, app.Debug, getEnvBool("MUXFOLD_DEBUG"), flags.Debug, flags.DebugSet)

	delayMS, delaySource := resolve(DefaultInterlineDelayMS, app.InterlineDelayMS, nil, flags.InterlineDelayMS, flags.InterlineDelaySet)
	refreshMS, refreshSource := resolve(DefaultRefreshIntervalMS, app.RefreshIntervalMS, nil, flags.RefreshIntervalMS, flags.RefreshIntervalSet)
	r.InterlineDelay, r.InterlineDelaySource = time.Duration(delayMS)*time.Millisecond, delaySource
	r.RefreshInterval, r.RefreshIntervalSource = time.Duration(refreshMS)*time.Millisecond, refreshSource

	if err := validateResolvedConfig(r); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	pairs, err := region.ZipPairs(flags.Begins, flags.Ends)
	if err != nil {
		return nil, err
	}
	if flags.PairsFile != "" {
		filePairs, err := LoadPairsFile(flags.PairsFile)
		if err != nil {
			return nil, err
		}
		pairs = append(pairs, filePairs...)
	}
	r.Pairs = append(pairs, app.Pairs...)

	if flags.ProgramsFile != "" {
		programs, err := LoadProgramsFile(flags.ProgramsFile, stdin, r.Shell)
		if err != nil {
			return nil, err
		}
		r.Programs = programs
	}
	r.Programs = append(r.Programs, ArgvPrograms(SplitPrograms(flags.Programs))...)
	// With a programs file, stdin is never the fallback source.
	if flags.ProgramsFile != "" && len(r.Programs) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoPrograms, flags.ProgramsFile)
	}

	return r, nil
}

// resolve picks the highest-priority value that was set.
func resolve[T any](def T, file, env *T, cli T, cliSet bool) (T, string) {
	switch {
	case cliSet:
		return cli, SourceCLI
	case env != nil:
		return *env, SourceEnv
	case file != nil:
		return *file, SourceFile
	default:
		return def, SourceDefault
	}
}

// getEnvBool reads a boolean from environment variables, trying multiple keys.
// Returns nil if none are set, or a pointer to the boolean value.
func getEnvBool(keys ...string) *bool {
	for _, key := range keys {
		if val := os.Getenv(key); val != "" {
			if b, err := strconv.ParseBool(val); err == nil {
				return &b
			}
		}
	}
	return nil
}

// getEnvNoColor honours MUXFOLD_NO_COLOR as a boolean and NO_COLOR as
// present-means-true.
func getEnvNoColor() *bool {
	if b := getEnvBool("MUXFOLD_NO_COLOR"); b != nil {
		return b
	}
	if os.Getenv("NO_COLOR") != "" {
		b := true
		return &b
	}
	return nil
}

func getEnvString(key string) *string {
	if val := os.Getenv(key); val != "" {
		return &val
	}
	return nil
}

// validateResolvedConfig validates the resolved configuration and returns errors for invalid states.
func validateResolvedConfig(cfg *ResolvedConfig) error {
	if cfg.FinalShrink < 0 {
		return fmt.Errorf("%w: final_shrink must not be negative, got: %d", ErrInvalidValue, cfg.FinalShrink)
	}
	if cfg.InterlineDelay < 0 {
		return fmt.Errorf("%w: interline_delay_ms must not be negative, got: %s", ErrInvalidValue, cfg.InterlineDelay)
	}
	if cfg.RefreshInterval <= 0 {
		return fmt.Errorf("%w: refresh_interval_ms must be positive, got: %s", ErrInvalidValue, cfg.RefreshInterval)
	}
	if cfg.Shell == "" {
		return fmt.Errorf("%w: shell must not be empty", ErrInvalidValue)
	}
	return nil
}
