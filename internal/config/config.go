package config

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/kballard/go-shellquote"
	"gopkg.in/yaml.v3"

	"github.com/dkoosis/muxfold/pkg/region"
	"github.com/dkoosis/muxfold/pkg/session"
)

// Configuration errors.
var (
	ErrUnpairedPattern = errors.New("unpaired pattern in pairs file")
	ErrNoPrograms      = errors.New("programs file gave no programs to run")
	ErrInvalidValue    = errors.New("invalid value")
)

// FileName is the config file looked up in the working directory and in
// the user config directory.
const FileName = ".muxfold.yaml"

// Constants for default values.
const (
	DefaultShell             = "/bin/sh"
	DefaultFinalShrink       = 2
	DefaultInterlineDelayMS  = 0
	DefaultRefreshIntervalMS = 4
)

// StdinPath as a programs file reads the program list from standard input.
const StdinPath = "-"

// ProgramSeparator separates programs on the command line.
const ProgramSeparator = "-/-"

// CliFlags holds the values of command-line flags.
type CliFlags struct {
	Begins       []string
	Ends         []string
	PairsFile    string
	ProgramsFile string
	Programs     []string // positional arguments

	Shell             string
	Replay            bool
	FinalShrink       int
	InterlineDelayMS  int
	RefreshIntervalMS int
	FoldClosed        bool
	NoColor           bool
	LogFile           string
	Debug             bool

	// Flags to track if they were explicitly set by the user
	ShellSet           bool
	ReplaySet          bool
	FinalShrinkSet     bool
	InterlineDelaySet  bool
	RefreshIntervalSet bool
	FoldClosedSet      bool
	NoColorSet         bool
	LogFileSet         bool
	DebugSet           bool
}

// AppConfig represents .muxfold.yaml. Nil fields were not set in the file.
type AppConfig struct {
	Pairs             []region.PairSource `yaml:"pairs"`
	FinalShrink       *int                `yaml:"final_shrink"`
	InterlineDelayMS  *int                `yaml:"interline_delay_ms"`
	RefreshIntervalMS *int                `yaml:"refresh_interval_ms"`
	Shell             *string             `yaml:"shell"`
	NoColor           *bool               `yaml:"no_color"`
	FoldClosed        *bool               `yaml:"fold_closed"`
	Replay            *bool               `yaml:"replay"`
	Debug             *bool               `yaml:"debug"`
	LogFile           *string             `yaml:"log_file"`

	// Path is the file the config was read from, empty for defaults.
	Path string `yaml:"-"`
}

// LoadConfig loads .muxfold.yaml from the working directory or the user
// config directory. Problems are reported on warn and defaults are used.
func LoadConfig(warn io.Writer) *AppConfig {
	path := getConfigPath()
	if path == "" {
		return &AppConfig{}
	}
	return LoadConfigFile(path, warn)
}

// LoadConfigFile loads the config at path. Unreadable or malformed files
// are reported on warn and yield an empty config.
func LoadConfigFile(path string, warn io.Writer) *AppConfig {
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			fmt.Fprintf(warn, "muxfold: warning: reading config file %s: %v. Using defaults.\n", path, err)
		}
		return &AppConfig{}
	}

	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		fmt.Fprintf(warn, "muxfold: warning: parsing config file %s: %v. Using defaults.\n", path, err)
		return &AppConfig{}
	}
	cfg.Path = path
	return &cfg
}

// getConfigPath checks the local directory first, then the user config
// directory.
func getConfigPath() string {
	if _, err := os.Stat(FileName); err == nil {
		return FileName
	}

	configHome, err := os.UserConfigDir()
	if err != nil || configHome == "" || configHome == "/" {
		return ""
	}
	xdgPath := filepath.Join(configHome, "muxfold", FileName)
	if _, err := os.Stat(xdgPath); err == nil {
		return xdgPath
	}
	return ""
}

// LoadPairsFile reads begin and end patterns from alternating lines.
func LoadPairsFile(path string) ([]region.PairSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("pairs file: %w", err)
	}
	defer f.Close()

	var pairs []region.PairSource
	var begin *string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if begin == nil {
			begin = &line
			continue
		}
		pairs = append(pairs, region.PairSource{Begin: *begin, End: line})
		begin = nil
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("pairs file %s: %w", path, err)
	}
	if begin != nil {
		return nil, fmt.Errorf("%w: %q", ErrUnpairedPattern, *begin)
	}
	return pairs, nil
}

var separatorRe = regexp.MustCompile(`^-(/+)-$`)

// SplitPrograms splits positional arguments into argv lists at each
// ProgramSeparator. An argument of the form -//- (two or more slashes)
// is kept as an argument with one slash removed.
func SplitPrograms(args []string) [][]string {
	var out [][]string
	var cur []string
	for _, arg := range args {
		if m := separatorRe.FindStringSubmatch(arg); m != nil {
			if len(m[1]) == 1 {
				if len(cur) > 0 {
					out = append(out, cur)
				}
				cur = nil
				continue
			}
			arg = "-" + m[1][1:] + "-"
		}
		cur = append(cur, arg)
	}
	if len(cur) > 0 {
		out = append(out, cur)
	}
	return out
}

// ArgvPrograms turns argv lists into programs titled by their quoted argv.
func ArgvPrograms(argvs [][]string) []session.Program {
	programs := make([]session.Program, 0, len(argvs))
	for _, argv := range argvs {
		programs = append(programs, session.Program{
			Description: shellquote.Join(argv...),
			Argv:        argv,
		})
	}
	return programs
}

// LoadProgramsFile reads one shell command per line from path, or from
// stdin when path is StdinPath. Each line runs as `shell -c line`. Blank
// lines are skipped.
func LoadProgramsFile(path string, stdin io.Reader, shell string) ([]session.Program, error) {
	r := stdin
	if path != StdinPath {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("programs file: %w", err)
		}
		defer f.Close()
		r = f
	}

	var programs []session.Program
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		programs = append(programs, session.Program{
			Description: line,
			Argv:        []string{shell, "-c", line},
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("programs file %s: %w", path, err)
	}
	return programs, nil
}
