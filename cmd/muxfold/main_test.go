package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkoosis/muxfold/internal/version"
)

// isolate keeps the developer's config and environment out of the run.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "xdg"))
	t.Setenv("HOME", filepath.Join(dir, "home"))
	for _, key := range []string{"MUXFOLD_SHELL", "MUXFOLD_NO_COLOR", "NO_COLOR", "MUXFOLD_LOG_FILE", "MUXFOLD_DEBUG"} {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
	return dir
}

func TestRun_PrintsVersion(t *testing.T) {
	isolate(t)

	var stdout, stderr bytes.Buffer
	code := run([]string{"--version"}, strings.NewReader(""), &stdout, &stderr)

	assert.Equal(t, exitOK, code)
	assert.Equal(t, version.String()+"\n", stdout.String())
}

func TestRun_PrintsUsage_When_Help(t *testing.T) {
	isolate(t)

	var stdout, stderr bytes.Buffer
	code := run([]string{"-h"}, strings.NewReader(""), &stdout, &stderr)

	assert.Equal(t, exitOK, code)
	assert.Contains(t, stderr.String(), "Usage: muxfold")
	assert.Contains(t, stderr.String(), "--match-begin")
}

func TestRun_TracesStdin_When_Debug(t *testing.T) {
	isolate(t)

	var stdout, stderr bytes.Buffer
	code := run(
		[]string{"-d", "-s", `BEGIN\((.*)\)`, "-e", `END\((.*)\)`},
		strings.NewReader("BEGIN(build)\ncompiling\nEND(build)\ndone\n"),
		&stdout, &stderr,
	)

	require.Equal(t, exitOK, code, stderr.String())
	assert.Equal(t, strings.Join([]string{
		"StartLine: BEGIN(build)",
		"StartTitle: build",
		"    Line: compiling",
		`EndLine: "END(build)"`,
		`EndTitle: "build"`,
		"Line: done",
	}, "\n")+"\n", stdout.String())
}

func TestRun_TracesProgramOutput_When_ProgramsGiven(t *testing.T) {
	isolate(t)

	var stdout, stderr bytes.Buffer
	code := run(
		[]string{"--debug", "sh", "-c", "echo first; echo second"},
		strings.NewReader("ignored\n"),
		&stdout, &stderr,
	)

	require.Equal(t, exitOK, code, stderr.String())
	assert.Equal(t, "Line: first\nLine: second\n", stdout.String())
}

func TestRun_DrawsFinalFrame_When_NotDebug(t *testing.T) {
	isolate(t)

	var stdout, stderr bytes.Buffer
	code := run([]string{"--no-color"}, strings.NewReader("hello\n"), &stdout, &stderr)

	require.Equal(t, exitOK, code, stderr.String())
	assert.Contains(t, stdout.String(), "<<stdin>>")
	assert.Contains(t, stdout.String(), "hello")
}

func TestRun_WritesLogFile_When_LogFileGiven(t *testing.T) {
	dir := isolate(t)
	logPath := filepath.Join(dir, "logs", "muxfold.log")

	var stdout, stderr bytes.Buffer
	code := run([]string{"-d", "--log-file", logPath}, strings.NewReader("x\n"), &stdout, &stderr)

	require.Equal(t, exitOK, code, stderr.String())
	data, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "msg=starting")
	assert.Contains(t, string(data), "debug_source=cli")
}

func TestRun_ReadsPairsFromConfigFile(t *testing.T) {
	dir := isolate(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".muxfold.yaml"), []byte(strings.Join([]string{
		"debug: true",
		"pairs:",
		`  - begin: '>> (.*)'`,
		`    end: '<< (.*)'`,
	}, "\n")), 0o600))

	var stdout, stderr bytes.Buffer
	code := run(nil, strings.NewReader(">> a\n<< a\n"), &stdout, &stderr)

	require.Equal(t, exitOK, code, stderr.String())
	assert.Contains(t, stdout.String(), "StartTitle: a")
}

func TestRun_ReturnsError_When_ConfigInvalid(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{name: "unpaired", args: []string{"-s", "a(.*)"}, want: "muxfold:"},
		{name: "bad regex", args: []string{"-s", "(", "-e", "x(.*)"}, want: "muxfold:"},
		{name: "no capture", args: []string{"-s", "a", "-e", "b(.*)"}, want: "muxfold:"},
		{name: "negative shrink", args: []string{"-x", "-1"}, want: "invalid value"},
		{name: "missing pairs file", args: []string{"-f", "/nonexistent/pairs"}, want: "muxfold:"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolate(t)

			var stdout, stderr bytes.Buffer
			code := run(tt.args, strings.NewReader(""), &stdout, &stderr)

			assert.Equal(t, exitError, code)
			assert.Contains(t, stderr.String(), tt.want)
			assert.Empty(t, stdout.String())
		})
	}
}

func TestRun_ReturnsError_When_UnknownFlag(t *testing.T) {
	isolate(t)

	var stdout, stderr bytes.Buffer
	code := run([]string{"--bogus"}, strings.NewReader(""), &stdout, &stderr)

	assert.Equal(t, exitError, code)
	assert.Contains(t, stderr.String(), "muxfold: unknown flag: --bogus")
	assert.Contains(t, stderr.String(), "Usage: muxfold")
	assert.Empty(t, stdout.String())
}

func TestRun_ReturnsError_When_ProgramMissing(t *testing.T) {
	isolate(t)

	var stdout, stderr bytes.Buffer
	code := run([]string{"/nonexistent/muxfold-program"}, strings.NewReader(""), &stdout, &stderr)

	assert.Equal(t, exitError, code)
	assert.Contains(t, stderr.String(), "muxfold:")
}

func TestNewTerminal_FallsBack_When_NotATerminal(t *testing.T) {
	var buf bytes.Buffer
	w, h, err := newTerminal(&buf).Size()

	require.NoError(t, err)
	assert.Equal(t, 80, w)
	assert.Equal(t, 24, h)
}
