package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen_WritesToFile_When_PathGiven(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nested", "muxfold.log")
	logger, closer, err := Open(path, false)
	require.NoError(t, err)

	logger.Info("reader started", "source", 2)
	logger.Debug("hidden")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `msg="reader started" source=2`)
	assert.NotContains(t, string(data), "hidden")
}

func TestOpen_Discards_When_PathEmpty(t *testing.T) {
	t.Parallel()

	logger, closer, err := Open("  ", true)
	require.NoError(t, err)
	logger.Info("nothing")
	assert.NoError(t, closer.Close())
}

func TestNew_IncludesDebug_When_DebugSet(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	New(&buf, true).Debug("frame drawn", "rows", 10)
	assert.Contains(t, buf.String(), "level=DEBUG")
	assert.Contains(t, buf.String(), "rows=10")
}
