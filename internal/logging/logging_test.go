package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/everscale-go/tvm-abi/internal/config"
)

func TestNewRejectsBadLevel(t *testing.T) {
	t.Parallel()
	_, err := New(config.Log{Level: "loud"})
	require.ErrorContains(t, err, `invalid log level "loud"`)
}

func TestConsoleAndFile(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "tvmabi.log")
	var console bytes.Buffer

	logger, err := newLogger(config.Log{Level: "info", File: path, MaxSize: 1}, &console)
	require.NoError(t, err)

	logger = WithRequest(logger, "pack")
	logger.Debug("hidden")
	logger.Info("packed")
	require.NoError(t, logger.Sync())

	require.Contains(t, console.String(), "packed")
	require.Contains(t, console.String(), `"command": "pack"`)
	require.NotContains(t, console.String(), "hidden")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 1)
	require.Contains(t, lines[0], `"msg":"packed"`)
	require.Contains(t, lines[0], `"request":"`)
}
