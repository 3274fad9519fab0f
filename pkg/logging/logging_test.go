package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/roffe/rigsync/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWritesFileAndConsole(t *testing.T) {
	file := filepath.Join(t.TempDir(), "logs", "rigsync.log")
	var console bytes.Buffer
	logger, out, err := New(config.Log{Level: "info", File: file, MaxSize: 1}, &console)
	require.NoError(t, err)

	logger.WithPrefix("TS2000").Info("tuned", "freq", 10489700000)
	logger.Debug("hidden")

	var swapped bytes.Buffer
	out.SetConsole(&swapped)
	logger.Warn("after swap")
	require.NoError(t, out.Close())

	assert.Contains(t, console.String(), "TS2000")
	assert.Contains(t, console.String(), "tuned")
	assert.NotContains(t, console.String(), "hidden")
	assert.NotContains(t, console.String(), "after swap")
	assert.Contains(t, swapped.String(), "after swap")

	b, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Contains(t, string(b), "tuned")
	assert.Contains(t, string(b), "after swap")
}

func TestNewInvalidLevel(t *testing.T) {
	_, _, err := New(config.Log{Level: "chatty"}, nil)
	assert.Error(t, err)
}
