package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	logger, err := New(Config{Level: "debug", Encoding: "console"})
	require.NoError(t, err)
	assert.NotNil(t, logger)

	_, err = New(Config{Level: "loud"})
	assert.Error(t, err)

	_, err = New(Config{Level: "info", Encoding: "xml"})
	assert.Error(t, err)
}

func TestNew_WritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bot.log")
	logger, err := New(Config{Level: "info", FilePath: path})
	require.NoError(t, err)

	logger.Info("room created")
	_ = logger.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "room created")
}
