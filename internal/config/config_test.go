package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/watchharvest/watchharvest/internal/harvest"
	"github.com/watchharvest/watchharvest/internal/output"
)

func TestNewConfigDefaults(t *testing.T) {
	config, err := NewConfig(filepath.Join(t.TempDir(), "missing.yml"))
	require.NoError(t, err)

	assert.Equal(t, "https://myactivity.google.com/product/youtube?restrict=youtube", config.Fetcher.HistoryURL)
	assert.Equal(t, 5000, config.Fetcher.ScrollDelayMS)
	assert.False(t, config.Fetcher.Headless)
	assert.Equal(t, "div.MCZgpb > h2.rp10kf", config.Selectors.Header)
	assert.Equal(t, "搜尋「", config.Selectors.SearchPrefix)
	assert.Equal(t, 2, config.Harvest.ScrollsPerRound)
	assert.Equal(t, 3, config.Harvest.IdleRoundLimit)
	assert.Equal(t, harvest.BoundaryHeader, config.Harvest.BoundaryMode)
	assert.Equal(t, output.FILE_WRITER_TYPE, config.Writer.Type)
	assert.Equal(t, "youtube_watch_history.json", config.Writer.FilePath)
}

func TestNewConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "watchharvest.yml")
	content := `fetcher:
  headless: true
  scroll_delay_ms: 1500
harvest:
  idle_round_limit: 5
  boundary_mode: both
writer:
  filepath: out/history.json
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	config, err := NewConfig(path)
	require.NoError(t, err)
	assert.True(t, config.Fetcher.Headless)
	assert.Equal(t, 1500, config.Fetcher.ScrollDelayMS)
	assert.Equal(t, 5000, config.Fetcher.PageLoadWaitMS)
	assert.Equal(t, 5, config.Harvest.IdleRoundLimit)
	assert.Equal(t, 2, config.Harvest.ScrollsPerRound)
	assert.Equal(t, harvest.BoundaryBoth, config.Harvest.BoundaryMode)
	assert.Equal(t, "out/history.json", config.Writer.FilePath)
}

func TestNewConfigEnvironment(t *testing.T) {
	t.Setenv("WRITER_FILEPATH", "env.json")
	t.Setenv("HARVEST_MAX_ROUNDS", "7")

	config, err := NewConfig("")
	require.NoError(t, err)
	assert.Equal(t, "env.json", config.Writer.FilePath)
	assert.Equal(t, 7, config.Harvest.MaxRounds)
}

func TestNewConfigInvalidBoundaryMode(t *testing.T) {
	path := filepath.Join(t.TempDir(), "watchharvest.yml")
	require.NoError(t, os.WriteFile(path, []byte("harvest:\n  boundary_mode: sometimes\n"), 0644))

	_, err := NewConfig(path)
	assert.Error(t, err)
}
