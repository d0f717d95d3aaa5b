package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	c, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 60, c.HTTPTimeoutSec)
	assert.Equal(t, int64(32<<20), c.MaxSourceBytes)
	assert.Equal(t, "text", c.DefaultFormat)
	assert.Equal(t, "Other", c.OtherLabel)
	assert.Equal(t, 40, c.BarWidth)
	assert.Equal(t, 4, c.Workers)
	assert.Equal(t, "warn", c.LogLevel)
	assert.Equal(t, filepath.Join(home, ".tally", "recipes"), c.RecipesDir)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	p := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(p, []byte("default_format: markdown\nbar_width: 25\n"), 0o644))
	t.Setenv("TALLY_BAR_WIDTH", "30")

	c, err := Load(p)
	require.NoError(t, err)
	assert.Equal(t, "markdown", c.DefaultFormat)
	assert.Equal(t, 30, c.BarWidth)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestSaveRoundTrip(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	c, err := Load("")
	require.NoError(t, err)
	c.OtherLabel = "Everything else"
	c.Color = false
	require.NoError(t, Save(c, ""))

	_, err = os.Stat(filepath.Join(home, ".tally", "config.yaml"))
	require.NoError(t, err)
	again, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "Everything else", again.OtherLabel)
	assert.False(t, again.Color)
}

func TestValidate(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	c, err := Load("")
	require.NoError(t, err)

	bad := *c
	bad.BarWidth = 5
	assert.Error(t, bad.Validate())
	bad = *c
	bad.LogLevel = "loud"
	assert.Error(t, bad.Validate())
	bad = *c
	bad.OtherLabel = " "
	assert.Error(t, Save(&bad, filepath.Join(t.TempDir(), "c.yaml")))
}
