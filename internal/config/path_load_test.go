package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResolvePathExplicitWins(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/xdg")

	path, err := ResolvePath("/tmp/custom.jsonc")
	require.NoError(t, err)
	require.Equal(t, "/tmp/custom.jsonc", path)
}

func TestResolvePathUsesXDGConfigHome(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/xdg")

	path, err := ResolvePath("")
	require.NoError(t, err)
	require.Equal(t, filepath.Join("/xdg", "duatalk", "config.jsonc"), path)
}

func TestResolvePathFallsBackToHome(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "")
	home := t.TempDir()
	t.Setenv("HOME", home)

	path, err := ResolvePath("")
	require.NoError(t, err)
	require.Equal(t, filepath.Join(home, ".config", "duatalk", "config.jsonc"), path)
}

func TestLoadMissingFileUsesDefaultsWithWarning(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.jsonc")

	loaded, err := Load(path)
	require.NoError(t, err)
	require.False(t, loaded.Exists)
	require.Equal(t, Default().Whisper.URL, loaded.Config.Whisper.URL)
	require.NotEmpty(t, loaded.Warnings)
}

func TestLoadParsesExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.jsonc")
	content := `{
		// silence tuning
		"silence": { "window_ms": 4000 },
	}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	loaded, err := Load(path)
	require.NoError(t, err)
	require.True(t, loaded.Exists)
	require.Equal(t, 4000, loaded.Config.Silence.WindowMS)
}

func TestLoadSurfacesParseErrors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.jsonc")
	require.NoError(t, os.WriteFile(path, []byte(`{"silence": {"window_ms": "soon"}}`), 0o644))

	_, err := Load(path)
	require.Error(t, err)
	require.Contains(t, err.Error(), "parse config")
}
