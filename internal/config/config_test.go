package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sample.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("test", nil)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, slog.LevelWarn, cfg.LogLevel())
}

func TestLoad_Flags(t *testing.T) {
	cfg, err := Load("test", []string{"--width", "1024", "--validation=false", "-v", "--pipeline-cache", "cache.bin"})
	require.NoError(t, err)

	assert.Equal(t, 1024, cfg.Width)
	assert.Equal(t, 600, cfg.Height)
	assert.False(t, cfg.Validation)
	assert.Equal(t, "cache.bin", cfg.PipelineCache)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel())
}

func TestLoad_FileThenFlags(t *testing.T) {
	path := writeConfig(t, `
width = 1280
height = 720
validation = false
assets = "/opt/samples"
`)

	cfg, err := Load("test", []string{"--config", path, "--height", "900", "--vv"})
	require.NoError(t, err)

	assert.Equal(t, 1280, cfg.Width, "file overrides default")
	assert.Equal(t, 900, cfg.Height, "flag overrides file")
	assert.False(t, cfg.Validation)
	assert.Equal(t, "/opt/samples", cfg.AssetsDir)
	assert.Equal(t, path, cfg.ConfigFile)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel())
}

func TestLoad_FlagOrderDoesNotMatter(t *testing.T) {
	path := writeConfig(t, "width = 1280\n")

	cfg, err := Load("test", []string{"--width", "640", "--config", path})
	require.NoError(t, err)
	assert.Equal(t, 640, cfg.Width)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		args func(t *testing.T) []string
	}{
		{"zero width", func(*testing.T) []string { return []string{"--width", "0"} }},
		{"empty assets", func(*testing.T) []string { return []string{"--assets", ""} }},
		{"unknown flag", func(*testing.T) []string { return []string{"--fullscreen"} }},
		{"unknown key", func(t *testing.T) []string {
			return []string{"--config", writeConfig(t, "fullscreen = true\n")}
		}},
		{"bad toml", func(t *testing.T) []string {
			return []string{"--config", writeConfig(t, "width = \n")}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load("test", tt.args(t))
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalid), "%+v", err)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("test", []string{"--config", filepath.Join(t.TempDir(), "absent.toml")})
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrInvalid))
}
