package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"REMOTE_HOST", "REMOTE_PORT", "REMOTE_FPS", "REMOTE_JPEG_QUALITY",
		"REMOTE_MAX_CONNECTIONS", "REMOTE_RESIZE_SCALE", "REMOTE_SEND_CURSOR", "REMOTE_LOG_LEVEL",
	} {
		t.Setenv(k, "")
	}
}

func TestFromEnvDefaults(t *testing.T) {
	clearEnv(t)
	s := FromEnv()
	assert.Equal(t, Defaults(), s)
	assert.Equal(t, "0.0.0.0:8765", s.Addr())
	assert.Equal(t, time.Second/12, s.FrameInterval())
}

func TestFromEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("REMOTE_HOST", "127.0.0.1")
	t.Setenv("REMOTE_PORT", "9000")
	t.Setenv("REMOTE_FPS", "30")
	t.Setenv("REMOTE_JPEG_QUALITY", "80")
	t.Setenv("REMOTE_MAX_CONNECTIONS", "2")
	t.Setenv("REMOTE_RESIZE_SCALE", "0.5")
	t.Setenv("REMOTE_SEND_CURSOR", "0")
	t.Setenv("REMOTE_LOG_LEVEL", "DEBUG")

	s := FromEnv()
	assert.Equal(t, "127.0.0.1", s.Host)
	assert.Equal(t, 9000, s.Port)
	assert.Equal(t, 30, s.TargetFPS)
	assert.Equal(t, 80, s.JPEGQuality)
	assert.Equal(t, 2, s.MaxConnections)
	assert.InDelta(t, 0.5, s.ResizeScale, 1e-9)
	assert.False(t, s.SendCursor)
	assert.Equal(t, "debug", s.LogLevel)
}

func TestFromEnvMalformedFallsBack(t *testing.T) {
	clearEnv(t)
	t.Setenv("REMOTE_PORT", "http")
	t.Setenv("REMOTE_FPS", "0")
	t.Setenv("REMOTE_JPEG_QUALITY", "120")
	t.Setenv("REMOTE_MAX_CONNECTIONS", "-3")
	t.Setenv("REMOTE_RESIZE_SCALE", "1.5")
	t.Setenv("REMOTE_SEND_CURSOR", "maybe")
	t.Setenv("REMOTE_LOG_LEVEL", "loud")

	assert.Equal(t, Defaults(), FromEnv())
}

func TestLoadFileThenEnv(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "remote.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
port = 7000
target_fps = 20
jpeg_quality = 0
resize_scale = 0.25
send_cursor = false
`), 0o600))
	t.Setenv("REMOTE_FPS", "5")

	s, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 7000, s.Port)
	assert.Equal(t, 5, s.TargetFPS, "env wins over file")
	assert.Equal(t, 60, s.JPEGQuality, "invalid file value keeps default")
	assert.InDelta(t, 0.25, s.ResizeScale, 1e-9)
	assert.False(t, s.SendCursor)
	assert.Equal(t, "0.0.0.0", s.Host)
}

func TestLoadBadFile(t *testing.T) {
	clearEnv(t)
	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.toml")
	require.NoError(t, os.WriteFile(path, []byte("port = = 1"), 0o600))
	_, err = Load(path)
	assert.Error(t, err)
}
