package app

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tejashwikalptaru/spectratune/internal/domain"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	assert.Equal(t, "com.spectratune.app", config.AppID)
	assert.Equal(t, "SpectraTune", config.AppName)
	assert.Equal(t, 44100, config.SampleRate)
	assert.False(t, config.UseMockAudio)
	assert.InDelta(t, 0.5, config.InitialVolume, 1e-9)
	assert.Equal(t, domain.DefaultSpectrumConfig(), config.Spectrum)
	assert.Equal(t, CanvasConfig{Width: 640, Height: 180}, config.Canvas)
	assert.NoError(t, config.Validate())
}

func TestDecodeConfig_Overlay(t *testing.T) {
	doc := `
sample_rate: 48000
initial_volume: 0.25
log_level: debug
log_format: json
spectrum:
  bands: 32
  interval: 40ms
canvas:
  width: 800
`
	config, err := DecodeConfig(strings.NewReader(doc))
	require.NoError(t, err)

	assert.Equal(t, 48000, config.SampleRate)
	assert.InDelta(t, 0.25, config.InitialVolume, 1e-9)
	assert.Equal(t, "debug", config.LogLevel)
	assert.Equal(t, "json", config.LogFormat)
	assert.Equal(t, 32, config.Spectrum.Bands)
	assert.Equal(t, 40*time.Millisecond, config.Spectrum.Interval)
	assert.Equal(t, -60.0, config.Spectrum.Threshold, "unset keys keep their defaults")
	assert.Equal(t, 800, config.Canvas.Width)
	assert.Equal(t, 180, config.Canvas.Height)
	assert.Equal(t, "SpectraTune", config.AppName)
}

func TestDecodeConfig_Empty(t *testing.T) {
	config, err := DecodeConfig(strings.NewReader(""))
	require.NoError(t, err)

	assert.Equal(t, DefaultConfig().Canvas, config.Canvas)
}

func TestDecodeConfig_UnknownKey(t *testing.T) {
	_, err := DecodeConfig(strings.NewReader("volume: 0.5\n"))

	assert.Error(t, err)
}

func TestDecodeConfig_Invalid(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{"sample rate", "sample_rate: -1\n", "sample_rate"},
		{"volume", "initial_volume: 1.5\n", "initial_volume"},
		{"bands", "spectrum:\n  bands: 0\n", "spectrum.bands"},
		{"interval", "spectrum:\n  interval: 0s\n", "spectrum.interval"},
		{"threshold", "spectrum:\n  threshold: 3\n", "spectrum.threshold"},
		{"canvas", "canvas:\n  height: 0\n", "canvas"},
		{"log format", "log_format: xml\n", "log_format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeConfig(strings.NewReader(tt.doc))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestValidate_ReportsEveryError(t *testing.T) {
	config := DefaultConfig()
	config.SampleRate = 0
	config.InitialVolume = -1

	err := config.Validate()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "sample_rate")
	assert.Contains(t, err.Error(), "initial_volume")
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "spectratune.yaml")
	require.NoError(t, os.WriteFile(path, []byte("mock_audio: true\n"), 0o644))

	config, err := LoadConfig(path)
	require.NoError(t, err)
	assert.True(t, config.UseMockAudio)

	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv(EnvConfigFile, "")
	config, err := ConfigFromEnv()
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().AppID, config.AppID)

	path := filepath.Join(t.TempDir(), "spectratune.yaml")
	require.NoError(t, os.WriteFile(path, []byte("app_name: Custom\n"), 0o644))
	t.Setenv(EnvConfigFile, path)

	config, err = ConfigFromEnv()
	require.NoError(t, err)
	assert.Equal(t, "Custom", config.AppName)
}
