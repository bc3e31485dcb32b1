package app

import (
	"errors"
	"fmt"
	"io"
	"os"

	"fyne.io/fyne/v2"
	"gopkg.in/yaml.v3"

	"github.com/tejashwikalptaru/spectratune/internal/domain"
	"github.com/tejashwikalptaru/spectratune/internal/logger"
	"github.com/tejashwikalptaru/spectratune/internal/service"
)

// EnvConfigFile names the environment variable holding an optional YAML config path.
const EnvConfigFile = "SPECTRATUNE_CONFIG"

// CanvasConfig is the minimum size of the spectrum canvas in pixels.
type CanvasConfig struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

// Config holds application configuration.
type Config struct {
	// AppID is the unique application identifier (also keys the preferences store)
	AppID string `yaml:"app_id"`

	// AppName is the display name
	AppName string `yaml:"app_name"`

	// SampleRate is the audio output sample rate
	SampleRate int `yaml:"sample_rate"`

	// UseMockAudio determines whether to use a mock audio engine (for testing)
	UseMockAudio bool `yaml:"mock_audio"`

	// InitialVolume is used until a volume has been saved (0.0 to 1.0)
	InitialVolume float64 `yaml:"initial_volume"`

	// LogLevel is DEBUG, INFO, WARN or ERROR
	LogLevel string `yaml:"log_level"`

	// LogFormat is "text" or "json"
	LogFormat string `yaml:"log_format"`

	// Spectrum configures the engine's spectrum events
	Spectrum domain.SpectrumConfig `yaml:"spectrum"`

	// Canvas sizes the spectrum view
	Canvas CanvasConfig `yaml:"canvas"`

	// TestFyneApp allows injecting a test Fyne app for testing (nil for production)
	TestFyneApp fyne.App `yaml:"-"`
}

// DefaultConfig returns the default application configuration.
func DefaultConfig() Config {
	loggerCfg := logger.DefaultConfig()
	return Config{
		AppID:         "com.spectratune.app",
		AppName:       "SpectraTune",
		SampleRate:    44100,
		UseMockAudio:  false,
		InitialVolume: service.DefaultVolume,
		LogLevel:      loggerCfg.Level.String(),
		LogFormat:     loggerCfg.Format,
		Spectrum:      domain.DefaultSpectrumConfig(),
		Canvas:        CanvasConfig{Width: 640, Height: 180},
	}
}

// LoadConfig overlays the YAML file at path onto the defaults.
// Unknown keys are rejected.
func LoadConfig(path string) (Config, error) {
	fd, err := os.Open(path)
	if err != nil {
		return Config{}, fmt.Errorf("open config: %w", err)
	}
	defer fd.Close()

	return DecodeConfig(fd)
}

// DecodeConfig overlays the YAML document read from r onto the defaults.
func DecodeConfig(r io.Reader) (Config, error) {
	conf := DefaultConfig()

	d := yaml.NewDecoder(r)
	d.KnownFields(true)
	if err := d.Decode(&conf); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}

	if err := conf.Validate(); err != nil {
		return Config{}, err
	}
	return conf, nil
}

// ConfigFromEnv loads the file named by SPECTRATUNE_CONFIG, or returns the
// defaults when the variable is unset.
func ConfigFromEnv() (Config, error) {
	path := os.Getenv(EnvConfigFile)
	if path == "" {
		return DefaultConfig(), nil
	}
	return LoadConfig(path)
}

// Validate reports every invalid setting.
func (c Config) Validate() error {
	var errs []error
	if c.SampleRate <= 0 {
		errs = append(errs, fmt.Errorf("config: `sample_rate` must be positive, got %d", c.SampleRate))
	}
	if c.InitialVolume < 0 || c.InitialVolume > 1 {
		errs = append(errs, fmt.Errorf("config: `initial_volume` must be within [0, 1], got %v", c.InitialVolume))
	}
	if c.Spectrum.Bands <= 0 {
		errs = append(errs, fmt.Errorf("config: `spectrum.bands` must be positive, got %d", c.Spectrum.Bands))
	}
	if c.Spectrum.Interval <= 0 {
		errs = append(errs, fmt.Errorf("config: `spectrum.interval` must be positive, got %v", c.Spectrum.Interval))
	}
	if c.Spectrum.Threshold >= 0 {
		errs = append(errs, fmt.Errorf("config: `spectrum.threshold` must be below 0 dB, got %v", c.Spectrum.Threshold))
	}
	if c.Canvas.Width <= 0 || c.Canvas.Height <= 0 {
		errs = append(errs, fmt.Errorf("config: `canvas` must have a positive size, got %dx%d", c.Canvas.Width, c.Canvas.Height))
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		errs = append(errs, fmt.Errorf("config: `log_format` must be text or json, got %q", c.LogFormat))
	}
	return errors.Join(errs...)
}
