package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"eegweb/internal/model"
)

// StorageConfig holds the filesystem locations used by the service.
type StorageConfig struct {
	UploadDir   string
	StaticDir   string
	StaticURL   string
	MaxUploadMB int
}

// LogConfig holds structured logging settings.
type LogConfig struct {
	Level       string
	Development bool
	TimeZone    string
}

// Location resolves TimeZone, falling back to UTC.
func (c LogConfig) Location() *time.Location {
	if loc, err := time.LoadLocation(c.TimeZone); err == nil {
		return loc
	}
	return time.UTC
}

// AnalysisConfig holds the fixed parameters of the EEG pipeline.
type AnalysisConfig struct {
	// MaxChannels is how many leading channels are plotted and analysed.
	MaxChannels int `yaml:"max_channels"`
	// FilterLow and FilterHigh bound the band-pass filter in Hz.
	FilterLow  float64 `yaml:"filter_low_hz"`
	FilterHigh float64 `yaml:"filter_high_hz"`
	// WelchSegment is the Welch segment length in samples.
	WelchSegment int `yaml:"welch_segment"`
	// ChannelSpacing is the vertical offset between stacked traces in µV.
	ChannelSpacing float64 `yaml:"channel_spacing_uv"`
	// DefaultTimescale is the display window in seconds used right after upload.
	DefaultTimescale float64       `yaml:"default_timescale_s"`
	Bands            []model.Band `yaml:"bands"`
}

// DefaultAnalysis returns the canonical pipeline parameters.
func DefaultAnalysis() AnalysisConfig {
	return AnalysisConfig{
		MaxChannels:      6,
		FilterLow:        1,
		FilterHigh:       40,
		WelchSegment:     2048,
		ChannelSpacing:   150,
		DefaultTimescale: 1.0,
		Bands:            model.DefaultBands(),
	}
}

// Validate checks that the parameters describe a usable pipeline.
func (c AnalysisConfig) Validate() error {
	var errs []error
	if c.MaxChannels <= 0 {
		errs = append(errs, fmt.Errorf("max channels must be positive, got %d", c.MaxChannels))
	}
	if c.FilterLow <= 0 || c.FilterHigh <= c.FilterLow {
		errs = append(errs, fmt.Errorf("filter band [%g, %g] Hz is invalid", c.FilterLow, c.FilterHigh))
	}
	if c.WelchSegment <= 0 {
		errs = append(errs, fmt.Errorf("welch segment must be positive, got %d", c.WelchSegment))
	}
	if c.ChannelSpacing <= 0 {
		errs = append(errs, fmt.Errorf("channel spacing must be positive, got %g", c.ChannelSpacing))
	}
	if !(c.DefaultTimescale > 0) || math.IsInf(c.DefaultTimescale, 0) {
		errs = append(errs, fmt.Errorf("default timescale must be positive, got %g", c.DefaultTimescale))
	}
	if len(c.Bands) == 0 {
		errs = append(errs, errors.New("at least one band is required"))
	}
	for i, b := range c.Bands {
		if b.Name == "" || b.Low < 0 || b.High <= b.Low {
			errs = append(errs, fmt.Errorf("band %d (%q) range [%g, %g] is invalid", i, b.Name, b.Low, b.High))
		}
		// Bands may touch but not overlap.
		if i > 0 && b.Low < c.Bands[i-1].High {
			errs = append(errs, fmt.Errorf("band %q overlaps %q", b.Name, c.Bands[i-1].Name))
		}
	}
	return errors.Join(errs...)
}

// AppConfig is the centralized configuration struct for the application.
// It is populated from environment variables, optionally overlaid on a YAML analysis file.
type AppConfig struct {
	AppHost      string
	Port         string
	AnalysisFile string
	Storage      StorageConfig
	Log          LogConfig
	Analysis     AnalysisConfig
}

// Validate checks the whole configuration once at startup.
func (c *AppConfig) Validate() error {
	var errs []error
	if c.Port == "" {
		errs = append(errs, errors.New("port is required"))
	}
	if c.Storage.UploadDir == "" || c.Storage.StaticDir == "" {
		errs = append(errs, errors.New("upload and static directories are required"))
	}
	if !strings.HasPrefix(c.Storage.StaticURL, "/") {
		errs = append(errs, fmt.Errorf("static url %q must start with /", c.Storage.StaticURL))
	}
	if c.Storage.MaxUploadMB <= 0 {
		errs = append(errs, fmt.Errorf("max upload must be positive, got %d MB", c.Storage.MaxUploadMB))
	}
	if err := c.Analysis.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("analysis: %w", err))
	}
	return errors.Join(errs...)
}

// MaxUploadBytes returns the request body limit in bytes.
func (c *AppConfig) MaxUploadBytes() int {
	return c.Storage.MaxUploadMB * 1024 * 1024
}

// Load reads configuration from environment variables.
// A .env file can be auto-loaded by importing: _ "github.com/joho/godotenv/autoload"
// When ANALYSIS_CONFIG names a YAML file it is applied over the analysis defaults before
// the analysis environment variables. The result is validated.
func Load() (*AppConfig, error) {
	cfg := &AppConfig{
		AppHost:      getEnv("APP_HOST", "localhost:8080"),
		Port:         getEnv("PORT", "8080"),
		AnalysisFile: getEnv("ANALYSIS_CONFIG", ""),
		Storage: StorageConfig{
			UploadDir:   getEnv("UPLOAD_DIR", "uploads"),
			StaticDir:   getEnv("STATIC_DIR", "static"),
			StaticURL:   strings.TrimRight(getEnv("STATIC_URL", "/static"), "/"),
			MaxUploadMB: getEnvInt("MAX_UPLOAD_MB", 256),
		},
		Log: LogConfig{
			Level:       getEnv("LOG_LEVEL", "info"),
			Development: getEnvBool("LOG_DEVELOPMENT", false),
			TimeZone:    getEnv("APP_TIMEZONE", "UTC"),
		},
		Analysis: DefaultAnalysis(),
	}

	if cfg.AnalysisFile != "" {
		if err := LoadAnalysisFile(cfg.AnalysisFile, &cfg.Analysis); err != nil {
			return nil, err
		}
	}

	a := &cfg.Analysis
	a.MaxChannels = getEnvInt("MAX_CHANNELS", a.MaxChannels)
	a.FilterLow = getEnvFloat("FILTER_LOW_HZ", a.FilterLow)
	a.FilterHigh = getEnvFloat("FILTER_HIGH_HZ", a.FilterHigh)
	a.WelchSegment = getEnvInt("WELCH_SEGMENT", a.WelchSegment)
	a.ChannelSpacing = getEnvFloat("CHANNEL_SPACING_UV", a.ChannelSpacing)
	a.DefaultTimescale = getEnvFloat("DEFAULT_TIMESCALE", a.DefaultTimescale)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// LoadAnalysisFile overlays the YAML document at path onto dst. Keys absent from the
// file keep their current values.
func LoadAnalysisFile(path string, dst *AnalysisConfig) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read analysis config: %w", err)
	}
	if err := yaml.Unmarshal(b, dst); err != nil {
		return fmt.Errorf("parse analysis config %s: %w", path, err)
	}
	return nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.Atoi(v)
		if err == nil {
			return i
		}
	}
	return def
}

func getEnvFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err == nil {
			return f
		}
	}
	return def
}
