// Package config loads tool settings from YAML with sensible defaults.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// OCRConfig tunes the recognition sweep.
type OCRConfig struct {
	Workers    int      `yaml:"workers"`
	Oversample float64  `yaml:"oversample"`
	Languages  []string `yaml:"languages"`
}

// BrushConfig is the freehand brush default.
type BrushConfig struct {
	Size            float64 `yaml:"size"`
	Opacity         float64 `yaml:"opacity"`
	Color           string  `yaml:"color"`
	PressureEnabled bool    `yaml:"pressure_enabled"`
}

// BackendConfig points at the persistence API.
type BackendConfig struct {
	BaseURL string `yaml:"base_url"`
	PDFID   string `yaml:"pdf_id"`
}

// Config is the full tool configuration.
type Config struct {
	OCR            OCRConfig     `yaml:"ocr"`
	Brush          BrushConfig   `yaml:"brush"`
	HighlightColor string        `yaml:"highlight_color"`
	Palette        []string      `yaml:"palette"`
	EraserPadding  float64       `yaml:"eraser_padding"`
	Backend        BackendConfig `yaml:"backend"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() Config {
	return Config{
		OCR: OCRConfig{
			Workers:    3,
			Oversample: 3.0,
			Languages:  []string{"eng"},
		},
		Brush: BrushConfig{
			Size:    25.6,
			Opacity: 1.0,
			Color:   "#1d4ed8",
		},
		HighlightColor: "#fde047",
		Palette: []string{
			"#fde047", "#86efac", "#93c5fd", "#f9a8d4", "#fdba74",
		},
		EraserPadding: 0.015,
	}
}

// Load reads a YAML file over the defaults. A missing path returns the
// defaults unchanged.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects values the rest of the tool cannot work with.
func (c Config) Validate() error {
	if c.OCR.Workers < 1 {
		return fmt.Errorf("config: ocr.workers must be at least 1, got %d", c.OCR.Workers)
	}
	if c.OCR.Oversample <= 0 {
		return fmt.Errorf("config: ocr.oversample must be positive, got %g", c.OCR.Oversample)
	}
	if c.Brush.Size <= 0 {
		return fmt.Errorf("config: brush.size must be positive, got %g", c.Brush.Size)
	}
	if c.Brush.Opacity < 0 || c.Brush.Opacity > 1 {
		return fmt.Errorf("config: brush.opacity must be in [0,1], got %g", c.Brush.Opacity)
	}
	if c.EraserPadding < 0 {
		return fmt.Errorf("config: eraser_padding must not be negative, got %g", c.EraserPadding)
	}
	return nil
}
