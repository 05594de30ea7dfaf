package config

import (
	"fmt"

	"github.com/forPelevin/hlreel/internal/domain/segments"
	"github.com/forPelevin/hlreel/internal/domain/titles"
)

// Validate ensures the configuration is usable. Input and music paths are
// checked by the pipeline since flags may still supply them.
func (c *Config) Validate() error {
	if err := c.validateCanvas(); err != nil {
		return err
	}
	if c.FPS < 0 {
		return fmt.Errorf("fps must be >= 0 (0 uses the source rate), got %v", c.FPS)
	}
	if err := segments.Validate(c.SegmentList()); err != nil {
		return fmt.Errorf("segments: %w", err)
	}
	for i, spec := range c.TitleSpecs() {
		if _, err := titles.Build(spec); err != nil {
			return fmt.Errorf("titles[%d]: %w", i, err)
		}
	}
	if c.Tools.CRF < 0 || c.Tools.CRF > 51 {
		return fmt.Errorf("tools.crf must be between 0 and 51, got %d", c.Tools.CRF)
	}
	return c.validateLogging()
}

func (c *Config) validateCanvas() error {
	w, h := c.Canvas.Width, c.Canvas.Height
	if w <= 0 || h <= 0 {
		return fmt.Errorf("canvas must be positive, got %dx%d", w, h)
	}
	if w%2 != 0 || h%2 != 0 {
		return fmt.Errorf("canvas must have even dimensions for yuv420p output, got %dx%d", w, h)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "auto", "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	return nil
}
