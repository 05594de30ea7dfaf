package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/forPelevin/hlreel/internal/types"
)

//go:embed sample_config.toml
var sampleConfig string

// Canvas is the output frame size.
type Canvas struct {
	Width  int `toml:"width" yaml:"width"`
	Height int `toml:"height" yaml:"height"`
}

type Segment struct {
	Start float64 `toml:"start" yaml:"start"`
	End   float64 `toml:"end" yaml:"end"`
}

type Title struct {
	Text        string  `toml:"text" yaml:"text"`
	DurationSec float64 `toml:"duration_sec" yaml:"duration_sec"`
	FadeInSec   float64 `toml:"fade_in_sec" yaml:"fade_in_sec"`
	FontSize    int     `toml:"font_size" yaml:"font_size"`
	Color       string  `toml:"color" yaml:"color"`
	Position    string  `toml:"position" yaml:"position"`
}

// Tools locates the external codec binaries and sets encoder quality.
type Tools struct {
	FFmpeg  string `toml:"ffmpeg" yaml:"ffmpeg"`
	FFprobe string `toml:"ffprobe" yaml:"ffprobe"`
	Preset  string `toml:"preset" yaml:"preset"`
	CRF     int    `toml:"crf" yaml:"crf"`
}

type Paths struct {
	OutDir   string `toml:"out_dir" yaml:"out_dir"`
	CacheDir string `toml:"cache_dir" yaml:"cache_dir"`
}

type Logging struct {
	Level  string `toml:"level" yaml:"level"`
	Format string `toml:"format" yaml:"format"`
}

// Config describes one reel: where footage and music come from, which
// segments to cut, the output canvas and the trailing title cards.
type Config struct {
	Input    string    `toml:"input" yaml:"input"`
	Music    string    `toml:"music" yaml:"music"`
	Output   string    `toml:"output" yaml:"output"`
	FPS      float64   `toml:"fps" yaml:"fps"`
	Canvas   Canvas    `toml:"canvas" yaml:"canvas"`
	Segments []Segment `toml:"segments" yaml:"segments"`
	Titles   []Title   `toml:"titles" yaml:"titles"`
	Tools    Tools     `toml:"tools" yaml:"tools"`
	Paths    Paths     `toml:"paths" yaml:"paths"`
	Logging  Logging   `toml:"logging" yaml:"logging"`
}

// Load parses path (TOML, or YAML by extension) over Default and validates
// the result. An empty path returns the validated defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if strings.TrimSpace(path) != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("config %s does not exist (create with 'hlreel config init')", path)
			}
			return nil, fmt.Errorf("read config: %w", err)
		}
		// Lists from the file replace the stock lists instead of merging.
		defSegments, defTitles := cfg.Segments, cfg.Titles
		cfg.Segments, cfg.Titles = nil, nil
		if err := decode(path, data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
		if cfg.Segments == nil {
			cfg.Segments = defSegments
		}
		if cfg.Titles == nil {
			cfg.Titles = defTitles
		}
	}
	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func decode(path string, data []byte, cfg *Config) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
			return err
		}
		return nil
	default:
		dec := toml.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		return dec.Decode(cfg)
	}
}

func (c *Config) normalize() {
	c.Input = strings.TrimSpace(c.Input)
	c.Music = strings.TrimSpace(c.Music)
	c.Output = strings.TrimSpace(c.Output)
	if strings.TrimSpace(c.Tools.FFmpeg) == "" {
		c.Tools.FFmpeg = defaultFFmpeg
	}
	if strings.TrimSpace(c.Tools.FFprobe) == "" {
		c.Tools.FFprobe = defaultFFprobe
	}
	if strings.TrimSpace(c.Tools.Preset) == "" {
		c.Tools.Preset = defaultPreset
	}
	if c.Tools.CRF == 0 {
		c.Tools.CRF = defaultCRF
	}
	if strings.TrimSpace(c.Paths.OutDir) == "" {
		c.Paths.OutDir = defaultOutDir
	}
	if strings.TrimSpace(c.Paths.CacheDir) == "" {
		c.Paths.CacheDir = defaultCacheDir
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
}

// SegmentList converts the configured segments to domain values, in order.
func (c *Config) SegmentList() []types.Segment {
	out := make([]types.Segment, 0, len(c.Segments))
	for _, s := range c.Segments {
		out = append(out, types.Segment{Start: s.Start, End: s.End})
	}
	return out
}

// TitleSpecs converts the configured titles to domain values, in order.
func (c *Config) TitleSpecs() []types.TitleSpec {
	out := make([]types.TitleSpec, 0, len(c.Titles))
	for _, t := range c.Titles {
		out = append(out, types.TitleSpec{
			Text:     t.Text,
			Duration: seconds(t.DurationSec),
			FadeIn:   seconds(t.FadeInSec),
			FontSize: t.FontSize,
			Color:    t.Color,
			Position: t.Position,
		})
	}
	return out
}

func seconds(v float64) time.Duration {
	return time.Duration(v * float64(time.Second))
}

// CreateSample writes the sample configuration to path.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config %s already exists", path)
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
