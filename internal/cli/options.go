package cli

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/forPelevin/hlreel/internal/config"
	"github.com/forPelevin/hlreel/internal/domain/segments"
	"github.com/forPelevin/hlreel/internal/logging"
	"github.com/forPelevin/hlreel/internal/pipeline"
)

const (
	envConfig    = "HLREEL_CONFIG"
	envFFmpeg    = "HLREEL_FFMPEG"
	envFFprobe   = "HLREEL_FFPROBE"
	envLogLevel  = "HLREEL_LOG_LEVEL"
	envLogFormat = "HLREEL_LOG_FORMAT"
)

type globalOptions struct {
	configPath string
	logLevel   string
	logFormat  string
}

// load resolves the configuration: file, then environment, then global flags.
func (g *globalOptions) load() (*config.Config, error) {
	path := strings.TrimSpace(g.configPath)
	if path == "" {
		path = strings.TrimSpace(os.Getenv(envConfig))
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if v := os.Getenv(envFFmpeg); v != "" {
		cfg.Tools.FFmpeg = v
	}
	if v := os.Getenv(envFFprobe); v != "" {
		cfg.Tools.FFprobe = v
	}
	cfg.Logging.Level = firstNonEmpty(g.logLevel, os.Getenv(envLogLevel), cfg.Logging.Level)
	cfg.Logging.Format = firstNonEmpty(g.logFormat, os.Getenv(envLogFormat), cfg.Logging.Format)
	return cfg, nil
}

func (g *globalOptions) logger(cmd *cobra.Command, cfg *config.Config) (*slog.Logger, error) {
	return logging.New(logging.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Writer: cmd.ErrOrStderr(),
	})
}

// reelFlags are shared by render and plan. Only flags set on the command
// line override the configuration.
type reelFlags struct {
	input    string
	music    string
	output   string
	outDir   string
	cacheDir string
	fps      float64
	width    int
	height   int
	segments []string
	titles   []string

	manifest        string
	metricsTextfile string
}

func (r *reelFlags) register(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVarP(&r.input, "input", "i", "", "Source video")
	f.StringVarP(&r.music, "music", "m", "", "Soundtrack audio file")
	f.StringVarP(&r.output, "output", "o", "", "Output MP4 (default: <out-dir>/<name>-<timestamp>-<id>.mp4)")
	f.StringVar(&r.outDir, "out-dir", "", "Directory for generated outputs")
	f.StringVar(&r.cacheDir, "cache-dir", "", "Directory for per-run work files")
	f.Float64Var(&r.fps, "fps", 0, "Output frame rate (0 keeps the source rate)")
	f.IntVar(&r.width, "width", 0, "Output width")
	f.IntVar(&r.height, "height", 0, "Output height")
	f.StringArrayVarP(&r.segments, "segment", "s", nil, `Segment in seconds, repeatable ("2-4", "17:19"); replaces configured segments`)
	f.StringArrayVarP(&r.titles, "title", "t", nil, "Title card text, repeatable; replaces configured titles")
}

func (r *reelFlags) pipelineConfig(cmd *cobra.Command, cfg *config.Config, log *slog.Logger) (pipeline.Config, error) {
	changed := cmd.Flags().Changed
	if changed("input") {
		cfg.Input = r.input
	}
	if changed("music") {
		cfg.Music = r.music
	}
	if changed("output") {
		cfg.Output = r.output
	}
	if changed("out-dir") {
		cfg.Paths.OutDir = r.outDir
	}
	if changed("cache-dir") {
		cfg.Paths.CacheDir = r.cacheDir
	}
	if changed("fps") {
		cfg.FPS = r.fps
	}
	if changed("width") {
		cfg.Canvas.Width = r.width
	}
	if changed("height") {
		cfg.Canvas.Height = r.height
	}

	segs := cfg.SegmentList()
	if changed("segment") {
		segs = segs[:0]
		for _, v := range r.segments {
			s, err := segments.Parse(v)
			if err != nil {
				return pipeline.Config{}, err
			}
			segs = append(segs, s)
		}
	}
	specs := cfg.TitleSpecs()
	if changed("title") {
		base := config.Default().TitleSpecs()[0]
		specs = specs[:0]
		for _, text := range r.titles {
			s := base
			s.Text = text
			specs = append(specs, s)
		}
	}

	pc := pipeline.Config{
		Input:           absPath(cfg.Input),
		Music:           absPath(cfg.Music),
		Output:          cfg.Output,
		OutDir:          cfg.Paths.OutDir,
		CacheDir:        cfg.Paths.CacheDir,
		FPS:             cfg.FPS,
		Width:           cfg.Canvas.Width,
		Height:          cfg.Canvas.Height,
		Segments:        segs,
		Titles:          specs,
		FFmpegPath:      cfg.Tools.FFmpeg,
		FFprobePath:     cfg.Tools.FFprobe,
		Preset:          cfg.Tools.Preset,
		CRF:             cfg.Tools.CRF,
		ManifestPath:    r.manifest,
		MetricsTextfile: r.metricsTextfile,
		Logger:          log,
	}
	if err := pc.Validate(); err != nil {
		return pipeline.Config{}, fmt.Errorf("config: %w", err)
	}
	return pc, nil
}

func absPath(p string) string {
	if p == "" {
		return ""
	}
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return p
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
