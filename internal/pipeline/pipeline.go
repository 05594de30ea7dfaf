package pipeline

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"github.com/forPelevin/hlreel/internal/domain/segments"
	"github.com/forPelevin/hlreel/internal/domain/titles"
	"github.com/forPelevin/hlreel/internal/metrics"
	"github.com/forPelevin/hlreel/internal/ports"
	"github.com/forPelevin/hlreel/internal/ports/adapters/ffmpeg"
	"github.com/forPelevin/hlreel/internal/ports/adapters/mp4check"
	"github.com/forPelevin/hlreel/internal/types"
	"github.com/forPelevin/hlreel/internal/usecase"
)

type Config struct {
	Input string
	Music string
	// Output defaults to <OutDir>/<name>-<timestamp>-<suffix>.mp4.
	Output string
	OutDir string

	// CacheDir is the base directory for per-run work files.
	// If empty, defaults to ".cache".
	CacheDir string

	FPS      float64
	Width    int
	Height   int
	Segments []types.Segment
	Titles   []types.TitleSpec

	FFmpegPath  string
	FFprobePath string
	Preset      string
	CRF         int

	// ManifestPath and MetricsTextfile are optional run reports.
	ManifestPath    string
	MetricsTextfile string

	Logger *slog.Logger
}

func (c Config) Validate() error {
	if c.Input == "" {
		return errors.New("input is empty")
	}
	if _, err := os.Stat(c.Input); err != nil {
		return fmt.Errorf("stat input: %w", err)
	}
	if c.Music == "" {
		return errors.New("music is empty")
	}
	if _, err := os.Stat(c.Music); err != nil {
		return fmt.Errorf("stat music: %w", err)
	}
	if c.FPS < 0 {
		return fmt.Errorf("fps must be >= 0")
	}
	if c.Width <= 0 || c.Height <= 0 {
		return fmt.Errorf("canvas must be positive, got %dx%d", c.Width, c.Height)
	}
	if c.Width%2 != 0 || c.Height%2 != 0 {
		return fmt.Errorf("canvas must have even dimensions, got %dx%d", c.Width, c.Height)
	}
	if err := segments.Validate(c.Segments); err != nil {
		return err
	}
	for i, s := range c.Titles {
		if _, err := titles.Build(s); err != nil {
			return fmt.Errorf("title %d: %w", i+1, err)
		}
	}
	return nil
}

func (c Config) logger() *slog.Logger {
	if c.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return c.Logger
}

func (c Config) adapter(log *slog.Logger) *ffmpeg.Adapter {
	return ffmpeg.New(c.FFmpegPath, c.FFprobePath,
		ffmpeg.WithVerifier(mp4check.New()),
		ffmpeg.WithLogger(log),
		ffmpeg.WithQuality(c.Preset, c.CRF),
	)
}

// Run renders one reel and returns its manifest.
func Run(ctx context.Context, cfg Config) (types.Manifest, error) {
	runID := uuid.NewString()
	log := cfg.logger().With(slog.String("run_id", runID))

	output := cfg.Output
	if output == "" {
		outDir := cfg.OutDir
		if outDir == "" {
			outDir = "out"
		}
		output = buildRunOutput(outDir, cfg.Input, time.Now().UTC())
	}
	if err := os.MkdirAll(filepath.Dir(output), 0o755); err != nil {
		return types.Manifest{}, err
	}

	baseCache := cfg.CacheDir
	if baseCache == "" {
		baseCache = ".cache"
	}
	workDir := filepath.Join(baseCache, "runs", hash(cfg.Input)+"-"+runID[:8])
	log.Info("preparing workspace", slog.String("work_dir", workDir))
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		return types.Manifest{}, err
	}
	defer func() {
		if err := os.RemoveAll(workDir); err != nil {
			log.Warn("remove work dir", slog.String("work_dir", workDir), slog.Any("error", err))
		}
	}()

	unlock, err := lockOutput(output)
	if err != nil {
		return types.Manifest{}, err
	}
	defer unlock()

	var m *metrics.Metrics
	if cfg.MetricsTextfile != "" {
		m = metrics.New()
		defer func() {
			if err := m.WriteTextfile(cfg.MetricsTextfile); err != nil {
				log.Warn("metrics not written", slog.Any("error", err))
			}
		}()
	}

	v := cfg.adapter(log)
	uc := usecase.New(usecase.Deps{
		Opener:  v,
		Audio:   v,
		Encoder: v,
		Log:     log,
		Metrics: m,
	})

	started := time.Now()
	res, err := uc.Run(ctx, usecase.Input{
		RunID:     runID,
		VideoPath: cfg.Input,
		MusicPath: cfg.Music,
		Output:    output,
		WorkDir:   workDir,
		FPS:       cfg.FPS,
		Width:     cfg.Width,
		Height:    cfg.Height,
		Segments:  cfg.Segments,
		Titles:    cfg.Titles,
	})
	if err != nil {
		return types.Manifest{}, err
	}
	log.Info("reel written",
		slog.String("output", output),
		slog.Int("frames", res.Manifest.ReadFrames),
		slog.Float64("duration_sec", res.Manifest.DurationSec),
		slog.Duration("elapsed", time.Since(started).Round(time.Millisecond)),
	)

	if cfg.ManifestPath != "" {
		if err := writeManifest(cfg.ManifestPath, res.Manifest); err != nil {
			return res.Manifest, err
		}
		log.Info("manifest written", slog.String("path", cfg.ManifestPath))
	}
	return res.Manifest, nil
}

// Plan probes the inputs and reports frame ranges without rendering.
func Plan(ctx context.Context, cfg Config) (usecase.Plan, error) {
	log := cfg.logger()
	v := cfg.adapter(log)
	uc := usecase.New(usecase.Deps{Opener: v, Audio: v, Encoder: v, Log: log})
	return uc.Plan(ctx, usecase.Input{
		VideoPath: cfg.Input,
		MusicPath: cfg.Music,
		FPS:       cfg.FPS,
		Width:     cfg.Width,
		Height:    cfg.Height,
		Segments:  cfg.Segments,
		Titles:    cfg.Titles,
	})
}

// lockOutput keeps two runs from writing the same file.
func lockOutput(output string) (func(), error) {
	lockPath := output + ".lock"
	lock := flock.New(lockPath)
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire output lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("output %s is being written by another run", output)
	}
	return func() {
		_ = lock.Unlock()
		_ = os.Remove(lockPath)
	}, nil
}

func writeManifest(path string, m types.Manifest) error {
	b, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, b, 0o644)
}

func buildRunOutput(outRoot, input string, now time.Time) string {
	name := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
	name = normalizePathSegment(name)
	if name == "" {
		name = "input"
	}
	ts := now.UTC().Format("20060102-150405Z")
	runSeed := fmt.Sprintf("%s|%d", input, now.UTC().UnixNano())
	suffix := hash(runSeed)[:6]
	return filepath.Join(outRoot, fmt.Sprintf("%s-%s-%s.mp4", name, ts, suffix))
}

func normalizePathSegment(s string) string {
	var b strings.Builder
	prevDash := false
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r):
			b.WriteRune(r)
			prevDash = false
		default:
			if !prevDash {
				b.WriteByte('-')
				prevDash = true
			}
		}
	}
	return strings.Trim(b.String(), "-")
}

func hash(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])[:12]
}

// ensure adapters implement ports
var (
	_ ports.VideoOpener    = (*ffmpeg.Adapter)(nil)
	_ ports.AudioTool      = (*ffmpeg.Adapter)(nil)
	_ ports.Encoder        = (*ffmpeg.Adapter)(nil)
	_ ports.OutputVerifier = (*mp4check.Verifier)(nil)
)
