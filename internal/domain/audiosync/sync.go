package audiosync

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/forPelevin/hlreel/internal/ports"
	"github.com/forPelevin/hlreel/internal/types"
)

// Tolerance absorbs container duration rounding when comparing the asset
// against the trim window.
const Tolerance = time.Millisecond

type Synchronizer struct {
	tool    ports.AudioTool
	workDir string
	log     *slog.Logger
}

func New(tool ports.AudioTool, workDir string, log *slog.Logger) *Synchronizer {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Synchronizer{tool: tool, workDir: workDir, log: log}
}

// Window is the soundtrack length for frames at fps.
func Window(frames int, fps float64) time.Duration {
	if frames <= 0 || fps <= 0 {
		return 0
	}
	return time.Duration(float64(frames) / fps * float64(time.Second))
}

// Sync trims asset to [0, frames/fps]. The asset is never looped or padded:
// a shorter asset fails with ErrInsufficientAudio.
func (s *Synchronizer) Sync(ctx context.Context, asset string, frames int, fps float64) (types.AudioTrack, error) {
	window := Window(frames, fps)
	if window <= 0 {
		return types.AudioTrack{}, fmt.Errorf("audio window for %d frames at %v fps is empty", frames, fps)
	}

	native, err := s.tool.ProbeDuration(ctx, asset)
	if err != nil {
		return types.AudioTrack{}, fmt.Errorf("probe audio: %w", err)
	}
	if native+Tolerance < window {
		return types.AudioTrack{}, fmt.Errorf("%w: %s is %s long, reel needs %s",
			types.ErrInsufficientAudio, filepath.Base(asset), native, window)
	}

	out := filepath.Join(s.workDir, "soundtrack"+trimmedExt(asset))
	if err := s.tool.TrimAudio(ctx, asset, window, out); err != nil {
		return types.AudioTrack{}, fmt.Errorf("trim audio: %w", err)
	}

	s.log.Info("soundtrack trimmed",
		slog.String("asset", asset),
		slog.Duration("native", native),
		slog.Duration("window", window),
		slog.Int("frames", frames),
	)
	return types.AudioTrack{Source: asset, Path: out, Duration: window}, nil
}

func trimmedExt(asset string) string {
	switch strings.ToLower(filepath.Ext(asset)) {
	case ".wav":
		return ".wav"
	default:
		return ".m4a"
	}
}
