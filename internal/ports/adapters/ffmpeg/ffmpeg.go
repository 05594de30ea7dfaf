package ffmpeg

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/forPelevin/hlreel/internal/ports"
)

type Adapter struct {
	ffmpeg   string
	ffprobe  string
	verifier ports.OutputVerifier
	log      *slog.Logger

	// Video encoder settings shared by every part of an export so the parts
	// can be joined by stream copy.
	preset       string
	crf          int
	audioBitrate string
	sampleRate   int
}

type Option func(*Adapter)

func WithVerifier(v ports.OutputVerifier) Option {
	return func(a *Adapter) { a.verifier = v }
}

func WithLogger(l *slog.Logger) Option {
	return func(a *Adapter) {
		if l != nil {
			a.log = l
		}
	}
}

func WithQuality(preset string, crf int) Option {
	return func(a *Adapter) {
		if strings.TrimSpace(preset) != "" {
			a.preset = preset
		}
		if crf > 0 {
			a.crf = crf
		}
	}
}

func New(ffmpegPath, ffprobePath string, opts ...Option) *Adapter {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	if ffprobePath == "" {
		ffprobePath = "ffprobe"
	}
	a := &Adapter{
		ffmpeg:       ffmpegPath,
		ffprobe:      ffprobePath,
		log:          slog.New(slog.DiscardHandler),
		preset:       "veryfast",
		crf:          18,
		audioBitrate: "192k",
		sampleRate:   48000,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *Adapter) ProbeDuration(ctx context.Context, path string) (time.Duration, error) {
	cmd := exec.CommandContext(ctx, a.ffprobe,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	)
	b, err := cmd.CombinedOutput()
	if err != nil {
		return 0, fmt.Errorf("ffprobe duration: %w\n%s", err, string(b))
	}
	s := strings.TrimSpace(string(b))
	sec, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("parse duration %q: %w", s, err)
	}
	return time.Duration(sec * float64(time.Second)), nil
}

func (a *Adapter) TrimAudio(ctx context.Context, in string, d time.Duration, out string) error {
	args := []string{
		"-y",
		"-v", "error",
		"-i", in,
		"-vn",
		"-t", fmtSeconds(d),
	}
	if strings.HasSuffix(strings.ToLower(out), ".wav") {
		args = append(args, "-c:a", "pcm_s16le")
	} else {
		args = append(args, "-c:a", "aac", "-b:a", a.audioBitrate)
	}
	args = append(args, out)
	cmd := exec.CommandContext(ctx, a.ffmpeg, args...)
	b, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("ffmpeg trim audio: %w\n%s", err, string(b))
	}
	return nil
}

func (a *Adapter) run(ctx context.Context, what string, args []string) error {
	a.log.Debug("ffmpeg", slog.String("step", what), slog.String("args", strings.Join(args, " ")))
	cmd := exec.CommandContext(ctx, a.ffmpeg, args...)
	b, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("ffmpeg %s: %w\n%s", what, err, string(b))
	}
	return nil
}

func fmtSeconds(d time.Duration) string {
	sec := float64(d) / float64(time.Second)
	return strconv.FormatFloat(sec, 'f', 3, 64)
}

func fmtRate(fps float64) string {
	return strconv.FormatFloat(fps, 'f', -1, 64)
}

func escapeFilterPath(p string) string {
	p = strings.ReplaceAll(p, "\\", "\\\\")
	p = strings.ReplaceAll(p, ":", "\\:")
	p = strings.ReplaceAll(p, "'", "\\'")
	p = strings.ReplaceAll(p, ",", "\\,")
	return p
}
