package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/forPelevin/hlreel/internal/domain/audiosync"
	"github.com/forPelevin/hlreel/internal/domain/compose"
	"github.com/forPelevin/hlreel/internal/domain/extract"
	"github.com/forPelevin/hlreel/internal/domain/segments"
	"github.com/forPelevin/hlreel/internal/domain/titles"
	"github.com/forPelevin/hlreel/internal/metrics"
	"github.com/forPelevin/hlreel/internal/ports"
	"github.com/forPelevin/hlreel/internal/types"
)

type Deps struct {
	Opener  ports.VideoOpener
	Audio   ports.AudioTool
	Encoder ports.Encoder
	Log     *slog.Logger
	// Metrics is optional.
	Metrics *metrics.Metrics
}

type Usecase struct{ d Deps }

func New(d Deps) Usecase {
	if d.Log == nil {
		d.Log = slog.New(slog.DiscardHandler)
	}
	return Usecase{d: d}
}

type Input struct {
	RunID     string
	VideoPath string
	MusicPath string
	Output    string
	WorkDir   string

	// FPS is the output rate; 0 keeps the source rate.
	FPS    float64
	Width  int
	Height int

	Segments []types.Segment
	Titles   []types.TitleSpec
}

type Result struct {
	Manifest types.Manifest
}

// Run extracts every segment in declaration order, trims the soundtrack to
// the composed footage, appends the title cards and exports the reel.
func (u Usecase) Run(ctx context.Context, in Input) (Result, error) {
	if err := segments.Validate(in.Segments); err != nil {
		return Result{}, err
	}
	if in.Width <= 0 || in.Height <= 0 {
		return Result{}, fmt.Errorf("%w: canvas %dx%d", types.ErrInvalidFrame, in.Width, in.Height)
	}
	log := u.d.Log

	seqs, fps, err := u.extractAll(ctx, in)
	if err != nil {
		u.fail("extract")
		return Result{}, err
	}
	if in.FPS > 0 {
		fps = in.FPS
	}

	tl, err := compose.Compose(seqs)
	if err != nil {
		u.fail("compose")
		return Result{}, err
	}
	log.Info("timeline composed",
		slog.Int("segments", len(tl.Segments)),
		slog.Int("read_frames", tl.FrameCount()),
		slog.Int("declared_frames", tl.DeclaredFrames),
	)

	if err := ensureDir(in.WorkDir); err != nil {
		return Result{}, fmt.Errorf("prepare work dir: %w", err)
	}
	started := time.Now()
	syncer := audiosync.New(u.d.Audio, in.WorkDir, log)
	track, err := syncer.Sync(ctx, in.MusicPath, tl.SyncFrames(), fps)
	if err != nil {
		u.fail("audio")
		return Result{}, err
	}
	defer func() {
		if err := track.Release(); err != nil {
			log.Warn("remove trimmed soundtrack", slog.String("path", track.Path), slog.Any("error", err))
		}
	}()
	u.observe("audio", started)

	tl, err = titles.AppendTitles(tl, in.Titles)
	if err != nil {
		u.fail("titles")
		return Result{}, err
	}

	started = time.Now()
	job := types.ExportJob{
		Timeline: tl,
		Audio:    track,
		FPS:      fps,
		Width:    in.Width,
		Height:   in.Height,
		Output:   in.Output,
		WorkDir:  in.WorkDir,
	}
	if err := u.d.Encoder.Export(ctx, job); err != nil {
		u.fail("export")
		return Result{}, err
	}
	u.observe("export", started)

	m := buildManifest(in, tl, track, fps)
	if u.d.Metrics != nil {
		u.d.Metrics.FramesDeclared.Set(float64(tl.DeclaredFrames))
		u.d.Metrics.AudioWindow.Set(track.Duration.Seconds())
		u.d.Metrics.TitleClips.Set(float64(len(tl.Titles)))
		u.d.Metrics.OutputDuration.Set(m.DurationSec)
	}
	return Result{Manifest: m}, nil
}

// extractAll owns the source for the extraction stage only; it is closed
// before audio and export run.
func (u Usecase) extractAll(ctx context.Context, in Input) (seqs []types.SegmentFrames, fps float64, err error) {
	started := time.Now()
	src, err := u.d.Opener.OpenVideo(ctx, in.VideoPath)
	if err != nil {
		return nil, 0, fmt.Errorf("open video: %w", err)
	}
	defer func() {
		if cerr := src.Close(); cerr != nil {
			u.d.Log.Warn("close video", slog.String("path", in.VideoPath), slog.Any("error", cerr))
		}
	}()

	fps = src.FrameRate()
	if fps <= 0 {
		return nil, 0, fmt.Errorf("video %s reports frame rate %v", in.VideoPath, fps)
	}

	ext := extract.New(in.Width, in.Height, u.d.Log)
	seqs = make([]types.SegmentFrames, 0, len(in.Segments))
	for i, seg := range in.Segments {
		if err := ctx.Err(); err != nil {
			return nil, 0, err
		}
		sf, err := ext.Extract(src, seg)
		if err != nil {
			return nil, 0, fmt.Errorf("segment %d %s: %w", i+1, segments.Format(seg), err)
		}
		u.d.Log.Info("segment extracted",
			slog.Int("index", i+1),
			slog.String("segment", segments.Format(seg)),
			slog.Int("frames", len(sf.Frames)),
			slog.Int("declared", sf.Range.Width()),
			slog.Bool("truncated", sf.Truncated),
		)
		if u.d.Metrics != nil {
			u.d.Metrics.RecordSegment(len(sf.Frames), sf.Truncated)
		}
		seqs = append(seqs, sf)
	}
	u.observe("extract", started)
	return seqs, fps, nil
}

func (u Usecase) observe(stage string, started time.Time) {
	if u.d.Metrics != nil {
		u.d.Metrics.ObserveStage(stage, time.Since(started))
	}
}

func (u Usecase) fail(stage string) {
	if u.d.Metrics != nil {
		u.d.Metrics.RecordFailure(stage)
	}
}

func buildManifest(in Input, tl types.Timeline, track types.AudioTrack, fps float64) types.Manifest {
	m := types.Manifest{
		RunID:          in.RunID,
		Input:          in.VideoPath,
		Music:          in.MusicPath,
		Output:         in.Output,
		FPS:            fps,
		Width:          in.Width,
		Height:         in.Height,
		DeclaredFrames: tl.DeclaredFrames,
		ReadFrames:     tl.FrameCount(),
		AudioSec:       track.Duration.Seconds(),
		DurationSec:    tl.Duration(fps).Seconds(),
	}
	for i, s := range tl.Segments {
		ms := types.ManifestSegment{
			ID:         fmt.Sprintf("%03d", i+1),
			StartSec:   s.Segment.Start,
			EndSec:     s.Segment.End,
			StartFrame: s.Range.Start,
			EndFrame:   s.Range.End,
			ReadFrames: len(s.Frames),
			Truncated:  s.Truncated,
		}
		if s.Err != nil {
			ms.Error = s.Err.Error()
		}
		m.Segments = append(m.Segments, ms)
	}
	for _, c := range tl.Titles {
		m.Titles = append(m.Titles, c.Text)
	}
	return m
}

func ensureDir(dir string) error {
	if dir == "" {
		return errors.New("work dir is empty")
	}
	return os.MkdirAll(dir, 0o755)
}
