package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/forPelevin/hlreel/internal/domain/audiosync"
	"github.com/forPelevin/hlreel/internal/domain/segments"
	"github.com/forPelevin/hlreel/internal/domain/titles"
	"github.com/forPelevin/hlreel/internal/types"
)

type PlannedSegment struct {
	Segment types.Segment
	Range   types.FrameRange
	// PastEnd is set when the range starts beyond the last source frame.
	PastEnd bool
}

// Plan is the dry-run view of a render: frame ranges and the soundtrack
// window computed from the declared frames, before any frame is decoded.
type Plan struct {
	SourceFPS      float64
	SourceFrames   int
	FPS            float64
	Segments       []PlannedSegment
	DeclaredFrames int
	// MaxFrames is the upper bound on frames read with inclusive ends.
	MaxFrames     int
	AudioWindow   time.Duration
	MusicDuration time.Duration
	AudioShort    bool
	Titles        []types.TitleClip
	TitleDuration time.Duration
}

// Plan probes the source and music without decoding frames. A soundtrack
// shorter than the window is reported on the plan, not as an error.
func (u Usecase) Plan(ctx context.Context, in Input) (Plan, error) {
	if err := segments.Validate(in.Segments); err != nil {
		return Plan{}, err
	}
	src, err := u.d.Opener.OpenVideo(ctx, in.VideoPath)
	if err != nil {
		return Plan{}, fmt.Errorf("open video: %w", err)
	}
	p := Plan{SourceFPS: src.FrameRate(), SourceFrames: src.FrameCount()}
	if err := src.Close(); err != nil {
		u.d.Log.Warn("close video", slog.String("path", in.VideoPath), slog.Any("error", err))
	}
	if p.SourceFPS <= 0 {
		return Plan{}, fmt.Errorf("video %s reports frame rate %v", in.VideoPath, p.SourceFPS)
	}
	p.FPS = p.SourceFPS
	if in.FPS > 0 {
		p.FPS = in.FPS
	}

	for _, seg := range in.Segments {
		rng := segments.FrameRange(seg, p.SourceFPS)
		p.Segments = append(p.Segments, PlannedSegment{
			Segment: seg,
			Range:   rng,
			PastEnd: p.SourceFrames > 0 && rng.Start >= p.SourceFrames,
		})
		p.MaxFrames += rng.MaxFrames()
	}
	p.DeclaredFrames = segments.DeclaredFrames(in.Segments, p.SourceFPS)
	p.AudioWindow = audiosync.Window(p.DeclaredFrames, p.FPS)

	if in.MusicPath != "" {
		d, err := u.d.Audio.ProbeDuration(ctx, in.MusicPath)
		if err != nil {
			return Plan{}, fmt.Errorf("probe audio: %w", err)
		}
		p.MusicDuration = d
		p.AudioShort = d+audiosync.Tolerance < p.AudioWindow
	}

	tl, err := titles.AppendTitles(types.Timeline{}, in.Titles)
	if err != nil {
		return Plan{}, err
	}
	p.Titles = tl.Titles
	for _, c := range tl.Titles {
		p.TitleDuration += c.Duration
	}
	return p, nil
}
