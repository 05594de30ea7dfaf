package extract

import (
	"errors"
	"fmt"
	"image"
	"io"
	"log/slog"

	"github.com/forPelevin/hlreel/internal/domain/aspect"
	"github.com/forPelevin/hlreel/internal/domain/segments"
	"github.com/forPelevin/hlreel/internal/ports"
	"github.com/forPelevin/hlreel/internal/types"
)

// Extractor reads bounded, normalized frame sequences from a source.
type Extractor struct {
	width  int
	height int
	log    *slog.Logger
}

func New(width, height int, log *slog.Logger) *Extractor {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Extractor{width: width, height: height, log: log}
}

// Extract seeks src to the segment's first frame and reads while the read
// position is <= the last frame index. Exhaustion and read, seek or frame
// errors truncate the sequence; they are recorded on the result and do not
// fail the call. Only a source that cannot seek by frame index is an error.
func (e *Extractor) Extract(src ports.VideoSource, seg types.Segment) (types.SegmentFrames, error) {
	rng := segments.FrameRange(seg, src.FrameRate())
	out := types.SegmentFrames{Segment: seg, Range: rng}

	seeker, ok := src.(ports.FrameSeeker)
	if !ok {
		return out, types.ErrSeekUnsupported
	}
	if err := seeker.SeekFrame(rng.Start); err != nil {
		if errors.Is(err, types.ErrSeekUnsupported) {
			return out, err
		}
		return e.truncate(out, fmt.Errorf("seek to frame %d: %w", rng.Start, err)), nil
	}

	out.Frames = make([]*image.RGBA, 0, capacity(rng, src.FrameCount()))
	for seeker.Position() <= rng.End {
		img, err := src.ReadFrame()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return e.truncate(out, nil), nil
			}
			return e.truncate(out, fmt.Errorf("read frame %d: %w", seeker.Position(), err)), nil
		}
		frame, err := aspect.Normalize(img, e.width, e.height)
		if err != nil {
			return e.truncate(out, fmt.Errorf("normalize frame: %w", err)), nil
		}
		out.Frames = append(out.Frames, frame)
	}

	e.log.Debug("segment extracted",
		slog.String("segment", segments.Format(seg)),
		slog.Int("start_frame", rng.Start),
		slog.Int("end_frame", rng.End),
		slog.Int("frames", len(out.Frames)),
	)
	return out, nil
}

// capacity bounds the preallocation by what the source can still deliver.
func capacity(rng types.FrameRange, frameCount int) int {
	n := rng.MaxFrames()
	if frameCount > 0 {
		n = min(n, frameCount-rng.Start)
	}
	return min(max(n, 0), maxPrealloc)
}

const maxPrealloc = 4096

func (e *Extractor) truncate(out types.SegmentFrames, err error) types.SegmentFrames {
	out.Truncated = true
	out.Err = err
	attrs := []any{
		slog.String("segment", segments.Format(out.Segment)),
		slog.Int("start_frame", out.Range.Start),
		slog.Int("end_frame", out.Range.End),
		slog.Int("frames", len(out.Frames)),
	}
	if err != nil {
		attrs = append(attrs, slog.Any("error", err))
	}
	e.log.Warn("segment read stopped early", attrs...)
	return out
}
