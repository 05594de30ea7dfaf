package segments

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/forPelevin/hlreel/internal/types"
)

// Validate checks a segment list before any media is touched. Segments must
// be well-formed and listed in ascending, non-overlapping order; the list is
// never re-sorted.
func Validate(segs []types.Segment) error {
	if len(segs) == 0 {
		return fmt.Errorf("%w: no segments", types.ErrInvalidSegments)
	}
	for i, s := range segs {
		if err := validateOne(s); err != nil {
			return fmt.Errorf("%w: segment %d: %v", types.ErrInvalidSegments, i+1, err)
		}
		if i > 0 && s.Start < segs[i-1].End {
			return fmt.Errorf("%w: segment %d (%s) starts before segment %d ends (%s)",
				types.ErrInvalidSegments, i+1, Format(s), i, Format(segs[i-1]))
		}
	}
	return nil
}

func validateOne(s types.Segment) error {
	if math.IsNaN(s.Start) || math.IsNaN(s.End) || math.IsInf(s.Start, 0) || math.IsInf(s.End, 0) {
		return fmt.Errorf("non-finite bounds %s", Format(s))
	}
	if s.Start < 0 {
		return fmt.Errorf("negative start %s", Format(s))
	}
	if s.End <= s.Start {
		return fmt.Errorf("end must be after start %s", Format(s))
	}
	return nil
}

// FrameRange converts a segment to frame indices by truncation. A
// non-integral fps may shift either boundary by up to one frame.
func FrameRange(s types.Segment, fps float64) types.FrameRange {
	return types.FrameRange{
		Start: frameIndex(s.Start, fps),
		End:   frameIndex(s.End, fps),
	}
}

// maxFrameIndex caps converted indices so an absurd but finite end still
// yields an ordered range that fits in an int on every platform.
const maxFrameIndex = math.MaxInt32

func frameIndex(sec, fps float64) int {
	if sec <= 0 || fps <= 0 {
		return 0
	}
	v := sec * fps
	if v >= maxFrameIndex {
		return maxFrameIndex
	}
	return int(v)
}

// DeclaredFrames sums range widths for the whole list.
func DeclaredFrames(segs []types.Segment, fps float64) int {
	n := 0
	for _, s := range segs {
		n += FrameRange(s, fps).Width()
	}
	return n
}

// Parse reads "start-end" or "start:end" in seconds, e.g. "2-4" or "17.5:19".
func Parse(v string) (types.Segment, error) {
	v = strings.TrimSpace(v)
	sep := strings.IndexAny(v, "-:")
	if sep <= 0 || sep == len(v)-1 {
		return types.Segment{}, fmt.Errorf("segment %q: expected start-end", v)
	}
	start, err := strconv.ParseFloat(strings.TrimSpace(v[:sep]), 64)
	if err != nil {
		return types.Segment{}, fmt.Errorf("segment %q: start: %w", v, err)
	}
	end, err := strconv.ParseFloat(strings.TrimSpace(v[sep+1:]), 64)
	if err != nil {
		return types.Segment{}, fmt.Errorf("segment %q: end: %w", v, err)
	}
	return types.Segment{Start: start, End: end}, nil
}

func Format(s types.Segment) string {
	return fmt.Sprintf("[%s, %s]", fmtSec(s.Start), fmtSec(s.End))
}

func fmtSec(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64) + "s"
}
