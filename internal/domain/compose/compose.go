package compose

import (
	"fmt"

	"github.com/forPelevin/hlreel/internal/types"
)

// Compose concatenates per-segment sequences in the order given. Nothing is
// sorted: order is the caller's declaration order. DeclaredFrames is summed
// from the index ranges, independent of how many frames were actually read.
func Compose(seqs []types.SegmentFrames) (types.Timeline, error) {
	if len(seqs) == 0 {
		return types.Timeline{}, fmt.Errorf("%w: no segments", types.ErrEmptyTimeline)
	}

	tl := types.Timeline{Segments: make([]types.SegmentFrames, 0, len(seqs))}
	for _, s := range seqs {
		tl.Segments = append(tl.Segments, s)
		tl.DeclaredFrames += s.Range.Width()
	}
	if tl.FrameCount() == 0 {
		return types.Timeline{}, fmt.Errorf("%w: no segment produced any frames", types.ErrEmptyTimeline)
	}
	return tl, nil
}
