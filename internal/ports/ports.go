package ports

import (
	"context"
	"image"
	"time"

	"github.com/forPelevin/hlreel/internal/types"
)

// VideoSource is an opened, exclusively owned decoded video stream.
type VideoSource interface {
	FrameRate() float64
	FrameCount() int
	// ReadFrame returns the frame at the current position and advances it.
	// io.EOF reports exhaustion.
	ReadFrame() (image.Image, error)
	Close() error
}

// FrameSeeker is implemented by sources that can position reads on an exact
// frame index.
type FrameSeeker interface {
	SeekFrame(index int) error
	Position() int
}

type VideoOpener interface {
	OpenVideo(ctx context.Context, path string) (VideoSource, error)
}

type AudioTool interface {
	ProbeDuration(ctx context.Context, path string) (time.Duration, error)
	TrimAudio(ctx context.Context, in string, d time.Duration, out string) error
}

type Encoder interface {
	Export(ctx context.Context, job types.ExportJob) error
}

type OutputVerifier interface {
	VerifyOutput(path string) (time.Duration, error)
}
