package types

import (
	"image"
	"os"
	"time"
)

// Segment is a caller-specified time range in seconds.
type Segment struct {
	Start float64 `json:"start" toml:"start" yaml:"start"`
	End   float64 `json:"end" toml:"end" yaml:"end"`
}

// FrameRange is a segment expressed as truncated frame indices.
type FrameRange struct {
	Start int `json:"start_frame"`
	End   int `json:"end_frame"`
}

// Width is the declared frame count of the range.
func (r FrameRange) Width() int { return r.End - r.Start }

// MaxFrames bounds how many frames an inclusive read of the range can yield.
func (r FrameRange) MaxFrames() int { return r.End - r.Start + 1 }

type SegmentFrames struct {
	Segment Segment
	Range   FrameRange
	Frames  []*image.RGBA

	// Truncated is set when the read stopped before Range.End.
	Truncated bool
	Err       error
}

type Timeline struct {
	Segments []SegmentFrames

	// DeclaredFrames is the sum of range widths, an upper bound on the
	// duration the soundtrack may cover.
	DeclaredFrames int
	Titles         []TitleClip
}

// FrameCount returns the number of frames actually read.
func (t Timeline) FrameCount() int {
	n := 0
	for _, s := range t.Segments {
		n += len(s.Frames)
	}
	return n
}

// SyncFrames is the frame count the soundtrack is trimmed to.
func (t Timeline) SyncFrames() int {
	return min(t.DeclaredFrames, t.FrameCount())
}

// Duration covers the main frames plus trailing titles.
func (t Timeline) Duration(fps float64) time.Duration {
	if fps <= 0 {
		return 0
	}
	d := time.Duration(float64(t.FrameCount()) / fps * float64(time.Second))
	for _, c := range t.Titles {
		d += c.Duration
	}
	return d
}

type AudioTrack struct {
	Source   string
	Path     string
	Duration time.Duration
}

// Release removes the trimmed intermediate. Safe to call more than once.
func (a AudioTrack) Release() error {
	if a.Path == "" || a.Path == a.Source {
		return nil
	}
	if err := os.Remove(a.Path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

type TitleSpec struct {
	Text     string
	Duration time.Duration
	FadeIn   time.Duration
	FontSize int
	// Color is "RRGGBB" or a named color.
	Color    string
	Position string
}

type TitleClip struct {
	Text     string
	Duration time.Duration
	FadeIn   time.Duration
	FontSize int
	// Color is "RRGGBB".
	Color    string
	Position string
}

type ExportJob struct {
	Timeline Timeline
	Audio    AudioTrack
	FPS      float64
	Width    int
	Height   int
	Output   string
	WorkDir  string
}

type Manifest struct {
	RunID    string            `json:"run_id"`
	Input    string            `json:"input"`
	Music    string            `json:"music"`
	Output   string            `json:"output"`
	FPS      float64           `json:"fps"`
	Width    int               `json:"width"`
	Height   int               `json:"height"`
	Segments []ManifestSegment `json:"segments"`
	Titles   []string          `json:"titles"`

	DeclaredFrames int     `json:"declared_frames"`
	ReadFrames     int     `json:"read_frames"`
	AudioSec       float64 `json:"audio_sec"`
	DurationSec    float64 `json:"duration_sec"`
}

type ManifestSegment struct {
	ID         string  `json:"id"`
	StartSec   float64 `json:"start_sec"`
	EndSec     float64 `json:"end_sec"`
	StartFrame int     `json:"start_frame"`
	EndFrame   int     `json:"end_frame"`
	ReadFrames int     `json:"read_frames"`
	Truncated  bool    `json:"truncated"`
	Error      string  `json:"error,omitempty"`
}
