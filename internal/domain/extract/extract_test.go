package extract

import (
	"errors"
	"testing"

	"github.com/forPelevin/hlreel/internal/testsupport"
	"github.com/forPelevin/hlreel/internal/types"
)

func TestExtract_SegmentAt30FPS(t *testing.T) {
	src := testsupport.NewSource(30, 900, 32, 18)
	ex := New(9, 16, nil)

	got, err := ex.Extract(src, types.Segment{Start: 2, End: 4})
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if got.Range != (types.FrameRange{Start: 60, End: 120}) {
		t.Fatalf("unexpected range: %+v", got.Range)
	}
	if len(got.Frames) > 61 {
		t.Fatalf("expected at most 61 frames, got %d", len(got.Frames))
	}
	if len(got.Frames) != 61 {
		t.Fatalf("expected the full inclusive read of 61 frames, got %d", len(got.Frames))
	}
	if got.Truncated {
		t.Fatalf("full read marked truncated: %v", got.Err)
	}
	if len(src.Seeks) != 1 || src.Seeks[0] != 60 {
		t.Fatalf("expected a single seek to 60, got %v", src.Seeks)
	}
	for i, f := range got.Frames {
		if f.Bounds().Dx() != 9 || f.Bounds().Dy() != 16 {
			t.Fatalf("frame %d is %v", i, f.Bounds())
		}
	}
	if c := got.Frames[0].RGBAAt(4, 8); !near(c.R, testsupport.FrameColor(60).R) {
		t.Fatalf("first frame should come from index 60, got %+v", c)
	}
	if c := got.Frames[60].RGBAAt(4, 8); !near(c.R, testsupport.FrameColor(120).R) {
		t.Fatalf("last frame should come from index 120, got %+v", c)
	}
}

func near(a, b uint8) bool {
	d := int(a) - int(b)
	return d >= -1 && d <= 1
}

func TestExtract_StreamExhaustionTruncates(t *testing.T) {
	src := testsupport.NewSource(30, 100, 32, 18)
	ex := New(9, 16, nil)

	got, err := ex.Extract(src, types.Segment{Start: 3, End: 5})
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if len(got.Frames) != 10 {
		t.Fatalf("expected 10 frames before exhaustion, got %d", len(got.Frames))
	}
	if !got.Truncated {
		t.Fatalf("expected truncated sequence")
	}
	if got.Err != nil {
		t.Fatalf("exhaustion is not an error, got %v", got.Err)
	}
}

func TestExtract_ReadErrorTruncates(t *testing.T) {
	src := testsupport.NewSource(30, 900, 32, 18)
	src.FailAt = 70
	ex := New(9, 16, nil)

	got, err := ex.Extract(src, types.Segment{Start: 2, End: 4})
	if err != nil {
		t.Fatalf("read errors must not fail extraction: %v", err)
	}
	if len(got.Frames) != 10 {
		t.Fatalf("expected 10 frames before the failed read, got %d", len(got.Frames))
	}
	if !got.Truncated || got.Err == nil {
		t.Fatalf("expected truncated sequence with error, got %+v", got.Err)
	}
}

func TestExtract_SeekErrorTruncates(t *testing.T) {
	src := testsupport.NewSource(30, 900, 32, 18)
	src.SeekErr = errors.New("seek past end")
	ex := New(9, 16, nil)

	got, err := ex.Extract(src, types.Segment{Start: 2, End: 4})
	if err != nil {
		t.Fatalf("seek errors must not fail extraction: %v", err)
	}
	if len(got.Frames) != 0 || !got.Truncated {
		t.Fatalf("expected empty truncated sequence, got %d frames", len(got.Frames))
	}
}

func TestExtract_SeekUnsupported(t *testing.T) {
	src := &testsupport.StreamSource{FPS: 30, Frames: 900}
	ex := New(9, 16, nil)

	_, err := ex.Extract(src, types.Segment{Start: 2, End: 4})
	if !errors.Is(err, types.ErrSeekUnsupported) {
		t.Fatalf("expected ErrSeekUnsupported, got %v", err)
	}
}

func TestExtract_SeekUnsupportedFromSeeker(t *testing.T) {
	src := testsupport.NewSource(30, 900, 32, 18)
	src.SeekErr = types.ErrSeekUnsupported
	ex := New(9, 16, nil)

	_, err := ex.Extract(src, types.Segment{Start: 2, End: 4})
	if !errors.Is(err, types.ErrSeekUnsupported) {
		t.Fatalf("expected ErrSeekUnsupported, got %v", err)
	}
}

func TestExtract_InvalidFrameTruncates(t *testing.T) {
	src := testsupport.NewSource(30, 900, 0, 18)
	ex := New(9, 16, nil)

	got, err := ex.Extract(src, types.Segment{Start: 2, End: 4})
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if !errors.Is(got.Err, types.ErrInvalidFrame) {
		t.Fatalf("expected ErrInvalidFrame on the result, got %v", got.Err)
	}
	if len(got.Frames) != 0 {
		t.Fatalf("expected no frames, got %d", len(got.Frames))
	}
}

func TestExtract_HugeEndTruncatesAtSourceEnd(t *testing.T) {
	for _, end := range []float64{1e8, 1e18, 1e300} {
		src := testsupport.NewSource(30, 900, 32, 18)
		ex := New(9, 16, nil)

		got, err := ex.Extract(src, types.Segment{Start: 2, End: end})
		if err != nil {
			t.Fatalf("end %g: extract: %v", end, err)
		}
		if got.Range.Start != 60 || got.Range.End < got.Range.Start {
			t.Fatalf("end %g: unordered range %+v", end, got.Range)
		}
		if len(got.Frames) != 840 {
			t.Fatalf("end %g: expected frames 60..899 (840), got %d", end, len(got.Frames))
		}
		if !got.Truncated || got.Err != nil {
			t.Fatalf("end %g: expected clean truncation, got truncated=%v err=%v", end, got.Truncated, got.Err)
		}
		if c := cap(got.Frames); c > 4096 {
			t.Fatalf("end %g: preallocated %d slots", end, c)
		}
	}
}

func TestCapacity(t *testing.T) {
	tests := []struct {
		name       string
		rng        types.FrameRange
		frameCount int
		want       int
	}{
		{"within source", types.FrameRange{Start: 60, End: 120}, 900, 61},
		{"bounded by source", types.FrameRange{Start: 870, End: 930}, 900, 30},
		{"start past end", types.FrameRange{Start: 950, End: 1000}, 900, 0},
		{"unknown count", types.FrameRange{Start: 0, End: 1 << 30}, 0, maxPrealloc},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := capacity(tt.rng, tt.frameCount); got != tt.want {
				t.Fatalf("capacity(%+v, %d) = %d, want %d", tt.rng, tt.frameCount, got, tt.want)
			}
		})
	}
}
