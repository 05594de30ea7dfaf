package testsupport

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"
)

// Source is an in-memory seekable video source. Frame i is filled with a
// color derived from i so tests can tell frames apart after normalization.
type Source struct {
	FPS    float64
	Frames int
	Width  int
	Height int

	// FailAt makes ReadFrame fail with a non-EOF error at that index (-1 disables).
	FailAt int
	// SeekErr is returned by SeekFrame when set.
	SeekErr error

	pos    int
	Seeks  []int
	Reads  int
	Closed bool
}

func NewSource(fps float64, frames, width, height int) *Source {
	return &Source{FPS: fps, Frames: frames, Width: width, Height: height, FailAt: -1}
}

func (s *Source) FrameRate() float64 { return s.FPS }
func (s *Source) FrameCount() int    { return s.Frames }
func (s *Source) Position() int      { return s.pos }

func (s *Source) SeekFrame(index int) error {
	s.Seeks = append(s.Seeks, index)
	if s.SeekErr != nil {
		return s.SeekErr
	}
	if index < 0 {
		return fmt.Errorf("seek to negative frame %d", index)
	}
	s.pos = index
	return nil
}

func (s *Source) ReadFrame() (image.Image, error) {
	if s.Closed {
		return nil, errors.New("read from closed source")
	}
	if s.pos >= s.Frames {
		return nil, io.EOF
	}
	if s.FailAt >= 0 && s.pos == s.FailAt {
		return nil, fmt.Errorf("decode frame %d: corrupt packet", s.pos)
	}
	img := image.NewRGBA(image.Rect(0, 0, s.Width, s.Height))
	c := FrameColor(s.pos)
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = c.R, c.G, c.B, c.A
	}
	s.pos++
	s.Reads++
	return img, nil
}

func (s *Source) Close() error {
	s.Closed = true
	return nil
}

// FrameColor is the uniform color of frame i.
func FrameColor(i int) color.RGBA {
	return color.RGBA{R: uint8(i % 256), G: uint8((i / 256) % 256), B: 100, A: 255}
}

// StreamSource is a source without frame-indexed seek.
type StreamSource struct {
	FPS    float64
	Frames int
	Closed bool
}

func (s *StreamSource) FrameRate() float64 { return s.FPS }
func (s *StreamSource) FrameCount() int    { return s.Frames }
func (s *StreamSource) ReadFrame() (image.Image, error) {
	return image.NewRGBA(image.Rect(0, 0, 4, 4)), nil
}
func (s *StreamSource) Close() error {
	s.Closed = true
	return nil
}
