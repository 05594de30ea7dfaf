package ffmpeg

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"os/exec"
	"strconv"
	"strings"

	"github.com/forPelevin/hlreel/internal/ports"
)

// Source decodes the first video stream of a file to RGBA frames through an
// ffmpeg subprocess. Seeking restarts the decoder with an accurate input seek
// positioned half a frame before the requested index, so the first frame
// produced is exactly that index for constant frame rate input.
type Source struct {
	ctx    context.Context
	ffmpeg string
	path   string
	info   VideoInfo

	cmd    *exec.Cmd
	stdout io.ReadCloser
	stderr bytes.Buffer
	pos    int
	buf    []byte
	eof    bool
	closed bool
}

var (
	_ ports.VideoSource = (*Source)(nil)
	_ ports.FrameSeeker = (*Source)(nil)
)

// OpenVideo probes path and returns a source positioned at frame 0. The
// decoder process is bound to ctx.
func (a *Adapter) OpenVideo(ctx context.Context, path string) (ports.VideoSource, error) {
	info, err := a.ProbeVideo(ctx, path)
	if err != nil {
		return nil, err
	}
	return &Source{
		ctx:    ctx,
		ffmpeg: a.ffmpeg,
		path:   path,
		info:   info,
		buf:    make([]byte, info.Width*info.Height*4),
	}, nil
}

func (s *Source) FrameRate() float64 { return s.info.FPS }
func (s *Source) FrameCount() int    { return s.info.FrameCount }
func (s *Source) Position() int      { return s.pos }

func (s *Source) SeekFrame(index int) error {
	if s.closed {
		return errors.New("seek on closed source")
	}
	if index < 0 {
		return fmt.Errorf("seek to negative frame %d", index)
	}
	if s.info.FrameCount > 0 && index >= s.info.FrameCount {
		return fmt.Errorf("seek to frame %d past the last frame %d", index, s.info.FrameCount-1)
	}
	if s.cmd != nil && index == s.pos {
		return nil
	}
	if err := s.stop(); err != nil {
		return err
	}
	s.pos = index
	s.eof = false
	return s.start()
}

func (s *Source) ReadFrame() (image.Image, error) {
	if s.closed {
		return nil, errors.New("read on closed source")
	}
	if s.eof {
		return nil, io.EOF
	}
	if s.cmd == nil {
		if err := s.start(); err != nil {
			return nil, err
		}
	}
	if _, err := io.ReadFull(s.stdout, s.buf); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			s.eof = true
			if werr := s.finish(); werr != nil {
				return nil, werr
			}
			return nil, io.EOF
		}
		return nil, fmt.Errorf("ffmpeg decode: %w", err)
	}
	img := &image.RGBA{
		Pix:    append([]byte(nil), s.buf...),
		Stride: 4 * s.info.Width,
		Rect:   image.Rect(0, 0, s.info.Width, s.info.Height),
	}
	s.pos++
	return img, nil
}

// Close stops the decoder. It is safe to call more than once.
func (s *Source) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	return s.stop()
}

func (s *Source) start() error {
	cmd := exec.CommandContext(s.ctx, s.ffmpeg, decodeArgs(s.path, s.pos, s.info.FPS)...)
	s.stderr.Reset()
	cmd.Stderr = &s.stderr
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("ffmpeg decode pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("ffmpeg decode start: %w", err)
	}
	s.cmd = cmd
	s.stdout = stdout
	return nil
}

// stop kills a running decoder; its exit status is irrelevant once the
// caller has moved the read position.
func (s *Source) stop() error {
	if s.cmd == nil {
		return nil
	}
	cmd := s.cmd
	s.cmd = nil
	if cmd.Process != nil {
		_ = cmd.Process.Kill()
	}
	_ = cmd.Wait()
	return nil
}

// finish waits for a decoder that reached the end of its output and reports
// a failed exit with its stderr.
func (s *Source) finish() error {
	if s.cmd == nil {
		return nil
	}
	cmd := s.cmd
	s.cmd = nil
	if err := cmd.Wait(); err != nil {
		return fmt.Errorf("ffmpeg decode: %w\n%s", err, strings.TrimSpace(s.stderr.String()))
	}
	return nil
}

func decodeArgs(path string, frame int, fps float64) []string {
	args := []string{"-v", "error", "-nostdin"}
	if frame > 0 && fps > 0 {
		seek := (float64(frame) - 0.5) / fps
		args = append(args, "-ss", strconv.FormatFloat(seek, 'f', 6, 64))
	}
	args = append(args,
		"-i", path,
		"-map", "0:v:0",
		"-an", "-sn",
		"-fps_mode", "passthrough",
		"-f", "rawvideo",
		"-pix_fmt", "rgba",
		"-",
	)
	return args
}
