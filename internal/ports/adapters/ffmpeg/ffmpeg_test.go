package ffmpeg

import (
	"bufio"
	"bytes"
	"errors"
	"image"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/forPelevin/hlreel/internal/types"
)

func TestParseVideoInfo(t *testing.T) {
	raw := []byte(`{
		"streams": [{"width": 1920, "height": 1080, "r_frame_rate": "30000/1001", "avg_frame_rate": "30000/1001", "nb_frames": "6494"}],
		"format": {"duration": "216.683333"}
	}`)
	info, err := parseVideoInfo(raw)
	if err != nil {
		t.Fatal(err)
	}
	if info.Width != 1920 || info.Height != 1080 {
		t.Fatalf("unexpected size %dx%d", info.Width, info.Height)
	}
	if math.Abs(info.FPS-29.97002997) > 1e-6 {
		t.Fatalf("unexpected fps %v", info.FPS)
	}
	if info.FrameCount != 6494 {
		t.Fatalf("unexpected frame count %d", info.FrameCount)
	}
	if math.Abs(info.Duration-216.683333) > 1e-9 {
		t.Fatalf("unexpected duration %v", info.Duration)
	}
}

func TestParseVideoInfo_EstimatesFrameCount(t *testing.T) {
	raw := []byte(`{"streams": [{"width": 640, "height": 360, "r_frame_rate": "25/1", "avg_frame_rate": "0/0", "nb_frames": "N/A"}], "format": {"duration": "10.0"}}`)
	info, err := parseVideoInfo(raw)
	if err != nil {
		t.Fatal(err)
	}
	if info.FPS != 25 {
		t.Fatalf("expected fallback to r_frame_rate, got %v", info.FPS)
	}
	if info.FrameCount != 250 {
		t.Fatalf("expected 250 frames from duration, got %d", info.FrameCount)
	}
}

func TestParseVideoInfo_Errors(t *testing.T) {
	cases := map[string]string{
		"no streams": `{"streams": [], "format": {}}`,
		"no size":    `{"streams": [{"width": 0, "height": 0, "r_frame_rate": "30/1"}]}`,
		"no rate":    `{"streams": [{"width": 10, "height": 10, "r_frame_rate": "0/0", "avg_frame_rate": "bogus"}]}`,
		"bad json":   `{`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := parseVideoInfo([]byte(raw)); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestParseRate(t *testing.T) {
	tests := map[string]float64{
		"30/1":       30,
		"24000/1001": 24000.0 / 1001.0,
		"25":         25,
		"0/0":        0,
		"":           0,
		"x/y":        0,
	}
	for in, want := range tests {
		if got := parseRate(in); math.Abs(got-want) > 1e-12 {
			t.Fatalf("parseRate(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestDecodeArgs_SeeksHalfFrameEarly(t *testing.T) {
	args := strings.Join(decodeArgs("in.mp4", 60, 30), " ")
	if !strings.Contains(args, "-ss 1.983333 -i in.mp4") {
		t.Fatalf("unexpected seek args: %s", args)
	}
	if !strings.HasSuffix(args, "-f rawvideo -pix_fmt rgba -") {
		t.Fatalf("expected raw rgba on stdout: %s", args)
	}

	args = strings.Join(decodeArgs("in.mp4", 0, 30), " ")
	if strings.Contains(args, "-ss") {
		t.Fatalf("frame 0 must not seek: %s", args)
	}
}

func testJob() types.ExportJob {
	frame := image.NewRGBA(image.Rect(0, 0, 4, 6))
	return types.ExportJob{
		Timeline: types.Timeline{
			Segments: []types.SegmentFrames{{Frames: []*image.RGBA{frame, frame}}},
			Titles: []types.TitleClip{{
				Text: "Music Text 1", Duration: 2 * time.Second, FadeIn: time.Second,
				FontSize: 50, Color: "FF0000", Position: "top",
			}},
		},
		Audio:  types.AudioTrack{Path: "/tmp/soundtrack.m4a", Duration: 4 * time.Second},
		FPS:    30,
		Width:  4,
		Height: 6,
		Output: "/tmp/out.mp4",
	}
}

func TestMainArgs(t *testing.T) {
	a := New("", "")
	args := strings.Join(a.mainArgs(testJob(), "/w/main.mp4"), " ")
	for _, want := range []string{
		"-f rawvideo -pix_fmt rgba -s 4x6 -framerate 30 -i -",
		"-i /tmp/soundtrack.m4a",
		"-map 0:v:0 -map 1:a:0 -af apad -shortest",
		"-c:v libx264 -preset veryfast -crf 18 -pix_fmt yuv420p",
		"-ar 48000 -ac 2 /w/main.mp4",
	} {
		if !strings.Contains(args, want) {
			t.Fatalf("expected %q in %s", want, args)
		}
	}
}

func TestMainArgs_SilentWithoutAudio(t *testing.T) {
	job := testJob()
	job.Audio = types.AudioTrack{}
	args := strings.Join(New("", "").mainArgs(job, "m.mp4"), " ")
	if !strings.Contains(args, "-f lavfi -i anullsrc=channel_layout=stereo:sample_rate=48000") {
		t.Fatalf("expected silent audio input: %s", args)
	}
}

func TestTitleArgs(t *testing.T) {
	a := New("", "", WithQuality("medium", 20))
	job := testJob()
	args := strings.Join(a.titleArgs(job, job.Timeline.Titles[0], "/w/title_01.ass", "/w/title_01.mp4"), " ")
	for _, want := range []string{
		"-f lavfi -i color=c=black:s=4x6:r=30:d=2.000",
		"-vf subtitles=/w/title_01.ass,fade=t=in:st=0:d=1.000",
		"-t 2.000",
		"-preset medium -crf 20",
	} {
		if !strings.Contains(args, want) {
			t.Fatalf("expected %q in %s", want, args)
		}
	}
}

func TestConcatList(t *testing.T) {
	got := concatList([]string{"/w/main.mp4", "/w/it's.mp4"})
	want := "file '/w/main.mp4'\nfile '/w/it'\\''s.mp4'\n"
	if got != want {
		t.Fatalf("unexpected concat list:\n%s", got)
	}
}

func TestValidateJob(t *testing.T) {
	if err := validateJob(testJob()); err != nil {
		t.Fatalf("valid job rejected: %v", err)
	}

	job := testJob()
	job.Timeline.Segments = nil
	if err := validateJob(job); !errors.Is(err, types.ErrEmptyTimeline) {
		t.Fatalf("expected ErrEmptyTimeline, got %v", err)
	}

	job = testJob()
	job.Width = 8
	if err := validateJob(job); !errors.Is(err, types.ErrInvalidFrame) {
		t.Fatalf("expected ErrInvalidFrame for size mismatch, got %v", err)
	}

	job = testJob()
	job.FPS = 0
	if err := validateJob(job); err == nil {
		t.Fatalf("expected error for zero fps")
	}
}

func TestWriteFrames_HonorsStride(t *testing.T) {
	job := testJob()
	big := image.NewRGBA(image.Rect(0, 0, 8, 6))
	for i := range big.Pix {
		big.Pix[i] = byte(i)
	}
	sub := big.SubImage(image.Rect(0, 0, 4, 6)).(*image.RGBA)
	job.Timeline.Segments = []types.SegmentFrames{{Frames: []*image.RGBA{sub}}}

	var buf bytes.Buffer
	w := bufio.NewWriter(&buf)
	if err := writeFrames(w, job); err != nil {
		t.Fatal(err)
	}
	if err := w.Flush(); err != nil {
		t.Fatal(err)
	}
	if buf.Len() != 4*4*6 {
		t.Fatalf("expected %d bytes, got %d", 4*4*6, buf.Len())
	}
	// Row 1 starts at byte 32 of the parent.
	if buf.Bytes()[16] != 32 {
		t.Fatalf("expected second row to start at parent offset 32, got %d", buf.Bytes()[16])
	}
}

func TestEscapeFilterPath(t *testing.T) {
	got := escapeFilterPath(`C:\a,b`)
	if got != `C\:\\a\,b` {
		t.Fatalf("unexpected escape: %s", got)
	}
}
