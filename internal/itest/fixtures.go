//go:build integration

package itest

import (
	"fmt"
	"os/exec"
	"path/filepath"
	"strconv"
	"testing"
)

// makeVideo writes a 1280x720 30fps test pattern of the given length.
func makeVideo(t *testing.T, dir string, seconds int) string {
	t.Helper()
	out := filepath.Join(dir, "video.mp4")
	ffmpeg(t,
		"-y",
		"-f", "lavfi",
		"-i", fmt.Sprintf("testsrc2=s=1280x720:r=30:d=%d", seconds),
		"-c:v", "libx264",
		"-pix_fmt", "yuv420p",
		out,
	)
	return out
}

// makeMusic writes a stereo sine tone of the given length.
func makeMusic(t *testing.T, dir string, seconds int) string {
	t.Helper()
	out := filepath.Join(dir, "music.mp3")
	ffmpeg(t,
		"-y",
		"-f", "lavfi",
		"-i", "sine=frequency=440:sample_rate=44100:duration="+strconv.Itoa(seconds),
		"-ac", "2",
		out,
	)
	return out
}

func ffmpeg(t *testing.T, args ...string) {
	t.Helper()
	cmd := exec.Command("ffmpeg", args...)
	if b, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("ffmpeg fixture failed: %v\n%s", err, string(b))
	}
}
