package ffmpeg

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os/exec"
	"strconv"
	"strings"
)

// VideoInfo describes the first video stream of a container.
type VideoInfo struct {
	Width      int
	Height     int
	FPS        float64
	FrameCount int
	Duration   float64
}

type probeResult struct {
	Streams []probeStream `json:"streams"`
	Format  probeFormat   `json:"format"`
}

type probeStream struct {
	Width        int    `json:"width"`
	Height       int    `json:"height"`
	RFrameRate   string `json:"r_frame_rate"`
	AvgFrameRate string `json:"avg_frame_rate"`
	NBFrames     string `json:"nb_frames"`
	Duration     string `json:"duration"`
}

type probeFormat struct {
	Duration string `json:"duration"`
}

// ProbeVideo inspects the first video stream of path.
func (a *Adapter) ProbeVideo(ctx context.Context, path string) (VideoInfo, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return VideoInfo{}, errors.New("ffprobe video: empty path")
	}
	cmd := exec.CommandContext(ctx, a.ffprobe,
		"-v", "error",
		"-select_streams", "v:0",
		"-show_entries", "stream=width,height,r_frame_rate,avg_frame_rate,nb_frames,duration:format=duration",
		"-of", "json",
		"--", path,
	)
	b, err := cmd.CombinedOutput()
	if err != nil {
		return VideoInfo{}, fmt.Errorf("ffprobe video: %w\n%s", err, string(b))
	}
	return parseVideoInfo(b)
}

func parseVideoInfo(b []byte) (VideoInfo, error) {
	var res probeResult
	if err := json.Unmarshal(b, &res); err != nil {
		return VideoInfo{}, fmt.Errorf("ffprobe parse: %w", err)
	}
	if len(res.Streams) == 0 {
		return VideoInfo{}, errors.New("ffprobe video: no video stream")
	}
	s := res.Streams[0]
	info := VideoInfo{Width: s.Width, Height: s.Height}
	if info.Width <= 0 || info.Height <= 0 {
		return VideoInfo{}, fmt.Errorf("ffprobe video: invalid dimensions %dx%d", s.Width, s.Height)
	}

	info.FPS = parseRate(s.AvgFrameRate)
	if info.FPS <= 0 {
		info.FPS = parseRate(s.RFrameRate)
	}
	if info.FPS <= 0 {
		return VideoInfo{}, fmt.Errorf("ffprobe video: unknown frame rate (%q, %q)", s.AvgFrameRate, s.RFrameRate)
	}

	info.Duration = finite(parseFloat(s.Duration))
	if info.Duration <= 0 {
		info.Duration = finite(parseFloat(res.Format.Duration))
	}
	if n, err := strconv.Atoi(strings.TrimSpace(s.NBFrames)); err == nil && n > 0 {
		info.FrameCount = n
	} else if info.Duration > 0 {
		info.FrameCount = int(math.Round(info.Duration * info.FPS))
	}
	return info, nil
}

// parseRate reads an ffprobe rational such as "30000/1001".
func parseRate(v string) float64 {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0
	}
	num, den, ok := strings.Cut(v, "/")
	if !ok {
		return finite(parseFloat(v))
	}
	n, d := parseFloat(num), parseFloat(den)
	if d == 0 {
		return 0
	}
	return finite(n / d)
}

func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

func parseFloat(value string) float64 {
	cleaned := strings.TrimSpace(value)
	if cleaned == "" || cleaned == "N/A" {
		return 0
	}
	if parsed, err := strconv.ParseFloat(cleaned, 64); err == nil {
		return parsed
	}
	return math.NaN()
}
