package pipeline

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/forPelevin/hlreel/internal/domain/titles"
	"github.com/forPelevin/hlreel/internal/types"
)

func TestBuildRunOutput(t *testing.T) {
	now := time.Date(2026, 2, 12, 10, 30, 45, 1234, time.UTC)
	got := buildRunOutput("out", "/tmp/My Cool.Video.mp4", now)
	base := filepath.Base(got)
	if filepath.Dir(got) != "out" {
		t.Fatalf("unexpected parent dir: %s", got)
	}
	if !strings.HasPrefix(base, "my-cool-video-20260212-103045Z-") {
		t.Fatalf("unexpected output name format: %s", base)
	}
	if len(base) != len("my-cool-video-20260212-103045Z-")+6+len(".mp4") {
		t.Fatalf("unexpected output suffix length: %s", base)
	}
	if filepath.Ext(base) != ".mp4" {
		t.Fatalf("expected mp4 output: %s", base)
	}
}

func TestNormalizePathSegment(t *testing.T) {
	tests := map[string]string{
		"  My Cool.Video  ": "my-cool-video",
		"___":               "",
		"abc123":            "abc123",
		"Name (v2)!":        "name-v2",
	}
	for in, want := range tests {
		t.Run(in, func(t *testing.T) {
			if got := normalizePathSegment(in); got != want {
				t.Fatalf("normalizePathSegment(%q) = %q, want %q", in, got, want)
			}
		})
	}
}

func validConfig(t *testing.T) Config {
	t.Helper()
	dir := t.TempDir()
	in := filepath.Join(dir, "video.mp4")
	music := filepath.Join(dir, "hip.mp3")
	for _, p := range []string{in, music} {
		if err := os.WriteFile(p, []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return Config{
		Input:    in,
		Music:    music,
		Width:    1080,
		Height:   1920,
		Segments: []types.Segment{{Start: 2, End: 4}},
		Titles:   []types.TitleSpec{titles.Default("Music Text 1")},
	}
}

func TestConfigValidate(t *testing.T) {
	if err := validConfig(t).Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Config)
		is     error
	}{
		{name: "missing input", mutate: func(c *Config) { c.Input = filepath.Join(filepath.Dir(c.Input), "nope.mp4") }},
		{name: "empty music", mutate: func(c *Config) { c.Music = "" }},
		{name: "odd canvas", mutate: func(c *Config) { c.Width = 1079 }},
		{name: "negative fps", mutate: func(c *Config) { c.FPS = -30 }},
		{name: "overlapping segments", mutate: func(c *Config) {
			c.Segments = []types.Segment{{Start: 2, End: 4}, {Start: 3, End: 5}}
		}, is: types.ErrInvalidSegments},
		{name: "bad title", mutate: func(c *Config) {
			c.Titles = []types.TitleSpec{{Text: "x", Duration: time.Second, FadeIn: 2 * time.Second}}
		}, is: types.ErrInvalidTitle},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig(t)
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected error")
			}
			if tt.is != nil && !errors.Is(err, tt.is) {
				t.Fatalf("expected %v, got %v", tt.is, err)
			}
		})
	}
}

func TestLockOutputIsExclusive(t *testing.T) {
	out := filepath.Join(t.TempDir(), "reel.mp4")
	unlock, err := lockOutput(out)
	if err != nil {
		t.Fatalf("first lock failed: %v", err)
	}
	if _, err := lockOutput(out); err == nil || !strings.Contains(err.Error(), "another run") {
		t.Fatalf("expected second lock to fail, got %v", err)
	}
	unlock()
	if _, err := os.Stat(out + ".lock"); !os.IsNotExist(err) {
		t.Fatalf("lock file not removed: %v", err)
	}
	unlock2, err := lockOutput(out)
	if err != nil {
		t.Fatalf("relock failed: %v", err)
	}
	unlock2()
}

func TestWriteManifest(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reports", "manifest.json")
	m := types.Manifest{RunID: "abc", ReadFrames: 122, DeclaredFrames: 120, Titles: []string{"Music Text 1"}}
	if err := writeManifest(path, m); err != nil {
		t.Fatalf("writeManifest returned error: %v", err)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var got map[string]any
	if err := json.Unmarshal(b, &got); err != nil {
		t.Fatal(err)
	}
	if got["run_id"] != "abc" || got["read_frames"] != float64(122) {
		t.Fatalf("unexpected manifest %v", got)
	}
}
