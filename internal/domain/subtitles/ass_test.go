package subtitles

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/forPelevin/hlreel/internal/types"
)

func titleClip() types.TitleClip {
	return types.TitleClip{
		Text:     "Music Text 1",
		Duration: 2 * time.Second,
		FadeIn:   time.Second,
		FontSize: 50,
		Color:    "FF0000",
		Position: "top",
	}
}

func TestRenderTitleASS_StyleAndEvent(t *testing.T) {
	ass, err := RenderTitleASS(titleClip(), 1080, 1920)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{
		"PlayResX: 1080",
		"PlayResY: 1920",
		"Style: Title, DejaVu Sans, 50, &H000000FF,",
		",8, 0,0,0,1",
		"Dialogue: 0,0:00:00.00,0:00:02.00,Title,,0,0,0,,Music Text 1",
	} {
		if !strings.Contains(ass, want) {
			t.Fatalf("expected %q in ASS, got:\n%s", want, ass)
		}
	}
}

func TestRenderTitleASS_Sanitizes(t *testing.T) {
	c := titleClip()
	c.Text = "line one\n{bold} \\ two"
	ass, err := RenderTitleASS(c, 1080, 1920)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(ass, `line one\N(bold) \\ two`) {
		t.Fatalf("unexpected sanitized text:\n%s", ass)
	}
}

func TestRenderTitleASS_Errors(t *testing.T) {
	c := titleClip()
	c.Text = "   "
	if _, err := RenderTitleASS(c, 1080, 1920); !errors.Is(err, types.ErrInvalidTitle) {
		t.Fatalf("expected ErrInvalidTitle for empty text, got %v", err)
	}
	c = titleClip()
	c.Color = "red"
	if _, err := RenderTitleASS(c, 1080, 1920); !errors.Is(err, types.ErrInvalidTitle) {
		t.Fatalf("expected ErrInvalidTitle for bad color, got %v", err)
	}
	if _, err := RenderTitleASS(titleClip(), 0, 1920); err == nil {
		t.Fatalf("expected error for empty canvas")
	}
}

func TestAlignment(t *testing.T) {
	tests := map[string]int{"top": 8, "": 8, "Center": 5, "bottom": 2}
	for in, want := range tests {
		if got := alignment(in); got != want {
			t.Fatalf("alignment(%q) = %d, want %d", in, got, want)
		}
	}
}

func TestAssTime_Format(t *testing.T) {
	got := assTime(61*time.Second + 234*time.Millisecond)
	if got != "0:01:01.23" {
		t.Fatalf("unexpected assTime: %s", got)
	}
}
