package subtitles

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"

	"github.com/forPelevin/hlreel/internal/types"
)

// RenderTitleASS renders a single-event ASS document for a title card on a
// width x height canvas. The crossfade itself is applied by the encoder to
// the whole card, so the event carries no fade tags.
func RenderTitleASS(clip types.TitleClip, width, height int) (string, error) {
	if width <= 0 || height <= 0 {
		return "", fmt.Errorf("title canvas %dx%d", width, height)
	}
	text := sanitizeASS(clip.Text)
	if text == "" {
		return "", fmt.Errorf("%w: empty text", types.ErrInvalidTitle)
	}
	color, err := assColor(clip.Color)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString(assHeader(width, height, clip.FontSize, color, alignment(clip.Position)))
	b.WriteString("\n[Events]\n")
	b.WriteString("Format: Layer, Start, End, Style, Name, MarginL, MarginR, MarginV, Effect, Text\n")
	b.WriteString("Dialogue: 0,0:00:00.00,")
	b.WriteString(assTime(clip.Duration))
	b.WriteString(",Title,,0,0,0,,")
	b.WriteString(text)
	b.WriteString("\n")
	return b.String(), nil
}

func assHeader(width, height, fontSize int, color string, align int) string {
	return fmt.Sprintf(strings.TrimSpace(`
[Script Info]
ScriptType: v4.00+
PlayResX: %d
PlayResY: %d
ScaledBorderAndShadow: yes

[V4+ Styles]
Format: Name, Fontname, Fontsize, PrimaryColour, SecondaryColour, OutlineColour, BackColour, Bold, Italic, Underline, StrikeOut, ScaleX, ScaleY, Spacing, Angle, BorderStyle, Outline, Shadow, Alignment, MarginL, MarginR, MarginV, Encoding
Style: Title, DejaVu Sans, %d, %s, %s, &H00000000, &H00000000, 0,0,0,0,100,100,0,0,1,0,0,%d, 0,0,0,1
`), width, height, fontSize, color, color, align)
}

// alignment maps a position to an ASS numpad alignment, horizontally centered.
func alignment(position string) int {
	switch strings.ToLower(strings.TrimSpace(position)) {
	case "center", "middle":
		return 5
	case "bottom":
		return 2
	default:
		return 8
	}
}

// assColor converts "RRGGBB" to ASS "&H00BBGGRR".
func assColor(rgb string) (string, error) {
	rgb = strings.TrimPrefix(strings.TrimSpace(rgb), "#")
	if len(rgb) != 6 {
		return "", fmt.Errorf("%w: color %q is not RRGGBB", types.ErrInvalidTitle, rgb)
	}
	for _, r := range rgb {
		if !strings.ContainsRune("0123456789abcdefABCDEF", r) {
			return "", fmt.Errorf("%w: color %q is not hex", types.ErrInvalidTitle, rgb)
		}
	}
	rgb = strings.ToUpper(rgb)
	return "&H00" + rgb[4:6] + rgb[2:4] + rgb[0:2], nil
}

func assTime(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	hs := int(d / time.Hour)
	d -= time.Duration(hs) * time.Hour
	ms := int(d / time.Minute)
	d -= time.Duration(ms) * time.Minute
	s := int(d / time.Second)
	d -= time.Duration(s) * time.Second
	cs := int(d / (10 * time.Millisecond))
	return fmt.Sprintf("%d:%02d:%02d.%02d", hs, ms, s, cs)
}

func sanitizeASS(s string) string {
	s = norm.NFC.String(s)
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "{", "(")
	s = strings.ReplaceAll(s, "}", ")")
	s = strings.ReplaceAll(s, "\r\n", "\\N")
	s = strings.ReplaceAll(s, "\n", "\\N")
	return strings.TrimSpace(s)
}
