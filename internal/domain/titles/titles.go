package titles

import (
	"fmt"
	"strings"
	"time"

	"github.com/forPelevin/hlreel/internal/types"
)

const (
	DefaultDuration = 2 * time.Second
	DefaultFadeIn   = time.Second
	DefaultFontSize = 50
	DefaultColor    = "FF0000"
	DefaultPosition = "top"
)

var namedColors = map[string]string{
	"red":    "FF0000",
	"green":  "00FF00",
	"blue":   "0000FF",
	"white":  "FFFFFF",
	"black":  "000000",
	"yellow": "FFFF00",
}

// Default returns a title spec with the stock style for text.
func Default(text string) types.TitleSpec {
	return types.TitleSpec{
		Text:     text,
		Duration: DefaultDuration,
		FadeIn:   DefaultFadeIn,
		FontSize: DefaultFontSize,
		Color:    DefaultColor,
		Position: DefaultPosition,
	}
}

// AppendTitles returns a copy of tl with one trailing clip per spec, in the
// given order. Titles are extra segments after the main footage, each fading
// in at its own start; they are never composited over existing frames.
func AppendTitles(tl types.Timeline, specs []types.TitleSpec) (types.Timeline, error) {
	clips := make([]types.TitleClip, 0, len(tl.Titles)+len(specs))
	clips = append(clips, tl.Titles...)
	for i, s := range specs {
		c, err := Build(s)
		if err != nil {
			return types.Timeline{}, fmt.Errorf("title %d: %w", i+1, err)
		}
		clips = append(clips, c)
	}
	out := tl
	out.Segments = append([]types.SegmentFrames(nil), tl.Segments...)
	out.Titles = clips
	return out, nil
}

// Build validates a spec and fills defaults for zero style fields.
func Build(s types.TitleSpec) (types.TitleClip, error) {
	text := strings.TrimSpace(s.Text)
	if text == "" {
		return types.TitleClip{}, fmt.Errorf("%w: empty text", types.ErrInvalidTitle)
	}
	c := types.TitleClip{
		Text:     text,
		Duration: s.Duration,
		FadeIn:   s.FadeIn,
		FontSize: s.FontSize,
		Position: strings.ToLower(strings.TrimSpace(s.Position)),
	}
	if c.Duration == 0 {
		c.Duration = DefaultDuration
	}
	if c.FontSize == 0 {
		c.FontSize = DefaultFontSize
	}
	if c.Position == "" {
		c.Position = DefaultPosition
	}
	if c.Duration < 0 {
		return types.TitleClip{}, fmt.Errorf("%w: duration %s", types.ErrInvalidTitle, c.Duration)
	}
	if c.FadeIn < 0 || c.FadeIn > c.Duration {
		return types.TitleClip{}, fmt.Errorf("%w: fade-in %s outside [0, %s]", types.ErrInvalidTitle, c.FadeIn, c.Duration)
	}
	if c.FontSize < 0 {
		return types.TitleClip{}, fmt.Errorf("%w: font size %d", types.ErrInvalidTitle, c.FontSize)
	}
	switch c.Position {
	case "top", "center", "middle", "bottom":
	default:
		return types.TitleClip{}, fmt.Errorf("%w: position %q", types.ErrInvalidTitle, s.Position)
	}
	color, err := ParseColor(s.Color)
	if err != nil {
		return types.TitleClip{}, err
	}
	c.Color = color
	return c, nil
}

// ParseColor accepts a named color or a hex "RRGGBB" / "#RRGGBB" value.
func ParseColor(v string) (string, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return DefaultColor, nil
	}
	if hex, ok := namedColors[strings.ToLower(v)]; ok {
		return hex, nil
	}
	hex := strings.ToUpper(strings.TrimPrefix(v, "#"))
	if len(hex) != 6 || strings.Trim(hex, "0123456789ABCDEF") != "" {
		return "", fmt.Errorf("%w: color %q", types.ErrInvalidTitle, v)
	}
	return hex, nil
}
