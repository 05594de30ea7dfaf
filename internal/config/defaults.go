package config

const (
	defaultFFmpeg    = "ffmpeg"
	defaultFFprobe   = "ffprobe"
	defaultPreset    = "veryfast"
	defaultCRF       = 18
	defaultOutDir    = "out"
	defaultCacheDir  = ".cache"
	defaultLogLevel  = "info"
	defaultLogFormat = "auto"

	DefaultWidth  = 1080
	DefaultHeight = 1920
)

// Default returns the stock reel: a 1080x1920 canvas, the highlight segments
// of the reference edit and two red "Music Text" cards at the top.
func Default() Config {
	return Config{
		Canvas: Canvas{Width: DefaultWidth, Height: DefaultHeight},
		Segments: []Segment{
			{Start: 2, End: 4}, {Start: 17, End: 19}, {Start: 32, End: 34},
			{Start: 39, End: 41}, {Start: 44, End: 46}, {Start: 48, End: 49},
			{Start: 56, End: 58}, {Start: 63, End: 66}, {Start: 126, End: 128},
			{Start: 138, End: 140}, {Start: 158, End: 160}, {Start: 166, End: 167},
			{Start: 200, End: 202}, {Start: 208, End: 209}, {Start: 213, End: 214},
		},
		Titles: []Title{
			defaultTitle("Music Text 1"),
			defaultTitle("Music Text 2"),
		},
		Tools: Tools{
			FFmpeg:  defaultFFmpeg,
			FFprobe: defaultFFprobe,
			Preset:  defaultPreset,
			CRF:     defaultCRF,
		},
		Paths: Paths{
			OutDir:   defaultOutDir,
			CacheDir: defaultCacheDir,
		},
		Logging: Logging{
			Level:  defaultLogLevel,
			Format: defaultLogFormat,
		},
	}
}

func defaultTitle(text string) Title {
	return Title{
		Text:        text,
		DurationSec: 2,
		FadeInSec:   1,
		FontSize:    50,
		Color:       "red",
		Position:    "top",
	}
}
