package mp4check

import (
	"errors"
	"fmt"
	"time"

	"github.com/Eyevinn/mp4ff/mp4"
)

// Verifier checks that an exported file is a readable progressive MP4 with
// a movie header and at least one track.
type Verifier struct{}

func New() *Verifier { return &Verifier{} }

func (v *Verifier) VerifyOutput(path string) (time.Duration, error) {
	f, err := mp4.ReadMP4File(path)
	if err != nil {
		return 0, fmt.Errorf("read mp4 %s: %w", path, err)
	}
	return movieDuration(f)
}

func movieDuration(f *mp4.File) (time.Duration, error) {
	if f.Moov == nil || f.Moov.Mvhd == nil {
		return 0, errors.New("mp4 has no movie header")
	}
	if len(f.Moov.Traks) == 0 {
		return 0, errors.New("mp4 has no tracks")
	}
	mvhd := f.Moov.Mvhd
	if mvhd.Timescale == 0 {
		return 0, errors.New("mp4 movie header has zero timescale")
	}
	d := time.Duration(float64(mvhd.Duration) / float64(mvhd.Timescale) * float64(time.Second))
	if d <= 0 {
		return 0, errors.New("mp4 has zero duration")
	}
	return d, nil
}
