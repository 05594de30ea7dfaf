package ffmpeg

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/forPelevin/hlreel/internal/domain/subtitles"
	"github.com/forPelevin/hlreel/internal/types"
)

// Export encodes the main frames with the soundtrack, renders each title
// card, and joins the parts into job.Output with the concat demuxer. Any
// failure is reported as ErrExportFailure wrapping the underlying error, and
// a partially written output is removed.
func (a *Adapter) Export(ctx context.Context, job types.ExportJob) (err error) {
	if err := validateJob(job); err != nil {
		return fmt.Errorf("%w: %w", types.ErrExportFailure, err)
	}

	workDir := job.WorkDir
	if workDir == "" {
		dir, err := os.MkdirTemp("", "hlreel-export-")
		if err != nil {
			return fmt.Errorf("%w: %w", types.ErrExportFailure, err)
		}
		defer os.RemoveAll(dir)
		workDir = dir
	} else if err := os.MkdirAll(workDir, 0o755); err != nil {
		return fmt.Errorf("%w: %w", types.ErrExportFailure, err)
	}
	if dir := filepath.Dir(job.Output); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("%w: %w", types.ErrExportFailure, err)
		}
	}

	defer func() {
		if err != nil {
			_ = os.Remove(job.Output)
			err = fmt.Errorf("%w: %w", types.ErrExportFailure, err)
		}
	}()

	parts := make([]string, 0, 1+len(job.Timeline.Titles))

	mainPath := filepath.Join(workDir, "main.mp4")
	if err := a.encodeMain(ctx, job, mainPath); err != nil {
		return err
	}
	parts = append(parts, mainPath)
	a.log.Info("main footage encoded",
		slog.Int("frames", job.Timeline.FrameCount()),
		slog.Duration("audio", job.Audio.Duration),
	)

	for i, clip := range job.Timeline.Titles {
		p := filepath.Join(workDir, fmt.Sprintf("title_%02d.mp4", i+1))
		if err := a.renderTitle(ctx, job, clip, i+1, workDir, p); err != nil {
			return err
		}
		parts = append(parts, p)
		a.log.Info("title rendered", slog.Int("index", i+1), slog.String("text", clip.Text))
	}

	if err := a.concat(ctx, parts, workDir, job.Output); err != nil {
		return err
	}

	if a.verifier != nil {
		d, err := a.verifier.VerifyOutput(job.Output)
		if err != nil {
			return fmt.Errorf("verify output: %w", err)
		}
		a.log.Info("output verified", slog.String("path", job.Output), slog.Duration("duration", d))
	}
	return nil
}

func validateJob(job types.ExportJob) error {
	if strings.TrimSpace(job.Output) == "" {
		return errors.New("output path is empty")
	}
	if job.FPS <= 0 {
		return fmt.Errorf("fps must be > 0, got %v", job.FPS)
	}
	if job.Width <= 0 || job.Height <= 0 {
		return fmt.Errorf("canvas %dx%d", job.Width, job.Height)
	}
	if job.Timeline.FrameCount() == 0 {
		return types.ErrEmptyTimeline
	}
	for _, seg := range job.Timeline.Segments {
		for _, f := range seg.Frames {
			if f.Bounds().Dx() != job.Width || f.Bounds().Dy() != job.Height {
				return fmt.Errorf("%w: frame %v does not match canvas %dx%d", types.ErrInvalidFrame, f.Bounds(), job.Width, job.Height)
			}
		}
	}
	return nil
}

func (a *Adapter) encodeMain(ctx context.Context, job types.ExportJob, out string) error {
	args := a.mainArgs(job, out)
	a.log.Debug("ffmpeg", slog.String("step", "encode main"), slog.String("args", strings.Join(args, " ")))

	cmd := exec.CommandContext(ctx, a.ffmpeg, args...)
	var stderr strings.Builder
	cmd.Stderr = &stderr
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("ffmpeg encode main: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("ffmpeg encode main: %w", err)
	}

	w := bufio.NewWriterSize(stdin, 4*job.Width*job.Height)
	writeErr := writeFrames(w, job)
	if writeErr == nil {
		writeErr = w.Flush()
	}
	_ = stdin.Close()
	waitErr := cmd.Wait()
	if waitErr != nil {
		return fmt.Errorf("ffmpeg encode main: %w\n%s", waitErr, stderr.String())
	}
	if writeErr != nil {
		return fmt.Errorf("ffmpeg encode main: write frames: %w", writeErr)
	}
	return nil
}

func writeFrames(w *bufio.Writer, job types.ExportJob) error {
	rowLen := 4 * job.Width
	for _, seg := range job.Timeline.Segments {
		for _, f := range seg.Frames {
			if f.Stride == rowLen {
				if _, err := w.Write(f.Pix[:rowLen*job.Height]); err != nil {
					return err
				}
				continue
			}
			for y := 0; y < job.Height; y++ {
				off := y * f.Stride
				if _, err := w.Write(f.Pix[off : off+rowLen]); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func (a *Adapter) mainArgs(job types.ExportJob, out string) []string {
	args := []string{
		"-y",
		"-v", "error",
		"-f", "rawvideo",
		"-pix_fmt", "rgba",
		"-s", strconv.Itoa(job.Width) + "x" + strconv.Itoa(job.Height),
		"-framerate", fmtRate(job.FPS),
		"-i", "-",
	}
	if job.Audio.Path != "" {
		args = append(args, "-i", job.Audio.Path)
	} else {
		args = append(args, "-f", "lavfi", "-i", a.silence())
	}
	args = append(args,
		"-map", "0:v:0",
		"-map", "1:a:0",
		// The soundtrack may end up to a frame per segment before the
		// footage; pad with silence and cut at the video's end.
		"-af", "apad",
		"-shortest",
	)
	args = append(args, a.codecArgs(job.FPS)...)
	return append(args, out)
}

func (a *Adapter) renderTitle(ctx context.Context, job types.ExportJob, clip types.TitleClip, n int, workDir, out string) error {
	ass, err := subtitles.RenderTitleASS(clip, job.Width, job.Height)
	if err != nil {
		return err
	}
	assPath := filepath.Join(workDir, fmt.Sprintf("title_%02d.ass", n))
	if err := os.WriteFile(assPath, []byte(ass), 0o644); err != nil {
		return err
	}
	return a.run(ctx, "render title", a.titleArgs(job, clip, assPath, out))
}

func (a *Adapter) titleArgs(job types.ExportJob, clip types.TitleClip, assPath, out string) []string {
	dur := fmtSeconds(clip.Duration)
	canvas := fmt.Sprintf("color=c=black:s=%dx%d:r=%s:d=%s", job.Width, job.Height, fmtRate(job.FPS), dur)

	filter := "subtitles=" + escapeFilterPath(assPath)
	if clip.FadeIn > 0 {
		filter += ",fade=t=in:st=0:d=" + fmtSeconds(clip.FadeIn)
	}

	args := []string{
		"-y",
		"-v", "error",
		"-f", "lavfi", "-i", canvas,
		"-f", "lavfi", "-i", a.silence(),
		"-vf", filter,
		"-t", dur,
		"-map", "0:v:0",
		"-map", "1:a:0",
	}
	args = append(args, a.codecArgs(job.FPS)...)
	return append(args, out)
}

func (a *Adapter) codecArgs(fps float64) []string {
	return []string{
		"-r", fmtRate(fps),
		"-c:v", "libx264",
		"-preset", a.preset,
		"-crf", strconv.Itoa(a.crf),
		"-pix_fmt", "yuv420p",
		"-c:a", "aac",
		"-b:a", a.audioBitrate,
		"-ar", strconv.Itoa(a.sampleRate),
		"-ac", "2",
	}
}

func (a *Adapter) silence() string {
	return "anullsrc=channel_layout=stereo:sample_rate=" + strconv.Itoa(a.sampleRate)
}

func (a *Adapter) concat(ctx context.Context, parts []string, workDir, out string) error {
	listPath := filepath.Join(workDir, "concat.txt")
	if err := os.WriteFile(listPath, []byte(concatList(parts)), 0o644); err != nil {
		return fmt.Errorf("write concat list: %w", err)
	}
	defer os.Remove(listPath)

	return a.run(ctx, "concat", []string{
		"-y",
		"-v", "error",
		"-f", "concat",
		"-safe", "0",
		"-i", listPath,
		"-c", "copy",
		"-movflags", "+faststart",
		out,
	})
}

func concatList(parts []string) string {
	var b strings.Builder
	for _, p := range parts {
		if abs, err := filepath.Abs(p); err == nil {
			p = abs
		}
		b.WriteString("file '")
		b.WriteString(strings.ReplaceAll(p, "'", `'\''`))
		b.WriteString("'\n")
	}
	return b.String()
}
