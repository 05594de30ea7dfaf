package cli

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/forPelevin/hlreel/internal/domain/segments"
	"github.com/forPelevin/hlreel/internal/pipeline"
	"github.com/forPelevin/hlreel/internal/usecase"
)

func newPlanCommand(g *globalOptions) *cobra.Command {
	r := &reelFlags{}
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Show frame ranges and the soundtrack window without rendering",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := g.load()
			if err != nil {
				return err
			}
			log, err := g.logger(cmd, cfg)
			if err != nil {
				return err
			}
			pc, err := r.pipelineConfig(cmd, cfg, log)
			if err != nil {
				return err
			}
			p, err := pipeline.Plan(cmd.Context(), pc)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderPlan(p))
			return nil
		},
	}
	r.register(cmd)
	return cmd
}

func renderPlan(p usecase.Plan) string {
	rows := make([][]string, 0, len(p.Segments))
	for i, s := range p.Segments {
		note := ""
		if s.PastEnd {
			note = "past end of source"
		}
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			segments.Format(s.Segment),
			strconv.Itoa(s.Range.Start),
			strconv.Itoa(s.Range.End),
			strconv.Itoa(s.Range.MaxFrames()),
			note,
		})
	}
	out := renderTable(
		[]string{"#", "Segment", "First", "Last", "Frames", "Note"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignRight, alignRight, alignRight, alignLeft},
	)

	audio := fmt.Sprintf("%s of %s", p.AudioWindow, p.MusicDuration)
	if p.AudioShort {
		audio += " (soundtrack too short)"
	}
	summary := renderTable(
		[]string{"Item", "Value"},
		[][]string{
			{"Source", fmt.Sprintf("%d frames at %s fps", p.SourceFrames, fmtFPS(p.SourceFPS))},
			{"Output rate", fmtFPS(p.FPS) + " fps"},
			{"Declared frames", strconv.Itoa(p.DeclaredFrames)},
			{"Frames read (max)", strconv.Itoa(p.MaxFrames)},
			{"Soundtrack", audio},
			{"Titles", fmt.Sprintf("%d (%s)", len(p.Titles), p.TitleDuration)},
			{"Reel length (max)", maxLength(p).String()},
		},
		[]columnAlignment{alignLeft, alignLeft},
	)
	return out + "\n" + summary
}

func maxLength(p usecase.Plan) time.Duration {
	if p.FPS <= 0 {
		return p.TitleDuration
	}
	d := time.Duration(float64(p.MaxFrames) / p.FPS * float64(time.Second))
	return d.Round(time.Millisecond) + p.TitleDuration
}

func fmtFPS(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
