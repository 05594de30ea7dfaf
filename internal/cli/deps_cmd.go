package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/forPelevin/hlreel/internal/deps"
)

func newDepsCommand(g *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "deps",
		Short: "Check that ffmpeg and ffprobe are available",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := g.load()
			if err != nil {
				return err
			}
			statuses := deps.CheckBinaries(deps.Codec(cfg.Tools.FFmpeg, cfg.Tools.FFprobe))
			rows := make([][]string, 0, len(statuses))
			for _, s := range statuses {
				state := "ok"
				where := s.Path
				if !s.Available {
					state = "missing"
					where = s.Detail
				}
				rows = append(rows, []string{s.Name, state, where, s.Description})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Dependency", "Status", "Location", "Used for"},
				rows,
				nil,
			))
			return deps.Missing(statuses)
		},
	}
}
