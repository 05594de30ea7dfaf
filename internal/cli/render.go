package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/forPelevin/hlreel/internal/pipeline"
)

func newRenderCommand(g *globalOptions) *cobra.Command {
	r := &reelFlags{}
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render the reel: cut segments, crop to the canvas, add music and titles",
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
			m, err := pipeline.Run(cmd.Context(), pc)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), m.Output)
			return nil
		},
	}
	r.register(cmd)
	cmd.Flags().StringVar(&r.manifest, "manifest", "", "Write a JSON run manifest to this path")
	cmd.Flags().StringVar(&r.metricsTextfile, "metrics-textfile", "", "Write Prometheus metrics in textfile format to this path")
	return cmd
}
