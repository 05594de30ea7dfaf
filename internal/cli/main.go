package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// runTimeout bounds a whole invocation, including every ffmpeg child.
const runTimeout = 3 * time.Hour

func Main() {
	_ = godotenv.Load() // best-effort: load .env if present

	ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
	defer cancel()

	root := newRootCommand()
	root.SetOut(os.Stdout)
	root.SetErr(os.Stderr)

	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		cancel()
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	g := &globalOptions{}

	root := &cobra.Command{
		Use:           "hlreel",
		Short:         "Cut highlight segments into a vertical reel set to music",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	root.PersistentFlags().StringVarP(&g.configPath, "config", "c", "", "Reel configuration file (.toml, .yaml)")
	root.PersistentFlags().StringVar(&g.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	root.PersistentFlags().StringVar(&g.logFormat, "log-format", "", "Log format: auto, console, json")

	root.AddCommand(newRenderCommand(g))
	root.AddCommand(newPlanCommand(g))
	root.AddCommand(newConfigCommand())
	root.AddCommand(newDepsCommand(g))
	return root
}
