package cmd

import (
	"context"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"trapcov.dev/pkg/trapcov/internal/domain"
	m "trapcov.dev/pkg/trapcov/internal/model"
)

const replayLongDescription = `Replay one or more debug-event traces through the coverage ledger.

Traces are loaded concurrently and applied in the order given, as if a single
debugger loop had delivered their events. The resulting report is written to
--output and displayed.`

var replayParallelFlag int
var replayNameFlag string

// replayCmd represents the replay command.
var replayCmd = newReplayCmd()

func newReplayCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "replay trace.yaml [trace.yaml...]",
		Short: "Build a coverage report from recorded debug events",
		Long:  replayLongDescription,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return workflow.Replay(commandContext(cmd), domain.ReplayArgs{
				Traces:  parsePaths(args),
				Output:  m.Path(viper.GetString(outputFlagName)),
				Name:    viper.GetString(replayNameConfigKey),
				Threads: viper.GetInt(replayParallelConfigKey),
			})
		},
	}

	configureReplayFlags(cmd)

	return cmd
}

func init() {
	rootCmd.AddCommand(replayCmd)
}

func configureReplayFlags(cmd *cobra.Command) {
	cmd.Flags().IntVarP(&replayParallelFlag, replayParallelFlagName, "p", viper.GetInt(replayParallelConfigKey), "number of traces loaded in parallel")
	bindFlagToConfig(cmd.Flags().Lookup(replayParallelFlagName), replayParallelConfigKey)

	cmd.Flags().StringVarP(&replayNameFlag, replayNameFlagName, "n", viper.GetString(replayNameConfigKey), "run name stored in the report (default: trace names)")
	bindFlagToConfig(cmd.Flags().Lookup(replayNameFlagName), replayNameConfigKey)
}

// commandContext returns the command context, falling back to Background when the
// command is executed without one.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}

	return context.Background()
}
