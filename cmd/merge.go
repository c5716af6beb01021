package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"trapcov.dev/pkg/trapcov/internal/domain"
	m "trapcov.dev/pkg/trapcov/internal/model"
)

// mergeCmd represents the merge command.
var mergeCmd = newMergeCmd()

func newMergeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "merge report.yaml [report.yaml...]",
		Short: "Merge coverage reports into a single report",
		Long: `Merge coverage reports of the same program into the --output report.
A line counts as executed when any input report executed it.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return workflow.Merge(commandContext(cmd), domain.MergeArgs{
				Reports: parsePaths(args),
				Output:  m.Path(viper.GetString(outputFlagName)),
			})
		},
	}

	return cmd
}

func init() {
	rootCmd.AddCommand(mergeCmd)
}
