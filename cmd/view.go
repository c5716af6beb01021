package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"trapcov.dev/pkg/trapcov/internal/domain"
	m "trapcov.dev/pkg/trapcov/internal/model"
)

// viewCmd represents the view command.
var viewCmd = newViewCmd()

func newViewCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "view [report.yaml]",
		Short: "View a previously generated coverage report",
		Long:  "View a coverage report written by replay or merge (default: the --output report).",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reportPath := m.Path(viper.GetString(outputFlagName))
			if len(args) == 1 {
				reportPath = m.Path(args[0])
			}

			return workflow.View(commandContext(cmd), domain.ViewArgs{Report: reportPath})
		},
	}

	return cmd
}

func init() {
	rootCmd.AddCommand(viewCmd)
}
