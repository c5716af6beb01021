// Package cmd provides the root command and CLI setup for trapcov.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"trapcov.dev/pkg/trapcov/internal/adapter"
	"trapcov.dev/pkg/trapcov/internal/controller"
	"trapcov.dev/pkg/trapcov/internal/domain"
	m "trapcov.dev/pkg/trapcov/internal/model"
)

var traceStore adapter.TraceStore
var reportStore adapter.ReportStore
var replayer domain.Replayer
var workflow domain.Workflow
var ui controller.UI

// outputFlag is a root-level flag shared by commands that read/write reports.
var outputFlag string

var verboseFlag bool
var logFileFlag string

func init() {
	configureRootFlags(rootCmd)

	// Initialize shared dependencies.
	ui = controller.NewUI(rootCmd, controller.IsTTY(os.Stdout))
	traceStore = adapter.NewYAMLTraceStore()
	reportStore = adapter.NewReportStore()
	replayer = domain.NewReplayer()
	workflow = domain.NewWorkflow(
		traceStore,
		reportStore,
		ui,
		replayer,
	)
}

const rootLongDescription = `trapcov keeps the line coverage ledger of a trap-based coverage tool.

A debugger loop plants a trap at the first instruction of every source line,
records which traps fire and which processes exit, and saves these debug
events as a trace. trapcov replays traces through the ledger, which maps trap
addresses to (module, file, line) and back, and produces the coverage report.`

// rootCmd represents the base command when called without any subcommands.
var rootCmd = baseRootCmd()

func baseRootCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "trapcov",
		Short: "Trap-based line coverage ledger",
		Long:  rootLongDescription,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			configureLogger(viper.GetString(logFilenameKey), viper.GetBool(logVerboseKey))
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
}

// newRootCmd builds a fresh root command with its persistent flags, for tests and reuse.
func newRootCmd() *cobra.Command {
	cmd := baseRootCmd()
	configureRootFlags(cmd)

	return cmd
}

func configureRootFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().
		StringVarP(
			&outputFlag, outputFlagName, "o",
			viper.GetString(outputFlagName),
			"coverage report file to write (replay, merge) or read (view)",
		)
	bindFlagToConfig(cmd.PersistentFlags().Lookup(outputFlagName), outputFlagName)

	cmd.PersistentFlags().BoolVarP(&verboseFlag, verboseFlagName, "v", viper.GetBool(logVerboseKey), "log at debug level")
	bindFlagToConfig(cmd.PersistentFlags().Lookup(verboseFlagName), logVerboseKey)

	cmd.PersistentFlags().StringVar(&logFileFlag, logFileFlagName, viper.GetString(logFilenameKey), "log file path")
	bindFlagToConfig(cmd.PersistentFlags().Lookup(logFileFlagName), logFilenameKey)
}

// bindFlagToConfig wires a Cobra flag to a Viper key so config/env values feed the flag.
func bindFlagToConfig(flag *pflag.Flag, key string) {
	if flag == nil {
		cobra.CheckErr(fmt.Errorf("flag for config key %q not found", key))
		return
	}

	cobra.CheckErr(viper.BindPFlag(key, flag))
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func parsePaths(args []string) []m.Path {
	paths := make([]m.Path, 0, len(args))
	for _, arg := range args {
		paths = append(paths, m.Path(arg))
	}

	return paths
}
