package controller

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	m "trapcov.dev/pkg/trapcov/internal/model"
)

// errNilReport is returned when a display is requested without a report.
var errNilReport = errors.New("nil coverage report")

// SimpleUI implements UI using cobra Command's output stream.
type SimpleUI struct {
	cmd *cobra.Command
}

// NewSimpleUI creates a new SimpleUI.
func NewSimpleUI(cmd *cobra.Command) *SimpleUI {
	return &SimpleUI{cmd: cmd}
}

// DisplayReplayStats prints one row per replayed trace.
func (s *SimpleUI) DisplayReplayStats(ctx context.Context, stats []m.ReplayStats) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if len(stats) == 0 {
		return nil
	}

	s.printf("\n%s", renderStatsTable(stats))

	return nil
}

// DisplayCoverage prints the per-file coverage table and the totals.
func (s *SimpleUI) DisplayCoverage(ctx context.Context, report *m.CoverageData) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if report == nil {
		return errNilReport
	}

	s.printf("\n%s\n", reportTitle(report))

	if report.ExitCode != 0 {
		s.printf("%s\n", WarningExitCodeMessage)
	}

	if len(report.Modules) == 0 {
		s.printf("No module was instrumented.\n")
		return nil
	}

	s.printf("\n%s", renderCoverageTable(report))
	s.printf("Line coverage: %.2f%%\n", report.Rate.Percentage())

	return nil
}

func (s *SimpleUI) printf(format string, args ...interface{}) {
	_, _ = fmt.Fprintf(s.cmd.OutOrStdout(), format, args...)
}
