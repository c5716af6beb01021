// Package controller provides output adapters for displaying coverage results.
package controller

import (
	"context"
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	m "trapcov.dev/pkg/trapcov/internal/model"
)

// WarningExitCodeMessage is shown when the monitored program did not exit cleanly.
const WarningExitCodeMessage = "Warning: the target process exited with a non-zero code, coverage may be incomplete."

// UI defines how replay statistics and coverage reports are presented.
// Implementations can use different output methods (simple text, TUI, etc).
type UI interface {
	DisplayReplayStats(ctx context.Context, stats []m.ReplayStats) error
	DisplayCoverage(ctx context.Context, report *m.CoverageData) error
}

// NewUI returns the interactive TUI when tty is true and SimpleUI otherwise.
func NewUI(cmd *cobra.Command, tty bool) UI {
	if tty {
		return NewTUI(cmd.OutOrStdout())
	}

	return NewSimpleUI(cmd)
}

// IsTTY reports whether w is an interactive terminal.
func IsTTY(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}

	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
