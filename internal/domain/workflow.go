package domain

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"
	"trapcov.dev/pkg/trapcov/internal/adapter"
	"trapcov.dev/pkg/trapcov/internal/controller"
	"trapcov.dev/pkg/trapcov/internal/ledger"
	m "trapcov.dev/pkg/trapcov/internal/model"
)

// ErrNoInput is returned when a command is given nothing to work on.
var ErrNoInput = errors.New("no input files")

// ReplayArgs contains the arguments for replaying debug-event traces.
type ReplayArgs struct {
	Traces  []m.Path
	Output  m.Path
	Name    string
	Threads int
}

// ViewArgs contains the arguments for displaying a saved report.
type ViewArgs struct {
	Report m.Path
}

// MergeArgs contains the arguments for merging saved reports.
type MergeArgs struct {
	Reports []m.Path
	Output  m.Path
}

// Workflow defines the top-level trapcov operations used by the CLI.
type Workflow interface {
	Replay(ctx context.Context, args ReplayArgs) error
	View(ctx context.Context, args ViewArgs) error
	Merge(ctx context.Context, args MergeArgs) error
}

type workflow struct {
	adapter.TraceStore
	adapter.ReportStore
	controller.UI
	replayer Replayer
}

// NewWorkflow creates a new Workflow instance with the provided dependencies.
func NewWorkflow(
	traceStore adapter.TraceStore,
	reportStore adapter.ReportStore,
	ui controller.UI,
	replayer Replayer,
) Workflow {
	return &workflow{
		TraceStore:  traceStore,
		ReportStore: reportStore,
		UI:          ui,
		replayer:    replayer,
	}
}

// Replay loads the traces concurrently, applies them to a fresh ledger in argument
// order and saves and displays the resulting report.
func (w *workflow) Replay(ctx context.Context, args ReplayArgs) error {
	if len(args.Traces) == 0 {
		return fmt.Errorf("replay: %w", ErrNoInput)
	}

	traces, err := w.loadTraces(ctx, args.Traces, args.Threads)
	if err != nil {
		return fmt.Errorf("load traces: %w", err)
	}

	target := ledger.NewSynchronized(ledger.New())
	stats := make([]m.ReplayStats, 0, len(traces))
	names := make([]string, 0, len(traces))
	exitCode := 0

	for _, trace := range traces {
		traceStats, err := w.replayer.Replay(ctx, target, trace)
		if err != nil {
			return fmt.Errorf("replay %s: %w", trace.Path, err)
		}

		stats = append(stats, traceStats)
		names = append(names, trace.Name)

		if exitCode == 0 {
			exitCode = trace.ExitCode
		}
	}

	name := args.Name
	if name == "" {
		name = strings.Join(names, "+")
	}

	report := target.CreateCoverageData(name, exitCode)
	report.ComputeCoverageRate()

	if args.Output != "" {
		if err := w.SaveReport(ctx, args.Output, report); err != nil {
			return fmt.Errorf("save report: %w", err)
		}

		slog.Info("Saved coverage report", "path", args.Output, "executed", report.Rate.Executed, "total", report.Rate.Total)
	}

	if err := w.DisplayReplayStats(ctx, stats); err != nil {
		return fmt.Errorf("display: %w", err)
	}

	if err := w.DisplayCoverage(ctx, report); err != nil {
		return fmt.Errorf("display: %w", err)
	}

	return nil
}

// View displays a previously saved report.
func (w *workflow) View(ctx context.Context, args ViewArgs) error {
	report, err := w.LoadReport(ctx, args.Report)
	if err != nil {
		return fmt.Errorf("load report: %w", err)
	}

	report.ComputeCoverageRate()

	if err := w.DisplayCoverage(ctx, report); err != nil {
		return fmt.Errorf("display: %w", err)
	}

	return nil
}

// Merge combines saved reports into one and writes it to args.Output.
func (w *workflow) Merge(ctx context.Context, args MergeArgs) error {
	if len(args.Reports) == 0 {
		return fmt.Errorf("merge: %w", ErrNoInput)
	}

	if args.Output == "" {
		return errors.New("merge: missing output path")
	}

	reports := make([]*m.CoverageData, 0, len(args.Reports))

	for _, path := range args.Reports {
		report, err := w.LoadReport(ctx, path)
		if err != nil {
			return fmt.Errorf("load report: %w", err)
		}

		reports = append(reports, report)
	}

	merged := MergeCoverage(reports...)

	if err := w.SaveReport(ctx, args.Output, merged); err != nil {
		return fmt.Errorf("save report: %w", err)
	}

	slog.Info("Merged coverage reports", "inputs", len(reports), "output", args.Output)

	if err := w.DisplayCoverage(ctx, merged); err != nil {
		return fmt.Errorf("display: %w", err)
	}

	return nil
}

func (w *workflow) loadTraces(ctx context.Context, paths []m.Path, threads int) ([]m.Trace, error) {
	traces := make([]m.Trace, len(paths))

	group, groupCtx := errgroup.WithContext(ctx)
	if threads > 0 {
		group.SetLimit(threads)
	}

	for i, path := range paths {
		group.Go(func() error {
			trace, err := w.LoadTrace(groupCtx, path)
			if err != nil {
				return err
			}

			traces[i] = trace

			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, err
	}

	return traces, nil
}
