package adapter

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	m "trapcov.dev/pkg/trapcov/internal/model"
)

// ReportStore persists coverage reports.
type ReportStore interface {
	SaveReport(ctx context.Context, path m.Path, report *m.CoverageData) error
	LoadReport(ctx context.Context, path m.Path) (*m.CoverageData, error)
}

// YAMLReportStore keeps reports as YAML documents on the local filesystem.
type YAMLReportStore struct{}

// NewReportStore constructs the default ReportStore.
func NewReportStore() *YAMLReportStore {
	return &YAMLReportStore{}
}

// SaveReport writes report to path.
func (s *YAMLReportStore) SaveReport(ctx context.Context, path m.Path, report *m.CoverageData) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if report == nil {
		return fmt.Errorf("save report %s: nil report", path)
	}

	if err := writeYAML(path, report); err != nil {
		return err
	}

	slog.Debug("saved report", "path", path, "modules", len(report.Modules))

	return nil
}

// LoadReport reads a report previously written by SaveReport.
func (s *YAMLReportStore) LoadReport(ctx context.Context, path m.Path) (*m.CoverageData, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	content, err := os.ReadFile(string(path))
	if err != nil {
		slog.Error("failed to read report", "path", path, "error", err)
		return nil, fmt.Errorf("read report %s: %w", path, err)
	}

	report := &m.CoverageData{}
	if err := yaml.Unmarshal(content, report); err != nil {
		slog.Error("failed to decode report", "path", path, "error", err)
		return nil, fmt.Errorf("decode report %s: %w", path, err)
	}

	return report, nil
}
