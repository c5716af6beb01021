// Package adapter contains the file-backed infrastructure used by the trapcov workflow:
// debug-event traces recorded by the debugger loop and saved coverage reports.
package adapter

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	m "trapcov.dev/pkg/trapcov/internal/model"
)

// TraceStore reads and writes debug-event traces.
type TraceStore interface {
	LoadTrace(ctx context.Context, path m.Path) (m.Trace, error)
	SaveTrace(ctx context.Context, path m.Path, trace m.Trace) error
}

// YAMLTraceStore keeps traces as YAML documents on the local filesystem.
type YAMLTraceStore struct{}

// NewYAMLTraceStore constructs a YAMLTraceStore.
func NewYAMLTraceStore() *YAMLTraceStore {
	return &YAMLTraceStore{}
}

// LoadTrace decodes the trace stored at path. The trace name defaults to the file name.
func (s *YAMLTraceStore) LoadTrace(ctx context.Context, path m.Path) (m.Trace, error) {
	if err := ctx.Err(); err != nil {
		return m.Trace{}, err
	}

	content, err := os.ReadFile(string(path))
	if err != nil {
		slog.Error("failed to read trace", "path", path, "error", err)
		return m.Trace{}, fmt.Errorf("read trace %s: %w", path, err)
	}

	var trace m.Trace
	if err := yaml.Unmarshal(content, &trace); err != nil {
		slog.Error("failed to decode trace", "path", path, "error", err)
		return m.Trace{}, fmt.Errorf("decode trace %s: %w", path, err)
	}

	trace.Path = path
	if trace.Name == "" {
		trace.Name = filepath.Base(string(path))
	}

	slog.Debug("loaded trace", "path", path, "events", len(trace.Events))

	return trace, nil
}

// SaveTrace encodes trace to path, creating parent directories as needed.
func (s *YAMLTraceStore) SaveTrace(ctx context.Context, path m.Path, trace m.Trace) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return writeYAML(path, trace)
}

func writeYAML(path m.Path, value any) error {
	content, err := yaml.Marshal(value)
	if err != nil {
		slog.Error("failed to encode yaml", "path", path, "error", err)
		return fmt.Errorf("encode %s: %w", path, err)
	}

	if dir := filepath.Dir(string(path)); dir != "" {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			slog.Error("failed to create directory", "path", dir, "error", err)
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}

	if err := os.WriteFile(string(path), content, 0o600); err != nil {
		slog.Error("failed to write file", "path", path, "error", err)
		return fmt.Errorf("write %s: %w", path, err)
	}

	return nil
}
