// Package domain drives the coverage ledger: it replays recorded debug events,
// assembles and merges coverage reports and hands them to the UI.
package domain

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"trapcov.dev/pkg/trapcov/internal/ledger"
	m "trapcov.dev/pkg/trapcov/internal/model"
)

// ErrInvalidTrace is returned when a trace cannot be replayed.
var ErrInvalidTrace = errors.New("invalid trace")

// Replayer feeds the events of a trace to a ledger, acting as the debugger loop.
type Replayer interface {
	Replay(ctx context.Context, target *ledger.Synchronized, trace m.Trace) (m.ReplayStats, error)
}

type replayer struct{}

// NewReplayer creates the default Replayer.
func NewReplayer() Replayer {
	return &replayer{}
}

// Replay validates trace and applies all of its events as one batch. Nothing reaches
// the ledger when validation fails.
//
// A trace is one monitored run. Processes still alive when it ends are released in the
// same batch, so a later trace reusing their identities starts from an empty index.
func (r *replayer) Replay(ctx context.Context, target *ledger.Synchronized, trace m.Trace) (m.ReplayStats, error) {
	stats := m.ReplayStats{Trace: trace.Name}

	if err := ctx.Err(); err != nil {
		return stats, err
	}

	if err := ValidateTrace(trace); err != nil {
		slog.Error("Rejected trace", "trace", trace.Name, "error", err)
		return stats, err
	}

	target.Do(func(l *ledger.Ledger) {
		live := make(map[m.ProcessID]struct{})

		for _, event := range trace.Events {
			apply(l, event, &stats)

			switch event.Kind {
			case m.EventRegister, m.EventHit:
				live[event.Process] = struct{}{}
			case m.EventExitProcess:
				delete(live, event.Process)
			}
		}

		for process := range live {
			slog.Debug("Release process without exit event", "trace", trace.Name, "process", process)
			l.OnExitProcess(process)
		}
	})

	slog.Info("Replayed trace",
		"trace", trace.Name,
		"events", len(trace.Events),
		"traps", stats.Traps,
		"hits", stats.Hits,
		"misses", stats.Misses,
	)

	return stats, nil
}

func apply(l *ledger.Ledger, event m.Event, stats *m.ReplayStats) {
	switch event.Kind {
	case m.EventLoadModule:
		l.AddModule(event.Module)
		stats.Modules++

	case m.EventRegister:
		if l.RegisterAddress(event.Target(), event.File, event.Line, event.Instruction) {
			stats.Traps++
		} else {
			stats.Shared++
		}

	case m.EventHit:
		instruction, found := l.MarkAddressAsExecuted(event.Target())
		if !found {
			slog.Debug("Ignored trap outside tracked modules", "address", event.Target())

			stats.Misses++

			return
		}

		slog.Debug("Restore instruction", "address", event.Target(), "instruction", instruction)

		stats.Hits++

	case m.EventExitProcess:
		l.OnExitProcess(event.Process)
		stats.Exits++
	}
}

// ValidateTrace checks that every event is well formed and that no address is
// registered before a module was loaded.
func ValidateTrace(trace m.Trace) error {
	moduleLoaded := false

	for i, event := range trace.Events {
		switch event.Kind {
		case m.EventLoadModule:
			if event.Module == "" {
				return fmt.Errorf("%w: %s: event %d: load_module without module", ErrInvalidTrace, trace.Name, i)
			}

			moduleLoaded = true

		case m.EventRegister:
			if !moduleLoaded {
				return fmt.Errorf("%w: %s: event %d: register before any load_module", ErrInvalidTrace, trace.Name, i)
			}

			if event.File == "" {
				return fmt.Errorf("%w: %s: event %d: register without file", ErrInvalidTrace, trace.Name, i)
			}

		case m.EventHit, m.EventExitProcess:
			// Addresses and processes are opaque; any value is acceptable.
		default:
			return fmt.Errorf("%w: %s: event %d: unknown kind %q", ErrInvalidTrace, trace.Name, i, event.Kind)
		}
	}

	return nil
}
