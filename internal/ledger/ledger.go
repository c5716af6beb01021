// Package ledger keeps track of which source lines depend on which trap addresses,
// flips line execution flags when traps fire and assembles the final coverage report.
//
// A Ledger has a single writer. Callers that feed it from several goroutines go
// through Synchronized.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	m "trapcov.dev/pkg/trapcov/internal/model"
)

var (
	// ErrNoCurrentModule is the panic cause when an address is registered before any module.
	ErrNoCurrentModule = errors.New("cannot get last module")
	// ErrDanglingTarget is the panic cause when a line record points at a missing flag.
	ErrDanglingTarget = errors.New("invalid line target")
)

// target locates one execution flag: a file in the arena and a slot inside it.
type target struct {
	file int
	slot int
}

// line is the reverse mapping of one trap address.
type line struct {
	instructionToRestore byte
	targets              []target
}

type lineSlot struct {
	number   uint32
	executed bool
}

// file stores its flags in append-only slots so slot indices stay valid.
type file struct {
	slots []lineSlot
	index map[uint32]int
}

type module struct {
	name  string
	files map[string]int
}

// Ledger is the address/line coverage ledger.
type Ledger struct {
	modules map[string]*module
	files   []*file
	lines   map[m.Address]*line
	current *module
}

// New creates an empty Ledger.
func New() *Ledger {
	return &Ledger{
		modules: make(map[string]*module),
		lines:   make(map[m.Address]*line),
	}
}

// AddModule makes moduleName the registration target, creating it on first use.
func (l *Ledger) AddModule(moduleName string) {
	mod, ok := l.modules[moduleName]
	if !ok {
		mod = &module{name: moduleName, files: make(map[string]int)}
		l.modules[moduleName] = mod
	}

	l.current = mod
}

// RegisterAddress binds address to filename:lineNumber in the current module.
//
// It returns true the first time address is seen: the caller must install the trap.
// Later registrations keep the first instruction byte and return false.
// Calling it before AddModule panics.
func (l *Ledger) RegisterAddress(address m.Address, filename string, lineNumber uint32, instruction byte) bool {
	mod := l.lastAddedModule()
	fileIndex := l.fileIndex(mod, filename)
	slot := l.files[fileIndex].slot(lineNumber)

	if debugEnabled() {
		slog.Debug("RegisterAddress", "address", address, "module", mod.name, "file", filename, "line", lineNumber)
	}

	// Different {filename, line} can share an address and one {filename, line} can own several.
	keepBreakpoint := false

	rec, ok := l.lines[address]
	if !ok {
		rec = &line{instructionToRestore: instruction}
		l.lines[address] = rec
		keepBreakpoint = true
	}

	rec.targets = append(rec.targets, target{file: fileIndex, slot: slot})

	return keepBreakpoint
}

// MarkAddressAsExecuted flags every line bound to address as executed and returns the
// instruction byte to restore. The second result is false for unknown addresses.
func (l *Ledger) MarkAddressAsExecuted(address m.Address) (byte, bool) {
	rec, ok := l.lines[address]
	if !ok {
		return 0, false
	}

	for _, t := range rec.targets {
		flag := l.resolve(t)
		if flag == nil {
			panic(fmt.Errorf("%w: address %s file %d slot %d", ErrDanglingTarget, address, t.file, t.slot))
		}

		flag.executed = true
	}

	return rec.instructionToRestore, true
}

// OnExitProcess forgets every address owned by process. Coverage results are kept.
func (l *Ledger) OnExitProcess(process m.ProcessID) {
	removed := 0

	for address := range l.lines {
		if address.Process == process {
			delete(l.lines, address)
			removed++
		}
	}

	slog.Debug("OnExitProcess", "process", process, "removed", removed)
}

// AddressCount returns the number of live trap addresses.
func (l *Ledger) AddressCount() int {
	return len(l.lines)
}

// CreateCoverageData builds the report from the current flags. Modules and files are
// sorted by name, lines by number. The ledger is not modified.
func (l *Ledger) CreateCoverageData(name string, exitCode int) *m.CoverageData {
	coverageData := m.NewCoverageData(name, exitCode)

	for _, moduleName := range m.SortedKeys(l.modules) {
		mod := l.modules[moduleName]
		moduleCoverage := coverageData.AddModule(mod.name)

		for _, path := range m.SortedKeys(mod.files) {
			fileCoverage := moduleCoverage.AddFile(path)

			for _, s := range l.files[mod.files[path]].sortedSlots() {
				fileCoverage.AddLine(s.number, s.executed)
			}
		}
	}

	return coverageData
}

// debugEnabled keeps per-registration logging off the hot path unless it is wanted.
func debugEnabled() bool {
	return slog.Default().Enabled(context.Background(), slog.LevelDebug)
}

func (l *Ledger) lastAddedModule() *module {
	if l.current == nil {
		panic(ErrNoCurrentModule)
	}

	return l.current
}

func (l *Ledger) fileIndex(mod *module, filename string) int {
	if index, ok := mod.files[filename]; ok {
		return index
	}

	index := len(l.files)
	l.files = append(l.files, &file{index: make(map[uint32]int)})
	mod.files[filename] = index

	return index
}

func (l *Ledger) resolve(t target) *lineSlot {
	if t.file < 0 || t.file >= len(l.files) {
		return nil
	}

	f := l.files[t.file]
	if f == nil || t.slot < 0 || t.slot >= len(f.slots) {
		return nil
	}

	return &f.slots[t.slot]
}

func (f *file) slot(number uint32) int {
	if index, ok := f.index[number]; ok {
		return index
	}

	index := len(f.slots)
	f.slots = append(f.slots, lineSlot{number: number})
	f.index[number] = index

	return index
}

func (f *file) sortedSlots() []lineSlot {
	slots := make([]lineSlot, len(f.slots))
	copy(slots, f.slots)

	sort.Slice(slots, func(i, j int) bool {
		return slots[i].number < slots[j].number
	})

	return slots
}
