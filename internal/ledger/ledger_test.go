package ledger

import (
	"bytes"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	m "trapcov.dev/pkg/trapcov/internal/model"
)

const (
	process1 m.ProcessID = 1
	process2 m.ProcessID = 2
)

func lineStates(t *testing.T, data *m.CoverageData, module, file string) map[uint32]bool {
	t.Helper()

	for _, mc := range data.Modules {
		if mc.Path != module {
			continue
		}

		for _, fc := range mc.Files {
			if fc.Path != file {
				continue
			}

			states := make(map[uint32]bool, len(fc.Lines))
			for _, line := range fc.Lines {
				states[line.Number] = line.Executed
			}

			return states
		}
	}

	require.Failf(t, "file not found", "%s/%s", module, file)

	return nil
}

func TestRegisterAddress_NewOnlyOnce(t *testing.T) {
	l := New()
	l.AddModule("M1")

	address := m.NewAddress(process1, 0x1000)

	assert.True(t, l.RegisterAddress(address, "f1.cpp", 10, 0x55))
	assert.False(t, l.RegisterAddress(address, "f1.cpp", 11, 0x55))
	assert.False(t, l.RegisterAddress(address, "f2.cpp", 3, 0x55))
	assert.False(t, l.RegisterAddress(address, "f1.cpp", 10, 0x55))
	assert.Equal(t, 1, l.AddressCount())
}

func TestRegisterAddress_SameLineSeveralAddresses(t *testing.T) {
	l := New()
	l.AddModule("M1")

	assert.True(t, l.RegisterAddress(m.NewAddress(process1, 0x1000), "f1.cpp", 10, 0x55))
	assert.True(t, l.RegisterAddress(m.NewAddress(process1, 0x1004), "f1.cpp", 10, 0x8b))
	assert.Equal(t, 2, l.AddressCount())

	_, found := l.MarkAddressAsExecuted(m.NewAddress(process1, 0x1004))
	require.True(t, found)

	data := l.CreateCoverageData("run", 0)
	require.Len(t, data.Modules, 1)
	require.Len(t, data.Modules[0].Files, 1)
	assert.Equal(t, []m.LineCoverage{{Number: 10, Executed: true}}, data.Modules[0].Files[0].Lines)
}

func TestRegisterAddress_WithoutModulePanics(t *testing.T) {
	l := New()

	assert.PanicsWithValue(t, ErrNoCurrentModule, func() {
		l.RegisterAddress(m.NewAddress(process1, 0x1000), "f1.cpp", 10, 0x55)
	})
}

func TestMarkAddressAsExecuted_FanOut(t *testing.T) {
	l := New()
	l.AddModule("M1")

	shared := m.NewAddress(process1, 0x2000)
	l.RegisterAddress(shared, "a.cpp", 1, 0x90)
	l.RegisterAddress(shared, "a.cpp", 2, 0x90)
	l.RegisterAddress(shared, "b.cpp", 7, 0x90)
	l.RegisterAddress(m.NewAddress(process1, 0x3000), "a.cpp", 3, 0x90)
	l.RegisterAddress(m.NewAddress(process1, 0x3004), "b.cpp", 8, 0x90)

	instruction, found := l.MarkAddressAsExecuted(shared)
	require.True(t, found)
	assert.Equal(t, byte(0x90), instruction)

	data := l.CreateCoverageData("run", 0)
	assert.Equal(t, map[uint32]bool{1: true, 2: true, 3: false}, lineStates(t, data, "M1", "a.cpp"))
	assert.Equal(t, map[uint32]bool{7: true, 8: false}, lineStates(t, data, "M1", "b.cpp"))
}

func TestMarkAddressAsExecuted_RestoreByteFromFirstRegistration(t *testing.T) {
	l := New()
	l.AddModule("M1")

	address := m.NewAddress(process1, 0x1000)
	l.RegisterAddress(address, "f1.cpp", 10, 0x55)
	l.RegisterAddress(address, "f1.cpp", 11, 0xcc)

	instruction, found := l.MarkAddressAsExecuted(address)
	require.True(t, found)
	assert.Equal(t, byte(0x55), instruction)

	instruction, found = l.MarkAddressAsExecuted(address)
	require.True(t, found)
	assert.Equal(t, byte(0x55), instruction)
}

func TestMarkAddressAsExecuted_UnknownAddress(t *testing.T) {
	l := New()
	l.AddModule("M1")
	l.RegisterAddress(m.NewAddress(process1, 0x1000), "f1.cpp", 10, 0x55)

	before := l.CreateCoverageData("run", 0)

	_, found := l.MarkAddressAsExecuted(m.NewAddress(process1, 0x1001))
	assert.False(t, found)

	_, found = l.MarkAddressAsExecuted(m.NewAddress(process2, 0x1000))
	assert.False(t, found)

	assert.Equal(t, before, l.CreateCoverageData("run", 0))
	assert.Equal(t, 1, l.AddressCount())
}

func TestMarkAddressAsExecuted_DanglingTargetPanics(t *testing.T) {
	l := New()
	l.AddModule("M1")

	address := m.NewAddress(process1, 0x1000)
	l.RegisterAddress(address, "f1.cpp", 10, 0x55)
	l.lines[address].targets = append(l.lines[address].targets, target{file: 42, slot: 0})

	defer func() {
		recovered := recover()
		require.NotNil(t, recovered)

		err, ok := recovered.(error)
		require.True(t, ok)
		assert.True(t, errors.Is(err, ErrDanglingTarget))
	}()

	l.MarkAddressAsExecuted(address)
}

func TestOnExitProcess_Isolation(t *testing.T) {
	l := New()
	l.AddModule("M1")

	first := m.NewAddress(process1, 0x1000)
	require.True(t, l.RegisterAddress(first, "f1.cpp", 10, 0x55))

	_, found := l.MarkAddressAsExecuted(first)
	require.True(t, found)

	l.OnExitProcess(process1)
	assert.Equal(t, 0, l.AddressCount())

	respawned := m.NewAddress(process2, 0x1000)
	_, found = l.MarkAddressAsExecuted(respawned)
	assert.False(t, found)

	_, found = l.MarkAddressAsExecuted(first)
	assert.False(t, found)

	// Coverage survives the exit.
	data := l.CreateCoverageData("run", 0)
	assert.Equal(t, map[uint32]bool{10: true}, lineStates(t, data, "M1", "f1.cpp"))

	assert.True(t, l.RegisterAddress(respawned, "f1.cpp", 20, 0x8b))

	instruction, found := l.MarkAddressAsExecuted(respawned)
	require.True(t, found)
	assert.Equal(t, byte(0x8b), instruction)
}

func TestOnExitProcess_KeepsOtherProcesses(t *testing.T) {
	l := New()
	l.AddModule("M1")
	l.RegisterAddress(m.NewAddress(process1, 0x1000), "f1.cpp", 10, 0x55)
	l.RegisterAddress(m.NewAddress(process2, 0x1000), "f1.cpp", 10, 0x55)

	l.OnExitProcess(process1)

	_, found := l.MarkAddressAsExecuted(m.NewAddress(process2, 0x1000))
	assert.True(t, found)
	assert.Equal(t, 1, l.AddressCount())
}

func TestOnExitProcess_UnknownProcessIsNoop(t *testing.T) {
	l := New()
	assert.NotPanics(t, func() { l.OnExitProcess(process1) })

	l.AddModule("M1")
	l.RegisterAddress(m.NewAddress(process1, 0x1000), "f1.cpp", 10, 0x55)
	l.OnExitProcess(process2)
	assert.Equal(t, 1, l.AddressCount())
}

func TestCreateCoverageData_Fidelity(t *testing.T) {
	l := New()
	l.AddModule("M1")
	l.RegisterAddress(m.NewAddress(process1, 0x2000), "f1.cpp", 20, 0x55)
	l.RegisterAddress(m.NewAddress(process1, 0x1000), "f1.cpp", 10, 0x55)

	_, found := l.MarkAddressAsExecuted(m.NewAddress(process1, 0x1000))
	require.True(t, found)

	data := l.CreateCoverageData("run", 0)

	assert.Equal(t, "run", data.Name)
	assert.Equal(t, 0, data.ExitCode)
	require.Len(t, data.Modules, 1)
	assert.Equal(t, "M1", data.Modules[0].Path)
	require.Len(t, data.Modules[0].Files, 1)
	assert.Equal(t, "f1.cpp", data.Modules[0].Files[0].Path)
	assert.Equal(t, []m.LineCoverage{
		{Number: 10, Executed: true},
		{Number: 20, Executed: false},
	}, data.Modules[0].Files[0].Lines)
}

func TestCreateCoverageData_Repeatable(t *testing.T) {
	l := New()
	l.AddModule("M1")

	address := m.NewAddress(process1, 0x1000)
	l.RegisterAddress(address, "f1.cpp", 10, 0x55)

	first := l.CreateCoverageData("run", 3)
	assert.Equal(t, first, l.CreateCoverageData("run", 3))
	assert.False(t, first.Modules[0].Files[0].Lines[0].Executed)

	l.MarkAddressAsExecuted(address)

	second := l.CreateCoverageData("run", 3)
	assert.True(t, second.Modules[0].Files[0].Lines[0].Executed)
	assert.Equal(t, 3, second.ExitCode)
}

func TestCreateCoverageData_SortedModulesAndFiles(t *testing.T) {
	l := New()
	l.AddModule("b.exe")
	l.RegisterAddress(m.NewAddress(process1, 0x10), "z.cpp", 1, 0x55)
	l.RegisterAddress(m.NewAddress(process1, 0x20), "a.cpp", 1, 0x55)
	l.AddModule("a.dll")
	l.RegisterAddress(m.NewAddress(process1, 0x30), "m.cpp", 1, 0x55)

	data := l.CreateCoverageData("run", 0)
	require.Len(t, data.Modules, 2)
	assert.Equal(t, "a.dll", data.Modules[0].Path)
	assert.Equal(t, "b.exe", data.Modules[1].Path)
	require.Len(t, data.Modules[1].Files, 2)
	assert.Equal(t, "a.cpp", data.Modules[1].Files[0].Path)
	assert.Equal(t, "z.cpp", data.Modules[1].Files[1].Path)
}

func TestAddModule_Idempotent(t *testing.T) {
	l := New()
	l.AddModule("M1")
	l.AddModule("M1")
	l.RegisterAddress(m.NewAddress(process1, 0x1000), "f1.cpp", 10, 0x55)

	data := l.CreateCoverageData("run", 0)
	require.Len(t, data.Modules, 1)
	assert.Equal(t, "M1", data.Modules[0].Path)
	assert.Len(t, data.Modules[0].Files[0].Lines, 1)
}

func TestAddModule_RetargetsExistingModule(t *testing.T) {
	l := New()
	l.AddModule("M1")
	l.RegisterAddress(m.NewAddress(process1, 0x1000), "f1.cpp", 10, 0x55)
	l.AddModule("M2")
	l.RegisterAddress(m.NewAddress(process1, 0x5000), "g.cpp", 1, 0x55)
	l.AddModule("M1")
	l.RegisterAddress(m.NewAddress(process1, 0x1010), "f1.cpp", 12, 0x55)

	data := l.CreateCoverageData("run", 0)
	require.Len(t, data.Modules, 2)
	assert.Equal(t, map[uint32]bool{10: false, 12: false}, lineStates(t, data, "M1", "f1.cpp"))
}

func TestSameFileNameInDifferentModules(t *testing.T) {
	l := New()
	l.AddModule("M1")
	l.RegisterAddress(m.NewAddress(process1, 0x1000), "common.h", 5, 0x55)
	l.AddModule("M2")
	l.RegisterAddress(m.NewAddress(process1, 0x9000), "common.h", 5, 0x55)

	l.MarkAddressAsExecuted(m.NewAddress(process1, 0x9000))

	data := l.CreateCoverageData("run", 0)
	assert.Equal(t, map[uint32]bool{5: false}, lineStates(t, data, "M1", "common.h"))
	assert.Equal(t, map[uint32]bool{5: true}, lineStates(t, data, "M2", "common.h"))
}

func TestSlotsStayValidWhileLinesAreAdded(t *testing.T) {
	l := New()
	l.AddModule("M1")

	early := m.NewAddress(process1, 0x1000)
	l.RegisterAddress(early, "f1.cpp", 500, 0x55)

	for i := uint32(1); i < 200; i++ {
		l.RegisterAddress(m.NewAddress(process1, 0x2000+uint64(i)), "f1.cpp", i, 0x55)
	}

	l.MarkAddressAsExecuted(early)

	states := lineStates(t, l.CreateCoverageData("run", 0), "M1", "f1.cpp")
	assert.Len(t, states, 200)
	assert.True(t, states[500])
	assert.False(t, states[1])
}

func useLogger(t *testing.T, level slog.Level) *bytes.Buffer {
	t.Helper()

	var buf bytes.Buffer

	previous := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: level})))
	t.Cleanup(func() { slog.SetDefault(previous) })

	return &buf
}

func TestRegisterAddress_LogsOnlyAtDebug(t *testing.T) {
	tests := []struct {
		name   string
		level  slog.Level
		logged bool
	}{
		{name: "info", level: slog.LevelInfo, logged: false},
		{name: "debug", level: slog.LevelDebug, logged: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := useLogger(t, tt.level)

			l := New()
			l.AddModule("M1")
			l.RegisterAddress(m.NewAddress(process1, 0x1000), "f1.cpp", 10, 0x55)

			if tt.logged {
				assert.Contains(t, buf.String(), "msg=RegisterAddress")
				assert.Contains(t, buf.String(), "file=f1.cpp")
			} else {
				assert.NotContains(t, buf.String(), "RegisterAddress")
			}
		})
	}
}
