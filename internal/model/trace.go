package model

// EventKind names one kind of debug event recorded in a trace.
type EventKind string

const (
	// EventLoadModule is emitted when a binary image is loaded and about to be instrumented.
	EventLoadModule EventKind = "load_module"
	// EventRegister is emitted for every (address, file, line) selected for a trap.
	EventRegister EventKind = "register"
	// EventHit is emitted when a trap fires.
	EventHit EventKind = "hit"
	// EventExitProcess is emitted when a monitored process terminates.
	EventExitProcess EventKind = "exit_process"
)

// Event is one debug event as delivered by the debugger loop.
type Event struct {
	Kind        EventKind `yaml:"kind"`
	Process     ProcessID `yaml:"process,omitempty"`
	Address     uint64    `yaml:"address,omitempty"`
	Module      string    `yaml:"module,omitempty"`
	File        string    `yaml:"file,omitempty"`
	Line        uint32    `yaml:"line,omitempty"`
	Instruction uint8     `yaml:"instruction,omitempty"`
}

// Target returns the address the event refers to.
func (e Event) Target() Address {
	return NewAddress(e.Process, e.Address)
}

// Trace is an ordered recording of the debug events of one monitored run.
type Trace struct {
	Path     Path    `yaml:"-"`
	Name     string  `yaml:"name"`
	ExitCode int     `yaml:"exit_code"`
	Events   []Event `yaml:"events"`
}

// Path represents a file system path.
type Path string
