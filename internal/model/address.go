// Package model defines the data structures shared by the coverage ledger,
// the trace replayer and the report stores.
package model

import "fmt"

// ProcessID is an opaque token identifying one monitored process for its lifetime.
// It is supplied by the debugger loop and never interpreted by the ledger.
type ProcessID uint64

// Address identifies one instrumented instruction inside the process that owns it.
type Address struct {
	Process ProcessID
	Value   uint64
}

// NewAddress builds an Address from a process identity and a virtual address.
func NewAddress(process ProcessID, value uint64) Address {
	return Address{Process: process, Value: value}
}

func (a Address) String() string {
	return fmt.Sprintf("%d:%#x", a.Process, a.Value)
}
