package ledger

import (
	"sync"

	m "trapcov.dev/pkg/trapcov/internal/model"
)

// Synchronized serializes access to a Ledger shared by several producers.
type Synchronized struct {
	mu     sync.Mutex
	ledger *Ledger
}

// NewSynchronized wraps ledger. The caller must not use ledger directly afterwards.
func NewSynchronized(ledger *Ledger) *Synchronized {
	return &Synchronized{ledger: ledger}
}

// Do runs fn with exclusive access to the ledger. Everything fn does is one batch:
// the current module set inside fn cannot be changed by another producer meanwhile.
func (s *Synchronized) Do(fn func(*Ledger)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	fn(s.ledger)
}

// MarkAddressAsExecuted is Ledger.MarkAddressAsExecuted under the lock.
func (s *Synchronized) MarkAddressAsExecuted(address m.Address) (byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.ledger.MarkAddressAsExecuted(address)
}

// OnExitProcess is Ledger.OnExitProcess under the lock.
func (s *Synchronized) OnExitProcess(process m.ProcessID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.ledger.OnExitProcess(process)
}

// CreateCoverageData is Ledger.CreateCoverageData under the lock.
func (s *Synchronized) CreateCoverageData(name string, exitCode int) *m.CoverageData {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.ledger.CreateCoverageData(name, exitCode)
}
