package model

// ReplayStats summarises how the events of one trace were handled by the ledger.
//
// Traps counts registrations of a new address (a trap had to be installed), Shared
// counts registrations of an address that already carried one, Misses counts hits on
// addresses the ledger does not know.
type ReplayStats struct {
	Trace   string
	Modules int
	Traps   int
	Shared  int
	Hits    int
	Misses  int
	Exits   int
}
