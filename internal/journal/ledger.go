package journal

import "sync"

// Ledger stores actions in memory for quick inspection.
type Ledger struct {
	mu      sync.Mutex
	actions []Action
}

// NewLedger creates an empty ledger optionally pre-sizing storage.
func NewLedger(capacity int) *Ledger {
	if capacity < 0 {
		capacity = 0
	}
	return &Ledger{actions: make([]Action, 0, capacity)}
}

// Record appends an action to the ledger.
func (l *Ledger) Record(action Action) {
	l.mu.Lock()
	l.actions = append(l.actions, action)
	l.mu.Unlock()
}

// Snapshot returns a copy of the recorded actions.
func (l *Ledger) Snapshot() []Action {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Action, len(l.actions))
	copy(out, l.actions)
	return out
}

// Reset clears all stored actions.
func (l *Ledger) Reset() {
	l.mu.Lock()
	l.actions = l.actions[:0]
	l.mu.Unlock()
}
