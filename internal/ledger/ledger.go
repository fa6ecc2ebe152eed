// Package ledger holds the human verdicts on ambiguous record pairs. The
// ledger outlives individual engine runs within a session: every confirmed or
// rejected pair keeps steering re-analysis until it is explicitly undone.
package ledger

import (
	"sync"

	"github.com/guardia/roster-control-service/internal/domain"
)

// Ledger stores pair decisions keyed by (reference, candidate) identity keys.
// All operations are synchronous and idempotent; re-confirming an already
// confirmed pair is a no-op. Safe for concurrent use.
type Ledger struct {
	mu       sync.RWMutex
	verdicts map[domain.PairKey]domain.Verdict
}

// New creates an empty Ledger.
func New() *Ledger {
	return &Ledger{
		verdicts: make(map[domain.PairKey]domain.Verdict),
	}
}

// Confirm records that the reference and candidate records are the same
// person, overwriting any previous verdict for the pair.
func (l *Ledger) Confirm(refID, candID string) {
	l.put(refID, candID, domain.VerdictConfirmedSame)
}

// Reject records that the reference and candidate records are different
// people, overwriting any previous verdict for the pair.
func (l *Ledger) Reject(refID, candID string) {
	l.put(refID, candID, domain.VerdictRejectedDifferent)
}

// Undo removes the entry for the pair regardless of verdict. Undoing an
// absent pair is a no-op.
func (l *Ledger) Undo(refID, candID string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.verdicts, domain.PairKey{Ref: refID, Cand: candID})
}

// Verdict returns the stored verdict for the pair, if any.
func (l *Ledger) Verdict(refID, candID string) (domain.Verdict, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	v, ok := l.verdicts[domain.PairKey{Ref: refID, Cand: candID}]
	return v, ok
}

// Confirmed reports whether the pair is recorded as the same person.
func (l *Ledger) Confirmed(refID, candID string) bool {
	v, ok := l.Verdict(refID, candID)
	return ok && v == domain.VerdictConfirmedSame
}

// Rejected reports whether the pair is recorded as different people.
func (l *Ledger) Rejected(refID, candID string) bool {
	v, ok := l.Verdict(refID, candID)
	return ok && v == domain.VerdictRejectedDifferent
}

// Len returns the number of stored decisions.
func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.verdicts)
}

// Decisions returns a snapshot of all stored decisions.
func (l *Ledger) Decisions() []domain.PairDecision {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]domain.PairDecision, 0, len(l.verdicts))
	for k, v := range l.verdicts {
		out = append(out, domain.PairDecision{Key: k, Verdict: v})
	}
	return out
}

func (l *Ledger) put(refID, candID string, v domain.Verdict) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.verdicts[domain.PairKey{Ref: refID, Cand: candID}] = v
}
