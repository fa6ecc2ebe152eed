package ledger

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guardia/roster-control-service/internal/domain"
)

func TestLedgerVerdicts(t *testing.T) {
	t.Parallel()

	l := New()

	_, ok := l.Verdict("a", "b")
	assert.False(t, ok)

	l.Confirm("a", "b")
	v, ok := l.Verdict("a", "b")
	require.True(t, ok)
	assert.Equal(t, domain.VerdictConfirmedSame, v)
	assert.True(t, l.Confirmed("a", "b"))
	assert.False(t, l.Rejected("a", "b"))

	// Last write wins per pair.
	l.Reject("a", "b")
	v, ok = l.Verdict("a", "b")
	require.True(t, ok)
	assert.Equal(t, domain.VerdictRejectedDifferent, v)
	assert.False(t, l.Confirmed("a", "b"))
	assert.True(t, l.Rejected("a", "b"))
	assert.Equal(t, 1, l.Len())
}

func TestLedgerIdempotence(t *testing.T) {
	t.Parallel()

	l := New()
	l.Confirm("a", "b")
	l.Confirm("a", "b")
	l.Confirm("a", "b")
	assert.Equal(t, 1, l.Len())
	assert.True(t, l.Confirmed("a", "b"))
}

func TestLedgerUndo(t *testing.T) {
	t.Parallel()

	l := New()
	l.Confirm("a", "b")
	l.Undo("a", "b")

	_, ok := l.Verdict("a", "b")
	assert.False(t, ok)
	assert.Equal(t, 0, l.Len())

	// Undoing an unknown pair is a no-op.
	l.Undo("x", "y")
	assert.Equal(t, 0, l.Len())
}

func TestLedgerPairsAreDirectional(t *testing.T) {
	t.Parallel()

	l := New()
	l.Confirm("a", "b")

	assert.False(t, l.Confirmed("b", "a"))
	assert.True(t, l.Confirmed("a", "b"))
}

func TestLedgerDecisionsSnapshot(t *testing.T) {
	t.Parallel()

	l := New()
	l.Confirm("a", "b")
	l.Reject("c", "d")

	decisions := l.Decisions()
	assert.Len(t, decisions, 2)

	byKey := make(map[domain.PairKey]domain.Verdict)
	for _, d := range decisions {
		byKey[d.Key] = d.Verdict
	}
	assert.Equal(t, domain.VerdictConfirmedSame, byKey[domain.PairKey{Ref: "a", Cand: "b"}])
	assert.Equal(t, domain.VerdictRejectedDifferent, byKey[domain.PairKey{Ref: "c", Cand: "d"}])
}

func TestLedgerConcurrentAccess(t *testing.T) {
	t.Parallel()

	l := New()
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				switch n % 3 {
				case 0:
					l.Confirm("a", "b")
				case 1:
					l.Reject("a", "b")
				default:
					_ = l.Confirmed("a", "b")
					_ = l.Len()
				}
			}
		}(i)
	}
	wg.Wait()

	_, ok := l.Verdict("a", "b")
	assert.True(t, ok)
}
