package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guardia/roster-control-service/internal/domain"
	"github.com/guardia/roster-control-service/internal/ledger"
)

func entries(pairs ...[2]string) []domain.RawEntry {
	out := make([]domain.RawEntry, len(pairs))
	for i, p := range pairs {
		out[i] = domain.RawEntry{Rank: p[0], Name: p[1]}
	}
	return out
}

func TestBuildRecords(t *testing.T) {
	t.Parallel()

	records := BuildRecords(domain.SourceParte, entries(
		[2]string{"Oficial Ayudante", "Pérez, Juan (P4)"},
		[2]string{"sargento", "GOMEZ ANA"},
	))

	require.Len(t, records, 2)

	assert.Equal(t, "OFICIAL AYUDANTE", records[0].NormalizedRank)
	assert.Equal(t, "PEREZ JUAN", records[0].NormalizedName)
	assert.Equal(t, "parte:0:Pérez, Juan (P4)", records[0].IdentityKey)
	assert.Equal(t, 0, records[0].Index)

	// Unrecognized ranks stay in the slice with an empty category.
	assert.Equal(t, "", records[1].NormalizedRank)
	assert.Equal(t, "GOMEZ ANA", records[1].NormalizedName)
	assert.Equal(t, 1, records[1].Index)
}

func TestDuplicateNames(t *testing.T) {
	t.Parallel()

	records := BuildRecords(domain.SourceLista, entries(
		[2]string{"cabo", "PEREZ JUAN"},
		[2]string{"cabo", "Pérez, Juan"},
		[2]string{"cabo", "LOPEZ MARIA"},
		[2]string{"sargento", "LOPEZ MARIA"}, // excluded rank, not counted
		[2]string{"cabo", "PEREZ JUAN"},
	))

	assert.Equal(t, []string{"PEREZ JUAN"}, DuplicateNames(records))
}

func TestCompareAutoMatch(t *testing.T) {
	t.Parallel()

	reference := BuildRecords(domain.SourceParte, entries(
		[2]string{"cabo", "PEREZ, JUAN"},
		[2]string{"inspector", "GOMEZ ANA"},
	))
	candidates := BuildRecords(domain.SourceLista, entries(
		[2]string{"CABO", "JUAN PEREZ"}, // word order differs, still a match
		[2]string{"inspector", "GOMEZ ANA"},
	))

	result := Compare(reference, candidates, domain.DefaultMatchingOptions(), nil)

	assert.Empty(t, result.Missing)
	assert.Empty(t, result.Extra)
	assert.Empty(t, result.Ambiguous)
	assert.Equal(t, 2, result.MatchedTotal)
	assert.Equal(t, 2, result.ReferenceTotal)
	assert.Equal(t, 2, result.CandidateTotal)
}

func TestCompareRankIsAHardFilter(t *testing.T) {
	t.Parallel()

	reference := BuildRecords(domain.SourceParte, entries(
		[2]string{"cabo", "PEREZ JUAN"},
	))
	candidates := BuildRecords(domain.SourceLista, entries(
		[2]string{"inspector", "PEREZ JUAN"}, // identical name, wrong rank
	))

	result := Compare(reference, candidates, domain.DefaultMatchingOptions(), nil)

	// The identical name scores 100, which is at or above the auto threshold,
	// so the detective pass cannot pair it either. Both sides surface.
	require.Len(t, result.Missing, 1)
	require.Len(t, result.Extra, 1)
	assert.Empty(t, result.Ambiguous)
	assert.Equal(t, 0, result.MatchedTotal)
}

func TestCompareUnrecognizedRankExcluded(t *testing.T) {
	t.Parallel()

	reference := BuildRecords(domain.SourceParte, entries(
		[2]string{"sargento", "PEREZ JUAN"},
		[2]string{"cabo", "GOMEZ ANA"},
	))
	candidates := BuildRecords(domain.SourceLista, entries(
		[2]string{"cabo", "GOMEZ ANA"},
	))

	result := Compare(reference, candidates, domain.DefaultMatchingOptions(), nil)

	assert.Equal(t, 1, result.ReferenceTotal)
	assert.Equal(t, 1, result.CandidateTotal)
	assert.Empty(t, result.Missing)
	assert.Empty(t, result.Extra)
	assert.Equal(t, 1, result.MatchedTotal)
}

func TestCompareDetectivePair(t *testing.T) {
	t.Parallel()

	reference := BuildRecords(domain.SourceParte, entries(
		[2]string{"cabo", "MARIA LOPEZ"},
	))
	candidates := BuildRecords(domain.SourceLista, entries(
		[2]string{"cabo", "MARIA LOPES"},
	))

	// At auto 95 the 91-point near miss is not matched automatically but
	// falls inside the detective band.
	opts := domain.MatchingOptions{AutoThreshold: 95, DetectiveThreshold: 65}
	result := Compare(reference, candidates, opts, nil)

	assert.Empty(t, result.Missing)
	assert.Empty(t, result.Extra)
	require.Len(t, result.Ambiguous, 1)
	assert.Equal(t, "MARIA LOPEZ", result.Ambiguous[0].Falta.NormalizedName)
	assert.Equal(t, "MARIA LOPES", result.Ambiguous[0].Sobra.NormalizedName)
	assert.Equal(t, 91, result.Ambiguous[0].Score)
	assert.Equal(t, 0, result.MatchedTotal)
}

func TestCompareDetectiveBandIsExclusive(t *testing.T) {
	t.Parallel()

	reference := BuildRecords(domain.SourceParte, entries(
		[2]string{"cabo", "MARIA LOPEZ"},
	))
	candidates := BuildRecords(domain.SourceLista, entries(
		[2]string{"cabo", "MARIA LOPES"},
	))

	// A score equal to the detective threshold must not produce a pair.
	opts := domain.MatchingOptions{AutoThreshold: 95, DetectiveThreshold: 91}
	result := Compare(reference, candidates, opts, nil)

	assert.Empty(t, result.Ambiguous)
	require.Len(t, result.Missing, 1)
	require.Len(t, result.Extra, 1)
}

func TestCompareConfirmedDecisionOverridesScore(t *testing.T) {
	t.Parallel()

	reference := BuildRecords(domain.SourceParte, entries(
		[2]string{"cabo", "RODRIGUEZ PABLO"},
	))
	candidates := BuildRecords(domain.SourceLista, entries(
		[2]string{"inspector", "P RODRIGUES"}, // wrong rank and low score
	))

	led := ledger.New()
	led.Confirm(reference[0].IdentityKey, candidates[0].IdentityKey)

	result := Compare(reference, candidates, domain.DefaultMatchingOptions(), led)

	assert.Empty(t, result.Missing)
	assert.Empty(t, result.Extra)
	assert.Empty(t, result.Ambiguous)
	assert.Equal(t, 1, result.MatchedTotal)
}

func TestCompareRejectedDecisionDissolvesPair(t *testing.T) {
	t.Parallel()

	reference := BuildRecords(domain.SourceParte, entries(
		[2]string{"cabo", "MARIA LOPEZ"},
	))
	candidates := BuildRecords(domain.SourceLista, entries(
		[2]string{"cabo", "MARIA LOPES"},
	))

	opts := domain.MatchingOptions{AutoThreshold: 95, DetectiveThreshold: 65}

	led := ledger.New()
	led.Reject(reference[0].IdentityKey, candidates[0].IdentityKey)

	result := Compare(reference, candidates, opts, led)

	assert.Empty(t, result.Ambiguous)
	require.Len(t, result.Missing, 1)
	require.Len(t, result.Extra, 1)

	// Undoing the rejection brings the pair back on the next run.
	led.Undo(reference[0].IdentityKey, candidates[0].IdentityKey)
	result = Compare(reference, candidates, opts, led)
	require.Len(t, result.Ambiguous, 1)
}

func TestCompareOnePartnerPerMissingRecord(t *testing.T) {
	t.Parallel()

	reference := BuildRecords(domain.SourceParte, entries(
		[2]string{"cabo", "MARIA LOPEZ"},
		[2]string{"cabo", "MARIA LOPEZ DIAZ"},
	))
	candidates := BuildRecords(domain.SourceLista, entries(
		[2]string{"cabo", "MARIA LOPES"},
	))

	opts := domain.MatchingOptions{AutoThreshold: 95, DetectiveThreshold: 60}
	result := Compare(reference, candidates, opts, nil)

	// The single extra record partners at most one missing record.
	require.Len(t, result.Ambiguous, 1)
	assert.Equal(t, "MARIA LOPEZ", result.Ambiguous[0].Falta.NormalizedName)
	require.Len(t, result.Missing, 1)
	assert.Equal(t, "MARIA LOPEZ DIAZ", result.Missing[0].NormalizedName)
	assert.Empty(t, result.Extra)
}

// Every comparison record lands in exactly one of matched, missing, extra, or
// one side of an ambiguous pair.
func TestComparePartitionIsComplete(t *testing.T) {
	t.Parallel()

	reference := BuildRecords(domain.SourceParte, entries(
		[2]string{"cabo", "PEREZ JUAN"},
		[2]string{"cabo", "MARIA LOPEZ"},
		[2]string{"inspector", "GOMEZ ANA"},
		[2]string{"sargento", "SIN RANGO"},
	))
	candidates := BuildRecords(domain.SourceLista, entries(
		[2]string{"cabo", "JUAN PEREZ"},
		[2]string{"cabo", "MARIA LOPES"},
		[2]string{"ayudante", "DIAZ PEDRO"},
	))

	opts := domain.MatchingOptions{AutoThreshold: 95, DetectiveThreshold: 65}
	result := Compare(reference, candidates, opts, nil)

	refAccounted := result.MatchedTotal + len(result.Missing) + len(result.Ambiguous)
	assert.Equal(t, result.ReferenceTotal, refAccounted)

	candAccounted := result.MatchedTotal + len(result.Extra) + len(result.Ambiguous)
	assert.Equal(t, result.CandidateTotal, candAccounted)
}

func TestCompareThresholdMonotonicity(t *testing.T) {
	t.Parallel()

	reference := BuildRecords(domain.SourceParte, entries(
		[2]string{"cabo", "MARIA LOPEZ"},
		[2]string{"cabo", "PEREZ JUAN"},
	))
	candidates := BuildRecords(domain.SourceLista, entries(
		[2]string{"cabo", "MARIA LOPES"},
		[2]string{"cabo", "JUAN PEREZ"},
	))

	loose := Compare(reference, candidates, domain.MatchingOptions{AutoThreshold: 85, DetectiveThreshold: 65}, nil)
	strict := Compare(reference, candidates, domain.MatchingOptions{AutoThreshold: 95, DetectiveThreshold: 65}, nil)

	// Raising the auto threshold can only reduce automatic matches.
	assert.GreaterOrEqual(t, loose.MatchedTotal, strict.MatchedTotal)
	assert.Equal(t, 2, loose.MatchedTotal)
	assert.Equal(t, 1, strict.MatchedTotal)
}
