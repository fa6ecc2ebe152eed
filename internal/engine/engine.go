// Package engine implements the roster reconciliation algorithm: a
// deterministic multi-pass comparison of an authoritative reference roster
// (parte) against a working candidate list (lista), producing the missing,
// extra, and ambiguous partitions.
package engine

import (
	"github.com/guardia/roster-control-service/internal/domain"
	"github.com/guardia/roster-control-service/internal/fuzzy"
	"github.com/guardia/roster-control-service/internal/normalize"
)

// DecisionView is the read side of the decision ledger consumed by the
// engine. The engine never mutates decisions; it only honors them.
type DecisionView interface {
	// Confirmed reports whether the pair was confirmed as the same person.
	Confirmed(refID, candID string) bool
	// Rejected reports whether the pair was rejected as different people.
	Rejected(refID, candID string) bool
}

// noDecisions is the zero DecisionView used when no ledger is supplied.
type noDecisions struct{}

func (noDecisions) Confirmed(string, string) bool { return false }
func (noDecisions) Rejected(string, string) bool  { return false }

// BuildRecords converts ingested raw (rank, name) pairs into comparison
// records, normalizing both fields and assigning identity keys. The returned
// slice preserves source order, including records whose rank was not
// recognized; Compare excludes those from the populations itself.
func BuildRecords(source domain.RosterSource, entries []domain.RawEntry) []domain.Record {
	records := make([]domain.Record, len(entries))
	for i, e := range entries {
		records[i] = domain.Record{
			RawRank:        e.Rank,
			RawName:        e.Name,
			NormalizedRank: normalize.Rank(e.Rank),
			NormalizedName: normalize.Name(e.Name),
			IdentityKey:    domain.IdentityKey(source, i, e.Name),
			Source:         source,
			Index:          i,
		}
	}
	return records
}

// DuplicateNames returns the normalized names shared by more than one record
// in the sequence, in first-occurrence order. Duplicates are reported as a
// warning by the caller but every occurrence still participates in matching.
func DuplicateNames(records []domain.Record) []string {
	counts := make(map[string]int, len(records))
	var order []string
	for _, r := range records {
		if r.NormalizedName == "" || r.NormalizedRank == "" {
			continue
		}
		counts[r.NormalizedName]++
		if counts[r.NormalizedName] == 2 {
			order = append(order, r.NormalizedName)
		}
	}
	return order
}

// Compare runs the full reconciliation: rank-gated automatic matching, the
// ledger override pass, and detective ambiguity detection. It is a pure
// function of its inputs; re-running after a ledger change recomputes the
// result from scratch, so toggling a decision can never leave stale state.
func Compare(reference, candidates []domain.Record, opts domain.MatchingOptions, decisions DecisionView) domain.AnalysisResult {
	if decisions == nil {
		decisions = noDecisions{}
	}

	// Records with an unrecognized rank are dropped from both populations
	// before pass 1 and are never reported as missing or extra.
	refs := withRecognizedRank(reference)
	cands := withRecognizedRank(candidates)

	consumed := make([]bool, len(cands))
	resolved := make([]bool, len(refs))
	matched := 0

	// Pass 1: rank-gated exact-tier matching. Rank is a hard filter, never
	// fuzzy. First candidate at or above the auto threshold wins; candidate
	// order breaks ties.
	for i, ref := range refs {
		for j, cand := range cands {
			if consumed[j] || cand.NormalizedRank != ref.NormalizedRank {
				continue
			}
			if fuzzy.TokenSetRatio(ref.NormalizedName, cand.NormalizedName) >= opts.AutoThreshold {
				consumed[j] = true
				resolved[i] = true
				matched++
				break
			}
		}
	}

	// Pass 2: ledger overrides survive re-analysis regardless of score. The
	// rank filter is dropped here so a human can pair across rank typos.
	for i, ref := range refs {
		if resolved[i] {
			continue
		}
		for j, cand := range cands {
			if consumed[j] {
				continue
			}
			if decisions.Confirmed(ref.IdentityKey, cand.IdentityKey) {
				consumed[j] = true
				resolved[i] = true
				matched++
				break
			}
		}
	}

	stillMissing := make([]domain.Record, 0)
	for i, ref := range refs {
		if !resolved[i] {
			stillMissing = append(stillMissing, ref)
		}
	}
	stillExtra := make([]domain.Record, 0)
	for j, cand := range cands {
		if !consumed[j] {
			stillExtra = append(stillExtra, cand)
		}
	}

	// Pass 3: detective. For each still-missing record keep the best
	// still-extra partner whose token-sort score lies strictly between the
	// two thresholds and whose pair was not rejected. At most one partner per
	// missing record; ties keep the first-encountered highest score.
	ambiguous := make([]domain.AmbiguousPair, 0)
	pairedExtra := make(map[string]bool)
	missing := make([]domain.Record, 0, len(stillMissing))

	for _, ref := range stillMissing {
		bestScore := -1
		bestIdx := -1
		for j, cand := range stillExtra {
			if pairedExtra[cand.IdentityKey] {
				continue
			}
			if decisions.Rejected(ref.IdentityKey, cand.IdentityKey) {
				continue
			}
			score := fuzzy.TokenSortRatio(ref.NormalizedName, cand.NormalizedName)
			if score > bestScore {
				bestScore = score
				bestIdx = j
			}
		}
		if bestIdx >= 0 && bestScore > opts.DetectiveThreshold && bestScore < opts.AutoThreshold {
			pairedExtra[stillExtra[bestIdx].IdentityKey] = true
			ambiguous = append(ambiguous, domain.AmbiguousPair{
				Falta: ref,
				Sobra: stillExtra[bestIdx],
				Score: bestScore,
			})
			continue
		}
		missing = append(missing, ref)
	}

	extra := make([]domain.Record, 0, len(stillExtra))
	for _, cand := range stillExtra {
		if !pairedExtra[cand.IdentityKey] {
			extra = append(extra, cand)
		}
	}

	return domain.AnalysisResult{
		Missing:        missing,
		Extra:          extra,
		Ambiguous:      ambiguous,
		ReferenceTotal: len(refs),
		CandidateTotal: len(cands),
		MatchedTotal:   matched,
	}
}

func withRecognizedRank(records []domain.Record) []domain.Record {
	kept := make([]domain.Record, 0, len(records))
	for _, r := range records {
		if r.NormalizedRank != "" {
			kept = append(kept, r)
		}
	}
	return kept
}
