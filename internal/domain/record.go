// Package domain provides domain models and business logic for the Roster Control Service.
package domain

import "fmt"

// RosterSource identifies which of the two input rosters a record came from.
type RosterSource string

const (
	// SourceParte is the authoritative duty roster.
	SourceParte RosterSource = "parte"
	// SourceLista is the working guard list being checked against the parte.
	SourceLista RosterSource = "lista"
)

// RawEntry is one ingested roster row before normalization: the rank and name
// cells exactly as they appeared in the source text or file.
type RawEntry struct {
	Rank string `json:"rank"`
	Name string `json:"name"`
}

// Record is one roster entry prepared for comparison. Records are created once
// per ingested row at analysis time and are immutable thereafter.
type Record struct {
	// RawRank is the rank cell as ingested, unmodified.
	RawRank string `json:"raw_rank"`

	// RawName is the name cell as ingested, unmodified.
	RawName string `json:"raw_name"`

	// NormalizedRank is the canonical rank category. Empty means the rank was
	// not recognized and the record is excluded from comparison.
	NormalizedRank string `json:"normalized_rank"`

	// NormalizedName is the comparable form of the name: uppercase, ASCII
	// letters and single internal spaces only.
	NormalizedName string `json:"normalized_name"`

	// IdentityKey is the stable per-record identifier, derived from the source,
	// the positional index within the source sequence, and the raw name. It is
	// a lookup key for decisions and UI state, never an input to matching.
	IdentityKey string `json:"identity_key"`

	// Source is the roster this record belongs to.
	Source RosterSource `json:"source"`

	// Index is the zero-based position within the source sequence.
	Index int `json:"index"`
}

// IdentityKey derives the stable per-record identifier for a roster entry.
func IdentityKey(source RosterSource, index int, rawName string) string {
	return fmt.Sprintf("%s:%d:%s", source, index, rawName)
}

// Verdict is a human decision about a (reference, candidate) record pair.
type Verdict string

const (
	// VerdictConfirmedSame records that the two entries are the same person.
	VerdictConfirmedSame Verdict = "confirmed_same"
	// VerdictRejectedDifferent records that the two entries are different people.
	VerdictRejectedDifferent Verdict = "rejected_different"
)

// IsValid reports whether v is one of the known verdicts.
func (v Verdict) IsValid() bool {
	return v == VerdictConfirmedSame || v == VerdictRejectedDifferent
}

// PairKey identifies a (reference record, candidate record) pair in the ledger.
// Stored as reference-then-candidate.
type PairKey struct {
	Ref  string `json:"ref"`
	Cand string `json:"cand"`
}

// PairDecision is a ledger entry: a verdict on a specific record pair.
type PairDecision struct {
	Key     PairKey `json:"key"`
	Verdict Verdict `json:"verdict"`
}

// AmbiguousPair is a (missing, extra) record pair whose similarity is too low
// to auto-match but too high to ignore, awaiting a human verdict.
type AmbiguousPair struct {
	// Falta is the reference-side record that would otherwise be missing.
	Falta Record `json:"falta"`
	// Sobra is the candidate-side record that would otherwise be extra.
	Sobra Record `json:"sobra"`
	// Score is the token-sort similarity that flagged the pair.
	Score int `json:"score"`
}

// AnalysisResult is the output snapshot of one matching engine run. It is
// recomputed in full on every analysis trigger and never patched in place.
type AnalysisResult struct {
	// Missing are reference records absent from the candidate pool, in
	// reference-sequence order.
	Missing []Record `json:"missing"`

	// Extra are candidate records never consumed by a match.
	Extra []Record `json:"extra"`

	// Ambiguous are detective pairs held back pending a decision. Their two
	// sides are excluded from Missing and Extra.
	Ambiguous []AmbiguousPair `json:"ambiguous"`

	// ReferenceTotal is the number of reference records that entered the
	// comparison (unrecognized ranks already excluded).
	ReferenceTotal int `json:"reference_total"`

	// CandidateTotal is the number of candidate records that entered the
	// comparison.
	CandidateTotal int `json:"candidate_total"`

	// MatchedTotal is the number of reference records resolved by passes 1-2.
	MatchedTotal int `json:"matched_total"`
}

// MatchingOptions holds the two similarity thresholds for the engine.
type MatchingOptions struct {
	// AutoThreshold is the minimum token-set score for an automatic match.
	// Valid range is [50,100].
	AutoThreshold int `json:"auto_threshold"`

	// DetectiveThreshold is the ambiguity-detection floor. Valid range is
	// [50,90] and it must be strictly less than AutoThreshold.
	DetectiveThreshold int `json:"detective_threshold"`
}

// DefaultMatchingOptions returns the matching thresholds used when a session
// does not override them.
func DefaultMatchingOptions() MatchingOptions {
	return MatchingOptions{
		AutoThreshold:      85,
		DetectiveThreshold: 65,
	}
}

// Validate checks the threshold contract.
func (o MatchingOptions) Validate() error {
	if o.AutoThreshold < 50 || o.AutoThreshold > 100 {
		return NewValidationError("auto_threshold", "must be between 50 and 100")
	}
	if o.DetectiveThreshold < 50 || o.DetectiveThreshold > 90 {
		return NewValidationError("detective_threshold", "must be between 50 and 90")
	}
	if o.DetectiveThreshold >= o.AutoThreshold {
		return NewValidationError("detective_threshold", "must be strictly less than auto_threshold")
	}
	return nil
}
