// Package fuzzy provides 0-100 string similarity scores for roster name
// comparison: an order-insensitive token-set ratio for automatic matching and
// an order-sensitive token-sort ratio for ambiguity detection.
package fuzzy

import (
	"math"
	"sort"
	"strings"
)

// Ratio returns the indel similarity of a and b scaled to 0-100: twice the
// length of their longest common subsequence divided by the total length.
// Two empty strings score 100; one empty string scores 0.
func Ratio(a, b string) int {
	if a == b {
		return 100
	}
	la, lb := len(a), len(b)
	if la == 0 || lb == 0 {
		return 0
	}
	lcs := lcsLength(a, b)
	return int(math.Round(200 * float64(lcs) / float64(la+lb)))
}

// TokenSortRatio tokenizes both strings, sorts the tokens, and compares the
// rejoined forms. Word order is neutralized but every token still counts.
func TokenSortRatio(a, b string) int {
	return Ratio(sortedJoin(tokens(a)), sortedJoin(tokens(b)))
}

// TokenSetRatio compares the two token sets by splitting them into the common
// intersection and each side's remainder, then taking the best pairwise Ratio
// of the three rejoined combinations. A full token overlap scores 100
// regardless of order or duplication.
func TokenSetRatio(a, b string) int {
	ta, tb := tokenSet(a), tokenSet(b)
	if len(ta) == 0 && len(tb) == 0 {
		return 100
	}
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}

	var intersection, diffA, diffB []string
	for tok := range ta {
		if tb[tok] {
			intersection = append(intersection, tok)
		} else {
			diffA = append(diffA, tok)
		}
	}
	for tok := range tb {
		if !ta[tok] {
			diffB = append(diffB, tok)
		}
	}

	sort.Strings(intersection)
	sort.Strings(diffA)
	sort.Strings(diffB)

	base := strings.Join(intersection, " ")
	combinedA := joinNonEmpty(base, strings.Join(diffA, " "))
	combinedB := joinNonEmpty(base, strings.Join(diffB, " "))

	best := Ratio(base, combinedA)
	if r := Ratio(base, combinedB); r > best {
		best = r
	}
	if r := Ratio(combinedA, combinedB); r > best {
		best = r
	}
	return best
}

func tokens(s string) []string {
	return strings.Fields(s)
}

func tokenSet(s string) map[string]bool {
	set := make(map[string]bool)
	for _, tok := range tokens(s) {
		set[tok] = true
	}
	return set
}

func sortedJoin(toks []string) string {
	sorted := make([]string, len(toks))
	copy(sorted, toks)
	sort.Strings(sorted)
	return strings.Join(sorted, " ")
}

func joinNonEmpty(a, b string) string {
	switch {
	case a == "":
		return b
	case b == "":
		return a
	default:
		return a + " " + b
	}
}

// lcsLength computes the longest common subsequence length over bytes using
// two rolling rows. Inputs are normalized names, so bytes and runes coincide.
func lcsLength(a, b string) int {
	if len(b) < len(a) {
		a, b = b, a
	}
	prev := make([]int, len(a)+1)
	curr := make([]int, len(a)+1)
	for j := 1; j <= len(b); j++ {
		for i := 1; i <= len(a); i++ {
			if a[i-1] == b[j-1] {
				curr[i] = prev[i-1] + 1
			} else if prev[i] >= curr[i-1] {
				curr[i] = prev[i]
			} else {
				curr[i] = curr[i-1]
			}
		}
		prev, curr = curr, prev
	}
	return prev[len(a)]
}
