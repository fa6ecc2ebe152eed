// Package normalize canonicalizes free-text rank labels and person names so
// that roster entries from different sources become comparable.
package normalize

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Synonym maps one rank spelling variant to its canonical category.
type Synonym struct {
	Pattern   string
	Canonical string
}

// rankSynonyms is the rank-equivalence vocabulary. Order matters: when no
// exact match exists, the first pattern found as a substring of the input
// wins, so more specific patterns must precede their prefixes ("cabo 1"
// before "cabo", "of ppal" before any bare "of" would). The iteration order
// is a committed contract; reordering entries changes matching behavior.
var rankSynonyms = []Synonym{
	{"of ayte", "OFICIAL AYUDANTE"},
	{"of jefe", "OFICIAL JEFE"},
	{"of mayor", "OFICIAL MAYOR"},
	{"of ppal", "OFICIAL PRINCIPAL"},
	{"oficial ayudante", "OFICIAL AYUDANTE"},
	{"oficial jefe", "OFICIAL JEFE"},
	{"oficial mayor", "OFICIAL MAYOR"},
	{"oficial principal", "OFICIAL PRINCIPAL"},
	{"inspector", "INSPECTOR"},
	{"insp", "INSPECTOR"},
	{"cdo mayor", "COMANDANTE MAYOR"},
	{"comandante mayor", "COMANDANTE MAYOR"},
	{"comandante", "COMANDANTE"},
	{"cdo", "COMANDANTE"},
	{"cabo 1", "CABO PRIMERO"},
	{"cabo primero", "CABO PRIMERO"},
	{"cabo", "CABO"},
	{"auxiliar", "AUXILIAR"},
	{"aux", "AUXILIAR"},
	{"ayudante", "AYUDANTE"},
	{"ayte", "AYUDANTE"},
}

// exactSynonyms indexes rankSynonyms for the exact-match tier.
var exactSynonyms = func() map[string]string {
	m := make(map[string]string, len(rankSynonyms))
	for _, s := range rankSynonyms {
		if _, ok := m[s.Pattern]; !ok {
			m[s.Pattern] = s.Canonical
		}
	}
	return m
}()

// RankSynonyms returns the ordered rank-equivalence table. Callers must treat
// the returned slice as read-only.
func RankSynonyms() []Synonym {
	return rankSynonyms
}

// Rank canonicalizes a free-text rank label into one of the closed set of
// rank categories. It returns the empty string when the rank is not
// recognized; such records are excluded from comparison entirely, since an
// unrecognized rank can never be confidently matched.
//
// Lookup is two-tier: an exact match against the synonym table first, then a
// first-hit substring scan in table order.
func Rank(raw string) string {
	cleaned := strings.ToLower(strings.TrimSpace(raw))
	if cleaned == "" {
		return ""
	}
	if canonical, ok := exactSynonyms[cleaned]; ok {
		return canonical
	}
	for _, s := range rankSynonyms {
		if strings.Contains(cleaned, s.Pattern) {
			return s.Canonical
		}
	}
	return ""
}

// stripDiacritics decomposes accented characters and removes the combining
// marks, e.g. "Pérez" -> "Perez".
func stripDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	result, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return result
}

// Name canonicalizes a free-text person name into its comparable form:
// parenthesized annotations removed, diacritics stripped, everything that is
// not an ASCII letter or space dropped, whitespace collapsed, uppercased.
// Name is total (never fails) and idempotent.
func Name(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return ""
	}

	s := removeParenthesized(raw)
	s = stripDiacritics(s)

	var sb strings.Builder
	sb.Grow(len(s))
	pendingSpace := false
	for _, r := range s {
		switch {
		case (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z'):
			if pendingSpace && sb.Len() > 0 {
				sb.WriteByte(' ')
			}
			pendingSpace = false
			sb.WriteRune(unicode.ToUpper(r))
		case unicode.IsSpace(r):
			pendingSpace = true
		}
	}
	return sb.String()
}

// removeParenthesized drops every "(...)" group, including unterminated ones
// at the end of the string. Post numbers and honorific annotations live in
// parentheses in both rosters.
func removeParenthesized(s string) string {
	var sb strings.Builder
	sb.Grow(len(s))
	depth := 0
	for _, r := range s {
		switch {
		case r == '(':
			depth++
		case r == ')':
			if depth > 0 {
				depth--
			}
		case depth == 0:
			sb.WriteRune(r)
		}
	}
	return sb.String()
}
