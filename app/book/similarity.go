package book

import (
	"regexp"
	"strings"
)

// Word-based similarity scoring used by the collision resolver. Both inputs
// pass through a comparison-only normalization before token sets are built,
// so the score is insensitive to case, punctuation and leading articles.

var (
	leadingArticleRe = regexp.MustCompile(`(?i)^(the|a|an)\s+`)
	nonAlphanumRe    = regexp.MustCompile(`[^a-z0-9\s]`)
)

// NormalizeForComparison lowercases, strips one leading article, removes
// everything outside [a-z0-9 ] and collapses whitespace.
func NormalizeForComparison(s string) string {
	s = strings.ToLower(s)
	s = leadingArticleRe.ReplaceAllString(s, "")
	s = nonAlphanumRe.ReplaceAllString(s, "")
	s = whitespaceRe.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// NormalizeAuthorForComparison applies the "Last, First" swap before the
// regular comparison normalization, so "Herbert, Frank" and "Frank Herbert"
// compare equal.
func NormalizeAuthorForComparison(author string) string {
	trimmed := strings.TrimSpace(author)
	if strings.Contains(trimmed, ",") {
		parts := strings.Split(trimmed, ",")
		if len(parts) == 2 {
			trimmed = strings.TrimSpace(parts[1]) + " " + strings.TrimSpace(parts[0])
		}
	}
	return NormalizeForComparison(trimmed)
}

// Similarity returns a score in [0,1]: 1.0 on exact match after comparison
// normalization, otherwise the Jaccard index of the whitespace token sets.
func Similarity(a, b string) float64 {
	s1 := NormalizeForComparison(a)
	s2 := NormalizeForComparison(b)

	if s1 == s2 {
		return 1.0
	}

	words1 := tokenSet(s1)
	words2 := tokenSet(s2)

	intersection := 0
	for w := range words1 {
		if _, ok := words2[w]; ok {
			intersection++
		}
	}

	union := len(words1) + len(words2) - intersection
	if union == 0 {
		return 0.0
	}

	return float64(intersection) / float64(union)
}

func tokenSet(s string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, w := range strings.Fields(s) {
		set[w] = struct{}{}
	}
	return set
}
