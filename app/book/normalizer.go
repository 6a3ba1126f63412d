package book

import (
	"regexp"
	"strings"
)

// Normalizer canonicalizes the textual fields of raw books so that records
// from different sources become comparable. Pure, no failure modes.
type Normalizer struct{}

func NewNormalizer() *Normalizer {
	return &Normalizer{}
}

var (
	whitespaceRe         = regexp.MustCompile(`\s+`)
	trailingParentheses  = regexp.MustCompile(`\s*\([^)]*\)\s*$`)
	goodreadsCoverSizeRe = regexp.MustCompile(`_S[XY]\d+_`)
	repeatedPeriodsRe    = regexp.MustCompile(`\.{2,}`)
)

func (n *Normalizer) Run(books []RawBook) []RawBook {
	normalized := make([]RawBook, 0, len(books))
	for _, b := range books {
		normalized = append(normalized, n.Normalize(b))
	}
	return normalized
}

func (n *Normalizer) Normalize(b RawBook) RawBook {
	b.Title = n.normalizeTitle(b.Title)
	b.Author = n.normalizeAuthor(b.Author)
	b.CoverURL = n.normalizeCoverURL(b.CoverURL, b.Source)
	return b
}

// normalizeTitle trims, collapses whitespace runs and strips a single
// trailing parenthetical suffix (edition/series annotations).
func (n *Normalizer) normalizeTitle(title string) string {
	title = strings.TrimSpace(title)
	title = whitespaceRe.ReplaceAllString(title, " ")
	title = trailingParentheses.ReplaceAllString(title, "")
	return strings.TrimSpace(title)
}

// normalizeAuthor rewrites "Last, First" to "First Last". The heuristic only
// fires for a single comma splitting the string into exactly two parts;
// multi-comma and multi-author strings pass through unchanged.
func (n *Normalizer) normalizeAuthor(author string) string {
	trimmed := strings.TrimSpace(author)

	if strings.Contains(trimmed, ",") {
		parts := strings.Split(trimmed, ",")
		if len(parts) == 2 {
			last := strings.TrimSpace(parts[0])
			first := strings.TrimSpace(parts[1])
			if last != "" && first != "" {
				return first + " " + last
			}
		}
	}

	return trimmed
}

// normalizeCoverURL strips Goodreads CDN artifacts: embedded thumbnail size
// tokens (_SX200_, _SY300_, ...) and the doubled periods left behind once a
// token is removed. URLs from other sources pass through untouched.
func (n *Normalizer) normalizeCoverURL(url string, source Source) string {
	if url == "" {
		return ""
	}

	if source == SourceGoodreads {
		url = goodreadsCoverSizeRe.ReplaceAllString(url, "")
		url = repeatedPeriodsRe.ReplaceAllString(url, ".")
	}

	return url
}
