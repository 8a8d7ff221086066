// Package novelty fingerprints generated copy and keeps the per-run window
// used to stop same-day posts from reading as near-duplicates.
package novelty

import (
	"regexp"
	"strings"
	"unicode"
)

const openingWords = 4

var (
	hashtagRe    = regexp.MustCompile(`#[\p{L}\p{N}_]+`)
	whitespaceRe = regexp.MustCompile(`\s+`)
)

// Normalize strips hashtags, collapses whitespace and lowercases.
func Normalize(text string) string {
	text = hashtagRe.ReplaceAllString(text, " ")
	text = whitespaceRe.ReplaceAllString(text, " ")
	return strings.ToLower(strings.TrimSpace(text))
}

func words(text string) []string {
	fields := strings.Fields(Normalize(text))
	out := fields[:0]
	for _, f := range fields {
		f = strings.TrimFunc(f, func(r rune) bool {
			return unicode.IsPunct(r) || unicode.IsSymbol(r)
		})
		if f != "" {
			out = append(out, f)
		}
	}
	return out
}

// OpeningPhrase returns the first four normalized words.
func OpeningPhrase(text string) string {
	w := words(text)
	if len(w) > openingWords {
		w = w[:openingWords]
	}
	return strings.Join(w, " ")
}

// Bigrams returns the set of adjacent normalized word pairs.
func Bigrams(text string) map[string]struct{} {
	w := words(text)
	set := make(map[string]struct{}, len(w))
	for i := 0; i+1 < len(w); i++ {
		set[w[i]+" "+w[i+1]] = struct{}{}
	}
	return set
}

// JaccardSimilarity is |A∩B| / |A∪B| over bigram sets, 0 when either side
// has no bigrams.
func JaccardSimilarity(a, b string) float64 {
	return jaccard(Bigrams(a), Bigrams(b))
}

func jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	small, large := a, b
	if len(small) > len(large) {
		small, large = large, small
	}
	inter := 0
	for k := range small {
		if _, ok := large[k]; ok {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	return float64(inter) / float64(union)
}
