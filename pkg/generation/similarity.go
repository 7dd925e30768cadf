package generation

import (
	"strings"
	"unicode"
)

// SimilarityFn reports whether two item texts should be treated as duplicates.
// The batch loop only depends on this contract, so the heuristic can be swapped
// for something semantic without touching the retry control flow.
type SimilarityFn func(a, b string) bool

const duplicateLengthRatio = 0.8

// DefaultSimilarity treats two items as duplicates when the shorter normalized
// text is contained in the longer one and their lengths are within 20% of each
// other. Deliberately cheap: paraphrases of different lengths slip through.
func DefaultSimilarity(a, b string) bool {
	na := normalizeText(a)
	nb := normalizeText(b)
	if na == "" || nb == "" {
		return na == nb
	}

	shorter, longer := na, nb
	if len(shorter) > len(longer) {
		shorter, longer = longer, shorter
	}
	if !strings.Contains(longer, shorter) {
		return false
	}
	return float64(len(shorter))/float64(len(longer)) > duplicateLengthRatio
}

// normalizeText lowercases, collapses whitespace, and strips everything that
// is neither a letter nor a number. Letters of any script survive, so items in
// non-Latin languages stay distinguishable.
func normalizeText(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	lastSpace := true
	for _, r := range strings.ToLower(s) {
		switch {
		case unicode.IsLetter(r) || unicode.IsNumber(r):
			b.WriteRune(r)
			lastSpace = false
		case unicode.IsSpace(r):
			if !lastSpace {
				b.WriteByte(' ')
				lastSpace = true
			}
		default:
			// punctuation dropped
		}
	}
	return strings.TrimSpace(b.String())
}
