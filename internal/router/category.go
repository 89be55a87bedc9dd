package router

import (
	"strings"

	"github.com/corvidlabs/corvid/internal/manifest"
)

// categoryMatch is Tier 2's simple substring/overlap scorer: +2.0 per
// pattern phrase found verbatim in the raw input, +0.5 per partial word
// overlap with any pattern token. A category wins if its score clears 1.0.
func categoryMatch(input string, categories []manifest.Category) (manifest.Category, float64, bool) {
	lower := strings.ToLower(input)
	inputWords := wordSet(lower)

	var best manifest.Category
	var bestScore float64
	found := false

	for _, cat := range categories {
		score := 0.0
		for _, pattern := range cat.Patterns {
			patternLower := strings.ToLower(pattern)
			if strings.Contains(lower, patternLower) {
				score += 2.0
			}
			for word := range wordSet(patternLower) {
				if inputWords[word] {
					score += 0.5
				}
			}
		}
		if score > bestScore {
			bestScore = score
			best = cat
			found = true
		}
	}

	if !found || bestScore < 1.0 {
		return manifest.Category{}, 0, false
	}

	confidence := bestScore / 3
	if confidence > 1 {
		confidence = 1
	}
	return best, confidence, true
}

func wordSet(s string) map[string]bool {
	set := map[string]bool{}
	for _, w := range strings.Fields(s) {
		set[w] = true
	}
	return set
}
