// Package classifier implements a zero-dependency TF-IDF classifier over
// manifest categories: exact phrase match, IDF-weighted token overlap, and
// fuzzy token match via synonym normalization plus a suffix stemmer.
package classifier

import (
	"math"
	"strings"
)

// Category is the minimal shape the classifier needs: an id and its
// pattern alternatives (pipe-separated phrases, already split into a
// slice by the caller).
type Category struct {
	ID       string
	Patterns []string
}

// DefaultThreshold is the confidence floor below which Classify reports no
// match.
const DefaultThreshold = 0.35

// Result is the classifier's verdict for one input.
type Result struct {
	CategoryID string
	Confidence float64
	Matched    bool
}

// Classify scores input against every category and returns the winner if
// its confidence clears threshold (pass <= 0 to use DefaultThreshold).
func Classify(input string, categories []Category, threshold float64) Result {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	if len(categories) == 0 {
		return Result{}
	}

	inputTokens := normalizeTokens(tokenize(input))
	idf := computeIDF(categories)

	scores := make([]float64, len(categories))
	for i, cat := range categories {
		scores[i] = scoreCategory(input, inputTokens, cat, idf)
	}

	bestIdx := 0
	for i, s := range scores {
		if s > scores[bestIdx] {
			bestIdx = i
		}
	}
	best := scores[bestIdx]
	if best <= 0 {
		return Result{}
	}

	second := 0.0
	for i, s := range scores {
		if i == bestIdx {
			continue
		}
		if s > second {
			second = s
		}
	}

	margin := 1.0
	if best > 0 {
		margin = (best - second) / best
	}
	confidence := math.Min(1, best*(0.65+0.35*margin))

	if confidence < threshold {
		return Result{}
	}
	return Result{CategoryID: categories[bestIdx].ID, Confidence: confidence, Matched: true}
}

// scoreCategory combines exact phrase match, IDF-weighted token overlap,
// and fuzzy token match across every pattern alternative in cat, then
// normalizes by pattern count to avoid bias toward verbose categories.
func scoreCategory(input string, inputTokens []string, cat Category, idf map[string]float64) float64 {
	if len(cat.Patterns) == 0 {
		return 0
	}

	inputLower := strings.ToLower(input)
	inputSet := make(map[string]bool, len(inputTokens))
	for _, t := range inputTokens {
		inputSet[t] = true
	}

	var total float64
	for _, pattern := range cat.Patterns {
		var patternScore float64

		if strings.Contains(inputLower, strings.ToLower(pattern)) {
			patternScore += 3.0
		}

		patternTokens := normalizeTokens(tokenize(pattern))
		if len(patternTokens) == 0 {
			total += patternScore
			continue
		}

		var matchedIDF, totalIDF float64
		for _, pt := range patternTokens {
			weight := idf[pt]
			totalIDF += weight
			if inputSet[pt] {
				matchedIDF += weight
			}
		}
		if totalIDF > 0 {
			patternScore += (matchedIDF / totalIDF) * 1.5
		}

		total += patternScore
	}

	return total / float64(len(cat.Patterns))
}

// computeIDF computes log((N+1)/(df+1)) + 1 for every normalized token
// appearing across the category corpus (patterns), where N is the number
// of categories and df is the number of categories containing the term.
func computeIDF(categories []Category) map[string]float64 {
	n := float64(len(categories))
	df := map[string]int{}

	for _, cat := range categories {
		seen := map[string]bool{}
		for _, pattern := range cat.Patterns {
			for _, tok := range normalizeTokens(tokenize(pattern)) {
				seen[tok] = true
			}
		}
		for tok := range seen {
			df[tok]++
		}
	}

	idf := make(map[string]float64, len(df))
	for tok, d := range df {
		idf[tok] = math.Log((n+1)/(float64(d)+1)) + 1
	}
	return idf
}

func normalizeTokens(tokens []string) []string {
	out := make([]string, len(tokens))
	for i, t := range tokens {
		out[i] = normalizeToken(t)
	}
	return out
}
