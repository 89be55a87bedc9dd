package classifier

import "strings"

// stopWords are function words filtered out of both input and category
// corpus tokens. Action verbs are deliberately kept — they carry intent.
var stopWords = map[string]bool{
	"a": true, "an": true, "the": true, "is": true, "are": true, "was": true,
	"were": true, "be": true, "been": true, "being": true, "to": true,
	"of": true, "in": true, "on": true, "at": true, "for": true, "with": true,
	"by": true, "and": true, "or": true, "but": true, "if": true, "so": true,
	"it": true, "this": true, "that": true, "these": true, "those": true,
	"my": true, "your": true, "i": true, "you": true, "me": true, "do": true,
	"does": true, "did": true, "can": true, "could": true, "would": true,
	"should": true, "will": true, "shall": true, "as": true, "from": true,
	"about": true, "into": true, "up": true, "out": true, "not": true,
}

// tokenize lowercases, replaces non-alphanumeric runs with spaces, drops
// stop words and tokens of length <= 1.
func tokenize(s string) []string {
	var sb strings.Builder
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			sb.WriteRune(r)
		} else {
			sb.WriteRune(' ')
		}
	}

	var out []string
	for _, tok := range strings.Fields(sb.String()) {
		if len(tok) <= 1 {
			continue
		}
		if stopWords[tok] {
			continue
		}
		out = append(out, tok)
	}
	return out
}

// normalizeToken applies synonym canonicalization then stemming, so two
// tokens that mean the same thing compare equal.
func normalizeToken(tok string) string {
	return stem(canonicalSynonym(tok))
}
