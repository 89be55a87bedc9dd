package classifier

import "testing"

func TestClassifyExactPhrase(t *testing.T) {
	cats := []Category{
		{ID: "filesystem", Patterns: []string{"list files", "show directory contents"}},
		{ID: "weather", Patterns: []string{"what is the weather", "forecast for today"}},
	}

	result := Classify("list files in this folder", cats, 0)
	if !result.Matched {
		t.Fatalf("expected a match, got none")
	}
	if result.CategoryID != "filesystem" {
		t.Fatalf("expected filesystem, got %q", result.CategoryID)
	}
}

func TestClassifySynonymAndStem(t *testing.T) {
	cats := []Category{
		{ID: "filesystem", Patterns: []string{"delete a file", "remove directory"}},
		{ID: "scheduling", Patterns: []string{"schedule a reminder", "book an appointment"}},
	}

	result := Classify("erasing the old document", cats, 0)
	if !result.Matched {
		t.Fatalf("expected a match via synonym+stem normalization, got none")
	}
	if result.CategoryID != "filesystem" {
		t.Fatalf("expected filesystem, got %q", result.CategoryID)
	}
}

func TestClassifyNoMatchBelowThreshold(t *testing.T) {
	cats := []Category{
		{ID: "filesystem", Patterns: []string{"list files", "show directory contents"}},
		{ID: "weather", Patterns: []string{"what is the weather", "forecast for today"}},
	}

	result := Classify("tell me a joke about spaceships", cats, 0)
	if result.Matched {
		t.Fatalf("expected no match, got %q at %f", result.CategoryID, result.Confidence)
	}
}

func TestClassifyEmptyCategories(t *testing.T) {
	result := Classify("anything", nil, 0)
	if result.Matched {
		t.Fatalf("expected no match against empty category set")
	}
}

func TestClassifyCustomThreshold(t *testing.T) {
	cats := []Category{
		{ID: "filesystem", Patterns: []string{"list files"}},
	}
	result := Classify("list", cats, 0.99)
	if result.Matched {
		t.Fatalf("expected a near-impossible threshold to reject the match")
	}
}

func TestTokenizeDropsStopWords(t *testing.T) {
	toks := tokenize("what is the time for me")
	for _, tok := range toks {
		if tok == "is" || tok == "the" || tok == "for" || tok == "me" {
			t.Fatalf("stop word %q leaked into tokens: %v", tok, toks)
		}
	}
}

func TestStemIng(t *testing.T) {
	if got := stem("running"); got != "run" {
		t.Fatalf("stem(running) = %q, want run", got)
	}
	if got := stem("scheduling"); got != "schedul" {
		t.Fatalf("stem(scheduling) = %q, want schedul", got)
	}
}

func TestCanonicalSynonym(t *testing.T) {
	if got := canonicalSynonym("erase"); got != "delete" {
		t.Fatalf("canonicalSynonym(erase) = %q, want delete", got)
	}
	if got := canonicalSynonym("unrelated"); got != "unrelated" {
		t.Fatalf("canonicalSynonym(unrelated) = %q, want unchanged", got)
	}
}
