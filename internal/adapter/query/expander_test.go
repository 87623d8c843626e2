package query

import (
	"strings"
	"testing"

	"scour/internal/adapter/analyzer"
	"scour/internal/adapter/lexicon"
)

func newTestExpander() *Expander {
	lex := lexicon.New(map[string]lexicon.Entry{
		"fast": {
			Synonyms: []string{"quick", "rapid", "speedy", "swift"},
			Related:  []string{"performance", "speed"},
		},
		"car": {
			Synonyms: []string{"automobile", "vehicle"},
			Related:  []string{"engine", "driving"},
		},
		"odd": {
			Synonyms: []string{"so", "ox", "very odd thing"},
			Related:  []string{"odd"},
		},
	})
	return NewExpander(lex, analyzer.NewNormalizer(0, 0, true), 0, 0)
}

func TestExpander_AppendsNewTerms(t *testing.T) {
	e := newTestExpander()

	expanded, expansions, factor := e.Expand("fast car")
	if !strings.HasPrefix(expanded, "fast car ") {
		t.Fatalf("original query must stay in front, got %q", expanded)
	}
	if len(expansions) != 2 {
		t.Fatalf("expected expansions for both terms, got %+v", expansions)
	}

	// Synonyms cap at three even though the lexicon has four for fast.
	if len(expansions[0].Synonyms) != 3 {
		t.Errorf("synonyms for fast = %v, want 3", expansions[0].Synonyms)
	}
	for _, w := range []string{"quick", "rapid", "speedy", "performance", "automobile", "engine"} {
		if !strings.Contains(expanded, w) {
			t.Errorf("expanded query %q missing %q", expanded, w)
		}
	}
	if strings.Contains(expanded, "swift") {
		t.Errorf("fourth synonym should be capped away, got %q", expanded)
	}

	origCount := 2
	addedCount := len(strings.Fields(expanded)) - origCount
	wantFactor := float64(origCount+addedCount) / float64(origCount)
	if factor != wantFactor {
		t.Errorf("factor = %v, want %v", factor, wantFactor)
	}
}

func TestExpander_SkipsStopwordsAndShortTerms(t *testing.T) {
	e := newTestExpander()

	// "the" is a stopword; "odd" only has unusable expansions: two-char
	// words, a multiword phrase and the term itself.
	expanded, expansions, _ := e.Expand("the odd")
	if expanded != "the odd" {
		t.Errorf("expanded = %q, want unchanged", expanded)
	}
	if len(expansions) != 0 {
		t.Errorf("expected no usable expansions, got %+v", expansions)
	}
}

func TestExpander_NoDuplicateAppends(t *testing.T) {
	e := newTestExpander()

	// "quick" is already in the query, so fast's first synonym must not be
	// appended again.
	expanded, _, _ := e.Expand("fast quick")
	if strings.Count(expanded, "quick") != 1 {
		t.Errorf("duplicate append in %q", expanded)
	}
}

func TestExpander_EmptyQuery(t *testing.T) {
	e := newTestExpander()

	expanded, expansions, factor := e.Expand("")
	if expanded != "" || expansions != nil || factor != 0 {
		t.Errorf("empty query: got %q, %v, %v", expanded, expansions, factor)
	}
}
