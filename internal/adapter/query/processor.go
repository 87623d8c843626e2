package query

import (
	"log/slog"
	"strings"

	"scour/internal/adapter/analyzer"
	"scour/internal/domain"
)

// Options toggles the optional stages of query processing per request.
type Options struct {
	SpellCheck bool
	Expand     bool
}

// Processed is a fully processed query plus the normalized term split the
// ranking layer needs: base terms keep full weight, added terms come from
// expansion and are down-weighted. Corrected is the cleaned query after
// spell correction, before expansion.
type Processed struct {
	domain.ProcessedQuery
	Corrected  string
	BaseTerms  []string
	AddedTerms []string
}

// Processor runs the query pipeline: validate, clean, spell-check, expand,
// normalize. Each stage's outcome is retained on the result.
type Processor struct {
	validator  *Validator
	speller    *SpellChecker
	expander   *Expander
	normalizer *analyzer.Normalizer
	logger     *slog.Logger
}

func NewProcessor(validator *Validator, speller *SpellChecker, expander *Expander, normalizer *analyzer.Normalizer, logger *slog.Logger) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{
		validator:  validator,
		speller:    speller,
		expander:   expander,
		normalizer: normalizer,
		logger:     logger,
	}
}

// Process takes a raw query through every enabled stage. A validation
// failure is terminal and returned as the error; every other degradation
// (nothing to correct, nothing to expand) just leaves its stage empty.
func (p *Processor) Process(raw string, opts Options) (Processed, error) {
	if err := p.validator.Validate(raw); err != nil {
		return Processed{}, err
	}

	res := Processed{ProcessedQuery: domain.ProcessedQuery{Raw: raw}}
	res.Cleaned = Clean(raw)
	current := res.Cleaned

	if opts.SpellCheck && p.speller != nil {
		corrected, corrections := p.speller.CorrectQuery(current)
		if len(corrections) > 0 {
			p.logger.Debug("spell-corrected query",
				"from", current, "to", corrected, "corrections", len(corrections))
			current = corrected
			res.Corrections = corrections
		}
	}
	res.Corrected = current
	res.BaseTerms = p.normalizer.Normalize(current)

	if opts.Expand && p.expander != nil {
		expanded, expansions, factor := p.expander.Expand(current)
		if len(expansions) > 0 {
			res.Expansions = expansions
			res.ExpansionFactor = factor
		}
		if expanded != current {
			addedWords := strings.TrimSpace(strings.TrimPrefix(expanded, current))
			res.AddedTerms = p.normalizer.Normalize(addedWords)
			current = expanded
		}
	}

	res.Final = current
	res.Terms = append(append([]string(nil), res.BaseTerms...), res.AddedTerms...)
	return res, nil
}
