package snippet

import (
	"sort"
	"strings"
	"unicode"
)

const (
	DefaultMaxLength = 200
	DefaultMarker    = "**"
)

// Extractor pulls the densest query-relevant window out of a document and
// highlights the query terms in it.
type Extractor struct {
	maxLength int
	marker    string
}

func New(maxLength int, marker string) *Extractor {
	if maxLength <= 0 {
		maxLength = DefaultMaxLength
	}
	if marker == "" {
		marker = DefaultMarker
	}
	return &Extractor{maxLength: maxLength, marker: marker}
}

// Extract returns a snippet for the document. Only query words longer than
// two characters participate. With no text to quote, a stand-in built from
// the title is returned; with text but no term hits, the leading window.
func (e *Extractor) Extract(text, title string, queryWords []string) string {
	if strings.TrimSpace(text) == "" {
		if title == "" {
			return ""
		}
		return "Information about " + title + "."
	}

	terms := make([]string, 0, len(queryWords))
	for _, w := range queryWords {
		w = strings.ToLower(strings.TrimSpace(w))
		if len(w) > 2 {
			terms = append(terms, w)
		}
	}

	lower := strings.ToLower(text)
	positions := make(map[string][]int, len(terms))
	total := 0
	for _, term := range terms {
		occ := findOccurrences(lower, term)
		if len(occ) > 0 {
			positions[term] = occ
			total += len(occ)
		}
	}

	if total == 0 {
		return e.leadingWindow(text)
	}

	start, end := e.bestWindow(lower, positions)
	start, end = snapToWhitespace(text, start, end)

	out := e.highlight(text[start:end], terms)
	if start > 0 {
		out = "..." + out
	}
	if end < len(text) {
		out += "..."
	}
	return out
}

// leadingWindow is the fallback snippet: the first maxLength characters cut
// at a whitespace boundary.
func (e *Extractor) leadingWindow(text string) string {
	if len(text) <= e.maxLength {
		return text
	}
	cut := e.maxLength
	for cut > 0 && !isSpaceByte(text[cut]) {
		cut--
	}
	if cut == 0 {
		cut = e.maxLength
	}
	return strings.TrimRight(text[:cut], " \t\n\r") + "..."
}

// bestWindow scores a maxLength window anchored at every term occurrence:
// distinct terms present times occurrence density. Earliest window wins
// ties.
func (e *Extractor) bestWindow(lower string, positions map[string][]int) (int, int) {
	bestScore := -1.0
	bestStart := 0

	for _, occ := range positions {
		for _, pos := range occ {
			start := pos
			if start > len(lower)-e.maxLength {
				start = len(lower) - e.maxLength
			}
			if start < 0 {
				start = 0
			}
			end := start + e.maxLength
			if end > len(lower) {
				end = len(lower)
			}

			score := windowScore(positions, start, end, e.maxLength)
			if score > bestScore || (score == bestScore && start < bestStart) {
				bestScore = score
				bestStart = start
			}
		}
	}

	end := bestStart + e.maxLength
	if end > len(lower) {
		end = len(lower)
	}
	return bestStart, end
}

func windowScore(positions map[string][]int, start, end, maxLength int) float64 {
	distinct := 0
	occurrences := 0
	for _, occ := range positions {
		in := 0
		for _, pos := range occ {
			if pos >= start && pos < end {
				in++
			}
		}
		if in > 0 {
			distinct++
			occurrences += in
		}
	}
	density := float64(occurrences) / (float64(maxLength) / 100)
	return float64(distinct) * density
}

// snapToWhitespace widens [start, end) so it never splits a word.
func snapToWhitespace(text string, start, end int) (int, int) {
	for start > 0 && !isSpaceByte(text[start-1]) {
		start--
	}
	for end < len(text) && !isSpaceByte(text[end]) {
		end++
	}
	return start, end
}

// highlight wraps whole-word occurrences of each term with the marker,
// keeping the original casing of the matched text.
func (e *Extractor) highlight(window string, terms []string) string {
	lower := strings.ToLower(window)

	type span struct{ start, end int }
	var spans []span
	for _, term := range terms {
		from := 0
		for {
			i := strings.Index(lower[from:], term)
			if i < 0 {
				break
			}
			start := from + i
			end := start + len(term)
			if isWordBoundary(lower, start, end) {
				spans = append(spans, span{start, end})
			}
			from = end
		}
	}
	if len(spans) == 0 {
		return window
	}
	sort.Slice(spans, func(i, j int) bool { return spans[i].start < spans[j].start })

	// Merge overlaps so nested terms never double-mark.
	merged := spans[:0]
	for _, s := range spans {
		if n := len(merged); n > 0 && s.start < merged[n-1].end {
			if s.end > merged[n-1].end {
				merged[n-1].end = s.end
			}
			continue
		}
		merged = append(merged, s)
	}

	var b strings.Builder
	prev := 0
	for _, s := range merged {
		b.WriteString(window[prev:s.start])
		b.WriteString(e.marker)
		b.WriteString(window[s.start:s.end])
		b.WriteString(e.marker)
		prev = s.end
	}
	b.WriteString(window[prev:])
	return b.String()
}

// findOccurrences lists the byte offsets of whole-word matches of term.
func findOccurrences(lower, term string) []int {
	var out []int
	from := 0
	for {
		i := strings.Index(lower[from:], term)
		if i < 0 {
			return out
		}
		start := from + i
		end := start + len(term)
		if isWordBoundary(lower, start, end) {
			out = append(out, start)
		}
		from = start + 1
	}
}

func isWordBoundary(s string, start, end int) bool {
	if start > 0 && isWordByte(s[start-1]) {
		return false
	}
	if end < len(s) && isWordByte(s[end]) {
		return false
	}
	return true
}

func isWordByte(b byte) bool {
	r := rune(b)
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

func isSpaceByte(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}
