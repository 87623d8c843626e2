package query

import (
	"fmt"
	"strings"
	"unicode"

	"scour/internal/domain"
)

// Validation reason codes, stable across the API surface.
const (
	CodeEmptyQuery   = "EMPTY_QUERY"
	CodeTooLong      = "QUERY_TOO_LONG"
	CodeInvalidChars = "INVALID_CHARACTERS"
)

const DefaultMaxQueryLength = 200

// allowedPunct is the punctuation a query may carry beyond letters, digits
// and whitespace.
const allowedPunct = `.,-?!"':;`

// ValidationError is a terminal verdict on a raw query. It carries the
// machine-readable code callers switch on.
type ValidationError struct {
	Code     string
	Message  string
	BadChars []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid query (%s): %s", e.Code, e.Message)
}

// Result converts the error into the wire-facing validation record.
func (e *ValidationError) Result() domain.ValidationResult {
	if e == nil {
		return domain.ValidationResult{Valid: true}
	}
	return domain.ValidationResult{
		Valid:    false,
		Code:     e.Code,
		Message:  e.Message,
		BadChars: e.BadChars,
	}
}

type Validator struct {
	maxLen int
}

func NewValidator(maxLen int) *Validator {
	if maxLen <= 0 {
		maxLen = DefaultMaxQueryLength
	}
	return &Validator{maxLen: maxLen}
}

// Validate checks a raw query before any other processing. A nil return
// means the query may proceed to cleaning.
func (v *Validator) Validate(raw string) *ValidationError {
	if strings.TrimSpace(raw) == "" {
		return &ValidationError{
			Code:    CodeEmptyQuery,
			Message: "query must not be empty",
		}
	}
	if len(raw) > v.maxLen {
		return &ValidationError{
			Code:    CodeTooLong,
			Message: fmt.Sprintf("query exceeds maximum length of %d characters", v.maxLen),
		}
	}

	var bad []string
	seen := make(map[rune]struct{})
	for _, r := range raw {
		if allowedRune(r) {
			continue
		}
		if _, dup := seen[r]; dup {
			continue
		}
		seen[r] = struct{}{}
		bad = append(bad, string(r))
	}
	if len(bad) > 0 {
		return &ValidationError{
			Code:     CodeInvalidChars,
			Message:  fmt.Sprintf("query contains invalid characters: %s", strings.Join(bad, " ")),
			BadChars: bad,
		}
	}
	return nil
}

// allowedRune bounds the query alphabet to ASCII letters and digits plus
// whitespace and basic punctuation.
func allowedRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z':
		return true
	case r >= 'A' && r <= 'Z':
		return true
	case r >= '0' && r <= '9':
		return true
	case unicode.IsSpace(r):
		return true
	default:
		return strings.ContainsRune(allowedPunct, r)
	}
}

// Clean canonicalizes a validated query: lowercase, disallowed runes
// dropped, whitespace collapsed to single spaces, ends trimmed.
func Clean(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range strings.ToLower(raw) {
		if allowedRune(r) {
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}
