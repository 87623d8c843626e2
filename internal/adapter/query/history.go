package query

import (
	"strings"
	"sync"
)

const DefaultHistorySize = 100

// History is a bounded, concurrency-safe record of recent queries, newest
// first. Re-recording an existing query moves it to the front instead of
// duplicating it.
type History struct {
	mu      sync.Mutex
	entries []string
	max     int
}

func NewHistory(max int) *History {
	if max <= 0 {
		max = DefaultHistorySize
	}
	return &History{max: max}
}

func (h *History) Record(query string) {
	query = strings.TrimSpace(strings.ToLower(query))
	if query == "" {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	for i, existing := range h.entries {
		if existing == query {
			copy(h.entries[1:i+1], h.entries[:i])
			h.entries[0] = query
			return
		}
	}

	h.entries = append(h.entries, "")
	copy(h.entries[1:], h.entries)
	h.entries[0] = query
	if len(h.entries) > h.max {
		h.entries = h.entries[:h.max]
	}
}

// Recent returns a copy of the recorded queries, newest first.
func (h *History) Recent() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.entries...)
}

func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.entries)
}
