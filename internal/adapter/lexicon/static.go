package lexicon

import "strings"

// Entry holds the lexical neighbors of one word: same-meaning synonyms and
// broader or narrower related terms.
type Entry struct {
	Synonyms []string `yaml:"synonyms"`
	Related  []string `yaml:"related"`
}

// Static is an in-process lexical knowledge base. Lookups are exact on the
// lowercased surface form; the table is immutable after construction, so it
// is safe for concurrent readers.
type Static struct {
	entries map[string]Entry
}

// New returns a Static over the built-in English table, with extra merged
// in on top. Extra entries replace built-in ones for the same word.
func New(extra map[string]Entry) *Static {
	entries := builtinEntries()
	for word, entry := range extra {
		entries[strings.ToLower(word)] = entry
	}
	return &Static{entries: entries}
}

func (s *Static) Synonyms(term string) []string {
	return s.entries[strings.ToLower(term)].Synonyms
}

func (s *Static) Related(term string) []string {
	return s.entries[strings.ToLower(term)].Related
}

// Words returns how many words the table covers.
func (s *Static) Words() int {
	return len(s.entries)
}

func builtinEntries() map[string]Entry {
	return map[string]Entry{
		"fast": {
			Synonyms: []string{"quick", "rapid", "speedy", "swift"},
			Related:  []string{"performance", "speed"},
		},
		"quick": {
			Synonyms: []string{"fast", "rapid", "swift"},
			Related:  []string{"speed"},
		},
		"big": {
			Synonyms: []string{"large", "huge", "enormous"},
			Related:  []string{"size", "scale"},
		},
		"small": {
			Synonyms: []string{"tiny", "little", "compact"},
			Related:  []string{"size"},
		},
		"error": {
			Synonyms: []string{"mistake", "fault", "failure"},
			Related:  []string{"bug", "exception", "crash"},
		},
		"bug": {
			Synonyms: []string{"defect", "flaw", "error"},
			Related:  []string{"debugging", "crash"},
		},
		"fix": {
			Synonyms: []string{"repair", "correct", "resolve"},
			Related:  []string{"patch", "workaround"},
		},
		"build": {
			Synonyms: []string{"construct", "create", "make"},
			Related:  []string{"compile", "assemble"},
		},
		"delete": {
			Synonyms: []string{"remove", "erase", "drop"},
			Related:  []string{"cleanup", "purge"},
		},
		"search": {
			Synonyms: []string{"find", "lookup", "query"},
			Related:  []string{"retrieval", "indexing"},
		},
		"find": {
			Synonyms: []string{"locate", "discover", "search"},
			Related:  []string{"lookup"},
		},
		"sort": {
			Synonyms: []string{"order", "arrange", "rank"},
			Related:  []string{"comparison", "ordering"},
		},
		"store": {
			Synonyms: []string{"save", "keep", "persist"},
			Related:  []string{"database", "storage"},
		},
		"database": {
			Synonyms: []string{"datastore", "db"},
			Related:  []string{"storage", "table", "query"},
		},
		"network": {
			Synonyms: []string{"net"},
			Related:  []string{"protocol", "socket", "internet"},
		},
		"computer": {
			Synonyms: []string{"machine", "pc"},
			Related:  []string{"hardware", "processor"},
		},
		"program": {
			Synonyms: []string{"application", "software"},
			Related:  []string{"code", "binary", "executable"},
		},
		"code": {
			Synonyms: []string{"source", "program"},
			Related:  []string{"syntax", "function", "module"},
		},
		"language": {
			Synonyms: []string{"tongue"},
			Related:  []string{"grammar", "syntax", "compiler"},
		},
		"learning": {
			Synonyms: []string{"training", "education"},
			Related:  []string{"model", "knowledge"},
		},
		"machine": {
			Synonyms: []string{"computer", "device"},
			Related:  []string{"hardware", "automation"},
		},
		"algorithm": {
			Synonyms: []string{"procedure", "method"},
			Related:  []string{"complexity", "heuristic"},
		},
		"data": {
			Synonyms: []string{"information"},
			Related:  []string{"dataset", "record", "statistics"},
		},
		"file": {
			Synonyms: []string{"document"},
			Related:  []string{"directory", "filesystem"},
		},
		"document": {
			Synonyms: []string{"file", "record", "text"},
			Related:  []string{"corpus", "page"},
		},
		"text": {
			Synonyms: []string{"content", "prose"},
			Related:  []string{"document", "string"},
		},
		"image": {
			Synonyms: []string{"picture", "photo"},
			Related:  []string{"pixel", "graphic"},
		},
		"test": {
			Synonyms: []string{"check", "verify", "exam"},
			Related:  []string{"assertion", "validation"},
		},
		"run": {
			Synonyms: []string{"execute", "launch", "start"},
			Related:  []string{"process", "runtime"},
		},
		"stop": {
			Synonyms: []string{"halt", "end", "terminate"},
			Related:  []string{"shutdown", "cancel"},
		},
		"user": {
			Synonyms: []string{"person", "account"},
			Related:  []string{"login", "profile", "session"},
		},
		"server": {
			Synonyms: []string{"host", "backend"},
			Related:  []string{"client", "service", "daemon"},
		},
		"client": {
			Synonyms: []string{"frontend", "consumer"},
			Related:  []string{"server", "browser"},
		},
		"web": {
			Synonyms: []string{"www", "internet"},
			Related:  []string{"browser", "http", "site"},
		},
		"memory": {
			Synonyms: []string{"ram", "storage"},
			Related:  []string{"cache", "heap", "allocation"},
		},
		"cache": {
			Synonyms: []string{"buffer"},
			Related:  []string{"memory", "eviction", "invalidation"},
		},
		"security": {
			Synonyms: []string{"safety", "protection"},
			Related:  []string{"encryption", "authentication", "vulnerability"},
		},
		"password": {
			Synonyms: []string{"passphrase", "credential"},
			Related:  []string{"authentication", "login"},
		},
		"question": {
			Synonyms: []string{"query", "inquiry"},
			Related:  []string{"answer", "faq"},
		},
		"answer": {
			Synonyms: []string{"reply", "response", "solution"},
			Related:  []string{"question"},
		},
		"book": {
			Synonyms: []string{"volume", "publication"},
			Related:  []string{"chapter", "author", "library"},
		},
		"music": {
			Synonyms: []string{"audio", "sound"},
			Related:  []string{"song", "melody", "instrument"},
		},
		"car": {
			Synonyms: []string{"automobile", "vehicle"},
			Related:  []string{"engine", "driving"},
		},
		"city": {
			Synonyms: []string{"town", "metropolis"},
			Related:  []string{"urban", "municipality"},
		},
		"money": {
			Synonyms: []string{"cash", "currency"},
			Related:  []string{"finance", "payment", "price"},
		},
		"work": {
			Synonyms: []string{"job", "labor", "task"},
			Related:  []string{"career", "project"},
		},
		"good": {
			Synonyms: []string{"great", "excellent", "fine"},
			Related:  []string{"quality"},
		},
		"bad": {
			Synonyms: []string{"poor", "terrible", "awful"},
			Related:  []string{"quality"},
		},
		"new": {
			Synonyms: []string{"recent", "fresh", "modern"},
			Related:  []string{"latest", "novelty"},
		},
		"old": {
			Synonyms: []string{"ancient", "aged", "legacy"},
			Related:  []string{"history", "deprecated"},
		},
	}
}
