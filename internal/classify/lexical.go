package classify

import (
	"sort"
	"strings"

	"github.com/ppiankov/paperdigest/internal/model"
)

type keywordEntry struct {
	keyword  string
	category string
}

// Lexical matches papers against a keyword table by substring containment
type Lexical struct {
	entries []keywordEntry
}

// NewLexical builds a matcher from category -> keywords. Keywords are
// lowercased; a keyword listed under several categories belongs to the
// alphabetically first one.
func NewLexical(table map[string][]string) *Lexical {
	categories := make([]string, 0, len(table))
	for c := range table {
		categories = append(categories, c)
	}
	sort.Strings(categories)

	seen := make(map[string]bool)
	var entries []keywordEntry
	for _, c := range categories {
		for _, kw := range table[c] {
			kw = strings.ToLower(strings.TrimSpace(kw))
			if kw == "" || seen[kw] {
				continue
			}
			seen[kw] = true
			entries = append(entries, keywordEntry{keyword: kw, category: c})
		}
	}

	// Longest keyword first; equal lengths in lexical order
	sort.Slice(entries, func(i, j int) bool {
		if len(entries[i].keyword) != len(entries[j].keyword) {
			return len(entries[i].keyword) > len(entries[j].keyword)
		}
		return entries[i].keyword < entries[j].keyword
	})

	return &Lexical{entries: entries}
}

// Match returns the winning keyword and its category
func (l *Lexical) Match(p model.Paper) (keyword, category string, ok bool) {
	text := strings.ToLower(p.Title + " " + p.Abstract)
	for _, e := range l.entries {
		if strings.Contains(text, e.keyword) {
			return e.keyword, e.category, true
		}
	}
	return "", "", false
}
