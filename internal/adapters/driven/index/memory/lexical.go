package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"unicode"

	"github.com/hardhat-labs/girder-cli/internal/core/ports/driven"
)

// Ensure LexicalIndex implements the interface.
var _ driven.LexicalIndex = (*LexicalIndex)(nil)

// LexicalIndex ranks documents by query term overlap. Rank order is the
// only output signal; scores never leave the index.
type LexicalIndex struct {
	mu    sync.RWMutex
	ids   []string
	terms map[string]map[string]bool
}

// NewLexicalIndex creates an empty lexical index.
func NewLexicalIndex() *LexicalIndex {
	return &LexicalIndex{
		terms: make(map[string]map[string]bool),
	}
}

// Add indexes a document's text. Re-adding an id replaces its terms.
func (idx *LexicalIndex) Add(id, text string) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	if _, exists := idx.terms[id]; !exists {
		idx.ids = append(idx.ids, id)
	}
	idx.terms[id] = termSet(text)
}

// Len returns the number of indexed documents.
func (idx *LexicalIndex) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.terms)
}

// Rank returns up to k document ids ordered by term overlap with the
// query, best first. Documents with zero overlap are excluded. Ties
// break on insertion order so ranking is stable.
func (idx *LexicalIndex) Rank(_ context.Context, query string, k int) ([]string, error) {
	queryTerms := termSet(query)
	if len(queryTerms) == 0 {
		return nil, nil
	}

	idx.mu.RLock()
	defer idx.mu.RUnlock()

	type ranked struct {
		id      string
		overlap int
		order   int
	}

	var matches []ranked
	for order, id := range idx.ids {
		overlap := 0
		for term := range queryTerms {
			if idx.terms[id][term] {
				overlap++
			}
		}
		if overlap > 0 {
			matches = append(matches, ranked{id: id, overlap: overlap, order: order})
		}
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].overlap != matches[j].overlap {
			return matches[i].overlap > matches[j].overlap
		}
		return matches[i].order < matches[j].order
	})

	if k < len(matches) {
		matches = matches[:k]
	}

	ids := make([]string, len(matches))
	for i, m := range matches {
		ids[i] = m.id
	}
	return ids, nil
}

// Close releases resources.
func (idx *LexicalIndex) Close() error {
	return nil
}

// termSet lowercases and splits text into its unique word terms.
func termSet(text string) map[string]bool {
	terms := make(map[string]bool)
	for _, word := range strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	}) {
		if len(word) > 1 {
			terms[word] = true
		}
	}
	return terms
}
