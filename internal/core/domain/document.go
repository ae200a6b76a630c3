package domain

import (
	"fmt"
	"hash/fnv"
	"regexp"
	"strings"
)

// keyPrefixRunes is the number of normalised content runes hashed into the
// identity key. Two chunks from the same partition sharing this prefix are
// treated as the same document.
const keyPrefixRunes = 120

// Document represents a single unit of safety-guidance text returned by
// retrieval. It is immutable once retrieved: content has already been
// cleaned (markup stripped, whitespace collapsed) by the retriever.
type Document struct {
	// PartitionID is the corpus partition this document came from.
	PartitionID string `json:"partition_id"`

	// Source is the label of the originating guidance document.
	Source string `json:"source"`

	// Section is the section or hierarchy label within the source.
	Section string `json:"section"`

	// Content is the cleaned text content.
	Content string `json:"content"`

	// Score is the relevance score assigned by retrieval, in [0,1].
	Score float64 `json:"score"`
}

// Key returns the identity key used for dedup across retrieval rounds.
// It combines the partition id with a hash of the leading content runes,
// so the same chunk retrieved twice collapses to one entry.
func (d Document) Key() string {
	prefix := []rune(d.Content)
	if len(prefix) > keyPrefixRunes {
		prefix = prefix[:keyPrefixRunes]
	}

	h := fnv.New64a()
	h.Write([]byte(d.PartitionID))
	h.Write([]byte{0})
	h.Write([]byte(string(prefix)))

	return fmt.Sprintf("%s:%016x", d.PartitionID, h.Sum64())
}

var (
	tagPattern        = regexp.MustCompile(`<[^>]+>`)
	whitespacePattern = regexp.MustCompile(`\s+`)
)

// CleanContent strips markup tags and collapses runs of whitespace.
// Applied to every document before it leaves the retriever, and to raw
// content before identity hashing so dedup is stable across sources.
func CleanContent(text string) string {
	text = tagPattern.ReplaceAllString(text, " ")
	text = whitespacePattern.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

// DedupDocuments returns docs with identity-key duplicates removed,
// preserving first-seen order.
func DedupDocuments(docs []Document) []Document {
	seen := make(map[string]bool, len(docs))
	out := make([]Document, 0, len(docs))

	for _, d := range docs {
		key := d.Key()
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, d)
	}

	return out
}
