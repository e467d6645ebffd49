package search

import (
	"context"
	"sort"
	"strings"
	"sync"
)

// MemoryIndex is a naive keyword index used as a test double. Ranking is by
// term-occurrence count, which is enough to exercise the retrieval flow.
type MemoryIndex struct {
	mu   sync.RWMutex
	docs map[string]Document
}

func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{docs: make(map[string]Document)}
}

func (m *MemoryIndex) Upsert(ctx context.Context, doc Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[doc.ID] = doc
	return nil
}

func (m *MemoryIndex) Search(ctx context.Context, query string, top int) ([]Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	terms := strings.Fields(strings.ToLower(query))
	if len(terms) == 0 {
		return nil, nil
	}

	type scored struct {
		doc   Document
		score int
	}

	m.mu.RLock()
	var hits []scored
	for _, doc := range m.docs {
		haystack := strings.ToLower(doc.Filename + " " + doc.Text)
		score := 0
		for _, term := range terms {
			score += strings.Count(haystack, term)
		}
		if score > 0 {
			hits = append(hits, scored{doc: doc, score: score})
		}
	}
	m.mu.RUnlock()

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].score > hits[j].score })
	if top > 0 && len(hits) > top {
		hits = hits[:top]
	}
	docs := make([]Document, 0, len(hits))
	for _, h := range hits {
		docs = append(docs, h.doc)
	}
	return docs, nil
}

var _ Index = (*MemoryIndex)(nil)
