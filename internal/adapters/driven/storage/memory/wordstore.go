package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/custodia-labs/bookingest/internal/core/domain"
	"github.com/custodia-labs/bookingest/internal/core/ports/driven"
)

// Ensure WordStore implements the interface.
var _ driven.WordStore = (*WordStore)(nil)

// WordStore is an in-memory implementation of driven.WordStore.
type WordStore struct {
	mu    sync.RWMutex
	words map[string][]domain.Word
}

// NewWordStore creates a new in-memory word store.
func NewWordStore() *WordStore {
	return &WordStore{
		words: make(map[string][]domain.Word),
	}
}

// ReplaceForPage replaces a page's words.
func (s *WordStore) ReplaceForPage(_ context.Context, pagePID string, words []domain.Word) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(words) == 0 {
		delete(s.words, pagePID)
		return nil
	}
	s.words[pagePID] = slices.Clone(words)
	return nil
}

// ListByPage returns a page's words in order.
func (s *WordStore) ListByPage(_ context.Context, pagePID string) ([]domain.Word, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	words := slices.Clone(s.words[pagePID])
	slices.SortStableFunc(words, func(a, b domain.Word) int { return a.Order - b.Order })
	return words, nil
}
