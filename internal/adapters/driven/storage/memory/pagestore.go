package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/custodia-labs/bookingest/internal/core/domain"
	"github.com/custodia-labs/bookingest/internal/core/ports/driven"
)

// Ensure PageStore implements the interface.
var _ driven.PageStore = (*PageStore)(nil)

// PageStore is an in-memory implementation of driven.PageStore.
type PageStore struct {
	mu    sync.RWMutex
	pages map[string]domain.Page
}

// NewPageStore creates a new in-memory page store.
func NewPageStore() *PageStore {
	return &PageStore{
		pages: make(map[string]domain.Page),
	}
}

// SaveAll stores or replaces pages.
func (s *PageStore) SaveAll(_ context.Context, pages []domain.Page) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range pages {
		s.pages[p.PID] = p
	}
	return nil
}

// Get retrieves a page by pid.
func (s *PageStore) Get(_ context.Context, pid string) (*domain.Page, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.pages[pid]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &p, nil
}

// ListByVolume returns a volume's pages ordered by position.
func (s *PageStore) ListByVolume(_ context.Context, volumePID string) ([]domain.Page, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []domain.Page
	for _, p := range s.pages {
		if p.VolumePID == volumePID {
			result = append(result, p)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Position < result[j].Position })
	return result, nil
}
