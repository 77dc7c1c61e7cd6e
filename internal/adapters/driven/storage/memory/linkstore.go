package memory

import (
	"context"
	"sync"

	"github.com/custodia-labs/bookingest/internal/core/domain"
	"github.com/custodia-labs/bookingest/internal/core/ports/driven"
)

// Ensure RelatedLinkStore implements the interface.
var _ driven.RelatedLinkStore = (*RelatedLinkStore)(nil)

// RelatedLinkStore is an in-memory implementation of driven.RelatedLinkStore.
type RelatedLinkStore struct {
	mu     sync.RWMutex
	links  []domain.RelatedLink
	nextID int64
}

// NewRelatedLinkStore creates a new in-memory related link store.
func NewRelatedLinkStore() *RelatedLinkStore {
	return &RelatedLinkStore{}
}

// Add appends a link and assigns its ID.
func (s *RelatedLinkStore) Add(_ context.Context, link *domain.RelatedLink) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	link.ID = s.nextID
	s.links = append(s.links, *link)
	return nil
}

// ListByVolume returns a volume's links in insertion order.
func (s *RelatedLinkStore) ListByVolume(_ context.Context, volumePID string) ([]domain.RelatedLink, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []domain.RelatedLink
	for _, l := range s.links {
		if l.VolumePID == volumePID {
			result = append(result, l)
		}
	}
	return result, nil
}
