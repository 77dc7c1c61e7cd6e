package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/custodia-labs/bookingest/internal/core/domain"
	"github.com/custodia-labs/bookingest/internal/core/ports/driven"
)

// Ensure ImageServerStore implements the interface.
var _ driven.ImageServerStore = (*ImageServerStore)(nil)

// ImageServerStore is an in-memory implementation of driven.ImageServerStore.
type ImageServerStore struct {
	mu      sync.RWMutex
	servers map[int64]domain.ImageServer
	nextID  int64
}

// NewImageServerStore creates a new in-memory image server store.
func NewImageServerStore() *ImageServerStore {
	return &ImageServerStore{
		servers: make(map[int64]domain.ImageServer),
	}
}

// Get retrieves an image server by ID.
func (s *ImageServerStore) Get(_ context.Context, id int64) (*domain.ImageServer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	srv, ok := s.servers[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &srv, nil
}

// Save stores an image server, assigning an ID when zero.
func (s *ImageServerStore) Save(_ context.Context, server *domain.ImageServer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if server.ID == 0 {
		s.nextID++
		server.ID = s.nextID
	} else if server.ID > s.nextID {
		s.nextID = server.ID
	}
	s.servers[server.ID] = *server
	return nil
}

// List returns all image servers ordered by ID.
func (s *ImageServerStore) List(_ context.Context) ([]domain.ImageServer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]domain.ImageServer, 0, len(s.servers))
	for _, srv := range s.servers {
		result = append(result, srv)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}
