package memory

import (
	"context"
	"maps"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/custodia-labs/bookingest/internal/core/domain"
	"github.com/custodia-labs/bookingest/internal/core/ports/driven"
)

// Ensure VolumeStore implements the interface.
var _ driven.VolumeStore = (*VolumeStore)(nil)

// VolumeStore is an in-memory implementation of driven.VolumeStore.
type VolumeStore struct {
	mu      sync.RWMutex
	volumes map[string]domain.Volume
}

// NewVolumeStore creates a new in-memory volume store.
func NewVolumeStore() *VolumeStore {
	return &VolumeStore{
		volumes: make(map[string]domain.Volume),
	}
}

// Get retrieves a volume by pid.
func (s *VolumeStore) Get(_ context.Context, pid string) (*domain.Volume, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	vol, ok := s.volumes[pid]
	if !ok {
		return nil, domain.ErrNotFound
	}
	c := cloneVolume(vol)
	return &c, nil
}

// GetOrCreate retrieves a volume by pid, creating it if absent.
func (s *VolumeStore) GetOrCreate(_ context.Context, pid string) (*domain.Volume, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if vol, ok := s.volumes[pid]; ok {
		c := cloneVolume(vol)
		return &c, false, nil
	}
	now := time.Now()
	vol := domain.Volume{PID: pid, CreatedAt: now, UpdatedAt: now}
	s.volumes[pid] = vol
	c := cloneVolume(vol)
	return &c, true, nil
}

// Save stores or updates a volume. Collections are left untouched.
func (s *VolumeStore) Save(_ context.Context, vol *domain.Volume) error {
	if vol == nil || vol.PID == "" {
		return domain.ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	c := cloneVolume(*vol)
	if existing, ok := s.volumes[vol.PID]; ok {
		c.Collections = existing.Collections
		c.CreatedAt = existing.CreatedAt
	} else {
		c.Collections = nil
		if c.CreatedAt.IsZero() {
			c.CreatedAt = time.Now()
		}
	}
	c.UpdatedAt = time.Now()
	s.volumes[vol.PID] = c
	return nil
}

// SetCollections replaces a saved volume's collections.
func (s *VolumeStore) SetCollections(_ context.Context, pid string, collections []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	vol, ok := s.volumes[pid]
	if !ok {
		return domain.ErrNotFound
	}
	vol.Collections = slices.Clone(collections)
	s.volumes[pid] = vol
	return nil
}

// List returns all volumes ordered by pid.
func (s *VolumeStore) List(_ context.Context) ([]domain.Volume, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]domain.Volume, 0, len(s.volumes))
	for _, vol := range s.volumes {
		result = append(result, cloneVolume(vol))
	}
	sort.Slice(result, func(i, j int) bool { return result[i].PID < result[j].PID })
	return result, nil
}

func cloneVolume(v domain.Volume) domain.Volume {
	v.Fields = maps.Clone(v.Fields)
	v.Metadata = slices.Clone(v.Metadata)
	v.Collections = slices.Clone(v.Collections)
	return v
}
