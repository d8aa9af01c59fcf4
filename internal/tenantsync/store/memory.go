package store

import (
	"context"
	"sort"
	"sync"

	"gazetteer/internal/tenantsync/models"
	id "gazetteer/pkg/domain"
	"gazetteer/pkg/platform/sentinel"
)

type replicaKey struct {
	tenantID id.TenantID
	localID  id.UnitID
}

// InMemoryReplicaStore backs unit tests and small deployments.
type InMemoryReplicaStore struct {
	mu       sync.RWMutex
	replicas map[replicaKey]*models.TenantReplicaUnit
	nextIDs  map[id.TenantID]id.UnitID
	seq      int64
	order    map[replicaKey]int64
}

func NewInMemoryReplicaStore() *InMemoryReplicaStore {
	return &InMemoryReplicaStore{
		replicas: make(map[replicaKey]*models.TenantReplicaUnit),
		nextIDs:  make(map[id.TenantID]id.UnitID),
		order:    make(map[replicaKey]int64),
	}
}

func (s *InMemoryReplicaStore) NextID(_ context.Context, tenantID id.TenantID) (id.UnitID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextIDs[tenantID]++
	return s.nextIDs[tenantID], nil
}

func (s *InMemoryReplicaStore) Create(_ context.Context, replica *models.TenantReplicaUnit) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := replicaKey{replica.TenantID, replica.ID}
	if _, exists := s.replicas[key]; exists {
		return sentinel.ErrConflict
	}
	if replica.IsOfficial {
		for _, existing := range s.replicas {
			if existing.TenantID == replica.TenantID &&
				existing.CountryCode == replica.CountryCode &&
				existing.IsOfficial &&
				existing.ExternalUnitID == replica.ExternalUnitID {
				return sentinel.ErrConflict
			}
		}
	}
	clone := *replica
	s.replicas[key] = &clone
	s.seq++
	s.order[key] = s.seq
	return nil
}

func (s *InMemoryReplicaStore) FindByID(_ context.Context, tenantID id.TenantID, localID id.UnitID) (*models.TenantReplicaUnit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	replica, ok := s.replicas[replicaKey{tenantID, localID}]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	clone := *replica
	return &clone, nil
}

func (s *InMemoryReplicaStore) FindByExternalID(_ context.Context, tenantID id.TenantID, country id.CountryCode, externalID id.UnitID) (*models.TenantReplicaUnit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, replica := range s.replicas {
		if replica.TenantID == tenantID && replica.CountryCode == country &&
			replica.IsOfficial && replica.ExternalUnitID == externalID {
			clone := *replica
			return &clone, nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemoryReplicaStore) Update(_ context.Context, replica *models.TenantReplicaUnit) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := replicaKey{replica.TenantID, replica.ID}
	if _, exists := s.replicas[key]; !exists {
		return sentinel.ErrNotFound
	}
	clone := *replica
	s.replicas[key] = &clone
	return nil
}

// List returns replicas in creation order, which preserves the
// parent-before-child ordering the sync engine writes them in.
func (s *InMemoryReplicaStore) List(_ context.Context, tenantID id.TenantID, country id.CountryCode) ([]*models.TenantReplicaUnit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	type entry struct {
		replica *models.TenantReplicaUnit
		seq     int64
	}
	var entries []entry
	for key, replica := range s.replicas {
		if replica.TenantID == tenantID && replica.CountryCode == country {
			clone := *replica
			entries = append(entries, entry{&clone, s.order[key]})
		}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].seq < entries[j].seq })
	out := make([]*models.TenantReplicaUnit, len(entries))
	for i, e := range entries {
		out[i] = e.replica
	}
	return out, nil
}

func (s *InMemoryReplicaStore) CountCustom(_ context.Context, tenantID id.TenantID, country id.CountryCode) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for _, replica := range s.replicas {
		if replica.TenantID == tenantID && replica.CountryCode == country && !replica.IsOfficial {
			count++
		}
	}
	return count, nil
}

type cursorKey struct {
	tenantID id.TenantID
	country  id.CountryCode
}

// InMemoryCursorStore backs unit tests and small deployments.
type InMemoryCursorStore struct {
	mu      sync.RWMutex
	cursors map[cursorKey]*models.TenantSyncCursor
}

func NewInMemoryCursorStore() *InMemoryCursorStore {
	return &InMemoryCursorStore{cursors: make(map[cursorKey]*models.TenantSyncCursor)}
}

func (s *InMemoryCursorStore) Get(_ context.Context, tenantID id.TenantID, country id.CountryCode) (*models.TenantSyncCursor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cursor, ok := s.cursors[cursorKey{tenantID, country}]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	clone := *cursor
	return &clone, nil
}

func (s *InMemoryCursorStore) Put(_ context.Context, cursor *models.TenantSyncCursor) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := *cursor
	s.cursors[cursorKey{cursor.TenantID, cursor.CountryCode}] = &clone
	return nil
}
