package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"gazetteer/internal/geo/models"
	id "gazetteer/pkg/domain"
	"gazetteer/pkg/platform/sentinel"
)

// InMemoryUnitStore keeps the canonical units in process. It backs unit
// tests and small deployments; the postgres store is the production path.
type InMemoryUnitStore struct {
	mu     sync.RWMutex
	units  map[id.UnitID]*models.AdministrativeUnit
	nextID id.UnitID
}

func NewInMemoryUnitStore() *InMemoryUnitStore {
	return &InMemoryUnitStore{units: make(map[id.UnitID]*models.AdministrativeUnit)}
}

func (s *InMemoryUnitStore) NextID(_ context.Context) (id.UnitID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	for _, exists := s.units[s.nextID]; exists; _, exists = s.units[s.nextID] {
		s.nextID++
	}
	return s.nextID, nil
}

func (s *InMemoryUnitStore) Create(_ context.Context, unit *models.AdministrativeUnit) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.units[unit.ID]; exists {
		return sentinel.ErrConflict
	}
	s.units[unit.ID] = cloneUnit(unit)
	return nil
}

func (s *InMemoryUnitStore) FindByID(_ context.Context, unitID id.UnitID) (*models.AdministrativeUnit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	unit, ok := s.units[unitID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return cloneUnit(unit), nil
}

func (s *InMemoryUnitStore) IsChildOf(_ context.Context, childID, parentID id.UnitID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	child, ok := s.units[childID]
	if !ok {
		return false, sentinel.ErrNotFound
	}
	return child.ParentID == parentID, nil
}

func (s *InMemoryUnitStore) FindChildren(_ context.Context, parentID id.UnitID) ([]*models.AdministrativeUnit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.AdministrativeUnit
	for _, unit := range s.units {
		if unit.ParentID == parentID {
			out = append(out, cloneUnit(unit))
		}
	}
	sortUnits(out)
	return out, nil
}

func (s *InMemoryUnitStore) FindUnitsAtLevel(_ context.Context, country id.CountryCode, ordinal int, parentID id.UnitID) ([]*models.AdministrativeUnit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.AdministrativeUnit
	for _, unit := range s.units {
		if !unit.Active || unit.CountryCode != country || unit.Ordinal != ordinal {
			continue
		}
		if parentID.IsValid() && unit.ParentID != parentID {
			continue
		}
		out = append(out, cloneUnit(unit))
	}
	sortUnits(out)
	return out, nil
}

func (s *InMemoryUnitStore) ListActive(_ context.Context, country id.CountryCode, changedSince time.Time) ([]*models.AdministrativeUnit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.AdministrativeUnit
	for _, unit := range s.units {
		if !unit.Active || unit.CountryCode != country {
			continue
		}
		if !changedSince.IsZero() && unit.UpdatedAt.Before(changedSince) {
			continue
		}
		out = append(out, cloneUnit(unit))
	}
	sortUnits(out)
	return out, nil
}

func (s *InMemoryUnitStore) Execute(_ context.Context, unitID id.UnitID, validate func(*models.AdministrativeUnit) error, mutate func(*models.AdministrativeUnit)) (*models.AdministrativeUnit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	unit, ok := s.units[unitID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if err := validate(unit); err != nil {
		return nil, err
	}
	mutate(unit)
	return cloneUnit(unit), nil
}

// sortUnits orders parents before children: ordinal ascending, then id.
func sortUnits(units []*models.AdministrativeUnit) {
	sort.Slice(units, func(i, j int) bool {
		if units[i].Ordinal != units[j].Ordinal {
			return units[i].Ordinal < units[j].Ordinal
		}
		return units[i].ID < units[j].ID
	})
}

func cloneUnit(unit *models.AdministrativeUnit) *models.AdministrativeUnit {
	out := *unit
	if unit.Names != nil {
		out.Names = make(map[string]string, len(unit.Names))
		for lang, name := range unit.Names {
			out.Names[lang] = name
		}
	}
	return &out
}

// InMemoryDescriptorStore keeps hierarchy descriptors in process.
type InMemoryDescriptorStore struct {
	mu          sync.RWMutex
	descriptors map[id.CountryCode]*models.HierarchyDescriptor
}

func NewInMemoryDescriptorStore() *InMemoryDescriptorStore {
	return &InMemoryDescriptorStore{descriptors: make(map[id.CountryCode]*models.HierarchyDescriptor)}
}

func (s *InMemoryDescriptorStore) Get(_ context.Context, country id.CountryCode) (*models.HierarchyDescriptor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	descriptor, ok := s.descriptors[country]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return cloneDescriptor(descriptor), nil
}

func (s *InMemoryDescriptorStore) Put(_ context.Context, descriptor *models.HierarchyDescriptor) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.descriptors[descriptor.CountryCode] = cloneDescriptor(descriptor)
	return nil
}

func (s *InMemoryDescriptorStore) Countries(_ context.Context) ([]id.CountryCode, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]id.CountryCode, 0, len(s.descriptors))
	for country := range s.descriptors {
		out = append(out, country)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

func cloneDescriptor(d *models.HierarchyDescriptor) *models.HierarchyDescriptor {
	levels := make([]models.LevelDescriptor, len(d.Levels))
	copy(levels, d.Levels)
	return &models.HierarchyDescriptor{CountryCode: d.CountryCode, Levels: levels}
}
