package policy

import (
	"fmt"
	"sync"

	"trinogate/internal/domain"
)

// Store holds the in-memory policy snapshot evaluated against requests.
// Writes swap whole policy sets; reads take a shared lock, so concurrent
// evaluation never blocks on other readers.
type Store struct {
	mu          sync.RWMutex
	access      []AccessPolicy
	rowFilters  []RowFilterPolicy
	dataMasks   []DataMaskPolicy
	maskTypes   map[string]domain.MaskTypeDef
}

// NewStore creates an empty policy store.
func NewStore() *Store {
	return &Store{maskTypes: map[string]domain.MaskTypeDef{}}
}

// Replace installs a complete new policy snapshot.
func (s *Store) Replace(access []AccessPolicy, rowFilters []RowFilterPolicy, dataMasks []DataMaskPolicy, maskTypes map[string]domain.MaskTypeDef) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.access = access
	s.rowFilters = rowFilters
	s.dataMasks = dataMasks
	if maskTypes == nil {
		maskTypes = map[string]domain.MaskTypeDef{}
	}
	s.maskTypes = maskTypes
}

// AddAccessPolicy registers a new access policy. Returns an error if a
// policy with the same name already exists.
func (s *Store) AddAccessPolicy(p AccessPolicy) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.access {
		if existing.Name == p.Name {
			return fmt.Errorf("access policy %q already exists", p.Name)
		}
	}
	s.access = append(s.access, p)
	return nil
}

// AccessPolicies returns a copy of the current access policy set.
func (s *Store) AccessPolicies() []AccessPolicy {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]AccessPolicy, len(s.access))
	copy(out, s.access)
	return out
}

// RowFilterPolicies returns a copy of the current row filter policy set.
func (s *Store) RowFilterPolicies() []RowFilterPolicy {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]RowFilterPolicy, len(s.rowFilters))
	copy(out, s.rowFilters)
	return out
}

// DataMaskPolicies returns a copy of the current data mask policy set.
func (s *Store) DataMaskPolicies() []DataMaskPolicy {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]DataMaskPolicy, len(s.dataMasks))
	copy(out, s.dataMasks)
	return out
}

// MaskTypeDef returns the definition of the named mask type, or nil when
// the type has no stored definition (the NULL and CUSTOM sentinels).
func (s *Store) MaskTypeDef(name string) *domain.MaskTypeDef {
	s.mu.RLock()
	defer s.mu.RUnlock()
	def, ok := s.maskTypes[name]
	if !ok {
		return nil
	}
	return &def
}
