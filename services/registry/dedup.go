package registry

// Store deduplicates movements within one run. It is owned by a single
// orchestrator invocation and mutated only by it, so there is no locking.
type Store struct {
	seen      map[string]struct{}
	movements []*Movement
}

func NewStore() *Store {
	return &Store{seen: map[string]struct{}{}}
}

// AddIfNew retains the movement and returns true only when no structurally
// equal movement is already retained. Insertion order is preserved.
func (s *Store) AddIfNew(m *Movement) bool {
	key := m.Key()
	if _, ok := s.seen[key]; ok {
		return false
	}
	s.seen[key] = struct{}{}
	s.movements = append(s.movements, m)
	return true
}

// Movements returns the retained movements in insertion order.
func (s *Store) Movements() []*Movement {
	return s.movements
}
