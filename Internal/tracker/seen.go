package tracker

import (
	"sort"
	"sync"
)

// Seen remembers the identifiers of items that were already scored so
// repeated polling does not process them twice. It never evicts.
type Seen struct {
	mu  sync.RWMutex
	ids map[string]struct{}
}

func NewSeen() *Seen {
	return &Seen{ids: make(map[string]struct{})}
}

// Load builds a set from persisted identifiers. Blank identifiers are dropped.
func Load(ids []string) *Seen {
	s := NewSeen()
	for _, id := range ids {
		if id != "" {
			s.ids[id] = struct{}{}
		}
	}
	return s
}

func (s *Seen) IsNew(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.ids[id]
	return !ok
}

func (s *Seen) MarkSeen(id string) {
	s.mu.Lock()
	s.ids[id] = struct{}{}
	s.mu.Unlock()
}

func (s *Seen) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.ids)
}

// IDs returns every identifier in sorted order.
func (s *Seen) IDs() []string {
	s.mu.RLock()
	out := make([]string, 0, len(s.ids))
	for id := range s.ids {
		out = append(out, id)
	}
	s.mu.RUnlock()
	sort.Strings(out)
	return out
}

// Snapshot and Restore let a failed cycle roll back its marks.
func (s *Seen) Snapshot() []string {
	return s.IDs()
}

func (s *Seen) Restore(ids []string) {
	restored := Load(ids)
	s.mu.Lock()
	s.ids = restored.ids
	s.mu.Unlock()
}
