package scene

import "slices"

// idSet is an insertion-ordered set of node IDs. Iteration order drives
// evaluation order, so it must be deterministic.
type idSet struct {
	order []ID
	index map[ID]int
}

func (s *idSet) Has(id ID) bool {
	_, ok := s.index[id]
	return ok
}

func (s *idSet) Len() int { return len(s.order) }

// Add appends id and reports whether it was missing.
func (s *idSet) Add(id ID) bool {
	if s.Has(id) {
		return false
	}
	if s.index == nil {
		s.index = make(map[ID]int)
	}
	s.index[id] = len(s.order)
	s.order = append(s.order, id)
	return true
}

// Remove deletes id and reports whether it was present.
func (s *idSet) Remove(id ID) bool {
	i, ok := s.index[id]
	if !ok {
		return false
	}
	s.order = slices.Delete(s.order, i, i+1)
	delete(s.index, id)
	for j := i; j < len(s.order); j++ {
		s.index[s.order[j]] = j
	}
	return true
}

// Slice returns a copy of the IDs in insertion order.
func (s *idSet) Slice() []ID {
	return slices.Clone(s.order)
}

// Sorted returns a copy of the IDs in lexical order.
func (s *idSet) Sorted() []ID {
	out := slices.Clone(s.order)
	slices.Sort(out)
	return out
}

func (s *idSet) Clear() {
	s.order = nil
	s.index = nil
}
