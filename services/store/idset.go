package store

import (
	"math/big"
	"sort"
)

// IDSet is a set of listing ids
type IDSet map[string]struct{}

// NewIDSet creates a set holding ids
func NewIDSet(ids ...string) IDSet {
	s := make(IDSet, len(ids))
	for _, id := range ids {
		s.Add(id)
	}
	return s
}

// Add inserts id
func (s IDSet) Add(id string) {
	s[id] = struct{}{}
}

// Contains reports whether id is in the set
func (s IDSet) Contains(id string) bool {
	_, ok := s[id]
	return ok
}

// Union returns a new set holding the ids of s and other
func (s IDSet) Union(other IDSet) IDSet {
	out := make(IDSet, len(s)+len(other))
	for id := range s {
		out.Add(id)
	}
	for id := range other {
		out.Add(id)
	}
	return out
}

// Difference returns the ids of s that are not in other
func (s IDSet) Difference(other IDSet) IDSet {
	out := make(IDSet)
	for id := range s {
		if !other.Contains(id) {
			out.Add(id)
		}
	}
	return out
}

// IsSuperset reports whether every id of other is in s
func (s IDSet) IsSuperset(other IDSet) bool {
	for id := range other {
		if !s.Contains(id) {
			return false
		}
	}
	return true
}

// Sorted returns the ids in ascending numeric order. Ids that are not
// integers sort after the numeric ones, lexically.
func (s IDSet) Sorted() []string {
	ids := make([]string, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		return lessNumeric(ids[i], ids[j])
	})
	return ids
}

func lessNumeric(a, b string) bool {
	na, okA := new(big.Int).SetString(a, 10)
	nb, okB := new(big.Int).SetString(b, 10)
	switch {
	case okA && okB:
		if c := na.Cmp(nb); c != 0 {
			return c < 0
		}
		return a < b
	case okA:
		return true
	case okB:
		return false
	default:
		return a < b
	}
}
