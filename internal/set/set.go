// Package set implements a minimal map-backed set.
package set

// Set holds an unordered collection of unique values. The zero value
// is not usable; make one with New or make.
type Set[T comparable] map[T]struct{}

func New[T comparable](vals ...T) Set[T] {
	s := make(Set[T], len(vals))
	for _, v := range vals {
		s[v] = struct{}{}
	}
	return s
}

func (s Set[T]) Add(v T)    { s[v] = struct{}{} }
func (s Set[T]) Delete(v T) { delete(s, v) }

func (s Set[T]) Has(v T) bool {
	_, ok := s[v]
	return ok
}
